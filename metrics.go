package main

import (
	"fmt"
	"strings"
)

// Metric identifies a scalar extracted from a FinancialSituation
type Metric int

const (
	MetricPostTaxWealth Metric = iota
	MetricHouseValue
	MetricCash
	MetricStockISA
	MetricStockNonISA
	MetricPostTaxStocks
	MetricMortgageBalance
	MetricSalary
	MetricRent
	MetricMoneySpent
)

// AllMetrics lists every metric in report order
var AllMetrics = []Metric{
	MetricPostTaxWealth,
	MetricHouseValue,
	MetricCash,
	MetricStockISA,
	MetricStockNonISA,
	MetricPostTaxStocks,
	MetricMortgageBalance,
	MetricSalary,
	MetricRent,
	MetricMoneySpent,
}

func (m Metric) String() string {
	switch m {
	case MetricPostTaxWealth:
		return "Post-tax Wealth"
	case MetricHouseValue:
		return "House Value"
	case MetricCash:
		return "Cash"
	case MetricStockISA:
		return "Stocks (ISA)"
	case MetricStockNonISA:
		return "Stocks (non-ISA)"
	case MetricPostTaxStocks:
		return "Post-tax Stocks"
	case MetricMortgageBalance:
		return "Mortgage Balance"
	case MetricSalary:
		return "Salary (monthly)"
	case MetricRent:
		return "Rent (monthly)"
	case MetricMoneySpent:
		return "Money Spent"
	default:
		return "Unknown"
	}
}

// Key returns the identifier used in config files, CSV headers and the API
func (m Metric) Key() string {
	switch m {
	case MetricPostTaxWealth:
		return "post_tax_wealth"
	case MetricHouseValue:
		return "house_value"
	case MetricCash:
		return "cash"
	case MetricStockISA:
		return "stock_isa"
	case MetricStockNonISA:
		return "stock_non_isa"
	case MetricPostTaxStocks:
		return "post_tax_stocks"
	case MetricMortgageBalance:
		return "mortgage_balance"
	case MetricSalary:
		return "salary"
	case MetricRent:
		return "rent"
	case MetricMoneySpent:
		return "money_spent"
	default:
		return "unknown"
	}
}

// ParseMetric converts a metric key (or display name) into a Metric
func ParseMetric(s string) (Metric, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	for _, m := range AllMetrics {
		if m.Key() == normalized {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown metric %q", s)
}

// Extractor maps a snapshot to one number
type Extractor func(FinancialSituation) float64

// Func returns the extraction function for m, optionally in year-0 money
func (m Metric) Func(cgt CapitalGainsRules, correctInflation bool) Extractor {
	return func(fs FinancialSituation) float64 {
		return m.Extract(fs, cgt, correctInflation)
	}
}

// Extract computes metric m for one snapshot
func (m Metric) Extract(fs FinancialSituation, cgt CapitalGainsRules, correctInflation bool) float64 {
	switch m {
	case MetricPostTaxWealth:
		return PostTaxWealth(fs, cgt, correctInflation)
	case MetricHouseValue:
		return HouseValue(fs, correctInflation)
	case MetricCash:
		return CashValue(fs, correctInflation)
	case MetricStockISA:
		return StockISAValue(fs, correctInflation)
	case MetricStockNonISA:
		return StockNonISAValue(fs, correctInflation)
	case MetricPostTaxStocks:
		return PostTaxStocksValue(fs, cgt, correctInflation)
	case MetricMortgageBalance:
		return MortgageBalance(fs, correctInflation)
	case MetricSalary:
		return Salary(fs, correctInflation)
	case MetricRent:
		return Rent(fs, correctInflation)
	case MetricMoneySpent:
		return MoneySpent(fs, correctInflation)
	default:
		return 0
	}
}

func deflate(value float64, fs FinancialSituation, correctInflation bool) float64 {
	if correctInflation && fs.CumulativeInflation > 0 {
		return value / fs.CumulativeInflation
	}
	return value
}

// HouseValue returns the market value of the home
func HouseValue(fs FinancialSituation, correctInflation bool) float64 {
	return deflate(fs.HouseValue, fs, correctInflation)
}

// CashValue returns uninvested cash
func CashValue(fs FinancialSituation, correctInflation bool) float64 {
	return deflate(fs.CashValue, fs, correctInflation)
}

// StockISAValue returns the ISA pot
func StockISAValue(fs FinancialSituation, correctInflation bool) float64 {
	return deflate(fs.StockISAValue, fs, correctInflation)
}

// StockNonISAValue returns the general investment pot before tax
func StockNonISAValue(fs FinancialSituation, correctInflation bool) float64 {
	return deflate(fs.StockNonISAValue, fs, correctInflation)
}

// PostTaxStocksValue returns both stock pots less the tax due on unrealised gains
func PostTaxStocksValue(fs FinancialSituation, cgt CapitalGainsRules, correctInflation bool) float64 {
	value := fs.StockISAValue + fs.StockNonISAValue - UnrealisedCapitalGainsTax(fs, cgt)
	return deflate(value, fs, correctInflation)
}

// PostTaxWealth returns net worth if everything were sold today
func PostTaxWealth(fs FinancialSituation, cgt CapitalGainsRules, correctInflation bool) float64 {
	value := fs.HouseValue + fs.CashValue + fs.StockISAValue + fs.StockNonISAValue -
		fs.MortgageBalance - UnrealisedCapitalGainsTax(fs, cgt)
	return deflate(value, fs, correctInflation)
}

// MortgageBalance returns the outstanding mortgage
func MortgageBalance(fs FinancialSituation, correctInflation bool) float64 {
	return deflate(fs.MortgageBalance, fs, correctInflation)
}

// Salary returns monthly take-home pay
func Salary(fs FinancialSituation, correctInflation bool) float64 {
	return deflate(fs.Salary, fs, correctInflation)
}

// Rent returns the monthly rent
func Rent(fs FinancialSituation, correctInflation bool) float64 {
	return deflate(fs.Rent, fs, correctInflation)
}

// MoneySpent returns cumulative unrecoverable spending
func MoneySpent(fs FinancialSituation, correctInflation bool) float64 {
	return deflate(fs.MoneySpent, fs, correctInflation)
}
