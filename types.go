package main

import (
	"fmt"
	"strings"
)

// Strategy represents the housing strategy a scenario follows
type Strategy int

const (
	StrategyBuy  Strategy = iota // Buy a home with a mortgage at year 0
	StrategyRent                 // Rent and invest the difference
)

func (s Strategy) String() string {
	switch s {
	case StrategyBuy:
		return "Buy"
	case StrategyRent:
		return "Rent"
	default:
		return "Unknown"
	}
}

// DistributionKind selects how growth multipliers are drawn
type DistributionKind int

const (
	LogNormalDistribution DistributionKind = iota // exp(N(mean/100, sd/100)), the web app's model
	NormalDistribution                            // 1 + N(mean, sd)/100
)

func (k DistributionKind) String() string {
	switch k {
	case LogNormalDistribution:
		return "lognormal"
	case NormalDistribution:
		return "normal"
	default:
		return "unknown"
	}
}

// ParseDistributionKind converts a config string into a DistributionKind
func ParseDistributionKind(s string) (DistributionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lognormal", "log-normal", "log_normal":
		return LogNormalDistribution, nil
	case "normal", "gaussian":
		return NormalDistribution, nil
	default:
		return 0, fmt.Errorf("unknown distribution kind %q", s)
	}
}

// ServiceChargeMode says whether the service charge is a flat amount or a share of the house value
type ServiceChargeMode int

const (
	ServiceChargeRate ServiceChargeMode = iota // Percent of house value per year
	ServiceChargeFlat                          // Fixed amount per year
)

func (m ServiceChargeMode) String() string {
	switch m {
	case ServiceChargeRate:
		return "rate"
	case ServiceChargeFlat:
		return "flat"
	default:
		return "unknown"
	}
}

// ParseServiceChargeMode converts a config string into a ServiceChargeMode
func ParseServiceChargeMode(s string) (ServiceChargeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rate", "percent", "percentage":
		return ServiceChargeRate, nil
	case "flat", "fixed":
		return ServiceChargeFlat, nil
	default:
		return 0, fmt.Errorf("unknown service charge mode %q", s)
	}
}

// Distribution describes a growth rate in percent units, e.g. {Mean: 2.7, StdDev: 3.7}
type Distribution struct {
	Mean   float64 `yaml:"mean" json:"mean"`
	StdDev float64 `yaml:"std_dev" json:"std_dev"`
	Preset string  `yaml:"preset,omitempty" json:"preset,omitempty"` // Named historical distribution, see presets.go
}

func (d Distribution) String() string {
	return fmt.Sprintf("%.1f%% ± %.1f%%", d.Mean, d.StdDev)
}

// FinancialSituation is the household's position at the end of one simulated year.
// Snapshots are passed by value; a transition never modifies its input.
type FinancialSituation struct {
	HouseValue           float64 `json:"house_value"`
	CashValue            float64 `json:"cash_value"`
	Salary               float64 `json:"salary"` // Monthly take-home pay
	Rent                 float64 `json:"rent"`   // Monthly rent
	StockISAValue        float64 `json:"stock_isa_value"`
	StockNonISAValue     float64 `json:"stock_non_isa_value"`
	StockNonISAValuePaid float64 `json:"stock_non_isa_value_paid"` // Cost basis of the non-ISA pot
	MortgageBalance      float64 `json:"mortgage_balance"`
	MoneySpent           float64 `json:"money_spent"` // Unrecoverable spending: interest, rent, fees, taxes
	CumulativeInflation  float64 `json:"cumulative_inflation"`
	YearNumber           int     `json:"year_number"`
	Bankrupt             bool    `json:"bankrupt"`
}

// YearDraws holds one year's growth multipliers before they are composed by Rules
type YearDraws struct {
	Inflation float64
	Salary    float64
	Stock     float64
	House     float64
	Rent      float64
}

// NoGrowth returns draws that leave every value unchanged
func NoGrowth() YearDraws {
	return YearDraws{Inflation: 1, Salary: 1, Stock: 1, House: 1, Rent: 1}
}

// GrowthFactors are the multipliers actually applied in one transition
type GrowthFactors struct {
	Inflation float64
	Salary    float64
	Stock     float64
	House     float64
	Rent      float64
}

// MortgageStage holds the terms of one fixed-rate period
type MortgageStage struct {
	InterestRate   float64 `json:"interest_rate"`   // Annual rate in percent
	MonthlyPayment float64 `json:"monthly_payment"` // Scheduled monthly payment
}

// CapitalGainsRules configures tax on realised and unrealised non-ISA gains
type CapitalGainsRules struct {
	Enabled   bool
	Allowance float64 // Annual exempt amount
	Rate      float64 // Percent
}

// Rules are the tax and modelling switches shared by every transition
type Rules struct {
	ISAAllowance        float64
	BankruptcyTolerance float64 // Cash may dip this far below zero before insolvency
	CapitalGains        CapitalGainsRules
	ModelInflation      bool // When off the inflation multiplier is forced to 1
	RatesOverInflation  bool // Salary, stock and house draws are real rates on top of inflation
	RentCoupledToHouse  bool // Rent draw is growth over house price growth
}

// DefaultRules returns the 2024/25 UK allowances with every modelling switch on
func DefaultRules() Rules {
	return Rules{
		ISAAllowance:        defaultISAAllowance,
		BankruptcyTolerance: defaultBankruptcyTolerance,
		CapitalGains: CapitalGainsRules{
			Enabled:   true,
			Allowance: defaultCapitalGainsAllowance,
			Rate:      defaultCapitalGainsRate,
		},
		ModelInflation:     true,
		RatesOverInflation: true,
		RentCoupledToHouse: true,
	}
}

// Growth composes raw draws into the multipliers a transition applies.
// Draws are consumed even when a switch ignores them so that streams stay aligned.
func (r Rules) Growth(d YearDraws) GrowthFactors {
	inflation := d.Inflation
	if !r.ModelInflation {
		inflation = 1
	}

	f := GrowthFactors{
		Inflation: inflation,
		Salary:    d.Salary,
		Stock:     d.Stock,
		House:     d.House,
		Rent:      d.Rent,
	}
	if r.RatesOverInflation {
		f.Salary *= inflation
		f.Stock *= inflation
		f.House *= inflation
	}
	if r.RentCoupledToHouse {
		f.Rent *= f.House
	} else if r.RatesOverInflation {
		f.Rent *= inflation
	}
	return f
}

// Policy is everything a transition needs besides the prior snapshot and the draws
type Policy struct {
	IsBuying          bool
	Mortgage          MortgageStage // Terms for the year being simulated
	MortgageOverpay   bool
	GroundRent        float64 // Per year
	ServiceCharge     float64 // Percent of house value or flat amount, see ServiceChargeMode
	ServiceChargeMode ServiceChargeMode
	HomeInsurance     float64 // Per year
	MaintenanceRate   float64 // Percent of house value per year
	Rules             Rules
}

// PurchaseParams are the year-0 inputs of a scenario
type PurchaseParams struct {
	IsBuying       bool
	HousePrice     float64
	Cash           float64
	Salary         float64 // Monthly
	Rent           float64 // Monthly
	Mortgage       float64 // Principal borrowed
	BuyingCosts    float64 // Fees other than stamp duty
	FirstTimeBuyer bool
}

// Distributions groups the five stochastic inputs of a scenario
type Distributions struct {
	Inflation         Distribution `yaml:"inflation" json:"inflation"`
	HouseAppreciation Distribution `yaml:"house_appreciation" json:"house_appreciation"`
	StockAppreciation Distribution `yaml:"stock_appreciation" json:"stock_appreciation"`
	SalaryGrowth      Distribution `yaml:"salary_growth" json:"salary_growth"`
	RentGrowth        Distribution `yaml:"rent_growth" json:"rent_growth"`
}

// Scenario is one fully resolved strategy, ready to simulate
type Scenario struct {
	Name          string
	Purchase      PurchaseParams
	Policy        Policy
	Stage1Length  int // Years on stage 1 terms
	Stage1        MortgageStage
	Stage2        MortgageStage
	Distributions Distributions
}

// Strategy reports whether the scenario buys or rents
func (s Scenario) Strategy() Strategy {
	if s.Purchase.IsBuying {
		return StrategyBuy
	}
	return StrategyRent
}

// MortgageForYear returns the stage terms for a 1-based simulation year
func (s Scenario) MortgageForYear(year int) MortgageStage {
	if year <= s.Stage1Length {
		return s.Stage1
	}
	return s.Stage2
}

// Trajectory is one sample path; index i holds the snapshot for year i
type Trajectory []FinancialSituation

// Final returns the last snapshot of the trajectory
func (t Trajectory) Final() FinancialSituation {
	if len(t) == 0 {
		return FinancialSituation{}
	}
	return t[len(t)-1]
}

// SampleSet holds every trajectory of one scenario
type SampleSet []Trajectory

// Years returns the number of snapshots per trajectory
func (s SampleSet) Years() int {
	if len(s) == 0 {
		return 0
	}
	return len(s[0])
}
