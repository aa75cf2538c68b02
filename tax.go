package main

import (
	"math"
)

// Stamp Duty Land Tax thresholds for residential purchases in England (from April 2025)
const (
	stampDutyNilRateThreshold        = 250000.0
	stampDutyFirstTimeBuyerThreshold = 425000.0
	stampDutyHigherRateThreshold     = 925000.0
	stampDutyAdditionalRateThreshold = 1500000.0
	stampDutyBasicRate               = 5.0
	stampDutyHigherRate              = 10.0
	stampDutyAdditionalRate          = 12.0
	defaultCapitalGainsAllowance     = 3000.0
	defaultCapitalGainsRate          = 20.0
	defaultISAAllowance              = 20000.0
	defaultBankruptcyTolerance       = 1.0
)

// StampDutyBands returns the stamp duty bands; rates are in percent.
// First-time buyers get a higher nil-rate threshold.
func StampDutyBands(firstTimeBuyer bool) []TaxBand {
	nilRate := stampDutyNilRateThreshold
	if firstTimeBuyer {
		nilRate = stampDutyFirstTimeBuyerThreshold
	}
	return []TaxBand{
		{Name: "Nil Rate", Lower: 0, Upper: nilRate, Rate: 0},
		{Name: "Basic Rate", Lower: nilRate, Upper: stampDutyHigherRateThreshold, Rate: stampDutyBasicRate},
		{Name: "Higher Rate", Lower: stampDutyHigherRateThreshold, Upper: stampDutyAdditionalRateThreshold, Rate: stampDutyHigherRate},
		{Name: "Additional Rate", Lower: stampDutyAdditionalRateThreshold, Upper: math.Inf(1), Rate: stampDutyAdditionalRate},
	}
}

// ComputeStampDuty calculates the stamp duty due on a house purchase
func ComputeStampDuty(housePrice float64, firstTimeBuyer bool) float64 {
	return CalculateBandedTax(housePrice, StampDutyBands(firstTimeBuyer))
}

// CalculateBandedTax walks ordered bands and charges each slice of amount at its band's rate.
// Band rates are in percent.
func CalculateBandedTax(amount float64, bands []TaxBand) float64 {
	if amount <= 0 || math.IsNaN(amount) {
		return 0
	}

	var totalTax float64

	for _, band := range bands {
		if amount <= band.Lower {
			break
		}

		taxableInBand := math.Min(amount, band.Upper) - band.Lower
		if taxableInBand > 0 {
			totalTax += taxableInBand * band.Rate / 100
		}
	}

	return totalTax
}

// GetMarginalRate returns the percent rate charged on the next pound above amount
func GetMarginalRate(amount float64, bands []TaxBand) float64 {
	for _, band := range bands {
		if amount < band.Upper {
			return band.Rate
		}
	}
	if len(bands) > 0 {
		return bands[len(bands)-1].Rate
	}
	return 0
}

// ComputeCapitalGainsTax returns the tax due on a realised gain after the annual allowance
func ComputeCapitalGainsTax(gain float64, rules CapitalGainsRules) float64 {
	if !rules.Enabled {
		return 0
	}
	return math.Max(gain-rules.Allowance, 0) * rules.Rate / 100
}

// UnrealisedCapitalGainsTax returns the tax that selling the whole non-ISA pot would incur
func UnrealisedCapitalGainsTax(fs FinancialSituation, rules CapitalGainsRules) float64 {
	return ComputeCapitalGainsTax(fs.StockNonISAValue-fs.StockNonISAValuePaid, rules)
}
