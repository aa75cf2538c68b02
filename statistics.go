package main

import (
	"math"
	"slices"
)

// Bands holds the per-year median and percentile envelope of one metric
type Bands struct {
	Median         []float64 `json:"median"`
	Low            []float64 `json:"low"`
	High           []float64 `json:"high"`
	LowPercentile  float64   `json:"low_percentile"`
	HighPercentile float64   `json:"high_percentile"`
}

// Quantile returns the p-quantile (0..1) of sorted values using linear interpolation
// between order statistics, the same estimator as d3.quantile and R's type 7.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 || math.IsNaN(p) {
		return math.NaN()
	}
	if p <= 0 || n < 2 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	i := float64(n-1) * p
	i0 := int(math.Floor(i))
	value0 := sorted[i0]
	value1 := sorted[i0+1]
	return value0 + (value1-value0)*(i-float64(i0))
}

// Median returns the median of values without modifying them
func Median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return Quantile(sorted, 0.5)
}

// Aggregate transposes samples by year and computes the median and the low/high
// percentile (0..100) of the extracted metric for every year.
func Aggregate(samples SampleSet, extract Extractor, lowPercentile, highPercentile float64) Bands {
	years := samples.Years()
	bands := Bands{
		Median:         make([]float64, years),
		Low:            make([]float64, years),
		High:           make([]float64, years),
		LowPercentile:  lowPercentile,
		HighPercentile: highPercentile,
	}

	values := make([]float64, len(samples))
	for year := 0; year < years; year++ {
		for i, trajectory := range samples {
			values[i] = extract(trajectory[year])
		}
		slices.Sort(values)
		bands.Median[year] = Quantile(values, 0.5)
		bands.Low[year] = Quantile(values, lowPercentile/100)
		bands.High[year] = Quantile(values, highPercentile/100)
	}

	return bands
}

// FinalValues extracts the metric from the last snapshot of every sample
func FinalValues(samples SampleSet, extract Extractor) []float64 {
	values := make([]float64, len(samples))
	for i, trajectory := range samples {
		values[i] = extract(trajectory.Final())
	}
	return values
}

// FinalSummary holds the medians of the last simulated year
type FinalSummary struct {
	Scenario         string  `json:"scenario"`
	Strategy         string  `json:"strategy"`
	Years            int     `json:"years"`
	CorrectInflation bool    `json:"correct_inflation"`
	HouseValue       float64 `json:"house_value"`
	Salary           float64 `json:"salary"`
	PostTaxWealth    float64 `json:"post_tax_wealth"`
	WealthLow        float64 `json:"wealth_low"`
	WealthHigh       float64 `json:"wealth_high"`
	Rent             float64 `json:"rent"`
	StockISA         float64 `json:"stock_isa"`
	StockNonISA      float64 `json:"stock_non_isa"`
	MortgageBalance  float64 `json:"mortgage_balance"`
	MoneySpent       float64 `json:"money_spent"`
	BankruptFraction float64 `json:"bankrupt_fraction"`
}

// SummariseFinalYear computes the final-year medians shown in the summary table
func SummariseFinalYear(scenario Scenario, samples SampleSet, lowPercentile, highPercentile float64, correctInflation bool) FinalSummary {
	cgt := scenario.Policy.Rules.CapitalGains
	median := func(m Metric) float64 {
		return Median(FinalValues(samples, m.Func(cgt, correctInflation)))
	}

	wealth := FinalValues(samples, MetricPostTaxWealth.Func(cgt, correctInflation))
	slices.Sort(wealth)

	summary := FinalSummary{
		Scenario:         scenario.Name,
		Strategy:         scenario.Strategy().String(),
		Years:            max(samples.Years()-1, 0),
		CorrectInflation: correctInflation,
		HouseValue:       median(MetricHouseValue),
		Salary:           median(MetricSalary),
		PostTaxWealth:    Quantile(wealth, 0.5),
		WealthLow:        Quantile(wealth, lowPercentile/100),
		WealthHigh:       Quantile(wealth, highPercentile/100),
		Rent:             median(MetricRent),
		StockISA:         median(MetricStockISA),
		StockNonISA:      median(MetricStockNonISA),
		MortgageBalance:  median(MetricMortgageBalance),
		MoneySpent:       median(MetricMoneySpent),
	}

	if len(samples) > 0 {
		bankrupt := 0
		for _, trajectory := range samples {
			if trajectory.Final().Bankrupt {
				bankrupt++
			}
		}
		summary.BankruptFraction = float64(bankrupt) / float64(len(samples))
	}

	return summary
}
