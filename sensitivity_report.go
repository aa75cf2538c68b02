package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// SensitivityResult holds the result of a single growth rate combination
type SensitivityResult struct {
	HouseGrowth  float64 `json:"house_growth"`
	StockGrowth  float64 `json:"stock_growth"`
	BuyWealth    float64 `json:"buy_wealth"`    // Median final post-tax wealth of the buying scenario
	RentWealth   float64 `json:"rent_wealth"`   // Median final post-tax wealth of the renting scenario
	Advantage    float64 `json:"advantage"`     // BuyWealth - RentWealth
	BuyBankrupt  float64 `json:"buy_bankrupt"`  // Fraction of buying samples that went bankrupt
	RentBankrupt float64 `json:"rent_bankrupt"` // Fraction of renting samples that went bankrupt
}

// SensitivityAnalysis holds the complete analysis
type SensitivityAnalysis struct {
	Results          [][]SensitivityResult `json:"results"` // [houseIdx][stockIdx]
	HouseGrowthRates []float64             `json:"house_growth_rates"`
	StockGrowthRates []float64             `json:"stock_growth_rates"`
	NumSamples       int                   `json:"num_samples"`
	CorrectInflation bool                  `json:"correct_inflation"`
}

// buildGrowthRates generates a slice of growth rates from min to max with given step
func buildGrowthRates(min, max, step float64) []float64 {
	var rates []float64
	for r := min; r <= max+0.0001; r += step { // small epsilon for float comparison
		rates = append(rates, r)
	}
	return rates
}

// withGrowthMeans returns a copy of the config whose scenarios use the given mean
// house and stock appreciation; preset standard deviations are kept
func withGrowthMeans(config *Config, houseMean, stockMean float64) (*Config, error) {
	testConfig := *config
	testConfig.Scenarios = make([]ScenarioConfig, len(config.Scenarios))
	for i, sc := range config.Scenarios {
		house, err := sc.Distributions.HouseAppreciation.Resolve(QuantityHouse)
		if err != nil {
			return nil, err
		}
		stock, err := sc.Distributions.StockAppreciation.Resolve(QuantityStock)
		if err != nil {
			return nil, err
		}
		sc.Distributions.HouseAppreciation = Distribution{Mean: houseMean, StdDev: house.StdDev}
		sc.Distributions.StockAppreciation = Distribution{Mean: stockMean, StdDev: stock.StdDev}
		testConfig.Scenarios[i] = sc
	}
	return &testConfig, nil
}

// RunSensitivityAnalysis runs the buy and rent scenarios across a grid of mean house
// and stock appreciation rates
func RunSensitivityAnalysis(ctx context.Context, config *Config) (*SensitivityAnalysis, error) {
	if !config.HasComparison() {
		return nil, errors.New("sensitivity analysis needs one buying and one renting scenario")
	}

	// Use config for growth rate ranges, with defaults if not set
	houseMin := config.Sensitivity.HouseGrowthMin
	houseMax := config.Sensitivity.HouseGrowthMax
	stockMin := config.Sensitivity.StockGrowthMin
	stockMax := config.Sensitivity.StockGrowthMax
	step := config.Sensitivity.StepSize

	// Set defaults if not configured
	if houseMin == 0 && houseMax == 0 {
		houseMin, houseMax = 0, 8
	}
	if stockMin == 0 && stockMax == 0 {
		stockMin, stockMax = 0, 10
	}
	if step <= 0 {
		step = 2
	}

	houseRates := buildGrowthRates(houseMin, houseMax, step)
	stockRates := buildGrowthRates(stockMin, stockMax, step)

	base := *config
	if config.Sensitivity.NumSamples > 0 {
		base.Simulation.NumSamples = config.Sensitivity.NumSamples
	}
	// Only the final summaries are needed
	base.Report.Metrics = []string{MetricPostTaxWealth.Key()}

	analysis := &SensitivityAnalysis{
		Results:          make([][]SensitivityResult, len(houseRates)),
		HouseGrowthRates: houseRates,
		StockGrowthRates: stockRates,
		NumSamples:       base.Simulation.NumSamples,
		CorrectInflation: base.Simulation.ShouldCorrectInflation(),
	}

	for hi, houseRate := range houseRates {
		analysis.Results[hi] = make([]SensitivityResult, len(stockRates))
		for si, stockRate := range stockRates {
			testConfig, err := withGrowthMeans(&base, houseRate, stockRate)
			if err != nil {
				return nil, err
			}
			result, err := RunComparison(ctx, testConfig)
			if err != nil {
				return nil, fmt.Errorf("house %.1f%%, stock %.1f%%: %w", houseRate, stockRate, err)
			}

			cell := SensitivityResult{HouseGrowth: houseRate, StockGrowth: stockRate}
			buySet, rentSet := false, false
			for _, r := range result.Results {
				if r.Scenario.Purchase.IsBuying && !buySet {
					cell.BuyWealth = r.Summary.PostTaxWealth
					cell.BuyBankrupt = r.Summary.BankruptFraction
					buySet = true
				}
				if !r.Scenario.Purchase.IsBuying && !rentSet {
					cell.RentWealth = r.Summary.PostTaxWealth
					cell.RentBankrupt = r.Summary.BankruptFraction
					rentSet = true
				}
			}
			cell.Advantage = cell.BuyWealth - cell.RentWealth
			analysis.Results[hi][si] = cell
		}
	}

	return analysis, nil
}

// BreakEvenStockGrowth returns, for each house growth rate, the lowest stock growth
// rate at which renting wins, or nil when buying wins across the whole row
func (a *SensitivityAnalysis) BreakEvenStockGrowth() []*float64 {
	out := make([]*float64, len(a.HouseGrowthRates))
	for hi := range a.Results {
		for si, cell := range a.Results[hi] {
			if cell.Advantage < 0 {
				rate := a.StockGrowthRates[si]
				out[hi] = &rate
				break
			}
		}
	}
	return out
}

// PrintSensitivityGrid prints the buy-minus-rent advantage matrix
func PrintSensitivityGrid(analysis *SensitivityAnalysis) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════════════════════════════════╗")
	fmt.Println("║          SENSITIVITY: BUY MINUS RENT, MEDIAN FINAL POST-TAX WEALTH           ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════════════════════╝")
	fmt.Printf("  %d samples per cell, values in %s. Positive = buying wins.\n\n",
		analysis.NumSamples, moneyBasis(analysis.CorrectInflation))

	fmt.Printf("%-14s", "House \\ Stock")
	for _, s := range analysis.StockGrowthRates {
		fmt.Printf(" │ %9s", fmt.Sprintf("%.1f%%", s))
	}
	fmt.Println()
	fmt.Println(strings.Repeat("─", 14+len(analysis.StockGrowthRates)*12))

	for hi, h := range analysis.HouseGrowthRates {
		fmt.Printf("%-14s", fmt.Sprintf("%.1f%%", h))
		for _, cell := range analysis.Results[hi] {
			fmt.Printf(" │ %9s", FormatMoney(cell.Advantage))
		}
		fmt.Println()
	}
	fmt.Println(strings.Repeat("─", 14+len(analysis.StockGrowthRates)*12))

	for hi, be := range analysis.BreakEvenStockGrowth() {
		if be == nil {
			fmt.Printf("  House %.1f%%: buying wins at every stock growth rate tested\n", analysis.HouseGrowthRates[hi])
			continue
		}
		fmt.Printf("  House %.1f%%: renting wins from %.1f%% stock growth\n", analysis.HouseGrowthRates[hi], *be)
	}
}
