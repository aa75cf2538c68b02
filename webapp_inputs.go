package main

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// WebAppInputs mirrors one scenario of the web app's shareable ?inputs= link
type WebAppInputs struct {
	IsBuying                     bool         `json:"isBuying"`
	HousePrice                   float64      `json:"housePrice"`
	Cash                         float64      `json:"cash"`
	Mortgage                     float64      `json:"mortgage"`
	Salary                       float64      `json:"salary"`
	SalaryGrowth                 Distribution `json:"salaryGrowth"`
	Rent                         float64      `json:"rent"`
	MortgageStage1Length         int          `json:"mortgageStage1Length"`
	MortgageInterestRateStage1   float64      `json:"mortgageInterestRateStage1"`
	MortgageMonthlyPaymentStage1 float64      `json:"mortgageMonthlyPaymentStage1"`
	MortgageInterestRateStage2   float64      `json:"mortgageInterestRateStage2"`
	MortgageMonthlyPaymentStage2 float64      `json:"mortgageMonthlyPaymentStage2"`
	MortgageOverpay              bool         `json:"mortgageOverpay"`
	Inflation                    Distribution `json:"inflation"`
	HouseAppreciationRate        Distribution `json:"houseAppreciationRate"`
	StockAppreciationRate        Distribution `json:"stockAppreciationRate"`
	RentGrowth                   Distribution `json:"rentGrowth"`
	YearsToForecast              int          `json:"yearsToForecast"`
	BuyingCosts                  float64      `json:"buyingCosts"`
	FirstTimeBuyer               bool         `json:"firstTimeBuyer"`
	GroundRent                   float64      `json:"groundRent"`
	ServiceChargeRate            float64      `json:"serviceChargeRate"`
	MaintenanceRate              float64      `json:"maintenanceRate"`
	HomeInsurance                float64      `json:"homeInsurance"`
	NumSamples                   int          `json:"numSamples"`
	CorrectInflation             bool         `json:"correctInflation"`
	Seed                         float64      `json:"seed"`
}

// webAppDistribution is the web app's {mean, stdDev} shape
type webAppDistribution struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
}

// UnmarshalJSON accepts the web app's camelCase stdDev key for distributions
func (w *WebAppInputs) UnmarshalJSON(data []byte) error {
	type plain WebAppInputs
	aux := struct {
		*plain
		SalaryGrowth          *webAppDistribution `json:"salaryGrowth"`
		Inflation             *webAppDistribution `json:"inflation"`
		HouseAppreciationRate *webAppDistribution `json:"houseAppreciationRate"`
		StockAppreciationRate *webAppDistribution `json:"stockAppreciationRate"`
		RentGrowth            *webAppDistribution `json:"rentGrowth"`
	}{plain: (*plain)(w)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	set := func(dst *Distribution, src *webAppDistribution) {
		if src != nil {
			*dst = Distribution{Mean: src.Mean, StdDev: src.StdDev}
		}
	}
	set(&w.SalaryGrowth, aux.SalaryGrowth)
	set(&w.Inflation, aux.Inflation)
	set(&w.HouseAppreciationRate, aux.HouseAppreciationRate)
	set(&w.StockAppreciationRate, aux.StockAppreciationRate)
	set(&w.RentGrowth, aux.RentGrowth)
	return nil
}

// DefaultWebAppInputs returns the web app's built-in inputs, used for missing keys
func DefaultWebAppInputs() WebAppInputs {
	return WebAppInputs{
		IsBuying:                     true,
		HousePrice:                   500000,
		Cash:                         110000,
		Mortgage:                     400000,
		Salary:                       5400,
		SalaryGrowth:                 Distribution{Mean: 2, StdDev: 3},
		Rent:                         500000 * 0.045 / 12,
		MortgageStage1Length:         2,
		MortgageInterestRateStage1:   5.09,
		MortgageMonthlyPaymentStage1: 2170,
		MortgageInterestRateStage2:   7.99,
		MortgageMonthlyPaymentStage2: 2890,
		Inflation:                    Distribution{Mean: 2.7, StdDev: 3.7},
		HouseAppreciationRate:        Distribution{Mean: 4.2, StdDev: 4.1},
		StockAppreciationRate:        Distribution{Mean: 5.1, StdDev: 16.9},
		RentGrowth:                   Distribution{Mean: 0, StdDev: 3},
		YearsToForecast:              30,
		BuyingCosts:                  5000,
		FirstTimeBuyer:               true,
		GroundRent:                   500,
		ServiceChargeRate:            0.6,
		MaintenanceRate:              1,
		NumSamples:                   100,
		CorrectInflation:             true,
	}
}

// ParseInputsURL decodes a web app link, a bare ?inputs= value or raw JSON into
// inputs keyed by the app's scenario id
func ParseInputsURL(raw string) (map[int]WebAppInputs, error) {
	payload, err := extractInputsPayload(raw)
	if err != nil {
		return nil, err
	}

	var rawByID map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &rawByID); err != nil {
		return nil, fmt.Errorf("decode inputs: %w", err)
	}
	if len(rawByID) == 0 {
		return nil, fmt.Errorf("inputs contain no scenarios")
	}

	result := make(map[int]WebAppInputs, len(rawByID))
	for key, data := range rawByID {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("scenario id %q is not a number", key)
		}
		inputs := DefaultWebAppInputs()
		if err := json.Unmarshal(data, &inputs); err != nil {
			return nil, fmt.Errorf("decode scenario %d: %w", id, err)
		}
		result[id] = inputs
	}
	return result, nil
}

func extractInputsPayload(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty inputs")
	}
	if strings.HasPrefix(raw, "{") {
		return raw, nil
	}

	value := raw
	if strings.Contains(raw, "inputs=") {
		query := raw
		if i := strings.Index(raw, "?"); i >= 0 {
			query = raw[i+1:]
		}
		if i := strings.Index(query, "#"); i >= 0 {
			query = query[:i]
		}
		values, err := url.ParseQuery(query)
		if err != nil {
			return "", fmt.Errorf("parse query: %w", err)
		}
		value = values.Get("inputs")
	}

	// The app encodes the JSON with encodeURIComponent on top of query escaping
	for i := 0; i < 2 && !strings.HasPrefix(value, "{"); i++ {
		unescaped, err := url.QueryUnescape(value)
		if err != nil {
			return "", fmt.Errorf("unescape inputs: %w", err)
		}
		value = unescaped
	}
	if !strings.HasPrefix(value, "{") {
		return "", fmt.Errorf("inputs are not a JSON object")
	}
	return value, nil
}

// ToScenarioConfig converts web app inputs into a scenario
func (w WebAppInputs) ToScenarioConfig(name string) ScenarioConfig {
	return ScenarioConfig{
		Name:           name,
		IsBuying:       w.IsBuying,
		HousePrice:     w.HousePrice,
		Cash:           w.Cash,
		Salary:         w.Salary,
		Rent:           w.Rent,
		FirstTimeBuyer: w.FirstTimeBuyer,
		BuyingCosts:    w.BuyingCosts,
		Mortgage: MortgageConfig{
			Principal:    w.Mortgage,
			Stage1Length: w.MortgageStage1Length,
			Stage1: MortgageStageConfig{
				InterestRate:   w.MortgageInterestRateStage1,
				MonthlyPayment: w.MortgageMonthlyPaymentStage1,
			},
			Stage2: MortgageStageConfig{
				InterestRate:   w.MortgageInterestRateStage2,
				MonthlyPayment: w.MortgageMonthlyPaymentStage2,
			},
			Overpay: w.MortgageOverpay,
		},
		Costs: HouseCostsConfig{
			GroundRent:        w.GroundRent,
			ServiceCharge:     w.ServiceChargeRate,
			ServiceChargeMode: ServiceChargeRate.String(),
			MaintenanceRate:   w.MaintenanceRate,
			HomeInsurance:     w.HomeInsurance,
		},
		Distributions: Distributions{
			Inflation:         w.Inflation,
			HouseAppreciation: w.HouseAppreciationRate,
			StockAppreciation: w.StockAppreciationRate,
			SalaryGrowth:      w.SalaryGrowth,
			RentGrowth:        w.RentGrowth,
		},
	}
}

// ApplyInputsURL replaces the config's scenarios with those from a web app link.
// Simulation settings come from the lowest scenario id, as the app shares them.
func ApplyInputsURL(config *Config, raw string) error {
	byID, err := ParseInputsURL(raw)
	if err != nil {
		return err
	}

	ids := make([]int, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	scenarios := make([]ScenarioConfig, 0, len(ids))
	for _, id := range ids {
		inputs := byID[id]
		name := fmt.Sprintf("%s %d", StrategyRent, id)
		if inputs.IsBuying {
			name = fmt.Sprintf("%s %d", StrategyBuy, id)
		}
		scenarios = append(scenarios, inputs.ToScenarioConfig(name))
	}

	first := byID[ids[0]]
	correct := first.CorrectInflation
	config.Scenarios = scenarios
	config.Simulation.YearsToForecast = first.YearsToForecast
	config.Simulation.NumSamples = first.NumSamples
	config.Simulation.Seed = first.Seed
	config.Simulation.CorrectInflation = &correct
	return nil
}
