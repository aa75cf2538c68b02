package main

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// =============================================================================
// Default Configuration Tests
// =============================================================================

func TestDefaultConfig_LoadsAndValidates(t *testing.T) {
	config, err := LoadDefaultConfig()
	if err != nil {
		t.Fatalf("LoadDefaultConfig: %v", err)
	}
	if err := config.Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
	if !config.HasComparison() {
		t.Error("default config should compare buying with renting")
	}

	buy := config.FindScenario("buy")
	if buy == nil {
		t.Fatal("scenario Buy not found")
	}
	assertMoneyEquals(t, 500000, buy.HousePrice, "house price")
	assertMoneyEquals(t, 110000, buy.Cash, "cash")
	assertMoneyEquals(t, 400000, buy.Mortgage.Principal, "mortgage")
	assertMoneyEquals(t, 5.09, buy.Mortgage.Stage1.InterestRate, "stage 1 rate with % suffix")
	assertMoneyEquals(t, 0.6, buy.Costs.ServiceCharge, "service charge with % suffix")
	if buy.Distributions.Inflation.Preset != "uk_cpi" {
		t.Errorf("inflation preset %q, expected uk_cpi", buy.Distributions.Inflation.Preset)
	}

	if got := config.Simulation.ShouldCorrectInflation(); !got {
		t.Error("default reports in today's money")
	}
	low, high := config.Simulation.GetPercentiles()
	if low != 10 || high != 90 {
		t.Errorf("percentiles %g/%g, expected 10/90", low, high)
	}
}

func TestDefaultConfig_Rules(t *testing.T) {
	config, err := LoadDefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := config.Rules(), DefaultRules(); got != want {
		t.Errorf("rules %+v, expected %+v", got, want)
	}

	disabled := false
	config.Tax.CapitalGainsTax = &disabled
	config.Model.RentCoupledToHouse = &disabled
	rules := config.Rules()
	if rules.CapitalGains.Enabled {
		t.Error("capital_gains_tax: false should disable the tax")
	}
	if rules.RentCoupledToHouse {
		t.Error("rent_coupled_to_house: false should decouple rent")
	}
}

func TestBuildScenario_ResolvesPresets(t *testing.T) {
	config, err := LoadDefaultConfig()
	if err != nil {
		t.Fatal(err)
	}

	buy, err := config.BuildScenario(*config.FindScenario("Buy"))
	if err != nil {
		t.Fatal(err)
	}
	if buy.Distributions.StockAppreciation.Mean != 5.1 || buy.Distributions.StockAppreciation.StdDev != 16.9 {
		t.Errorf("sp500 preset not resolved: %+v", buy.Distributions.StockAppreciation)
	}
	if buy.Stage1.MonthlyPayment != 2170 || buy.Stage2.InterestRate != 7.99 {
		t.Errorf("mortgage stages not copied: %+v / %+v", buy.Stage1, buy.Stage2)
	}
	if buy.Strategy() != StrategyBuy || !buy.Policy.IsBuying {
		t.Error("buy scenario should buy")
	}

	rent, err := config.BuildScenario(*config.FindScenario("Rent"))
	if err != nil {
		t.Fatal(err)
	}
	if rent.Purchase.Mortgage != 0 {
		t.Errorf("renting scenario borrowed %.0f", rent.Purchase.Mortgage)
	}
}

func TestBuildScenario_BadPreset(t *testing.T) {
	config, err := LoadDefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	sc := config.Scenarios[0]
	sc.Distributions.HouseAppreciation = Distribution{Preset: "sp500"}
	if _, err := config.BuildScenario(sc); err == nil {
		t.Error("stock preset accepted for house appreciation")
	}
	sc.Distributions.HouseAppreciation = Distribution{Preset: "moon_prices"}
	if _, err := config.BuildScenario(sc); err == nil {
		t.Error("unknown preset accepted")
	}
}

// =============================================================================
// Parsing Tests
// =============================================================================

func TestParseConfig_Percentages(t *testing.T) {
	yamlText := `
scenarios:
  - name: Test
    is_buying: false
    cash: 1000
    distributions:
      inflation:
        mean: 2.5%
        std_dev: -1.5%
simulation:
  num_samples: 10
  low_percentile: 5%
`
	config, err := ParseConfig([]byte(yamlText))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	d := config.Scenarios[0].Distributions.Inflation
	if d.Mean != 2.5 || d.StdDev != -1.5 {
		t.Errorf("expected 2.5 and -1.5, got %+v", d)
	}
	if config.Simulation.LowPercentile != 5 {
		t.Errorf("low percentile %g, expected 5", config.Simulation.LowPercentile)
	}
}

func TestParseConfig_InvalidYAML(t *testing.T) {
	if _, err := ParseConfig([]byte("scenarios: [unclosed")); err == nil {
		t.Error("expected a parse error")
	}
}

func TestSaveAndLoadConfig_RoundTrip(t *testing.T) {
	config, err := LoadDefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := SaveConfig(config, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !reflect.DeepEqual(config, loaded) {
		t.Errorf("round trip changed the config:\n%+v\n%+v", config, loaded)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

// =============================================================================
// Validation Tests
// =============================================================================

func TestValidateConfig_Problems(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{"no scenarios", func(c *Config) { c.Scenarios = nil }, "at least one scenario"},
		{"duplicate names", func(c *Config) { c.Scenarios[1].Name = "BUY" }, "duplicate name"},
		{"zero samples", func(c *Config) { c.Simulation.NumSamples = 0 }, "num_samples"},
		{"negative years", func(c *Config) { c.Simulation.YearsToForecast = -5 }, "years_to_forecast"},
		{"bad distribution", func(c *Config) { c.Simulation.Distribution = "cauchy" }, "simulation.distribution"},
		{"low above median", func(c *Config) { c.Simulation.LowPercentile = 60 }, "percentiles"},
		{"high above 100", func(c *Config) { c.Simulation.HighPercentile = 101 }, "percentiles"},
		{"negative std dev", func(c *Config) {
			c.Scenarios[1].Distributions.SalaryGrowth = Distribution{Mean: 1, StdDev: -2}
		}, "std_dev"},
		{"unknown preset", func(c *Config) {
			c.Scenarios[0].Distributions.Inflation = Distribution{Preset: "zimbabwe"}
		}, "unknown preset"},
		{"mortgage above price", func(c *Config) { c.Scenarios[0].Mortgage.Principal = 600000 }, "must not exceed house_price"},
		{"unknown metric", func(c *Config) { c.Report.Metrics = []string{"happiness"} }, "report.metrics"},
		{"service charge mode", func(c *Config) { c.Scenarios[0].Costs.ServiceChargeMode = "weekly" }, "service_charge_mode"},
		{"sensitivity range", func(c *Config) {
			c.Sensitivity.HouseGrowthMin, c.Sensitivity.HouseGrowthMax = 5, 1
		}, "sensitivity ranges"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			config, err := LoadDefaultConfig()
			if err != nil {
				t.Fatal(err)
			}
			tc.mutate(config)
			issues := ValidateConfig(config)
			found := false
			for _, issue := range issues {
				if strings.Contains(issue, tc.message) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected an issue containing %q, got %v", tc.message, issues)
			}
			if config.Validate() == nil {
				t.Error("Validate returned nil despite issues")
			}
		})
	}
}

// =============================================================================
// Mortgage Payment Resolution Tests
// =============================================================================

func TestResolveStages_ExplicitPaymentsKept(t *testing.T) {
	m := MortgageConfig{
		Principal:    400000,
		TermYears:    25,
		Stage1Length: 2,
		Stage1:       MortgageStageConfig{InterestRate: 5.09, MonthlyPayment: 2170},
		Stage2:       MortgageStageConfig{InterestRate: 7.99, MonthlyPayment: 2890},
	}
	s1, s2 := m.ResolveStages()
	if s1.MonthlyPayment != 2170 || s2.MonthlyPayment != 2890 {
		t.Errorf("explicit payments changed: %v, %v", s1.MonthlyPayment, s2.MonthlyPayment)
	}
}

func TestResolveStages_AnnuityWhenPaymentIsZero(t *testing.T) {
	m := MortgageConfig{
		Principal:    200000,
		TermYears:    25,
		Stage1Length: 2,
		Stage1:       MortgageStageConfig{InterestRate: 4},
		Stage2:       MortgageStageConfig{InterestRate: 4},
	}
	s1, s2 := m.ResolveStages()
	assertMortgageEquals(t, 1055.67, s1.MonthlyPayment, "£200k @ 4% for 25 years")
	// Same rate after stage 1 keeps the same payment for the rest of the term
	assertMortgageEquals(t, s1.MonthlyPayment, s2.MonthlyPayment, "stage 2 continues the annuity")
}

func TestResolveStages_NoTermLeavesZeroPayment(t *testing.T) {
	m := MortgageConfig{Principal: 200000, Stage1: MortgageStageConfig{InterestRate: 4}}
	s1, _ := m.ResolveStages()
	if s1.MonthlyPayment != 0 {
		t.Errorf("expected 0 without a term, got %v", s1.MonthlyPayment)
	}
}

// =============================================================================
// Settings and Options Tests
// =============================================================================

func TestConfig_SettingsAndRunOptions(t *testing.T) {
	config, err := LoadDefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	config.Simulation.Distribution = "Normal"
	config.Report.Metrics = []string{"post-tax wealth", "house_value"}

	settings, err := config.Settings()
	if err != nil {
		t.Fatal(err)
	}
	if settings.Kind != NormalDistribution {
		t.Errorf("kind %v, expected normal", settings.Kind)
	}
	if settings.NumSamples != 100 || settings.YearsToForecast != 30 {
		t.Errorf("unexpected settings %+v", settings)
	}

	opts := config.RunOptions()
	want := []Metric{MetricPostTaxWealth, MetricHouseValue}
	if !reflect.DeepEqual(opts.Metrics, want) {
		t.Errorf("metrics %v, expected %v", opts.Metrics, want)
	}
	if !opts.CorrectInflation || opts.LowPercentile != 10 || opts.HighPercentile != 90 {
		t.Errorf("unexpected options %+v", opts)
	}
}
