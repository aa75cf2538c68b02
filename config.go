package main

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default-config.yaml
var defaultConfigYAML string

// ScenarioConfig represents one strategy's inputs from YAML
type ScenarioConfig struct {
	Name           string           `yaml:"name" json:"name"`
	IsBuying       bool             `yaml:"is_buying" json:"is_buying"`               // true = buy at year 0, false = rent
	HousePrice     float64          `yaml:"house_price" json:"house_price"`           // Purchase price
	Cash           float64          `yaml:"cash" json:"cash"`                         // Cash at year 0
	Salary         float64          `yaml:"salary" json:"salary"`                     // Monthly take-home pay
	Rent           float64          `yaml:"rent" json:"rent"`                         // Monthly rent
	FirstTimeBuyer bool             `yaml:"first_time_buyer" json:"first_time_buyer"` // Higher stamp duty nil-rate band
	BuyingCosts    float64          `yaml:"buying_costs" json:"buying_costs"`         // Legal fees, surveys etc.
	Mortgage       MortgageConfig   `yaml:"mortgage" json:"mortgage"`
	Costs          HouseCostsConfig `yaml:"costs" json:"costs"`
	Distributions  Distributions    `yaml:"distributions" json:"distributions"`
}

// MortgageStageConfig holds one fixed-rate period's terms
type MortgageStageConfig struct {
	InterestRate   float64 `yaml:"interest_rate" json:"interest_rate"`     // Annual rate in percent (e.g., 5.09)
	MonthlyPayment float64 `yaml:"monthly_payment" json:"monthly_payment"` // 0 = repayment annuity over the remaining term
}

// MortgageConfig holds the mortgage taken out at purchase
type MortgageConfig struct {
	Principal    float64             `yaml:"principal" json:"principal"`
	TermYears    int                 `yaml:"term_years" json:"term_years"`       // Only needed to compute payments
	Stage1Length int                 `yaml:"stage1_length" json:"stage1_length"` // Years on the initial fixed rate
	Stage1       MortgageStageConfig `yaml:"stage1" json:"stage1"`
	Stage2       MortgageStageConfig `yaml:"stage2" json:"stage2"`
	Overpay      bool                `yaml:"overpay" json:"overpay"` // Put all spare cash into the mortgage
}

// HouseCostsConfig holds the running costs of owning
type HouseCostsConfig struct {
	GroundRent        float64 `yaml:"ground_rent" json:"ground_rent"`                 // Per year
	ServiceCharge     float64 `yaml:"service_charge" json:"service_charge"`           // Percent of house value, or per year if flat
	ServiceChargeMode string  `yaml:"service_charge_mode" json:"service_charge_mode"` // "rate" (default) or "flat"
	MaintenanceRate   float64 `yaml:"maintenance_rate" json:"maintenance_rate"`       // Percent of house value per year
	HomeInsurance     float64 `yaml:"home_insurance" json:"home_insurance"`           // Per year
}

// SimulationConfig holds Monte Carlo parameters
type SimulationConfig struct {
	YearsToForecast  int     `yaml:"years_to_forecast" json:"years_to_forecast"`
	NumSamples       int     `yaml:"num_samples" json:"num_samples"`
	Seed             float64 `yaml:"seed" json:"seed"`                 // Seed of the per-sample streams
	Distribution     string  `yaml:"distribution" json:"distribution"` // "lognormal" (default) or "normal"
	LowPercentile    float64 `yaml:"low_percentile" json:"low_percentile"`
	HighPercentile   float64 `yaml:"high_percentile" json:"high_percentile"`
	CorrectInflation *bool   `yaml:"correct_inflation" json:"correct_inflation"` // Report in year-0 money. Default: true
	Workers          int     `yaml:"workers" json:"workers"`                     // 0 = one per CPU
}

// ShouldCorrectInflation returns whether reported values are deflated (default: true)
func (s *SimulationConfig) ShouldCorrectInflation() bool {
	if s.CorrectInflation == nil {
		return true
	}
	return *s.CorrectInflation
}

// GetPercentiles returns the band percentiles, 10 and 90 when neither is set
func (s *SimulationConfig) GetPercentiles() (low, high float64) {
	if s.LowPercentile == 0 && s.HighPercentile == 0 {
		return 10, 90
	}
	return s.LowPercentile, s.HighPercentile
}

// SensitivityConfig holds sensitivity analysis parameters (percent units)
type SensitivityConfig struct {
	HouseGrowthMin float64 `yaml:"house_growth_min" json:"house_growth_min"` // Min mean house appreciation (e.g., 0 = 0%)
	HouseGrowthMax float64 `yaml:"house_growth_max" json:"house_growth_max"`
	StockGrowthMin float64 `yaml:"stock_growth_min" json:"stock_growth_min"`
	StockGrowthMax float64 `yaml:"stock_growth_max" json:"stock_growth_max"`
	StepSize       float64 `yaml:"step_size" json:"step_size"`     // e.g., 1 = 1%
	NumSamples     int     `yaml:"num_samples" json:"num_samples"` // Samples per grid cell; 0 = simulation's
}

// ReportConfig selects what the console, CSV and PDF reports show
type ReportConfig struct {
	Metrics  []string `yaml:"metrics" json:"metrics"`     // Metric keys; empty = all
	YearStep int      `yaml:"year_step" json:"year_step"` // Print every Nth year in tables (default 5)
}

// GetYearStep returns the table row interval, using default if not set
func (r *ReportConfig) GetYearStep() int {
	if r.YearStep <= 0 {
		return 5
	}
	return r.YearStep
}

// TaxBand represents a tax band from configuration
type TaxBand struct {
	Name  string  `yaml:"name" json:"name"`
	Lower float64 `yaml:"lower" json:"lower"`
	Upper float64 `yaml:"upper" json:"upper"`
	Rate  float64 `yaml:"rate" json:"rate"` // Percent
}

// TaxConfig holds UK allowances used by the transition
// These values are set by HMRC and may change with each tax year
type TaxConfig struct {
	// ISAAllowance is the annual ISA subscription limit (2024/25: £20,000)
	ISAAllowance float64 `yaml:"isa_allowance" json:"isa_allowance"`
	// CapitalGainsAllowance is the annual exempt amount (2024/25: £3,000)
	CapitalGainsAllowance float64 `yaml:"capital_gains_allowance" json:"capital_gains_allowance"`
	// CapitalGainsRate is the percent charged on gains above the allowance (higher rate: 20)
	CapitalGainsRate float64 `yaml:"capital_gains_rate" json:"capital_gains_rate"`
	// CapitalGainsTax turns capital gains tax on or off. Default: true
	CapitalGainsTax *bool `yaml:"capital_gains_tax" json:"capital_gains_tax"`
	// BankruptcyTolerance is how far cash may go below zero before insolvency (default £1)
	BankruptcyTolerance float64 `yaml:"bankruptcy_tolerance" json:"bankruptcy_tolerance"`
}

// GetISAAllowance returns the ISA allowance, using default if not set
func (tc *TaxConfig) GetISAAllowance() float64 {
	if tc.ISAAllowance <= 0 {
		return defaultISAAllowance
	}
	return tc.ISAAllowance
}

// GetCapitalGainsAllowance returns the CGT allowance, using default if not set
func (tc *TaxConfig) GetCapitalGainsAllowance() float64 {
	if tc.CapitalGainsAllowance <= 0 {
		return defaultCapitalGainsAllowance
	}
	return tc.CapitalGainsAllowance
}

// GetCapitalGainsRate returns the CGT rate in percent, using default if not set
func (tc *TaxConfig) GetCapitalGainsRate() float64 {
	if tc.CapitalGainsRate <= 0 {
		return defaultCapitalGainsRate
	}
	return tc.CapitalGainsRate
}

// GetBankruptcyTolerance returns the insolvency tolerance, using default if not set
func (tc *TaxConfig) GetBankruptcyTolerance() float64 {
	if tc.BankruptcyTolerance <= 0 {
		return defaultBankruptcyTolerance
	}
	return tc.BankruptcyTolerance
}

// ShouldChargeCapitalGainsTax returns whether CGT applies (default: true)
func (tc *TaxConfig) ShouldChargeCapitalGainsTax() bool {
	if tc.CapitalGainsTax == nil {
		return true
	}
	return *tc.CapitalGainsTax
}

// ModelConfig holds the switches that decide how draws are composed
type ModelConfig struct {
	// ModelInflation applies the inflation draw. When false inflation is fixed at 0%. Default: true
	ModelInflation *bool `yaml:"model_inflation" json:"model_inflation"`
	// RatesOverInflation treats salary, stock and house rates as real growth on top of inflation. Default: true
	RatesOverInflation *bool `yaml:"rates_over_inflation" json:"rates_over_inflation"`
	// RentCoupledToHouse treats the rent rate as growth over house price growth. Default: true
	RentCoupledToHouse *bool `yaml:"rent_coupled_to_house" json:"rent_coupled_to_house"`
}

func boolOrDefault(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// ShouldModelInflation returns whether inflation draws are applied (default: true)
func (m *ModelConfig) ShouldModelInflation() bool {
	return boolOrDefault(m.ModelInflation, true)
}

// ShouldComposeOverInflation returns whether real rates are compounded with inflation (default: true)
func (m *ModelConfig) ShouldComposeOverInflation() bool {
	return boolOrDefault(m.RatesOverInflation, true)
}

// ShouldCoupleRentToHouse returns whether rent follows house prices (default: true)
func (m *ModelConfig) ShouldCoupleRentToHouse() bool {
	return boolOrDefault(m.RentCoupledToHouse, true)
}

// Config holds the complete configuration
type Config struct {
	Scenarios   []ScenarioConfig  `yaml:"scenarios" json:"scenarios"`
	Simulation  SimulationConfig  `yaml:"simulation" json:"simulation"`
	Tax         TaxConfig         `yaml:"tax" json:"tax"`
	Model       ModelConfig       `yaml:"model" json:"model"`
	Sensitivity SensitivityConfig `yaml:"sensitivity" json:"sensitivity"`
	Report      ReportConfig      `yaml:"report" json:"report"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	return config, nil
}

// ParseConfig decodes YAML configuration, accepting "5.09%" style percentages
func ParseConfig(data []byte) (*Config, error) {
	content := preprocessPercentages(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, filename string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	// Add a header comment with instructions
	header := []byte(`# Rent vs Buy Forecast Configuration
# Feel free to edit manually
#
# ═══════════════════════════════════════════════════════════════════════════════
# VALUE FORMATS
# ═══════════════════════════════════════════════════════════════════════════════
#   Percentages: percent units, 5.09 and 5.09% both mean 5.09%
#   Money: values are in GBP (e.g., 500000 = £500k)
#   Salary and rent are monthly; ground rent, insurance and buying costs are one-off or yearly
#   Distributions: mean and std_dev of the yearly rate, or preset: <id>
#
# ═══════════════════════════════════════════════════════════════════════════════
# RUN COMMANDS
# ═══════════════════════════════════════════════════════════════════════════════
#   ./goRentVsBuy                         Console comparison
#   ./goRentVsBuy -csv bands.csv          Export percentile bands
#   ./goRentVsBuy -pdf report.pdf         PDF report
#   ./goRentVsBuy -sensitivity            House vs stock growth grid
#   ./goRentVsBuy -web                    JSON API server
#   ./goRentVsBuy -help                   Show all options
#
# See default-config.yaml for all available options with detailed comments.

`)
	content := append(header, data...)
	return os.WriteFile(filename, content, 0644)
}

// LoadDefaultConfig loads the default configuration from embedded default-config.yaml
func LoadDefaultConfig() (*Config, error) {
	return ParseConfig([]byte(defaultConfigYAML))
}

var percentagePattern = regexp.MustCompile(`(:\s*)(-?\d+\.?\d*)%`)

// preprocessPercentages strips the % sign from values like "5.09%" since rates are
// already in percent units
func preprocessPercentages(content string) string {
	return percentagePattern.ReplaceAllString(content, "${1}${2}")
}

// Rules converts the tax and model sections into transition rules
func (c *Config) Rules() Rules {
	return Rules{
		ISAAllowance:        c.Tax.GetISAAllowance(),
		BankruptcyTolerance: c.Tax.GetBankruptcyTolerance(),
		CapitalGains: CapitalGainsRules{
			Enabled:   c.Tax.ShouldChargeCapitalGainsTax(),
			Allowance: c.Tax.GetCapitalGainsAllowance(),
			Rate:      c.Tax.GetCapitalGainsRate(),
		},
		ModelInflation:     c.Model.ShouldModelInflation(),
		RatesOverInflation: c.Model.ShouldComposeOverInflation(),
		RentCoupledToHouse: c.Model.ShouldCoupleRentToHouse(),
	}
}

// Settings converts the simulation section into driver settings
func (c *Config) Settings() (SimulationSettings, error) {
	kind, err := ParseDistributionKind(c.Simulation.Distribution)
	if err != nil {
		return SimulationSettings{}, err
	}
	return SimulationSettings{
		YearsToForecast: c.Simulation.YearsToForecast,
		NumSamples:      c.Simulation.NumSamples,
		Seed:            c.Simulation.Seed,
		Kind:            kind,
		Workers:         c.Simulation.Workers,
	}, nil
}

// RunOptions returns the aggregation options; unknown metric keys are skipped
func (c *Config) RunOptions() RunOptions {
	low, high := c.Simulation.GetPercentiles()
	opts := RunOptions{
		LowPercentile:    low,
		HighPercentile:   high,
		CorrectInflation: c.Simulation.ShouldCorrectInflation(),
	}
	for _, key := range c.Report.Metrics {
		if m, err := ParseMetric(key); err == nil {
			opts.Metrics = append(opts.Metrics, m)
		}
	}
	return opts
}

// BuildScenario resolves presets and mortgage payments into a runnable Scenario
func (c *Config) BuildScenario(sc ScenarioConfig) (Scenario, error) {
	mode, err := ParseServiceChargeMode(sc.Costs.ServiceChargeMode)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}

	dists, err := sc.Distributions.Resolve()
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}

	stage1, stage2 := sc.Mortgage.ResolveStages()

	mortgage := sc.Mortgage.Principal
	if !sc.IsBuying {
		mortgage = 0
	}

	return Scenario{
		Name: sc.Name,
		Purchase: PurchaseParams{
			IsBuying:       sc.IsBuying,
			HousePrice:     sc.HousePrice,
			Cash:           sc.Cash,
			Salary:         sc.Salary,
			Rent:           sc.Rent,
			Mortgage:       mortgage,
			BuyingCosts:    sc.BuyingCosts,
			FirstTimeBuyer: sc.FirstTimeBuyer,
		},
		Policy: Policy{
			IsBuying:          sc.IsBuying,
			MortgageOverpay:   sc.Mortgage.Overpay,
			GroundRent:        sc.Costs.GroundRent,
			ServiceCharge:     sc.Costs.ServiceCharge,
			ServiceChargeMode: mode,
			HomeInsurance:     sc.Costs.HomeInsurance,
			MaintenanceRate:   sc.Costs.MaintenanceRate,
			Rules:             c.Rules(),
		},
		Stage1Length:  sc.Mortgage.Stage1Length,
		Stage1:        stage1,
		Stage2:        stage2,
		Distributions: dists,
	}, nil
}

// Resolve replaces every preset reference with its values
func (d Distributions) Resolve() (Distributions, error) {
	var errs []error
	resolve := func(dist Distribution, q PresetQuantity) Distribution {
		resolved, err := dist.Resolve(q)
		if err != nil {
			errs = append(errs, err)
		}
		return resolved
	}

	out := Distributions{
		Inflation:         resolve(d.Inflation, QuantityInflation),
		HouseAppreciation: resolve(d.HouseAppreciation, QuantityHouse),
		StockAppreciation: resolve(d.StockAppreciation, QuantityStock),
		SalaryGrowth:      resolve(d.SalaryGrowth, QuantitySalary),
		RentGrowth:        resolve(d.RentGrowth, QuantityRent),
	}
	return out, errors.Join(errs...)
}

// ResolveStages returns both stages' terms, computing any zero monthly payment as a
// repayment annuity over what is left of the term
func (m *MortgageConfig) ResolveStages() (stage1, stage2 MortgageStage) {
	stage1 = MortgageStage{InterestRate: m.Stage1.InterestRate, MonthlyPayment: m.Stage1.MonthlyPayment}
	stage2 = MortgageStage{InterestRate: m.Stage2.InterestRate, MonthlyPayment: m.Stage2.MonthlyPayment}

	if m.Principal <= 0 || m.TermYears <= 0 {
		return stage1, stage2
	}

	if stage1.MonthlyPayment == 0 {
		stage1.MonthlyPayment = CalculateMonthlyPayment(m.Principal, stage1.InterestRate, m.TermYears*12)
	}
	if stage2.MonthlyPayment == 0 {
		months := m.Stage1Length * 12
		balance := CalculateRemainingBalance(m.Principal, stage1.InterestRate, stage1.MonthlyPayment, months)
		remaining := m.TermYears*12 - months
		if remaining > 0 {
			stage2.MonthlyPayment = CalculateMonthlyPayment(balance, stage2.InterestRate, remaining)
		} else {
			stage2.MonthlyPayment = balance * (1 + stage2.InterestRate/100) / 12
		}
	}
	return stage1, stage2
}

// CalculateMonthlyPayment calculates the monthly payment for a repayment mortgage
// Using formula: M = P * [r(1+r)^n] / [(1+r)^n - 1]
func CalculateMonthlyPayment(principal, annualRatePercent float64, months int) float64 {
	if principal <= 0 || months <= 0 {
		return 0
	}

	monthlyRate := annualRatePercent / 100 / 12
	numPayments := float64(months)

	if monthlyRate == 0 {
		return principal / numPayments
	}

	factor := math.Pow(1+monthlyRate, numPayments)
	return principal * (monthlyRate * factor) / (factor - 1)
}

// CalculateRemainingBalance returns the balance after a number of monthly payments
// Using formula: B = P(1+r)^k - M[(1+r)^k - 1] / r
func CalculateRemainingBalance(principal, annualRatePercent, monthlyPayment float64, months int) float64 {
	if months <= 0 {
		return principal
	}

	monthlyRate := annualRatePercent / 100 / 12
	k := float64(months)

	var balance float64
	if monthlyRate == 0 {
		balance = principal - monthlyPayment*k
	} else {
		factor := math.Pow(1+monthlyRate, k)
		balance = principal*factor - monthlyPayment*(factor-1)/monthlyRate
	}
	return math.Max(balance, 0)
}

// FindScenario returns the scenario with the given name (case-insensitive)
func (c *Config) FindScenario(name string) *ScenarioConfig {
	for i := range c.Scenarios {
		if strings.EqualFold(c.Scenarios[i].Name, name) {
			return &c.Scenarios[i]
		}
	}
	return nil
}

// HasComparison returns true if the config has both a buying and a renting scenario
func (c *Config) HasComparison() bool {
	var buy, rent bool
	for _, sc := range c.Scenarios {
		if sc.IsBuying {
			buy = true
		} else {
			rent = true
		}
	}
	return buy && rent
}

// ValidateConfig checks the configuration and returns a list of problems
func ValidateConfig(c *Config) []string {
	var issues []string

	if len(c.Scenarios) == 0 {
		issues = append(issues, "at least one scenario is required")
	}
	seen := make(map[string]bool)
	for i, sc := range c.Scenarios {
		label := sc.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		if seen[strings.ToLower(sc.Name)] {
			issues = append(issues, fmt.Sprintf("scenario %s: duplicate name", label))
		}
		seen[strings.ToLower(sc.Name)] = true

		for _, problem := range validateScenarioConfig(sc) {
			issues = append(issues, fmt.Sprintf("scenario %s: %s", label, problem))
		}
	}

	sim := c.Simulation
	if sim.NumSamples < 1 {
		issues = append(issues, fmt.Sprintf("simulation.num_samples must be at least 1 (got %d)", sim.NumSamples))
	}
	if sim.YearsToForecast < 0 {
		issues = append(issues, fmt.Sprintf("simulation.years_to_forecast must not be negative (got %d)", sim.YearsToForecast))
	}
	if sim.Workers < 0 {
		issues = append(issues, fmt.Sprintf("simulation.workers must not be negative (got %d)", sim.Workers))
	}
	if math.IsNaN(sim.Seed) || math.IsInf(sim.Seed, 0) {
		issues = append(issues, "simulation.seed must be a finite number")
	}
	if _, err := ParseDistributionKind(sim.Distribution); err != nil {
		issues = append(issues, "simulation.distribution: "+err.Error())
	}
	low, high := sim.GetPercentiles()
	if low < 0 || high > 100 || low > 50 || high < 50 {
		issues = append(issues, fmt.Sprintf("simulation percentiles must satisfy 0 <= low <= 50 <= high <= 100 (got %g and %g)", low, high))
	}

	for _, key := range c.Report.Metrics {
		if _, err := ParseMetric(key); err != nil {
			issues = append(issues, "report.metrics: "+err.Error())
		}
	}

	s := c.Sensitivity
	if s.StepSize < 0 {
		issues = append(issues, "sensitivity.step_size must not be negative")
	}
	if s.HouseGrowthMax < s.HouseGrowthMin || s.StockGrowthMax < s.StockGrowthMin {
		issues = append(issues, "sensitivity ranges must have max >= min")
	}

	return issues
}

func validateScenarioConfig(sc ScenarioConfig) []string {
	var issues []string

	checkDist := func(name string, d Distribution) {
		if d.Preset != "" {
			if GetPresetByID(d.Preset) == nil {
				issues = append(issues, fmt.Sprintf("%s: unknown preset %q", name, d.Preset))
			}
			return
		}
		if d.StdDev < 0 {
			issues = append(issues, fmt.Sprintf("%s: std_dev must not be negative (got %g)", name, d.StdDev))
		}
	}
	checkDist("inflation", sc.Distributions.Inflation)
	checkDist("house_appreciation", sc.Distributions.HouseAppreciation)
	checkDist("stock_appreciation", sc.Distributions.StockAppreciation)
	checkDist("salary_growth", sc.Distributions.SalaryGrowth)
	checkDist("rent_growth", sc.Distributions.RentGrowth)

	if sc.Cash < 0 {
		issues = append(issues, "cash must not be negative")
	}
	if sc.IsBuying {
		if sc.HousePrice <= 0 {
			issues = append(issues, "house_price must be positive when buying")
		}
		if sc.Mortgage.Principal < 0 {
			issues = append(issues, "mortgage.principal must not be negative")
		}
		if sc.Mortgage.Principal > sc.HousePrice {
			issues = append(issues, "mortgage.principal must not exceed house_price")
		}
	}
	if sc.Mortgage.Stage1Length < 0 {
		issues = append(issues, "mortgage.stage1_length must not be negative")
	}
	if _, err := ParseServiceChargeMode(sc.Costs.ServiceChargeMode); err != nil {
		issues = append(issues, "costs.service_charge_mode: "+err.Error())
	}

	return issues
}

// Validate returns all configuration problems joined into one error, or nil
func (c *Config) Validate() error {
	issues := ValidateConfig(c)
	if len(issues) == 0 {
		return nil
	}
	errs := make([]error, len(issues))
	for i, issue := range issues {
		errs[i] = errors.New(issue)
	}
	return errors.Join(errs...)
}
