package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// SimulationSettings controls the Monte Carlo driver
type SimulationSettings struct {
	YearsToForecast int
	NumSamples      int
	Seed            float64 // Seed of the per-sample streams, see SampleSeed
	Kind            DistributionKind
	Workers         int // Concurrent samples; 0 means GOMAXPROCS
}

// Validate checks the settings before any sample is built
func (s SimulationSettings) Validate() error {
	var errs []error
	if s.YearsToForecast < 0 {
		errs = append(errs, fmt.Errorf("years to forecast must not be negative, got %d", s.YearsToForecast))
	}
	if s.NumSamples < 1 {
		errs = append(errs, fmt.Errorf("number of samples must be at least 1, got %d", s.NumSamples))
	}
	if s.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", s.Workers))
	}
	if math.IsNaN(s.Seed) || math.IsInf(s.Seed, 0) {
		errs = append(errs, errors.New("seed must be a finite number"))
	}
	if s.Kind != LogNormalDistribution && s.Kind != NormalDistribution {
		errs = append(errs, fmt.Errorf("unknown distribution kind %d", s.Kind))
	}
	return errors.Join(errs...)
}

func (s SimulationSettings) workers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// BuildTrajectory simulates one sample path from the year-0 snapshot.
// Stage 1 mortgage terms apply to years 1..Stage1Length, stage 2 afterwards.
func BuildTrajectory(initial FinancialSituation, scenario Scenario, years int, gens *rateGenerators) Trajectory {
	policy := scenario.Policy
	policy.IsBuying = scenario.Purchase.IsBuying

	trajectory := make(Trajectory, 0, years+1)
	trajectory = append(trajectory, initial)
	for year := 1; year <= years; year++ {
		policy.Mortgage = scenario.MortgageForYear(year)
		next := NextFinancialSituation(trajectory[year-1], gens.draw(), policy)
		trajectory = append(trajectory, next)
	}
	return trajectory
}

// RunSamples builds NumSamples trajectories of the scenario concurrently.
// Each sample draws from its own stream, so the result depends only on the seed and
// the inputs, never on the number of workers.
func RunSamples(ctx context.Context, scenario Scenario, settings SimulationSettings) (SampleSet, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	initial := InitialFinancialSituation(scenario.Purchase, scenario.Policy.Rules)
	samples := make(SampleSet, settings.NumSamples)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(settings.workers())
	for i := range settings.NumSamples {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			root := NewRootGenerator(SampleSeed(settings.Seed, i))
			gens := newRateGenerators(root, scenario.Distributions, settings.Kind)
			samples[i] = BuildTrajectory(initial, scenario, settings.YearsToForecast, gens)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// ScenarioResult is the aggregated outcome of one scenario
type ScenarioResult struct {
	Scenario Scenario
	Samples  SampleSet
	Bands    map[Metric]Bands
	Summary  FinalSummary
}

// RunOptions selects what RunScenario aggregates
type RunOptions struct {
	LowPercentile    float64
	HighPercentile   float64
	CorrectInflation bool
	Metrics          []Metric // Empty means AllMetrics
}

// RunScenario runs the samples of one scenario and aggregates bands and the final summary
func RunScenario(ctx context.Context, scenario Scenario, settings SimulationSettings, opts RunOptions) (ScenarioResult, error) {
	samples, err := RunSamples(ctx, scenario, settings)
	if err != nil {
		return ScenarioResult{}, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}

	metrics := opts.Metrics
	if len(metrics) == 0 {
		metrics = AllMetrics
	}

	cgt := scenario.Policy.Rules.CapitalGains
	bands := make(map[Metric]Bands, len(metrics))
	for _, m := range metrics {
		bands[m] = Aggregate(samples, m.Func(cgt, opts.CorrectInflation), opts.LowPercentile, opts.HighPercentile)
	}

	return ScenarioResult{
		Scenario: scenario,
		Samples:  samples,
		Bands:    bands,
		Summary:  SummariseFinalYear(scenario, samples, opts.LowPercentile, opts.HighPercentile, opts.CorrectInflation),
	}, nil
}

// ComparisonResult holds every scenario of one run, all simulated with the same seed
type ComparisonResult struct {
	Settings SimulationSettings
	Options  RunOptions
	Results  []ScenarioResult
}

// WealthAdvantage returns the median final post-tax wealth of the first buying scenario
// minus that of the first renting scenario. ok is false unless both exist.
func (c *ComparisonResult) WealthAdvantage() (advantage float64, ok bool) {
	var buy, rent *ScenarioResult
	for i := range c.Results {
		r := &c.Results[i]
		if r.Scenario.Purchase.IsBuying && buy == nil {
			buy = r
		}
		if !r.Scenario.Purchase.IsBuying && rent == nil {
			rent = r
		}
	}
	if buy == nil || rent == nil {
		return 0, false
	}
	return buy.Summary.PostTaxWealth - rent.Summary.PostTaxWealth, true
}

// RunComparison resolves and runs every scenario in the config
func RunComparison(ctx context.Context, config *Config) (*ComparisonResult, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	settings, err := config.Settings()
	if err != nil {
		return nil, err
	}
	opts := config.RunOptions()

	result := &ComparisonResult{Settings: settings, Options: opts}
	for _, sc := range config.Scenarios {
		scenario, err := config.BuildScenario(sc)
		if err != nil {
			return nil, err
		}
		sr, err := RunScenario(ctx, scenario, settings, opts)
		if err != nil {
			return nil, err
		}
		result.Results = append(result.Results, sr)
	}
	return result, nil
}

// Validate rejects scenarios the transition cannot simulate meaningfully
func (s Scenario) Validate() error {
	var errs []error
	check := func(name string, d Distribution) {
		if math.IsNaN(d.Mean) || math.IsInf(d.Mean, 0) {
			errs = append(errs, fmt.Errorf("%s: mean must be a finite number", name))
		}
		if d.StdDev < 0 || math.IsNaN(d.StdDev) || math.IsInf(d.StdDev, 0) {
			errs = append(errs, fmt.Errorf("%s: standard deviation must be a non-negative number, got %v", name, d.StdDev))
		}
	}
	check("inflation", s.Distributions.Inflation)
	check("house appreciation", s.Distributions.HouseAppreciation)
	check("stock appreciation", s.Distributions.StockAppreciation)
	check("salary growth", s.Distributions.SalaryGrowth)
	check("rent growth", s.Distributions.RentGrowth)

	if s.Stage1Length < 0 {
		errs = append(errs, fmt.Errorf("mortgage stage 1 length must not be negative, got %d", s.Stage1Length))
	}
	if s.Purchase.IsBuying && s.Purchase.Mortgage > s.Purchase.HousePrice {
		errs = append(errs, fmt.Errorf("mortgage %.0f exceeds house price %.0f", s.Purchase.Mortgage, s.Purchase.HousePrice))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	return nil
}
