package main

import (
	"context"
	"math"
	"testing"
)

// =============================================================================
// Quantile Tests
// =============================================================================

func TestQuantile_LinearInterpolation(t *testing.T) {
	tenValues := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	tests := []struct {
		name     string
		sorted   []float64
		p        float64
		expected float64
	}{
		{"median of even count", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"median of odd count", []float64{1, 5, 9}, 0.5, 5},
		{"10th percentile", tenValues, 0.1, 1.9},
		{"90th percentile", tenValues, 0.9, 9.1},
		{"minimum", tenValues, 0, 1},
		{"maximum", tenValues, 1, 10},
		{"below range clamps", tenValues, -0.5, 1},
		{"above range clamps", tenValues, 1.5, 10},
		{"single value", []float64{42}, 0.3, 42},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Quantile(tc.sorted, tc.p); math.Abs(got-tc.expected) > 1e-12 {
				t.Errorf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestQuantile_Empty(t *testing.T) {
	if got := Quantile(nil, 0.5); !math.IsNaN(got) {
		t.Errorf("expected NaN for no data, got %v", got)
	}
}

func TestMedian_DoesNotModifyInput(t *testing.T) {
	values := []float64{5, 1, 4, 2, 3}
	if got := Median(values); got != 3 {
		t.Errorf("expected 3, got %v", got)
	}
	if values[0] != 5 || values[4] != 3 {
		t.Errorf("input reordered: %v", values)
	}
}

// =============================================================================
// Aggregation Tests
// =============================================================================

func TestAggregate_TransposesByYear(t *testing.T) {
	samples := SampleSet{
		{{CashValue: 1}, {CashValue: 30}},
		{{CashValue: 3}, {CashValue: 10}},
		{{CashValue: 2}, {CashValue: 20}},
	}
	bands := Aggregate(samples, MetricCash.Func(CapitalGainsRules{}, false), 0, 100)

	wantMedian := []float64{2, 20}
	wantLow := []float64{1, 10}
	wantHigh := []float64{3, 30}
	for year := range 2 {
		if bands.Median[year] != wantMedian[year] || bands.Low[year] != wantLow[year] || bands.High[year] != wantHigh[year] {
			t.Errorf("year %d: got %v/%v/%v, expected %v/%v/%v", year,
				bands.Low[year], bands.Median[year], bands.High[year],
				wantLow[year], wantMedian[year], wantHigh[year])
		}
	}
	if bands.LowPercentile != 0 || bands.HighPercentile != 100 {
		t.Errorf("percentiles not recorded: %v/%v", bands.LowPercentile, bands.HighPercentile)
	}

	// Samples stay in their original order
	if samples[0][0].CashValue != 1 || samples[1][0].CashValue != 3 {
		t.Error("aggregation reordered the samples")
	}
}

func TestAggregate_NoSamples(t *testing.T) {
	bands := Aggregate(nil, MetricCash.Func(CapitalGainsRules{}, false), 10, 90)
	if len(bands.Median) != 0 {
		t.Errorf("expected empty bands, got %d years", len(bands.Median))
	}
}

func TestInvariant_BandsAreOrdered(t *testing.T) {
	scenario := testScenario(t, true)
	samples, err := RunSamples(context.Background(), scenario, testSettings())
	if err != nil {
		t.Fatal(err)
	}

	cgt := scenario.Policy.Rules.CapitalGains
	for _, m := range AllMetrics {
		for _, correct := range []bool{true, false} {
			bands := Aggregate(samples, m.Func(cgt, correct), 10, 90)
			for year := range bands.Median {
				if bands.Low[year] > bands.Median[year] || bands.Median[year] > bands.High[year] {
					t.Fatalf("%s year %d: low %v, median %v, high %v out of order",
						m, year, bands.Low[year], bands.Median[year], bands.High[year])
				}
			}
		}
	}
}

// =============================================================================
// Final Summary Tests
// =============================================================================

func TestSummariseFinalYear(t *testing.T) {
	scenario := Scenario{Name: "Rent", Policy: Policy{Rules: DefaultRules()}}
	samples := SampleSet{
		{{CashValue: 0, CumulativeInflation: 1}, {StockISAValue: 100, Rent: 10, CumulativeInflation: 2}},
		{{CashValue: 0, CumulativeInflation: 1}, {StockISAValue: 300, Rent: 30, CumulativeInflation: 2}},
		{{CashValue: 0, CumulativeInflation: 1}, {Bankrupt: true, CumulativeInflation: 2}},
		{{CashValue: 0, CumulativeInflation: 1}, {StockISAValue: 500, Rent: 50, CumulativeInflation: 2}},
	}

	summary := SummariseFinalYear(scenario, samples, 0, 100, true)

	if summary.Years != 1 {
		t.Errorf("expected 1 year, got %d", summary.Years)
	}
	if summary.Strategy != "Rent" {
		t.Errorf("expected strategy Rent, got %q", summary.Strategy)
	}
	// Real values: 0, 50, 150, 250
	assertMoneyEquals(t, 100, summary.PostTaxWealth, "median real wealth")
	assertMoneyEquals(t, 0, summary.WealthLow, "lowest wealth")
	assertMoneyEquals(t, 250, summary.WealthHigh, "highest wealth")
	assertMoneyEquals(t, 10, summary.Rent, "median real rent")
	assertMoneyEquals(t, 0.25, summary.BankruptFraction, "one in four bankrupt")

	nominal := SummariseFinalYear(scenario, samples, 0, 100, false)
	assertMoneyEquals(t, 200, nominal.PostTaxWealth, "median nominal wealth")
}
