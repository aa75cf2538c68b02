package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// BandsCSVWriter writes percentile bands in long format, one row per scenario, metric and year
type BandsCSVWriter struct {
	IncludeHeader bool // Prefix the table with "# key,value" run metadata rows
}

// WriteToFile writes the bands of a comparison to a CSV file at the given path
func (w *BandsCSVWriter) WriteToFile(path string, result *ComparisonResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	if err := w.Write(f, result); err != nil {
		return err
	}
	return f.Close()
}

// Write writes the bands of a comparison in CSV format to the given writer
func (w *BandsCSVWriter) Write(out io.Writer, result *ComparisonResult) error {
	writer := csv.NewWriter(out)

	if w.IncludeHeader {
		meta := [][]string{
			{"# Seed", strconv.FormatFloat(result.Settings.Seed, 'g', -1, 64)},
			{"# Samples", strconv.Itoa(result.Settings.NumSamples)},
			{"# Years", strconv.Itoa(result.Settings.YearsToForecast)},
			{"# Distribution", result.Settings.Kind.String()},
			{"# Inflation corrected", strconv.FormatBool(result.Options.CorrectInflation)},
		}
		if err := writer.WriteAll(meta); err != nil {
			return fmt.Errorf("failed to write CSV metadata: %w", err)
		}
	}

	header := []string{
		"scenario", "strategy", "metric", "year", "median",
		"p" + formatPercentile(result.Options.LowPercentile),
		"p" + formatPercentile(result.Options.HighPercentile),
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, sr := range result.Results {
		for _, m := range AllMetrics {
			bands, ok := sr.Bands[m]
			if !ok {
				continue
			}
			for year := range bands.Median {
				row := []string{
					sr.Scenario.Name,
					sr.Scenario.Strategy().String(),
					m.Key(),
					strconv.Itoa(year),
					formatCSVAmount(bands.Median[year]),
					formatCSVAmount(bands.Low[year]),
					formatCSVAmount(bands.High[year]),
				}
				if err := writer.Write(row); err != nil {
					return fmt.Errorf("failed to write CSV row: %w", err)
				}
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatCSVAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

func formatPercentile(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
