package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	// Custom usage message
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Rent vs Buy Monte Carlo Forecaster

Simulates many possible futures for a household that either buys a home with a
mortgage or rents and invests the difference. Each year salary, stock returns,
house prices, rent and inflation are drawn at random; the tool reports the median
and a percentile band of every tracked quantity across the samples.

Usage:
  %s [options]

Options:
`, os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  %s                              Compare the scenarios in config.yaml
  %s -config my.yaml -details     Year-by-year bands for every reported metric
  %s -csv bands.csv -pdf out.pdf  Export bands and a PDF report
  %s -html report.html            HTML report with a post-tax wealth fan chart
  %s -sensitivity                 Buy minus rent across house/stock growth means
  %s -inputs-url '<share link>'   Import scenarios from a web app share link
  %s -web                         JSON API server (settings from RENTVSBUY_* env vars)

Configuration:
  Edit config.yaml to change the scenarios, random distributions and tax rules.
  If config.yaml does not exist the built-in defaults are used; -save-config writes
  them out for editing.
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0])
	}

	// Command line flags
	configFile := flag.String("config", "config.yaml", "Path to YAML configuration file")
	showDetails := flag.Bool("details", false, "Show year-by-year bands for each reported metric")
	csvPath := flag.String("csv", "", "Write percentile bands to this CSV file")
	pdfPath := flag.String("pdf", "", "Write a PDF comparison report to this file")
	htmlPath := flag.String("html", "", "Write an HTML report with fan charts to this file")
	runSensitivity := flag.Bool("sensitivity", false, "Run sensitivity analysis across house/stock growth means")
	inputsURL := flag.String("inputs-url", "", "Replace the scenarios with those encoded in a web app share link")
	seed := flag.Float64("seed", -1, "Override simulation seed (negative = use config)")
	samples := flag.Int("samples", 0, "Override number of samples (0 = use config)")
	workers := flag.Int("workers", -1, "Override worker count (negative = use config, 0 = one per CPU)")
	saveConfig := flag.String("save-config", "", "Write the effective configuration to this file and exit")
	webMode := flag.Bool("web", false, "Start the JSON API server")
	webAddr := flag.String("addr", "", "Web server address (overrides RENTVSBUY_ADDR)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *webMode {
		if err := runWebServer(ctx, *configFile, *webAddr); err != nil {
			fmt.Fprintf(os.Stderr, "Web server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	config, err := loadConfigOrDefault(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *inputsURL != "" {
		if err := ApplyInputsURL(config, *inputsURL); err != nil {
			fmt.Fprintf(os.Stderr, "Error importing inputs URL: %v\n", err)
			os.Exit(1)
		}
	}
	if *seed >= 0 {
		config.Simulation.Seed = *seed
	}
	if *samples > 0 {
		config.Simulation.NumSamples = *samples
	}
	if *workers >= 0 {
		config.Simulation.Workers = *workers
	}

	if *saveConfig != "" {
		if err := SaveConfig(config, *saveConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration written to %s\n", *saveConfig)
		return
	}

	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration:\n%v\n", err)
		os.Exit(1)
	}

	PrintHeader(config)

	if *runSensitivity {
		start := time.Now()
		analysis, err := RunSensitivityAnalysis(ctx, config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Sensitivity analysis failed: %v\n", err)
			os.Exit(1)
		}
		PrintSensitivityGrid(analysis)
		fmt.Printf("\nCompleted in %s\n", time.Since(start).Round(time.Millisecond))
		return
	}

	start := time.Now()
	result, err := RunComparison(ctx, config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Simulation failed: %v\n", err)
		os.Exit(1)
	}

	if *showDetails {
		for _, sr := range result.Results {
			for _, m := range AllMetrics {
				PrintBandsTable(sr, m, config.Report.GetYearStep())
			}
		}
	}

	PrintComparison(result)
	fmt.Printf("\nCompleted %d samples per scenario in %s\n",
		result.Settings.NumSamples, time.Since(start).Round(time.Millisecond))

	if *csvPath != "" {
		writer := &BandsCSVWriter{IncludeHeader: true}
		if err := writer.WriteToFile(*csvPath, result); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Bands written to %s\n", *csvPath)
	}

	if *pdfPath != "" {
		pdfBytes, err := GenerateComparisonPDFReport(config, result)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating PDF: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*pdfPath, pdfBytes, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing PDF: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("PDF report written to %s\n", *pdfPath)
	}

	if *htmlPath != "" {
		if err := WriteHTMLReport(*htmlPath, config, result); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing HTML report: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("HTML report written to %s\n", *htmlPath)
	}
}

// loadConfigOrDefault loads the config file, falling back to the built-in defaults
// when it does not exist
func loadConfigOrDefault(path string) (*Config, error) {
	config, err := LoadConfig(path)
	if err == nil {
		return config, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}
	log.Printf("%s not found, using built-in defaults", path)
	return LoadDefaultConfig()
}

// runWebServer starts the API server with settings from the environment
func runWebServer(ctx context.Context, configFile, addr string) error {
	serverEnv, err := LoadServerEnv()
	if err != nil {
		return err
	}
	if addr != "" {
		serverEnv.Addr = addr
	}
	// An explicit -config wins over RENTVSBUY_CONFIG
	if configFile != "config.yaml" || os.Getenv("RENTVSBUY_CONFIG") == "" {
		serverEnv.ConfigPath = configFile
	}

	config, err := loadConfigOrDefault(serverEnv.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var store *RunStore
	if serverEnv.DBPath != "" {
		store, err = OpenRunStore(serverEnv.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		log.Printf("Run history stored in %s", serverEnv.DBPath)
	}

	return NewWebServer(config, serverEnv.Addr, store, serverEnv).Start(ctx)
}
