package main

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var moneyPrinter = message.NewPrinter(language.BritishEnglish)

// FormatMoney formats a float as a currency string
func FormatMoney(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	if amount >= 1000000 {
		return fmt.Sprintf("%s£%.2fM", sign, amount/1000000)
	}
	if amount >= 1000 {
		return fmt.Sprintf("%s£%.0fk", sign, amount/1000)
	}
	return fmt.Sprintf("%s£%.0f", sign, amount)
}

// FormatMoneyFull formats a float as full currency with thousands separators
func FormatMoneyFull(amount float64) string {
	rounded := int64(math.Round(amount))
	if rounded < 0 {
		return moneyPrinter.Sprintf("-£%d", -rounded)
	}
	return moneyPrinter.Sprintf("£%d", rounded)
}

// FormatPercent formats a percent-unit value, e.g. 5.09 -> "5.09%"
func FormatPercent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate)
}

// PrintHeader prints the simulation header
func PrintHeader(config *Config) {
	fmt.Println("╔══════════════════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                  RENT VS BUY MONTE CARLO FORECAST                            ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println("──────────────")

	for _, sc := range config.Scenarios {
		strategy := StrategyRent
		if sc.IsBuying {
			strategy = StrategyBuy
		}
		fmt.Printf("  %s (%s): Cash %s, Salary %s/month\n",
			sc.Name, strategy, FormatMoney(sc.Cash), FormatMoneyFull(sc.Salary))
		if sc.IsBuying {
			stage1, stage2 := sc.Mortgage.ResolveStages()
			fmt.Printf("          House %s, Mortgage %s, Stamp Duty %s\n",
				FormatMoney(sc.HousePrice), FormatMoney(sc.Mortgage.Principal),
				FormatMoneyFull(ComputeStampDuty(sc.HousePrice, sc.FirstTimeBuyer)))
			fmt.Printf("          %s @ %s for %d years, then %s @ %s\n",
				FormatMoneyFull(stage1.MonthlyPayment), FormatPercent(stage1.InterestRate),
				sc.Mortgage.Stage1Length,
				FormatMoneyFull(stage2.MonthlyPayment), FormatPercent(stage2.InterestRate))
		} else {
			fmt.Printf("          Rent %s/month\n", FormatMoneyFull(sc.Rent))
		}
		d := sc.Distributions
		fmt.Printf("          Inflation %s | House %s | Stocks %s | Salary %s | Rent %s\n",
			describeDistribution(d.Inflation), describeDistribution(d.HouseAppreciation),
			describeDistribution(d.StockAppreciation), describeDistribution(d.SalaryGrowth),
			describeDistribution(d.RentGrowth))
	}

	low, high := config.Simulation.GetPercentiles()
	fmt.Println()
	fmt.Printf("  Simulation: %d years, %d samples, seed %g, %s draws\n",
		config.Simulation.YearsToForecast, config.Simulation.NumSamples,
		config.Simulation.Seed, strings.ToLower(config.Simulation.Distribution))
	fmt.Printf("  Bands: median with P%g-P%g | Values in %s\n",
		low, high, moneyBasis(config.Simulation.ShouldCorrectInflation()))
	fmt.Println()
}

func describeDistribution(d Distribution) string {
	if d.Preset != "" {
		if p := GetPresetByID(d.Preset); p != nil {
			return fmt.Sprintf("%s (%s)", Distribution{Mean: p.Mean, StdDev: p.StdDev}, p.ID)
		}
		return d.Preset
	}
	return d.String()
}

func moneyBasis(correctInflation bool) string {
	if correctInflation {
		return "today's money"
	}
	return "nominal money"
}

// PrintComparison prints the final-year medians of every scenario side by side
func PrintComparison(result *ComparisonResult) {
	fmt.Println()
	fmt.Println("╔════════════════════════════════════════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                                    FINAL YEAR SUMMARY (MEDIANS)                                    ║")
	fmt.Println("╚════════════════════════════════════════════════════════════════════════════════════════════════════╝")
	fmt.Println()

	results := result.Results

	// Header
	fmt.Printf("%-25s", "Metric")
	for _, r := range results {
		fmt.Printf(" │ %-18s", truncateString(r.Scenario.Name, 18))
	}
	fmt.Println()
	fmt.Println(strings.Repeat("─", 25+len(results)*21))

	row := func(label string, value func(FinalSummary) string) {
		fmt.Printf("%-25s", label)
		for _, r := range results {
			fmt.Printf(" │ %-18s", value(r.Summary))
		}
		fmt.Println()
	}

	row("Post-tax Wealth", func(s FinalSummary) string { return FormatMoney(s.PostTaxWealth) })
	row(fmt.Sprintf("Wealth P%g", result.Options.LowPercentile), func(s FinalSummary) string { return FormatMoney(s.WealthLow) })
	row(fmt.Sprintf("Wealth P%g", result.Options.HighPercentile), func(s FinalSummary) string { return FormatMoney(s.WealthHigh) })
	row("House Value", func(s FinalSummary) string { return FormatMoney(s.HouseValue) })
	row("Stocks (ISA)", func(s FinalSummary) string { return FormatMoney(s.StockISA) })
	row("Stocks (non-ISA)", func(s FinalSummary) string { return FormatMoney(s.StockNonISA) })
	row("Mortgage Balance", func(s FinalSummary) string { return FormatMoney(s.MortgageBalance) })
	row("Money Spent", func(s FinalSummary) string { return FormatMoney(s.MoneySpent) })
	row("Salary (monthly)", func(s FinalSummary) string { return FormatMoneyFull(s.Salary) })
	row("Rent (monthly)", func(s FinalSummary) string { return FormatMoneyFull(s.Rent) })
	row("Bankrupt", func(s FinalSummary) string { return fmt.Sprintf("%.0f%%", s.BankruptFraction*100) })

	fmt.Println(strings.Repeat("─", 25+len(results)*21))

	if adv, ok := result.WealthAdvantage(); ok {
		verdict := "Buying"
		if adv < 0 {
			verdict = "Renting"
		}
		fmt.Printf("\n  %s comes out ahead by %s (median final post-tax wealth, %s)\n",
			verdict, FormatMoneyFull(math.Abs(adv)), moneyBasis(result.Options.CorrectInflation))
	}
}

// PrintBandsTable prints a metric's median and percentile band every yearStep years
func PrintBandsTable(sr ScenarioResult, metric Metric, yearStep int) {
	bands, ok := sr.Bands[metric]
	if !ok {
		return
	}
	if yearStep <= 0 {
		yearStep = 1
	}

	fmt.Println()
	fmt.Printf("%s: %s\n", sr.Scenario.Name, metric)
	fmt.Println(strings.Repeat("─", 56))
	fmt.Printf("%6s │ %14s │ %14s │ %14s\n", "Year",
		fmt.Sprintf("P%g", bands.LowPercentile), "Median", fmt.Sprintf("P%g", bands.HighPercentile))
	fmt.Println(strings.Repeat("─", 56))

	last := len(bands.Median) - 1
	for year := 0; year <= last; year++ {
		if year%yearStep != 0 && year != last {
			continue
		}
		fmt.Printf("%6d │ %14s │ %14s │ %14s\n", year,
			FormatMoneyFull(bands.Low[year]), FormatMoneyFull(bands.Median[year]), FormatMoneyFull(bands.High[year]))
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
