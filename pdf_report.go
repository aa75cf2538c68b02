package main

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

var pdfReplacer = strings.NewReplacer("£", "\xa3", "±", "\xb1", "─", "-", "…", "...")

// pdfText converts UTF-8 text to PDF-safe encoding
// The standard PDF fonts expect Latin-1, so £ and ± become single bytes
func pdfText(s string) string {
	return pdfReplacer.Replace(s)
}

// FormatMoneyPDF formats money for PDF output (handles £ encoding)
func FormatMoneyPDF(amount float64) string {
	return pdfText(FormatMoney(amount))
}

// PDFComparisonReport builds the rent vs buy PDF report
type PDFComparisonReport struct {
	pdf      *fpdf.Fpdf
	config   *Config
	result   *ComparisonResult
	yearStep int
}

const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight
)

// GenerateComparisonPDFReport creates a PDF report of a finished comparison
func GenerateComparisonPDFReport(config *Config, result *ComparisonResult) ([]byte, error) {
	report := &PDFComparisonReport{
		pdf:      fpdf.New("P", "mm", "A4", ""),
		config:   config,
		result:   result,
		yearStep: config.Report.GetYearStep(),
	}

	report.pdf.SetMargins(marginLeft, marginTop, marginRight)
	report.pdf.SetAutoPageBreak(true, marginBottom)
	report.pdf.SetTitle("Rent vs Buy Forecast", false)
	report.pdf.SetFooterFunc(report.footer)

	// Add pages
	report.addTitlePage()
	report.addInputsPage()
	report.addSummaryPage()
	for _, sr := range result.Results {
		report.addScenarioBands(sr)
	}

	if err := report.pdf.Error(); err != nil {
		return nil, err
	}

	// Output to buffer
	var buf bytes.Buffer
	if err := report.pdf.Output(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (r *PDFComparisonReport) footer() {
	r.pdf.SetY(-12)
	r.pdf.SetFont("Arial", "I", 8)
	r.pdf.SetTextColor(120, 120, 120)
	r.pdf.CellFormat(contentWidth, 5, fmt.Sprintf("Page %d", r.pdf.PageNo()), "", 0, "C", false, 0, "")
}

func (r *PDFComparisonReport) addTitlePage() {
	r.pdf.AddPage()

	// Title
	r.pdf.SetFont("Arial", "B", 28)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.Ln(50)
	r.pdf.CellFormat(contentWidth, 15, "Rent vs Buy Forecast", "", 1, "C", false, 0, "")

	r.pdf.SetFont("Arial", "", 14)
	r.pdf.SetTextColor(80, 80, 80)
	r.pdf.Ln(10)
	names := make([]string, 0, len(r.result.Results))
	for _, sr := range r.result.Results {
		names = append(names, sr.Scenario.Name)
	}
	r.pdf.CellFormat(contentWidth, 10, pdfText(strings.Join(names, " vs ")), "", 1, "C", false, 0, "")

	// Generation date
	r.pdf.SetFont("Arial", "I", 11)
	r.pdf.Ln(15)
	r.pdf.CellFormat(contentWidth, 8, fmt.Sprintf("Generated: %s", time.Now().Format("2 January 2006")), "", 1, "C", false, 0, "")

	// Simulation box
	settings := r.result.Settings
	r.pdf.Ln(20)
	r.pdf.SetFillColor(245, 247, 250)
	r.pdf.SetDrawColor(200, 200, 200)
	r.pdf.SetFont("Arial", "B", 12)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 8, "Simulation", "1", 1, "C", true, 0, "")

	r.pdf.SetFont("Arial", "", 11)
	r.pdf.SetTextColor(50, 50, 50)
	lines := []string{
		fmt.Sprintf("%d years, %d Monte Carlo samples, seed %g", settings.YearsToForecast, settings.NumSamples, settings.Seed),
		fmt.Sprintf("%s growth draws, bands P%g to P%g around the median", settings.Kind, r.result.Options.LowPercentile, r.result.Options.HighPercentile),
		fmt.Sprintf("Values in %s", moneyBasis(r.result.Options.CorrectInflation)),
	}
	for i, line := range lines {
		border := "LR"
		if i == len(lines)-1 {
			border = "LRB"
		}
		r.pdf.CellFormat(contentWidth, 7, pdfText(line), border, 1, "C", true, 0, "")
	}

	// Verdict box
	if adv, ok := r.result.WealthAdvantage(); ok {
		verdict := "Buying"
		if adv < 0 {
			verdict = "Renting"
			adv = -adv
		}
		r.pdf.Ln(10)
		r.pdf.SetFont("Arial", "B", 12)
		r.pdf.SetTextColor(0, 51, 102)
		r.pdf.CellFormat(contentWidth, 8, "Outcome", "1", 1, "C", true, 0, "")
		r.pdf.SetFont("Arial", "", 11)
		r.pdf.SetTextColor(50, 50, 50)
		text := fmt.Sprintf("%s comes out ahead by %s in median final post-tax wealth", verdict, FormatMoneyFull(adv))
		r.pdf.CellFormat(contentWidth, 7, pdfText(text), "LRB", 1, "C", true, 0, "")
	}

	// Disclaimer
	r.pdf.Ln(15)
	r.pdf.SetFont("Arial", "I", 9)
	r.pdf.SetTextColor(120, 120, 120)
	r.pdf.MultiCell(contentWidth, 4.5,
		"This document is for informational purposes only and does not constitute financial advice. "+
			"Results are simulated from historical averages and assumed volatilities; actual outcomes "+
			"for a single home can differ widely. Tax rules and allowances are subject to change.", "", "C", false)
}

func (r *PDFComparisonReport) addInputsPage() {
	r.pdf.AddPage()
	r.drawSectionHeader("Inputs")

	widths := []float64{60}
	headers := []string{"Input"}
	colWidth := (contentWidth - 60) / float64(max(len(r.result.Results), 1))
	for _, sr := range r.result.Results {
		widths = append(widths, colWidth)
		headers = append(headers, truncateString(sr.Scenario.Name, 24))
	}
	r.drawTableHeader(headers, widths)

	row := func(label string, value func(Scenario) string) {
		cells := []string{label}
		for _, sr := range r.result.Results {
			cells = append(cells, pdfText(value(sr.Scenario)))
		}
		r.drawTableRow(cells, widths, false)
	}

	row("Strategy", func(s Scenario) string { return s.Strategy().String() })
	row("Cash", func(s Scenario) string { return FormatMoneyFull(s.Purchase.Cash) })
	row("Salary (monthly)", func(s Scenario) string { return FormatMoneyFull(s.Purchase.Salary) })
	row("House price", func(s Scenario) string { return FormatMoneyFull(s.Purchase.HousePrice) })
	row("Rent (monthly)", func(s Scenario) string { return FormatMoneyFull(s.Purchase.Rent) })
	row("Mortgage", func(s Scenario) string { return FormatMoneyFull(s.Purchase.Mortgage) })
	row("Stamp duty", func(s Scenario) string {
		if !s.Purchase.IsBuying {
			return "-"
		}
		return FormatMoneyFull(ComputeStampDuty(s.Purchase.HousePrice, s.Purchase.FirstTimeBuyer))
	})
	row("Stage 1", func(s Scenario) string {
		return fmt.Sprintf("%s @ %s, %dy", FormatMoneyFull(s.Stage1.MonthlyPayment), FormatPercent(s.Stage1.InterestRate), s.Stage1Length)
	})
	row("Stage 2", func(s Scenario) string {
		return fmt.Sprintf("%s @ %s", FormatMoneyFull(s.Stage2.MonthlyPayment), FormatPercent(s.Stage2.InterestRate))
	})
	row("Running costs (year 1)", func(s Scenario) string {
		if !s.Purchase.IsBuying {
			return "-"
		}
		return FormatMoneyFull(RunningHouseCosts(s.Purchase.HousePrice, s.Policy))
	})
	row("Inflation", func(s Scenario) string { return s.Distributions.Inflation.String() })
	row("House appreciation", func(s Scenario) string { return s.Distributions.HouseAppreciation.String() })
	row("Stock appreciation", func(s Scenario) string { return s.Distributions.StockAppreciation.String() })
	row("Salary growth", func(s Scenario) string { return s.Distributions.SalaryGrowth.String() })
	row("Rent growth", func(s Scenario) string { return s.Distributions.RentGrowth.String() })
}

func (r *PDFComparisonReport) addSummaryPage() {
	r.pdf.AddPage()
	r.drawSectionHeader(fmt.Sprintf("Year %d Summary (medians)", r.result.Settings.YearsToForecast))

	widths := []float64{60}
	headers := []string{"Metric"}
	colWidth := (contentWidth - 60) / float64(max(len(r.result.Results), 1))
	for _, sr := range r.result.Results {
		widths = append(widths, colWidth)
		headers = append(headers, truncateString(sr.Scenario.Name, 24))
	}
	r.drawTableHeader(headers, widths)

	row := func(label string, bold bool, value func(FinalSummary) string) {
		cells := []string{label}
		for _, sr := range r.result.Results {
			cells = append(cells, pdfText(value(sr.Summary)))
		}
		r.drawTableRow(cells, widths, bold)
	}

	opts := r.result.Options
	row("Post-tax wealth", true, func(s FinalSummary) string { return FormatMoneyFull(s.PostTaxWealth) })
	row(fmt.Sprintf("Wealth P%g", opts.LowPercentile), false, func(s FinalSummary) string { return FormatMoneyFull(s.WealthLow) })
	row(fmt.Sprintf("Wealth P%g", opts.HighPercentile), false, func(s FinalSummary) string { return FormatMoneyFull(s.WealthHigh) })
	row("House value", false, func(s FinalSummary) string { return FormatMoneyFull(s.HouseValue) })
	row("Stocks (ISA)", false, func(s FinalSummary) string { return FormatMoneyFull(s.StockISA) })
	row("Stocks (non-ISA)", false, func(s FinalSummary) string { return FormatMoneyFull(s.StockNonISA) })
	row("Mortgage balance", false, func(s FinalSummary) string { return FormatMoneyFull(s.MortgageBalance) })
	row("Money spent", false, func(s FinalSummary) string { return FormatMoneyFull(s.MoneySpent) })
	row("Salary (monthly)", false, func(s FinalSummary) string { return FormatMoneyFull(s.Salary) })
	row("Rent (monthly)", false, func(s FinalSummary) string { return FormatMoneyFull(s.Rent) })
	row("Bankrupt samples", false, func(s FinalSummary) string { return fmt.Sprintf("%.0f%%", s.BankruptFraction*100) })

	r.pdf.Ln(6)
	r.pdf.SetFont("Arial", "I", 9)
	r.pdf.SetTextColor(100, 100, 100)
	r.pdf.MultiCell(contentWidth, 4.5,
		"Post-tax wealth is house value plus cash and stocks, less the mortgage and the capital gains tax "+
			"that selling the non-ISA stocks would incur. Money spent counts interest, rent, stamp duty, "+
			"buying and running costs.", "", "L", false)
}

func (r *PDFComparisonReport) addScenarioBands(sr ScenarioResult) {
	metrics := make([]Metric, 0, len(sr.Bands))
	for _, m := range AllMetrics {
		if _, ok := sr.Bands[m]; ok {
			metrics = append(metrics, m)
		}
	}
	if len(metrics) == 0 {
		return
	}

	r.pdf.AddPage()
	r.drawSectionHeader(pdfText(fmt.Sprintf("%s (%s): Median by Year", sr.Scenario.Name, sr.Scenario.Strategy())))

	// Up to five metrics fit across the page
	if len(metrics) > 5 {
		metrics = metrics[:5]
	}
	widths := []float64{15}
	headers := []string{"Year"}
	colWidth := (contentWidth - 15) / float64(len(metrics))
	for _, m := range metrics {
		widths = append(widths, colWidth)
		headers = append(headers, m.String())
	}
	r.drawTableHeader(headers, widths)

	years := sr.Samples.Years()
	for year := 0; year < years; year++ {
		if year%r.yearStep != 0 && year != years-1 {
			continue
		}
		cells := []string{fmt.Sprintf("%d", year)}
		for _, m := range metrics {
			cells = append(cells, FormatMoneyPDF(sr.Bands[m].Median[year]))
		}
		r.drawTableRow(cells, widths, year == years-1)
	}

	// Percentile band of the headline metric
	headline := metrics[0]
	bands := sr.Bands[headline]
	r.pdf.Ln(8)
	r.drawSectionHeader(fmt.Sprintf("%s Range", headline))
	bandWidths := []float64{15, (contentWidth - 15) / 3, (contentWidth - 15) / 3, (contentWidth - 15) / 3}
	r.drawTableHeader([]string{"Year", fmt.Sprintf("P%g", bands.LowPercentile), "Median", fmt.Sprintf("P%g", bands.HighPercentile)}, bandWidths)
	for year := 0; year < len(bands.Median); year++ {
		if year%r.yearStep != 0 && year != len(bands.Median)-1 {
			continue
		}
		r.drawTableRow([]string{
			fmt.Sprintf("%d", year),
			pdfText(FormatMoneyFull(bands.Low[year])),
			pdfText(FormatMoneyFull(bands.Median[year])),
			pdfText(FormatMoneyFull(bands.High[year])),
		}, bandWidths, false)
	}
}

// Helper functions

func (r *PDFComparisonReport) drawSectionHeader(title string) {
	r.pdf.SetFont("Arial", "B", 16)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 10, title, "", 1, "L", false, 0, "")
	r.pdf.SetDrawColor(0, 51, 102)
	r.pdf.Line(marginLeft, r.pdf.GetY(), marginLeft+contentWidth, r.pdf.GetY())
	r.pdf.Ln(5)
}

func (r *PDFComparisonReport) drawTableHeader(headers []string, widths []float64) {
	r.pdf.SetFillColor(0, 51, 102)
	r.pdf.SetTextColor(255, 255, 255)
	r.pdf.SetFont("Arial", "B", 9)

	for i, header := range headers {
		align := "L"
		if i > 0 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 6, pdfText(header), "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}

func (r *PDFComparisonReport) drawTableRow(cells []string, widths []float64, isBold bool) {
	r.pdf.SetFillColor(250, 250, 250)
	r.pdf.SetTextColor(50, 50, 50)

	if isBold {
		r.pdf.SetFont("Arial", "B", 9)
		r.pdf.SetFillColor(240, 240, 240)
	} else {
		r.pdf.SetFont("Arial", "", 9)
	}

	for i, cell := range cells {
		align := "L"
		if i > 0 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 5, cell, "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}
