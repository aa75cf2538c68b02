package main

import (
	"fmt"
	"html"
	"io"
	"math"
	"os"
	"strings"
	"time"
)

// Fan chart colours per scenario, in config order
var fanColours = []string{"#2563eb", "#16a34a", "#ea580c", "#9333ea", "#dc2626"}

// WriteHTMLReport writes the comparison report to an HTML file
func WriteHTMLReport(path string, config *Config, result *ComparisonResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report %q: %w", path, err)
	}
	defer f.Close()

	if err := GenerateHTMLReport(f, config, result); err != nil {
		return err
	}
	return f.Close()
}

// GenerateHTMLReport renders a self-contained HTML page with the final-year summary,
// a post-tax wealth fan chart and the yearly bands of every scenario
func GenerateHTMLReport(w io.Writer, config *Config, result *ComparisonResult) error {
	ew := &errWriter{w: w}

	fmt.Fprintf(ew, `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Rent vs Buy Forecast</title>
    <style>
        :root {
            --primary: #2563eb;
            --success: #16a34a;
            --danger: #dc2626;
            --bg: #f8fafc;
            --card-bg: #ffffff;
            --text: #1e293b;
            --text-muted: #64748b;
            --border: #e2e8f0;
        }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: var(--bg);
            color: var(--text);
            line-height: 1.6;
            padding: 2rem;
        }
        .container { max-width: 1200px; margin: 0 auto; }
        h1 { font-size: 1.75rem; margin-bottom: 0.5rem; color: var(--primary); }
        h2 {
            font-size: 1.25rem;
            margin: 1.5rem 0 1rem;
            padding-bottom: 0.5rem;
            border-bottom: 2px solid var(--primary);
        }
        .subtitle { color: var(--text-muted); margin-bottom: 1.5rem; }
        .card {
            background: var(--card-bg);
            border-radius: 8px;
            box-shadow: 0 1px 3px rgba(0,0,0,0.1);
            padding: 1.5rem;
            margin-bottom: 1.5rem;
        }
        .verdict { font-size: 1.2rem; font-weight: 600; }
        .verdict.buy { color: var(--success); }
        .verdict.rent { color: var(--primary); }
        table { width: 100%%; border-collapse: collapse; font-size: 0.875rem; }
        th, td { padding: 0.4rem 0.6rem; text-align: right; border-bottom: 1px solid var(--border); }
        th:first-child, td:first-child { text-align: left; }
        th { background: var(--bg); font-weight: 600; }
        .legend span { display: inline-block; margin-right: 1.5rem; }
        .swatch { display: inline-block; width: 12px; height: 12px; border-radius: 2px; margin-right: 0.3rem; }
        svg text { font-size: 11px; fill: var(--text-muted); }
    </style>
</head>
<body>
<div class="container">
    <h1>Rent vs Buy Forecast</h1>
    <p class="subtitle">%d samples over %d years, seed %g, %s distribution. Values in %s. Generated %s.</p>
`, result.Settings.NumSamples, result.Settings.YearsToForecast, result.Settings.Seed,
		result.Settings.Kind, moneyBasis(result.Options.CorrectInflation), time.Now().Format("2 January 2006 15:04"))

	writeVerdictHTML(ew, result)
	writeSummaryTableHTML(ew, result)
	writeFanChartHTML(ew, result, MetricPostTaxWealth)

	yearStep := config.Report.GetYearStep()
	for _, sr := range result.Results {
		for _, m := range AllMetrics {
			if _, ok := sr.Bands[m]; ok {
				writeBandsTableHTML(ew, sr, m, yearStep)
			}
		}
	}

	fmt.Fprint(ew, `</div>
</body>
</html>
`)
	return ew.err
}

// errWriter keeps the first write error so the report can be written without checks
// on every Fprintf
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

func writeVerdictHTML(w io.Writer, result *ComparisonResult) {
	adv, ok := result.WealthAdvantage()
	if !ok {
		return
	}
	class, verdict := "buy", "Buying"
	if adv < 0 {
		class, verdict = "rent", "Renting"
	}
	fmt.Fprintf(w, `    <div class="card">
        <p class="verdict %s">%s comes out ahead by %s</p>
        <p class="subtitle">Difference in median final post-tax wealth</p>
    </div>
`, class, verdict, FormatMoneyFull(math.Abs(adv)))
}

func writeSummaryTableHTML(w io.Writer, result *ComparisonResult) {
	fmt.Fprint(w, `    <div class="card">
        <h2>Final Year (medians)</h2>
        <table>
            <tr><th>Metric</th>`)
	for _, r := range result.Results {
		fmt.Fprintf(w, "<th>%s (%s)</th>", html.EscapeString(r.Scenario.Name), r.Summary.Strategy)
	}
	fmt.Fprint(w, "</tr>\n")

	row := func(label string, value func(FinalSummary) string) {
		fmt.Fprintf(w, "            <tr><td>%s</td>", label)
		for _, r := range result.Results {
			fmt.Fprintf(w, "<td>%s</td>", value(r.Summary))
		}
		fmt.Fprint(w, "</tr>\n")
	}
	row("Post-tax wealth", func(s FinalSummary) string { return FormatMoneyFull(s.PostTaxWealth) })
	row(fmt.Sprintf("Wealth P%g", result.Options.LowPercentile), func(s FinalSummary) string { return FormatMoneyFull(s.WealthLow) })
	row(fmt.Sprintf("Wealth P%g", result.Options.HighPercentile), func(s FinalSummary) string { return FormatMoneyFull(s.WealthHigh) })
	row("House value", func(s FinalSummary) string { return FormatMoneyFull(s.HouseValue) })
	row("Stocks (ISA)", func(s FinalSummary) string { return FormatMoneyFull(s.StockISA) })
	row("Stocks (non-ISA)", func(s FinalSummary) string { return FormatMoneyFull(s.StockNonISA) })
	row("Mortgage balance", func(s FinalSummary) string { return FormatMoneyFull(s.MortgageBalance) })
	row("Money spent", func(s FinalSummary) string { return FormatMoneyFull(s.MoneySpent) })
	row("Bankrupt", func(s FinalSummary) string { return fmt.Sprintf("%.0f%%", s.BankruptFraction*100) })

	fmt.Fprint(w, `        </table>
    </div>
`)
}

// writeFanChartHTML draws each scenario's percentile band as a shaded area with the
// median as a line, all on one scale
func writeFanChartHTML(w io.Writer, result *ComparisonResult, metric Metric) {
	const width, height, pad = 1000.0, 360.0, 60.0

	lo, hi, years := math.Inf(1), math.Inf(-1), 0
	for _, sr := range result.Results {
		b, ok := sr.Bands[metric]
		if !ok {
			continue
		}
		for i := range b.Median {
			lo = min(lo, b.Low[i])
			hi = max(hi, b.High[i])
		}
		years = max(years, len(b.Median)-1)
	}
	if math.IsInf(lo, 0) || years == 0 {
		return
	}
	if hi == lo {
		hi = lo + 1
	}

	x := func(year int) float64 { return pad + float64(year)/float64(years)*(width-2*pad) }
	y := func(v float64) float64 { return height - pad - (v-lo)/(hi-lo)*(height-2*pad) }

	fmt.Fprintf(w, `    <div class="card">
        <h2>%s</h2>
        <svg viewBox="0 0 %.0f %.0f" width="100%%" role="img">
`, metric, width, height)

	// Axes with min, zero and max labels
	fmt.Fprintf(w, `            <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#94a3b8"/>
`, pad, height-pad, width-pad, height-pad)
	for _, v := range []float64{lo, hi} {
		fmt.Fprintf(w, `            <text x="4" y="%.1f">%s</text>
`, y(v)+4, FormatMoney(v))
	}
	if lo < 0 && hi > 0 {
		fmt.Fprintf(w, `            <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#cbd5e1" stroke-dasharray="4"/>
`, pad, y(0), width-pad, y(0))
	}
	fmt.Fprintf(w, `            <text x="%.1f" y="%.1f">Year 0</text><text x="%.1f" y="%.1f">Year %d</text>
`, pad, height-pad+18, width-pad-40, height-pad+18, years)

	for i, sr := range result.Results {
		b, ok := sr.Bands[metric]
		if !ok {
			continue
		}
		colour := fanColours[i%len(fanColours)]

		var band, median strings.Builder
		for year := range b.High {
			fmt.Fprintf(&band, "%.1f,%.1f ", x(year), y(b.High[year]))
			fmt.Fprintf(&median, "%.1f,%.1f ", x(year), y(b.Median[year]))
		}
		for year := len(b.Low) - 1; year >= 0; year-- {
			fmt.Fprintf(&band, "%.1f,%.1f ", x(year), y(b.Low[year]))
		}
		fmt.Fprintf(w, `            <polygon points="%s" fill="%s" fill-opacity="0.15"/>
            <polyline points="%s" fill="none" stroke="%s" stroke-width="2"/>
`, strings.TrimSpace(band.String()), colour, strings.TrimSpace(median.String()), colour)
	}
	fmt.Fprint(w, "        </svg>\n        <p class=\"legend\">")
	for i, sr := range result.Results {
		fmt.Fprintf(w, `<span><span class="swatch" style="background:%s"></span>%s</span>`,
			fanColours[i%len(fanColours)], html.EscapeString(sr.Scenario.Name))
	}
	fmt.Fprint(w, "</p>\n    </div>\n")
}

func writeBandsTableHTML(w io.Writer, sr ScenarioResult, metric Metric, yearStep int) {
	bands := sr.Bands[metric]
	if yearStep <= 0 {
		yearStep = 1
	}

	fmt.Fprintf(w, `    <div class="card">
        <h2>%s: %s</h2>
        <table>
            <tr><th>Year</th><th>P%g</th><th>Median</th><th>P%g</th></tr>
`, html.EscapeString(sr.Scenario.Name), metric, bands.LowPercentile, bands.HighPercentile)

	last := len(bands.Median) - 1
	for year := 0; year <= last; year++ {
		if year%yearStep != 0 && year != last {
			continue
		}
		fmt.Fprintf(w, "            <tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td></tr>\n", year,
			FormatMoneyFull(bands.Low[year]), FormatMoneyFull(bands.Median[year]), FormatMoneyFull(bands.High[year]))
	}
	fmt.Fprint(w, `        </table>
    </div>
`)
}
