package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/shadow-payroll/internal/cli"
	"github.com/Veraticus/shadow-payroll/internal/model"
	"github.com/Veraticus/shadow-payroll/internal/scenario"
	"github.com/charmbracelet/lipgloss"
)

// ComparisonTable lays a comparison out as rows of cells: a header of
// scenario names, one row per label, then the totals.
func ComparisonTable(c scenario.Comparison) [][]string {
	header := append([]string{"Item (USD/year)"}, c.Names...)
	rows := [][]string{header}
	for j, label := range c.Labels {
		cells := []string{label}
		for i := range c.Names {
			cells = append(cells, usd(c.Values[i][j]))
		}
		rows = append(rows, cells)
	}
	totals := []string{"Total Employer Cost"}
	for _, t := range c.Totals {
		totals = append(totals, usd(t))
	}
	return append(rows, totals)
}

// ComparisonMarkdown renders a comparison as a GFM table with the cheapest and
// most expensive scenarios called out.
func ComparisonMarkdown(c scenario.Comparison) string {
	var b strings.Builder
	b.WriteString("# Scenario Comparison\n\n")
	writeComparisonTable(&b, c)
	writeExtremes(&b, c)

	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "> %s\n", model.Disclaimer)
	return b.String()
}

// ComparisonTitle is the page title of the scenario report.
const ComparisonTitle = "Shadow Payroll Scenario Report"

// ComparisonReport renders the full scenario report: an executive summary,
// a cost chart with the comparison table, a detail section per scenario and
// a closing disclaimer. Sections are separated by rules, which print as page
// breaks. scenarios must be the ones c was built from, in the same order.
func ComparisonReport(c scenario.Comparison, scenarios []scenario.Scenario, generatedAt time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", ComparisonTitle)
	if !generatedAt.IsZero() {
		fmt.Fprintf(&b, "_Generated %s_\n\n", asOf(generatedAt))
	}

	b.WriteString("## Executive Summary\n\n")
	b.WriteString("| Scenario | Route | Duration | Total employer cost | PE risk |\n|---|---|---:|---:|---|\n")
	for i, sc := range scenarios {
		in := sc.Input()
		risk := "n/a"
		if r := sc.Result(); r != nil {
			risk = string(r.PERisk().RiskLevel)
		}
		fmt.Fprintf(&b, "| %s | %s to %s | %d months | %s | %s |\n",
			escapeCell(sc.Name()), escapeCell(in.HomeCountry), escapeCell(in.HostCountry),
			in.DurationMonths, usd(c.Totals[i]), risk)
	}
	b.WriteString("\n")
	writeExtremes(&b, c)

	if len(scenarios) > 1 {
		b.WriteString("## Scenario Comparison\n\n")
		writeCostChart(&b, c)
		writeComparisonTable(&b, c)
	}

	for _, sc := range scenarios {
		in := sc.Input()
		b.WriteString("---\n\n")
		fmt.Fprintf(&b, "## %s\n\n", sc.Name())
		fmt.Fprintf(&b, "%s to %s for %d months. Salary %s, housing %s, school %s.\n\n",
			in.HomeCountry, in.HostCountry, in.DurationMonths,
			usd(in.SalaryUSD), usd(in.HousingUSD), usd(in.SchoolUSD))
		if sc.Result() == nil {
			b.WriteString("_No estimate._\n\n")
			continue
		}
		writeEstimate(&b, sc.Result(), 3)
	}

	b.WriteString("---\n\n## Disclaimer\n\n")
	fmt.Fprintf(&b, "> %s\n", model.Disclaimer)
	return b.String()
}

func writeComparisonTable(b *strings.Builder, c scenario.Comparison) {
	rows := ComparisonTable(c)
	for i, cells := range rows {
		escaped := make([]string, len(cells))
		for k, cell := range cells {
			escaped[k] = escapeCell(cell)
		}
		if i == len(rows)-1 {
			for k := range escaped {
				escaped[k] = "**" + escaped[k] + "**"
			}
		}
		b.WriteString("| " + strings.Join(escaped, " | ") + " |\n")
		if i == 0 {
			b.WriteString("|---" + strings.Repeat("|---:", len(cells)-1) + "|\n")
		}
	}
	b.WriteString("\n")
}

func writeExtremes(b *strings.Builder, c scenario.Comparison) {
	if len(c.Names) < 2 {
		return
	}
	fmt.Fprintf(b, "- Lowest cost: **%s** (%s)\n", c.Names[c.Cheapest], usd(c.Totals[c.Cheapest]))
	fmt.Fprintf(b, "- Highest cost: **%s** (%s)\n\n", c.Names[c.MostExpensive], usd(c.Totals[c.MostExpensive]))
}

const chartWidth = 40

// writeCostChart draws one bar per scenario, scaled to the highest total.
func writeCostChart(b *strings.Builder, c scenario.Comparison) {
	if len(c.Totals) == 0 {
		return
	}
	top := slices.Max(c.Totals)
	if top <= 0 {
		return
	}
	width := 0
	for _, name := range c.Names {
		width = max(width, utf8.RuneCountInString(name))
	}

	b.WriteString("```\n")
	for i, name := range c.Names {
		n := int(math.Round(c.Totals[i] / top * chartWidth))
		fmt.Fprintf(b, "%-*s %s %s\n", width, name, strings.Repeat("█", n), usd(c.Totals[i]))
	}
	b.WriteString("```\n\n")
}

// ComparisonTerminal renders a comparison as an aligned, styled table.
func ComparisonTerminal(c scenario.Comparison) string {
	rows := ComparisonTable(c)
	widths := make([]int, len(rows[0]))
	for _, cells := range rows {
		for k, cell := range cells {
			widths[k] = max(widths[k], lipgloss.Width(cell))
		}
	}

	lines := make([]string, 0, len(rows)+3)
	for i, cells := range rows {
		rendered := make([]string, len(cells))
		for k, cell := range cells {
			style := cli.TableCellStyle.Width(widths[k] + 2)
			if k > 0 {
				style = style.Align(lipgloss.Right)
				switch {
				case i > 0 && i == len(rows)-1 && len(c.Names) > 1 && k-1 == c.Cheapest:
					style = style.Foreground(cli.LowColor)
				case i > 0 && i == len(rows)-1 && len(c.Names) > 1 && k-1 == c.MostExpensive:
					style = style.Foreground(cli.HighColor)
				}
			}
			if i == 0 || i == len(rows)-1 {
				style = style.Bold(true)
			}
			rendered[k] = style.Render(cell)
		}
		line := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
		if i == 0 {
			line = cli.TableHeaderStyle.Render(line)
		}
		lines = append(lines, line)
	}

	lines = append(lines, "", cli.DisclaimerStyle.Render(model.Disclaimer))
	return lipgloss.JoinVertical(lipgloss.Left,
		cli.FormatTitle("Scenario Comparison"),
		strings.Join(lines, "\n"))
}

// ComparisonCSV writes the comparison table followed by a disclaimer row.
func ComparisonCSV(w io.Writer, c scenario.Comparison) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(ComparisonTable(c)); err != nil {
		return fmt.Errorf("write comparison csv: %w", err)
	}
	if err := cw.Write([]string{"Disclaimer", model.Disclaimer}); err != nil {
		return fmt.Errorf("write comparison csv: %w", err)
	}
	cw.Flush()
	return cw.Error()
}
