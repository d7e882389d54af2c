package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/shadow-payroll/internal/calc"
	"github.com/Veraticus/shadow-payroll/internal/model"
	"github.com/Veraticus/shadow-payroll/internal/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var generated = time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)

func testResult(t *testing.T, total float64, items ...model.LineItem) *model.EstimationResult {
	t.Helper()
	if len(items) == 0 {
		items = []model.LineItem{
			{Label: "Income Tax", AmountUSD: 120_000, AmountLocal: 120_000_000},
			{Label: "Social Security - Employer", AmountUSD: 96_000, AmountLocal: 96_000_000},
			{Label: "PE Administration", AmountUSD: 15_000, AmountLocal: 15_000_000, IsRange: true,
				RangeLowUSD: 10_000, RangeHighUSD: 20_000, RangeDisclaimer: "Depends on provider"},
		}
	}
	r, err := model.NewEstimationResult(model.EstimationDraft{
		LineItems:              items,
		TotalEmployerCostUSD:   total,
		TotalEmployerCostLocal: total * 1000,
		LocalCurrency:          "ARS",
		Overall:                model.CostRating{Level: model.TierHigh, RegionName: "Latin America", TypicalRangeLowUSD: 500_000, TypicalRangeHighUSD: 650_000},
		ItemRatings:            []model.ItemRating{{ItemLabel: "Income Tax", Level: model.TierMedium}},
		PERisk: model.PERisk{
			RiskLevel:        model.TierHigh,
			FallbackLevel:    model.TierMedium,
			ThresholdDays:    183,
			AssignmentDays:   1080,
			ExceedsThreshold: true,
			Mitigations:      []string{"Use an employer of record", "Limit signing authority"},
		},
		Insights: "Argentine employer contributions dominate the cost.",
		Metadata: model.Metadata{
			Model:       "gpt-4o",
			GeneratedAt: generated,
			FX:          model.FXProvenance{Currency: "ARS", Rate: 1000, Source: "open.er-api.com", AsOf: generated},
		},
	})
	require.NoError(t, err)
	return r
}

func testDocument(t *testing.T, withResult bool) Document {
	t.Helper()
	in := model.NewPayrollInput(model.DefaultLimits())
	require.NoError(t, in.SetHasSpouse(true))
	require.NoError(t, in.SetNumChildren(2))
	base, err := calc.CalculateBase(in)
	require.NoError(t, err)

	d := Document{
		GeneratedAt: generated,
		Input:       in.Snapshot(),
		Summary:     calc.Summarize(in, base, calc.DefaultContributionRates()),
		Fallback:    calc.ClassifyPERisk(in.DurationMonths(), calc.DefaultThresholds()),
		FX:          model.FXProvenance{Currency: "ARS", Rate: 1000, Source: "configured default", Stale: true},
	}
	if withResult {
		d.Result = testResult(t, 600_000)
	}
	return d
}

func TestMarkdownWithEstimate(t *testing.T) {
	md := Markdown(testDocument(t, true))

	for _, want := range []string{
		"# Shadow Payroll Estimate: United States to Argentina",
		"| Gross | ARS 40,000,000.00 |",
		"**Total:** USD 600,000.00 (ARS 600,000,000.00)",
		"| Income Tax | USD 120,000.00 | ARS 120,000,000.00 | Medium |",
		"USD 15,000.00 ($10,000 to $20,000)",
		"- _PE Administration: Depends on provider_",
		"**High** compared with Latin America",
		"Duration heuristic suggests **Medium**",
		"1. Use an employer of record",
		"Argentine employer contributions dominate the cost.",
		"from open.er-api.com",
		"> " + model.Disclaimer,
	} {
		assert.Contains(t, md, want)
	}
	assert.NotContains(t, md, "(stale)", "the estimate's FX provenance takes precedence")
}

func TestMarkdownWithoutEstimate(t *testing.T) {
	md := Markdown(testDocument(t, false))

	assert.Contains(t, md, "**Risk level:** High (duration-based heuristic")
	assert.Contains(t, md, "from configured default")
	assert.Contains(t, md, "**(stale)**")
	assert.Contains(t, md, model.Disclaimer)
	assert.NotContains(t, md, "## Insights")
}

func TestMarkdownEscapesPipes(t *testing.T) {
	d := testDocument(t, false)
	d.Result = testResult(t, 1000, model.LineItem{Label: "Tax | Levy", AmountUSD: 1000, AmountLocal: 1_000_000})

	assert.Contains(t, Markdown(d), `| Tax \| Levy |`)
}

func TestHTML(t *testing.T) {
	d := testDocument(t, true)
	page, err := HTML(Title(d)+" <draft>", Markdown(d))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(page, "<!doctype html>"))
	assert.Contains(t, page, "<title>Shadow Payroll Estimate: United States to Argentina &lt;draft&gt;</title>")
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<blockquote>")
	assert.Contains(t, page, "tax, legal, or financial advice")
}

func TestCSV(t *testing.T) {
	d := testDocument(t, true)
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, d.Fields()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Greater(t, len(records), 10)
	assert.Equal(t, []string{"Field", "Value"}, records[0])
	assert.Equal(t, []string{"Home Country", "United States"}, records[1])
	assert.Equal(t, []string{"Disclaimer", model.Disclaimer}, records[len(records)-1])

	values := make(map[string]string)
	for _, r := range records[1:] {
		values[r[0]] = r[1]
	}
	assert.Equal(t, "600000.00", values["Total Employer Cost (USD)"])
	assert.Equal(t, "Disagrees", values["PE Risk Cross-Check"])
	assert.Equal(t, "Yes", values["Spouse"])
}

func TestFieldsWithoutEstimate(t *testing.T) {
	fields := testDocument(t, false).Fields()

	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = f.Label
	}
	assert.Contains(t, labels, "Duration-Based PE Risk")
	assert.Contains(t, labels, "FX Stale")
	assert.NotContains(t, labels, "Total Employer Cost (USD)")
	assert.Equal(t, "Disclaimer", labels[len(labels)-1])
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, YAML(&buf, testDocument(t, true)))

	var out map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, model.Disclaimer, out["disclaimer"])

	input := out["input"].(map[string]any)
	assert.Equal(t, "Argentina", input["host_country"])

	estimate := out["estimate"].(map[string]any)
	assert.Equal(t, "ARS", estimate["local_currency"])
	assert.Len(t, estimate["line_items"], 3)

	risk := out["pe_risk"].(map[string]any)
	assert.Equal(t, "High", risk["risk_level"])
	assert.Equal(t, "Medium", risk["duration_based_level"])
	assert.Equal(t, true, risk["heuristic_disagrees"])

	fx := out["fx"].(map[string]any)
	assert.Equal(t, false, fx["stale"])
}

func TestYAMLWithoutEstimate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, YAML(&buf, testDocument(t, false)))

	var out map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	assert.NotContains(t, out, "estimate")
	assert.Equal(t, "High", out["pe_risk"].(map[string]any)["risk_level"])
	assert.Equal(t, true, out["fx"].(map[string]any)["stale"])
}

func TestTerminal(t *testing.T) {
	out := Terminal(testDocument(t, true))

	assert.Contains(t, out, "Annual Employer Cost (USD)")
	assert.Contains(t, out, "Income Tax")
	assert.Contains(t, out, "$600,000")
	assert.Contains(t, out, "Duration heuristic suggests Medium")
	assert.Contains(t, out, model.Disclaimer)

	out = Terminal(testDocument(t, false))
	assert.Contains(t, out, "Duration-based risk")
	assert.Contains(t, out, "stale")
}

func testScenarios(t *testing.T) []scenario.Scenario {
	t.Helper()
	store := scenario.NewStore(3, scenario.RejectWhenFull)
	in := model.NewPayrollInput(model.DefaultLimits())

	_, err := store.Add("Argentina", in, testResult(t, 600_000))
	require.NoError(t, err)
	_, err = store.Add("Spain", in, testResult(t, 450_000,
		model.LineItem{Label: "IRPF", AmountUSD: 150_000, AmountLocal: 140_000},
		model.LineItem{Label: "Housing", AmountUSD: 50_000, AmountLocal: 46_000},
	))
	require.NoError(t, err)
	return store.List()
}

func testComparison(t *testing.T) scenario.Comparison {
	t.Helper()
	c, err := scenario.Compare(testScenarios(t))
	require.NoError(t, err)
	return c
}

func TestComparisonTable(t *testing.T) {
	rows := ComparisonTable(testComparison(t))

	assert.Equal(t, []string{"Item (USD/year)", "Argentina", "Spain"}, rows[0])
	assert.Equal(t, []string{"Income Tax", "$120,000", "$150,000"}, rows[1])
	assert.Equal(t, []string{"Housing Allowance", "$0", "$50,000"}, rows[len(rows)-2])
	assert.Equal(t, []string{"Total Employer Cost", "$600,000", "$450,000"}, rows[len(rows)-1])
}

func TestComparisonMarkdown(t *testing.T) {
	md := ComparisonMarkdown(testComparison(t))

	assert.Contains(t, md, "| Item (USD/year) | Argentina | Spain |\n|---|---:|---:|\n")
	assert.Contains(t, md, "| **Total Employer Cost** | **$600,000** | **$450,000** |")
	assert.Contains(t, md, "- Lowest cost: **Spain** ($450,000)")
	assert.Contains(t, md, "- Highest cost: **Argentina** ($600,000)")
	assert.Contains(t, md, model.Disclaimer)
}

func TestComparisonReport(t *testing.T) {
	scenarios := testScenarios(t)
	c, err := scenario.Compare(scenarios)
	require.NoError(t, err)

	md := ComparisonReport(c, scenarios, generated)

	for _, want := range []string{
		"# Shadow Payroll Scenario Report",
		"## Executive Summary",
		"| Argentina | United States to Argentina | 36 months | $600,000 | High |",
		"- Lowest cost: **Spain** ($450,000)",
		"## Scenario Comparison",
		"Spain     " + strings.Repeat("█", 30) + " $450,000",
		"Argentina " + strings.Repeat("█", 40) + " $600,000",
		"| **Total Employer Cost** | **$600,000** | **$450,000** |",
		"## Spain",
		"### Annual Employer Cost",
		"### PE Risk",
		"1,080 days, threshold 183 days",
		"## Disclaimer",
		"> " + model.Disclaimer,
	} {
		assert.Contains(t, md, want)
	}
	assert.Equal(t, 2, strings.Count(md, "### Insights"))
	assert.Equal(t, 3, strings.Count(md, "\n---\n"))
}

func TestComparisonReportSingleScenario(t *testing.T) {
	scenarios := testScenarios(t)[:1]
	c, err := scenario.Compare(scenarios)
	require.NoError(t, err)

	md := ComparisonReport(c, scenarios, time.Time{})
	assert.NotContains(t, md, "## Scenario Comparison")
	assert.NotContains(t, md, "Lowest cost")
	assert.NotContains(t, md, "_Generated")
	assert.Contains(t, md, "## Argentina")
}

func TestComparisonReportHTML(t *testing.T) {
	scenarios := testScenarios(t)
	c, err := scenario.Compare(scenarios)
	require.NoError(t, err)

	page, err := HTML(ComparisonTitle, ComparisonReport(c, scenarios, generated))
	require.NoError(t, err)

	assert.Contains(t, page, "<title>Shadow Payroll Scenario Report</title>")
	assert.Contains(t, page, "<h2>Executive Summary</h2>")
	assert.Contains(t, page, "<h2>Spain</h2>")
	assert.Contains(t, page, "<h3>PE Risk</h3>")
	assert.Contains(t, page, "<pre><code>")
	assert.Contains(t, page, "break-after:page")
	assert.Equal(t, 3, strings.Count(page, "<hr"))
}

func TestPETimeline(t *testing.T) {
	tests := []struct {
		name      string
		days      int
		threshold int
		want      string
		solid     int
	}{
		{name: "past threshold", days: 1080, threshold: 183, want: "1,080 days, threshold 183 days", solid: 34},
		{name: "within threshold", days: 90, threshold: 183, want: "90 days, threshold 183 days", solid: 0},
		{name: "no threshold", days: 90, threshold: 0},
		{name: "no days", days: 0, threshold: 183},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := peTimeline(tt.days, tt.threshold)
			if tt.want == "" {
				assert.Empty(t, bar)
				return
			}
			assert.Contains(t, bar, tt.want)
			assert.Equal(t, 1, strings.Count(bar, "|"))
			assert.Equal(t, tt.solid, strings.Count(bar, "█"))
		})
	}
}

func TestComparisonTerminalAndCSV(t *testing.T) {
	c := testComparison(t)

	out := ComparisonTerminal(c)
	assert.Contains(t, out, "Scenario Comparison")
	assert.Contains(t, out, "Spain")
	assert.Contains(t, out, "$450,000")

	var buf bytes.Buffer
	require.NoError(t, ComparisonCSV(&buf, c))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "Disclaimer", records[len(records)-1][0])
}

func TestPDF(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping headless Chrome render in short mode")
	}
	if detectChromePath() == "" {
		t.Skip("no Chrome or Chromium installed")
	}

	d := testDocument(t, true)
	page, err := HTML(Title(d), Markdown(d))
	require.NoError(t, err)

	pdf, err := NewPDFRenderer().Render(context.Background(), page)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}
