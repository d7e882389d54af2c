// Package report renders estimates and scenario comparisons for people:
// Markdown, HTML, PDF, CSV, YAML and styled terminal output.
package report

import (
	"time"

	"github.com/Veraticus/shadow-payroll/internal/calc"
	"github.com/Veraticus/shadow-payroll/internal/model"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Document bundles everything shown for one assignment.
// Result is nil when the estimate was skipped; Fallback is then the only risk assessment.
type Document struct {
	GeneratedAt time.Time
	Result      *model.EstimationResult
	Input       model.InputSnapshot
	Fallback    model.Tier
	FX          model.FXProvenance
	Summary     calc.Summary
}

// LocalCurrency is the host currency the base calculation is expressed in.
func (d Document) LocalCurrency() string {
	if d.Result != nil && d.Result.LocalCurrency() != "" {
		return d.Result.LocalCurrency()
	}
	if d.FX.Currency != "" {
		return d.FX.Currency
	}
	return "LOCAL"
}

// RiskLevel is the assessed PE risk, preferring the model over the heuristic.
func (d Document) RiskLevel() model.Tier {
	if d.Result != nil {
		return d.Result.PERisk().RiskLevel
	}
	return d.Fallback
}

// Fields flattens the whole document: inputs, deterministic figures, then the estimate.
// The disclaimer is always the last field.
func (d Document) Fields() []model.Field {
	in := d.Input
	fields := []model.Field{
		{Label: "Home Country", Value: in.HomeCountry},
		{Label: "Host Country", Value: in.HostCountry},
		{Label: "Display Currency", Value: in.DisplayCurrency},
		{Label: "Annual Salary (USD)", Value: in.SalaryUSD},
		{Label: "Annual Housing (USD)", Value: in.HousingUSD},
		{Label: "Annual School (USD)", Value: in.SchoolUSD},
		{Label: "Spouse", Value: in.HasSpouse},
		{Label: "Children", Value: in.NumChildren},
	}
	fields = append(fields, d.Summary.Fields()...)

	if d.Result != nil {
		return append(fields, d.Result.Fields()...)
	}

	fields = append(fields, model.Field{Label: "Duration-Based PE Risk", Value: d.Fallback})
	if d.FX.Rate > 0 {
		fields = append(fields,
			model.Field{Label: "FX Source", Value: d.FX.Source},
			model.Field{Label: "FX As Of", Value: d.FX.AsOf},
			model.Field{Label: "FX Stale", Value: d.FX.Stale},
		)
	}
	return append(fields, model.Field{Label: "Disclaimer", Value: model.Disclaimer})
}

var printer = message.NewPrinter(language.English)

func money(code string, v float64) string {
	return printer.Sprintf("%s %.2f", code, v)
}

func usd(v float64) string {
	return printer.Sprintf("$%.0f", v)
}

func asOf(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format("2006-01-02 15:04 MST")
}
