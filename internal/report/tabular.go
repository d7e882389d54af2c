package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/Veraticus/shadow-payroll/internal/model"
	"gopkg.in/yaml.v3"
)

// CSV writes fields as two-column Field,Value rows.
func CSV(w io.Writer, fields []model.Field) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Field", "Value"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, f := range fields {
		if err := cw.Write([]string{f.Label, f.String()}); err != nil {
			return fmt.Errorf("write csv row %q: %w", f.Label, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

type yamlLineItem struct {
	Label           string  `yaml:"label"`
	RangeDisclaimer string  `yaml:"range_disclaimer,omitempty"`
	AmountUSD       float64 `yaml:"amount_usd"`
	AmountLocal     float64 `yaml:"amount_local"`
	RangeLowUSD     float64 `yaml:"range_low_usd,omitempty"`
	RangeHighUSD    float64 `yaml:"range_high_usd,omitempty"`
	IsRange         bool    `yaml:"is_range,omitempty"`
}

type yamlRisk struct {
	RiskLevel            string   `yaml:"risk_level"`
	FallbackLevel        string   `yaml:"duration_based_level,omitempty"`
	TreatyName           string   `yaml:"treaty_name,omitempty"`
	TreatyImplications   string   `yaml:"treaty_implications,omitempty"`
	NoTreatyWarning      string   `yaml:"no_treaty_warning,omitempty"`
	EconomicEmployerNote string   `yaml:"economic_employer_note,omitempty"`
	Mitigations          []string `yaml:"mitigation_suggestions,omitempty"`
	ThresholdDays        int      `yaml:"pe_threshold_days,omitempty"`
	AssignmentDays       int      `yaml:"assignment_duration_days"`
	ExceedsThreshold     bool     `yaml:"exceeds_threshold"`
	TreatyExists         bool     `yaml:"treaty_exists"`
	Disagrees            bool     `yaml:"heuristic_disagrees,omitempty"`
}

type yamlEstimate struct {
	LocalCurrency          string         `yaml:"local_currency"`
	Model                  string         `yaml:"model,omitempty"`
	OverallRating          string         `yaml:"overall_rating"`
	RegionName             string         `yaml:"region_name,omitempty"`
	Insights               string         `yaml:"insights"`
	LineItems              []yamlLineItem `yaml:"line_items"`
	TotalEmployerCostUSD   float64        `yaml:"total_employer_cost_usd"`
	TotalEmployerCostLocal float64        `yaml:"total_employer_cost_local"`
}

type yamlBase struct {
	SalaryMonthly          float64 `yaml:"salary_monthly"`
	BenefitsMonthly        float64 `yaml:"benefits_monthly"`
	GrossMonthly           float64 `yaml:"gross_monthly"`
	EmployeeContribMonthly float64 `yaml:"employee_contributions_monthly"`
	EmployerContribMonthly float64 `yaml:"employer_contributions_monthly"`
	TotalCostMonthly       float64 `yaml:"total_cost_monthly"`
	TotalCostAssignment    float64 `yaml:"total_cost_assignment"`
}

type yamlFX struct {
	AsOf     *time.Time `yaml:"as_of,omitempty"`
	Currency string     `yaml:"currency"`
	Source   string     `yaml:"source"`
	Rate     float64    `yaml:"rate"`
	Stale    bool       `yaml:"stale"`
}

type yamlDocument struct {
	GeneratedAt *time.Time          `yaml:"generated_at,omitempty"`
	Estimate    *yamlEstimate       `yaml:"estimate,omitempty"`
	FX          *yamlFX             `yaml:"fx,omitempty"`
	Input       model.InputSnapshot `yaml:"input"`
	Disclaimer  string              `yaml:"disclaimer"`
	Risk        yamlRisk            `yaml:"pe_risk"`
	Base        yamlBase            `yaml:"base"`
}

// YAML writes the document as a structured YAML export.
func YAML(w io.Writer, d Document) error {
	out := yamlDocument{
		GeneratedAt: timePtr(d.GeneratedAt),
		Input:       d.Input,
		Disclaimer:  model.Disclaimer,
		Base: yamlBase{
			SalaryMonthly:          d.Summary.Base.SalaryMonthly(),
			BenefitsMonthly:        d.Summary.Base.BenefitsMonthly(),
			GrossMonthly:           d.Summary.Base.GrossMonthly(),
			EmployeeContribMonthly: d.Summary.EmployeeContribMonthly,
			EmployerContribMonthly: d.Summary.EmployerContribMonthly,
			TotalCostMonthly:       d.Summary.TotalCostMonthly,
			TotalCostAssignment:    d.Summary.TotalCostAssignment,
		},
		Risk: yamlRisk{
			RiskLevel:      string(d.Fallback),
			AssignmentDays: d.Summary.DurationDays,
		},
	}

	fx := d.FX
	if r := d.Result; r != nil {
		meta := r.Metadata()
		if meta.FX.Rate > 0 {
			fx = meta.FX
		}
		est := &yamlEstimate{
			LocalCurrency:          r.LocalCurrency(),
			Model:                  meta.Model,
			OverallRating:          string(r.OverallRating().Level),
			RegionName:             r.OverallRating().RegionName,
			Insights:               r.Insights(),
			TotalEmployerCostUSD:   r.TotalEmployerCostUSD(),
			TotalEmployerCostLocal: r.TotalEmployerCostLocal(),
		}
		for _, item := range r.LineItems() {
			est.LineItems = append(est.LineItems, yamlLineItem(item))
		}
		out.Estimate = est

		risk := r.PERisk()
		out.Risk = yamlRisk{
			RiskLevel:            string(risk.RiskLevel),
			FallbackLevel:        string(risk.FallbackLevel),
			TreatyName:           risk.TreatyName,
			TreatyImplications:   risk.TreatyImplications,
			NoTreatyWarning:      risk.NoTreatyWarning,
			EconomicEmployerNote: risk.EconomicEmployerNote,
			Mitigations:          risk.Mitigations,
			ThresholdDays:        risk.ThresholdDays,
			AssignmentDays:       risk.AssignmentDays,
			ExceedsThreshold:     risk.ExceedsThreshold,
			TreatyExists:         risk.TreatyExists,
			Disagrees:            risk.Disagrees(),
		}
	}
	if fx.Rate > 0 {
		out.FX = &yamlFX{
			AsOf:     timePtr(fx.AsOf),
			Currency: fx.Currency,
			Source:   fx.Source,
			Rate:     fx.Rate,
			Stale:    fx.Stale,
		}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}
	return enc.Close()
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	utc := t.UTC()
	return &utc
}
