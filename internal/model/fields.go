package model

import (
	"fmt"
	"strconv"
	"time"
)

// Disclaimer accompanies every estimate wherever it is shown or exported.
const Disclaimer = "This tool provides estimates only and does not constitute tax, legal, or financial advice. " +
	"Users should consult qualified professionals."

// Field is one labelled value of a flattened result.
type Field struct {
	Value any
	Label string
}

// String formats the value for tabular output.
func (f Field) String() string {
	switch v := f.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case float64:
		return strconv.FormatFloat(v, 'f', 2, 64)
	case int:
		return strconv.Itoa(v)
	case Tier:
		return string(v)
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// Fields returns the flattened view with stable English labels, in display order.
func (r *EstimationResult) Fields() []Field {
	fields := make([]Field, 0, 32+3*len(r.lineItems))
	fields = append(fields, Field{Label: "Local Currency", Value: r.localCurrency})

	for _, item := range r.lineItems {
		fields = append(fields,
			Field{Label: item.Label + " (USD)", Value: item.AmountUSD},
			Field{Label: item.Label + " (Local)", Value: item.AmountLocal},
		)
		if item.IsRange {
			fields = append(fields,
				Field{Label: item.Label + " Range Low (USD)", Value: item.RangeLowUSD},
				Field{Label: item.Label + " Range High (USD)", Value: item.RangeHighUSD},
				Field{Label: item.Label + " Range Note", Value: item.RangeDisclaimer},
			)
		}
	}

	fields = append(fields,
		Field{Label: "Total Employer Cost (USD)", Value: r.totalEmployerCostUSD},
		Field{Label: "Total Employer Cost (Local)", Value: r.totalEmployerCostLocal},
		Field{Label: "Overall Cost Rating", Value: r.overall.Level},
		Field{Label: "Benchmark Region", Value: r.overall.RegionName},
		Field{Label: "Typical Range Low (USD)", Value: r.overall.TypicalRangeLowUSD},
		Field{Label: "Typical Range High (USD)", Value: r.overall.TypicalRangeHighUSD},
	)

	for _, rating := range r.itemRatings {
		fields = append(fields, Field{Label: rating.ItemLabel + " Rating", Value: rating.Level})
	}

	risk := r.peRisk
	fields = append(fields,
		Field{Label: "PE Risk Level", Value: risk.RiskLevel},
		Field{Label: "PE Threshold (Days)", Value: risk.ThresholdDays},
		Field{Label: "Assignment Duration (Days)", Value: risk.AssignmentDays},
		Field{Label: "Exceeds PE Threshold", Value: risk.ExceedsThreshold},
		Field{Label: "Tax Treaty", Value: risk.TreatyExists},
		Field{Label: "Treaty Name", Value: risk.TreatyName},
		Field{Label: "Treaty Implications", Value: risk.TreatyImplications},
		Field{Label: "No-Treaty Warning", Value: risk.NoTreatyWarning},
	)
	for i, m := range risk.Mitigations {
		fields = append(fields, Field{Label: fmt.Sprintf("Mitigation %d", i+1), Value: m})
	}
	fields = append(fields, Field{Label: "Economic Employer Note", Value: risk.EconomicEmployerNote})

	if risk.FallbackLevel.Valid() {
		check := "Agrees"
		if risk.Disagrees() {
			check = "Disagrees"
		}
		fields = append(fields,
			Field{Label: "Duration-Based PE Risk", Value: risk.FallbackLevel},
			Field{Label: "PE Risk Cross-Check", Value: check},
		)
	}

	meta := r.metadata
	fields = append(fields,
		Field{Label: "Insights", Value: r.insights},
		Field{Label: "Model", Value: meta.Model},
		Field{Label: "Generated At", Value: meta.GeneratedAt},
	)
	if meta.FX.Rate > 0 {
		fields = append(fields,
			Field{Label: "Exchange Rate", Value: meta.FX.Rate},
			Field{Label: "FX Source", Value: meta.FX.Source},
			Field{Label: "FX As Of", Value: meta.FX.AsOf},
			Field{Label: "FX Stale", Value: meta.FX.Stale},
		)
	}

	return append(fields, Field{Label: "Disclaimer", Value: Disclaimer})
}
