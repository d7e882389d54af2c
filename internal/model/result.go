package model

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/Veraticus/shadow-payroll/internal/common"
)

// LineItem is one annual cost component of an estimate.
type LineItem struct {
	Label           string
	RangeDisclaimer string
	AmountUSD       float64
	AmountLocal     float64
	RangeLowUSD     float64
	RangeHighUSD    float64
	IsRange         bool
}

// CostRating compares the total cost to a regional benchmark.
type CostRating struct {
	Level               Tier
	RegionName          string
	TypicalRangeLowUSD  float64
	TypicalRangeHighUSD float64
}

// ItemRating rates a single line item.
type ItemRating struct {
	ItemLabel string
	Level     Tier
	Context   string
}

// PERisk is the permanent establishment assessment.
type PERisk struct {
	RiskLevel            Tier
	FallbackLevel        Tier
	TreatyName           string
	TreatyImplications   string
	NoTreatyWarning      string
	EconomicEmployerNote string
	Mitigations          []string
	ThresholdDays        int
	AssignmentDays       int
	ExceedsThreshold     bool
	TreatyExists         bool
}

// Disagrees reports whether the duration heuristic and the model assessed different tiers.
func (r PERisk) Disagrees() bool {
	return r.FallbackLevel.Valid() && r.FallbackLevel != r.RiskLevel
}

// FXProvenance records where the exchange rate came from.
type FXProvenance struct {
	AsOf     time.Time
	Currency string
	Source   string
	Rate     float64
	Stale    bool
}

// Metadata describes how a result was generated.
type Metadata struct {
	GeneratedAt time.Time
	Model       string
	FX          FXProvenance
}

// FieldError is a field-level contract violation. Err is one of
// common.ErrMissingField, common.ErrInvalidEnumValue or common.ErrOutOfRange.
type FieldError struct {
	Err   error
	Value any
	Path  string
}

func (e *FieldError) Error() string {
	switch e.Err {
	case common.ErrMissingField:
		return fmt.Sprintf("%s: %s", e.Err, e.Path)
	default:
		return fmt.Sprintf("%s: %s = %v", e.Err, e.Path, e.Value)
	}
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// EstimationDraft carries the values a result is built from.
type EstimationDraft struct {
	LocalCurrency          string
	Insights               string
	LineItems              []LineItem
	ItemRatings            []ItemRating
	Overall                CostRating
	PERisk                 PERisk
	Metadata               Metadata
	TotalEmployerCostUSD   float64
	TotalEmployerCostLocal float64
}

// EstimationResult is the validated outcome of one estimation call.
// All accessors return copies.
type EstimationResult struct {
	metadata               Metadata
	localCurrency          string
	insights               string
	lineItems              []LineItem
	itemRatings            []ItemRating
	overall                CostRating
	peRisk                 PERisk
	totalEmployerCostUSD   float64
	totalEmployerCostLocal float64
}

// NewEstimationResult validates the draft and freezes it. Nothing is returned on failure.
func NewEstimationResult(d EstimationDraft) (*EstimationResult, error) {
	if err := validateDraft(d); err != nil {
		return nil, err
	}

	risk := d.PERisk
	risk.Mitigations = slices.Clone(d.PERisk.Mitigations)

	return &EstimationResult{
		lineItems:              slices.Clone(d.LineItems),
		itemRatings:            slices.Clone(d.ItemRatings),
		totalEmployerCostUSD:   d.TotalEmployerCostUSD,
		totalEmployerCostLocal: d.TotalEmployerCostLocal,
		localCurrency:          strings.ToUpper(d.LocalCurrency),
		overall:                d.Overall,
		peRisk:                 risk,
		insights:               strings.TrimSpace(d.Insights),
		metadata:               d.Metadata,
	}, nil
}

// LineItems returns the ordered cost breakdown.
func (r *EstimationResult) LineItems() []LineItem { return slices.Clone(r.lineItems) }

// TotalEmployerCostUSD is the model's annual total in USD.
func (r *EstimationResult) TotalEmployerCostUSD() float64 { return r.totalEmployerCostUSD }

// TotalEmployerCostLocal is the model's annual total in local currency.
func (r *EstimationResult) TotalEmployerCostLocal() float64 { return r.totalEmployerCostLocal }

// LocalCurrency is the host currency code.
func (r *EstimationResult) LocalCurrency() string { return r.localCurrency }

// OverallRating is the regional cost comparison.
func (r *EstimationResult) OverallRating() CostRating { return r.overall }

// ItemRatings returns per-item ratings.
func (r *EstimationResult) ItemRatings() []ItemRating { return slices.Clone(r.itemRatings) }

// PERisk returns the permanent establishment assessment.
func (r *EstimationResult) PERisk() PERisk {
	risk := r.peRisk
	risk.Mitigations = slices.Clone(r.peRisk.Mitigations)
	return risk
}

// Insights is the short narrative paragraph.
func (r *EstimationResult) Insights() string { return r.insights }

// Metadata describes the generation.
func (r *EstimationResult) Metadata() Metadata { return r.metadata }

// Disclaimer is attached to every result.
func (r *EstimationResult) Disclaimer() string { return Disclaimer }

// LineItemSumUSD adds up the line items. It is informational; the total is not derived from it.
func (r *EstimationResult) LineItemSumUSD() float64 {
	var sum float64
	for _, item := range r.lineItems {
		sum += item.AmountUSD
	}
	return sum
}

func validateDraft(d EstimationDraft) error {
	if len(d.LineItems) == 0 {
		return &FieldError{Err: common.ErrMissingField, Path: "line_items"}
	}
	for i, item := range d.LineItems {
		prefix := fmt.Sprintf("line_items.%d.", i)
		if strings.TrimSpace(item.Label) == "" {
			return &FieldError{Err: common.ErrMissingField, Path: prefix + "label"}
		}
		if err := nonNegative(prefix+"amount_usd", item.AmountUSD); err != nil {
			return err
		}
		if err := nonNegative(prefix+"amount_local", item.AmountLocal); err != nil {
			return err
		}
		if item.IsRange {
			if err := orderedRange(prefix+"range_low_usd", prefix+"range_high_usd", item.RangeLowUSD, item.RangeHighUSD); err != nil {
				return err
			}
		}
	}

	if err := nonNegative("total_employer_cost_usd", d.TotalEmployerCostUSD); err != nil {
		return err
	}
	if err := nonNegative("total_employer_cost_local", d.TotalEmployerCostLocal); err != nil {
		return err
	}
	if !isCurrencyCode(strings.ToUpper(d.LocalCurrency)) {
		return &FieldError{Err: common.ErrInvalidEnumValue, Path: "local_currency", Value: d.LocalCurrency}
	}

	if !d.Overall.Level.Valid() {
		return &FieldError{Err: common.ErrInvalidEnumValue, Path: "overall_rating.level", Value: string(d.Overall.Level)}
	}
	if err := orderedRange("overall_rating.typical_range_low_usd", "overall_rating.typical_range_high_usd",
		d.Overall.TypicalRangeLowUSD, d.Overall.TypicalRangeHighUSD); err != nil {
		return err
	}

	for i, rating := range d.ItemRatings {
		if !rating.Level.Valid() {
			return &FieldError{Err: common.ErrInvalidEnumValue, Path: fmt.Sprintf("item_ratings.%d.level", i), Value: string(rating.Level)}
		}
	}

	if !d.PERisk.RiskLevel.Valid() {
		return &FieldError{Err: common.ErrInvalidEnumValue, Path: "pe_risk.risk_level", Value: string(d.PERisk.RiskLevel)}
	}
	if d.PERisk.ThresholdDays < 0 {
		return &FieldError{Err: common.ErrOutOfRange, Path: "pe_risk.pe_threshold_days", Value: d.PERisk.ThresholdDays}
	}
	if d.PERisk.AssignmentDays < 0 {
		return &FieldError{Err: common.ErrOutOfRange, Path: "pe_risk.assignment_duration_days", Value: d.PERisk.AssignmentDays}
	}

	if strings.TrimSpace(d.Insights) == "" {
		return &FieldError{Err: common.ErrMissingField, Path: "insights_paragraph"}
	}

	return nil
}

func nonNegative(path string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return &FieldError{Err: common.ErrOutOfRange, Path: path, Value: v}
	}
	return nil
}

func orderedRange(lowPath, highPath string, low, high float64) error {
	if err := nonNegative(lowPath, low); err != nil {
		return err
	}
	if err := nonNegative(highPath, high); err != nil {
		return err
	}
	if high < low {
		return &FieldError{Err: common.ErrOutOfRange, Path: highPath, Value: high}
	}
	return nil
}
