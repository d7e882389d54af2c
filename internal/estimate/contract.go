package estimate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/shadow-payroll/internal/common"
	"github.com/Veraticus/shadow-payroll/internal/llm"
	"github.com/Veraticus/shadow-payroll/internal/model"
)

// MalformedResponseError means the reply could not be read as the expected
// JSON object at all. Raw keeps the provider text for diagnosis.
type MalformedResponseError struct {
	Raw    string
	Detail string
	Line   int
	Column int
}

func (e *MalformedResponseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d, column %d)", common.ErrMalformedResponse, e.Detail, e.Line, e.Column)
	}
	return fmt.Sprintf("%s: %s", common.ErrMalformedResponse, e.Detail)
}

func (e *MalformedResponseError) Unwrap() error {
	return common.ErrMalformedResponse
}

// ParseContext carries the values a result needs that do not come from the reply.
type ParseContext struct {
	GeneratedAt   time.Time
	Model         string
	LocalCurrency string
	FallbackRisk  model.Tier
	FX            model.FXProvenance
}

type wireLineItem struct {
	RangeLowUSD     *float64 `json:"range_low_usd"`
	RangeHighUSD    *float64 `json:"range_high_usd"`
	RangeDisclaimer *string  `json:"range_disclaimer"`
	Label           string   `json:"label"`
	AmountUSD       float64  `json:"amount_usd"`
	AmountLocal     float64  `json:"amount_local"`
	IsRange         bool     `json:"is_range"`
}

type wireRating struct {
	Level               string  `json:"level"`
	RegionName          string  `json:"region_name"`
	TypicalRangeLowUSD  float64 `json:"typical_range_low_usd"`
	TypicalRangeHighUSD float64 `json:"typical_range_high_usd"`
}

type wireItemRating struct {
	ItemLabel string `json:"item_label"`
	Level     string `json:"level"`
	Context   string `json:"context"`
}

type wirePERisk struct {
	TreatyName            *string  `json:"treaty_name"`
	TreatyImplications    *string  `json:"treaty_implications"`
	NoTreatyWarning       *string  `json:"no_treaty_warning"`
	EconomicEmployerNote  *string  `json:"economic_employer_note"`
	RiskLevel             string   `json:"risk_level"`
	MitigationSuggestions []string `json:"mitigation_suggestions"`
	ThresholdDays         float64  `json:"pe_threshold_days"`
	AssignmentDays        float64  `json:"assignment_duration_days"`
	ExceedsThreshold      bool     `json:"exceeds_threshold"`
	TreatyExists          bool     `json:"treaty_exists"`
}

type wireResponse struct {
	LocalCurrency          string           `json:"local_currency"`
	InsightsParagraph      string           `json:"insights_paragraph"`
	LineItems              []wireLineItem   `json:"line_items"`
	ItemRatings            []wireItemRating `json:"item_ratings"`
	OverallRating          wireRating       `json:"overall_rating"`
	PERisk                 wirePERisk       `json:"pe_risk"`
	TotalEmployerCostUSD   float64          `json:"total_employer_cost_usd"`
	TotalEmployerCostLocal float64          `json:"total_employer_cost_local"`
}

// Parse turns raw provider text into a validated result. It returns exactly
// one of a complete result or a classified error, never both.
func Parse(raw string, pc ParseContext) (*model.EstimationResult, error) {
	text := llm.CleanMarkdownWrapper(raw)
	if text == "" {
		return nil, &MalformedResponseError{Raw: raw, Detail: "empty response"}
	}

	doc, err := decodeObject(text, raw)
	if err != nil {
		return nil, err
	}

	normalized, ok := normalizeKeys(doc).(map[string]any)
	if !ok {
		return nil, &MalformedResponseError{Raw: raw, Detail: "response is not a JSON object"}
	}
	canonicalizeEnums(normalized)

	if err := validateDocument(normalized, raw); err != nil {
		return nil, err
	}

	wire, err := decodeWire(normalized, raw)
	if err != nil {
		return nil, err
	}

	return build(wire, pc)
}

func decodeObject(text, raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, syntaxFailure(text, raw, err)
	}
	if dec.More() {
		return nil, &MalformedResponseError{Raw: raw, Detail: "unexpected data after JSON object"}
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, &MalformedResponseError{Raw: raw, Detail: fmt.Sprintf("expected JSON object, got %T", doc)}
	}
	return obj, nil
}

func syntaxFailure(text, raw string, err error) error {
	mre := &MalformedResponseError{Raw: raw, Detail: err.Error()}

	var se *json.SyntaxError
	if errors.As(err, &se) {
		mre.Line, mre.Column = position(text, se.Offset)
	}
	return mre
}

// position converts a byte offset into a 1-based line and column.
func position(text string, offset int64) (line, column int) {
	if offset > int64(len(text)) {
		offset = int64(len(text))
	}
	prefix := text[:offset]
	line = strings.Count(prefix, "\n") + 1
	column = int(offset) - strings.LastIndex(prefix, "\n")
	return line, column
}

func decodeWire(doc map[string]any, raw string) (wireResponse, error) {
	var wire wireResponse

	buf, err := json.Marshal(doc)
	if err != nil {
		return wire, &MalformedResponseError{Raw: raw, Detail: err.Error()}
	}

	dec := json.NewDecoder(bytes.NewReader(buf))
	if err := dec.Decode(&wire); err != nil {
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) {
			return wire, &MalformedResponseError{
				Raw:    raw,
				Detail: fmt.Sprintf("%s: expected %s, got %s", te.Field, te.Type, te.Value),
			}
		}
		return wire, &MalformedResponseError{Raw: raw, Detail: err.Error()}
	}
	return wire, nil
}

func build(w wireResponse, pc ParseContext) (*model.EstimationResult, error) {
	items := make([]model.LineItem, 0, len(w.LineItems))
	for _, it := range w.LineItems {
		item := model.LineItem{
			Label:           strings.TrimSpace(it.Label),
			AmountUSD:       it.AmountUSD,
			AmountLocal:     it.AmountLocal,
			IsRange:         it.IsRange,
			RangeDisclaimer: deref(it.RangeDisclaimer),
		}
		if it.IsRange {
			if it.RangeLowUSD == nil || it.RangeHighUSD == nil {
				// A range without bounds is shown as a point estimate.
				item.IsRange = false
			} else {
				item.RangeLowUSD = *it.RangeLowUSD
				item.RangeHighUSD = *it.RangeHighUSD
			}
		}
		items = append(items, item)
	}

	ratings := make([]model.ItemRating, 0, len(w.ItemRatings))
	for _, r := range w.ItemRatings {
		ratings = append(ratings, model.ItemRating{
			ItemLabel: strings.TrimSpace(r.ItemLabel),
			Level:     model.Tier(r.Level),
			Context:   strings.TrimSpace(r.Context),
		})
	}

	currency := w.LocalCurrency
	if strings.TrimSpace(currency) == "" {
		currency = pc.LocalCurrency
	}

	return model.NewEstimationResult(model.EstimationDraft{
		LineItems:              items,
		TotalEmployerCostUSD:   w.TotalEmployerCostUSD,
		TotalEmployerCostLocal: w.TotalEmployerCostLocal,
		LocalCurrency:          strings.TrimSpace(currency),
		Overall: model.CostRating{
			Level:               model.Tier(w.OverallRating.Level),
			RegionName:          strings.TrimSpace(w.OverallRating.RegionName),
			TypicalRangeLowUSD:  w.OverallRating.TypicalRangeLowUSD,
			TypicalRangeHighUSD: w.OverallRating.TypicalRangeHighUSD,
		},
		ItemRatings: ratings,
		PERisk: model.PERisk{
			RiskLevel:            model.Tier(w.PERisk.RiskLevel),
			FallbackLevel:        pc.FallbackRisk,
			ThresholdDays:        int(w.PERisk.ThresholdDays),
			AssignmentDays:       int(w.PERisk.AssignmentDays),
			ExceedsThreshold:     w.PERisk.ExceedsThreshold,
			TreatyExists:         w.PERisk.TreatyExists,
			TreatyName:           deref(w.PERisk.TreatyName),
			TreatyImplications:   deref(w.PERisk.TreatyImplications),
			NoTreatyWarning:      deref(w.PERisk.NoTreatyWarning),
			EconomicEmployerNote: deref(w.PERisk.EconomicEmployerNote),
			Mitigations:          trimAll(w.PERisk.MitigationSuggestions),
		},
		Insights: w.InsightsParagraph,
		Metadata: model.Metadata{
			GeneratedAt: pc.GeneratedAt,
			Model:       pc.Model,
			FX:          pc.FX,
		},
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
