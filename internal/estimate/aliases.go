package estimate

import (
	"strings"
	"unicode"

	"github.com/Veraticus/shadow-payroll/internal/model"
)

// keyAliases maps field names models are known to use onto the canonical names.
var keyAliases = map[string]string{
	"items":                   "line_items",
	"cost_items":              "line_items",
	"risk":                    "pe_risk",
	"pe_risk_assessment":      "pe_risk",
	"cost_rating":             "overall_rating",
	"rating":                  "overall_rating",
	"insights":                "insights_paragraph",
	"insight":                 "insights_paragraph",
	"mitigations":             "mitigation_suggestions",
	"threshold_days":          "pe_threshold_days",
	"duration_days":           "assignment_duration_days",
	"total_cost_usd":          "total_employer_cost_usd",
	"total_cost_local":        "total_employer_cost_local",
	"region":                  "region_name",
	"treaty_info":             "treaty_implications",
	"economic_employer":       "economic_employer_note",
	"double_taxation_warning": "no_treaty_warning",
}

// enumFields maps each object holding a tier to the key of that tier.
var enumFields = map[string]string{
	"overall_rating": "level",
	"item_ratings":   "level",
	"pe_risk":        "risk_level",
}

// normalizeKeys rewrites object keys to snake_case and resolves aliases.
// A canonical key already present wins over an alias.
func normalizeKeys(v any) any {
	switch node := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(node))
		aliased := make(map[string]any)
		for k, child := range node {
			key := snakeCase(k)
			if canonical, ok := keyAliases[key]; ok {
				aliased[canonical] = normalizeKeys(child)
				continue
			}
			out[key] = normalizeKeys(child)
		}
		for k, child := range aliased {
			if _, ok := out[k]; !ok {
				out[k] = child
			}
		}
		return out
	case []any:
		out := make([]any, len(node))
		for i, child := range node {
			out[i] = normalizeKeys(child)
		}
		return out
	default:
		return v
	}
}

// snakeCase converts camelCase, PascalCase, kebab-case and spaced keys.
func snakeCase(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s) + 4)

	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '-' || r == ' ':
			b.WriteByte('_')
		case unicode.IsUpper(r):
			if i > 0 && runes[i-1] != '_' && runes[i-1] != '-' && runes[i-1] != ' ' &&
				(unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]) ||
					(i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// canonicalizeEnums rewrites tier values that differ from the canonical
// vocabulary only by case or whitespace. Anything else is left for the
// schema to reject with the original value.
func canonicalizeEnums(doc map[string]any) {
	for container, field := range enumFields {
		switch node := doc[container].(type) {
		case map[string]any:
			canonicalizeTier(node, field)
		case []any:
			for _, child := range node {
				if obj, ok := child.(map[string]any); ok {
					canonicalizeTier(obj, field)
				}
			}
		}
	}
}

func canonicalizeTier(obj map[string]any, field string) {
	s, ok := obj[field].(string)
	if !ok {
		return
	}
	if tier, ok := model.ParseTier(s); ok {
		obj[field] = string(tier)
	}
}
