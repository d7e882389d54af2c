package model

import "strings"

// Tier is the qualitative Low/Medium/High scale shared by cost ratings and PE risk.
type Tier string

// Canonical tiers.
const (
	TierLow    Tier = "Low"
	TierMedium Tier = "Medium"
	TierHigh   Tier = "High"
)

// Tiers lists the canonical vocabulary in ascending order.
var Tiers = []Tier{TierLow, TierMedium, TierHigh}

// ParseTier canonicalizes case and surrounding whitespace of an English tier name.
// Any other spelling, including translations, is rejected.
func ParseTier(s string) (Tier, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return TierLow, true
	case "medium":
		return TierMedium, true
	case "high":
		return TierHigh, true
	default:
		return "", false
	}
}

// Rank orders tiers: Low=1, Medium=2, High=3, anything else 0.
func (t Tier) Rank() int {
	switch t {
	case TierLow:
		return 1
	case TierMedium:
		return 2
	case TierHigh:
		return 3
	default:
		return 0
	}
}

// Valid reports whether t is one of the canonical tiers.
func (t Tier) Valid() bool {
	return t.Rank() > 0
}

func (t Tier) String() string {
	return string(t)
}
