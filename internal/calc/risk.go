package calc

import (
	"math"

	"github.com/Veraticus/shadow-payroll/internal/model"
)

// DaysPerMonth is the month length used for duration arithmetic.
const DaysPerMonth = 30

// Thresholds configures the duration bands of the PE risk heuristic.
type Thresholds struct {
	// LowDays is the first day count that is no longer Low risk.
	LowDays int
	// MediumWindowDays extends the Medium band past LowDays.
	MediumWindowDays int
}

// DefaultThresholds uses the common 183-day presence test plus a 90-day buffer.
func DefaultThresholds() Thresholds {
	return Thresholds{LowDays: 183, MediumWindowDays: 90}
}

func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t == (Thresholds{}) {
		return d
	}
	if t.LowDays <= 0 {
		t.LowDays = d.LowDays
	}
	if t.MediumWindowDays < 0 {
		t.MediumWindowDays = d.MediumWindowDays
	}
	return t
}

// HighDays is the first day count classified High.
func (t Thresholds) HighDays() int {
	t = t.withDefaults()
	return t.LowDays + t.MediumWindowDays
}

// ClassifyPERisk maps an assignment length onto a risk tier.
// It is total and monotonically non-decreasing in durationMonths.
func ClassifyPERisk(durationMonths int, t Thresholds) model.Tier {
	t = t.withDefaults()
	// Clamped so the day count cannot overflow.
	months := min(max(durationMonths, 0), math.MaxInt/DaysPerMonth)
	days := months * DaysPerMonth

	switch {
	case days < t.LowDays:
		return model.TierLow
	case days < t.LowDays+t.MediumWindowDays:
		return model.TierMedium
	default:
		return model.TierHigh
	}
}
