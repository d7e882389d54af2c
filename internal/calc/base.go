// Package calc holds the deterministic shadow payroll arithmetic.
// Every function is pure and safe for concurrent use.
package calc

import (
	"fmt"
	"math"

	"github.com/Veraticus/shadow-payroll/internal/common"
	"github.com/Veraticus/shadow-payroll/internal/model"
)

// CalculateBase converts a validated input into the monthly host-currency breakdown.
// No rounding is applied; presentation layers round for display.
func CalculateBase(in *model.PayrollInput) (model.BaseCalculation, error) {
	if in == nil {
		return model.BaseCalculation{}, fmt.Errorf("%w: nil input", common.ErrValidation)
	}
	if err := in.Validate(); err != nil {
		return model.BaseCalculation{}, err
	}

	rate := in.FXRate()
	salaryMonthly := in.SalaryUSD() / 12 * rate
	benefitsMonthly := in.BenefitsUSD() / 12 * rate

	base := model.NewBaseCalculation(salaryMonthly, benefitsMonthly, rate)
	if err := checkInvariants(base); err != nil {
		return model.BaseCalculation{}, err
	}
	return base, nil
}

func checkInvariants(b model.BaseCalculation) error {
	for name, v := range map[string]float64{
		"salary_monthly":   b.SalaryMonthly(),
		"benefits_monthly": b.BenefitsMonthly(),
		"gross_monthly":    b.GrossMonthly(),
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s = %v", common.ErrInvariant, name, v)
		}
	}
	return nil
}
