package model

// BaseCalculation is the deterministic monthly breakdown in host currency.
// It cannot be modified once built.
type BaseCalculation struct {
	salaryMonthly   float64
	benefitsMonthly float64
	grossMonthly    float64
	fxRate          float64
}

// NewBaseCalculation builds a breakdown whose gross is exactly salary plus benefits.
func NewBaseCalculation(salaryMonthly, benefitsMonthly, fxRate float64) BaseCalculation {
	return BaseCalculation{
		salaryMonthly:   salaryMonthly,
		benefitsMonthly: benefitsMonthly,
		grossMonthly:    salaryMonthly + benefitsMonthly,
		fxRate:          fxRate,
	}
}

// SalaryMonthly is the monthly salary in host currency.
func (b BaseCalculation) SalaryMonthly() float64 { return b.salaryMonthly }

// BenefitsMonthly is the monthly benefits total in host currency.
func (b BaseCalculation) BenefitsMonthly() float64 { return b.benefitsMonthly }

// GrossMonthly is salary plus benefits.
func (b BaseCalculation) GrossMonthly() float64 { return b.grossMonthly }

// FXRate is the exchange rate used for the conversion.
func (b BaseCalculation) FXRate() float64 { return b.fxRate }

// AnnualGross is twelve months of gross.
func (b BaseCalculation) AnnualGross() float64 { return b.grossMonthly * 12 }

// Fields returns the flattened view with stable English labels.
func (b BaseCalculation) Fields() []Field {
	return []Field{
		{Label: "Monthly Salary (Local)", Value: b.salaryMonthly},
		{Label: "Monthly Benefits (Local)", Value: b.benefitsMonthly},
		{Label: "Monthly Gross (Local)", Value: b.grossMonthly},
		{Label: "Annual Gross (Local)", Value: b.AnnualGross()},
		{Label: "Exchange Rate", Value: b.fxRate},
	}
}
