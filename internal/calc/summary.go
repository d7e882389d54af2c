package calc

import "github.com/Veraticus/shadow-payroll/internal/model"

// ContributionRates are flat social contribution rates applied to gross pay.
type ContributionRates struct {
	Employee float64
	Employer float64
}

// DefaultContributionRates approximates Argentine employee and employer contributions.
func DefaultContributionRates() ContributionRates {
	return ContributionRates{Employee: 0.17, Employer: 0.24}
}

// Summary extends a base calculation with rough contribution estimates and assignment totals.
type Summary struct {
	Base                   model.BaseCalculation
	EmployeeContribMonthly float64
	EmployerContribMonthly float64
	TotalCostMonthly       float64
	TotalGrossAssignment   float64
	TotalCostAssignment    float64
	DurationMonths         int
	DurationDays           int
}

// Summarize derives the summary for an input and its base calculation.
func Summarize(in *model.PayrollInput, base model.BaseCalculation, rates ContributionRates) Summary {
	gross := base.GrossMonthly()
	employee := gross * rates.Employee
	employer := gross * rates.Employer
	total := gross + employer - employee
	months := in.DurationMonths()

	return Summary{
		Base:                   base,
		EmployeeContribMonthly: employee,
		EmployerContribMonthly: employer,
		TotalCostMonthly:       total,
		TotalGrossAssignment:   gross * float64(months),
		TotalCostAssignment:    total * float64(months),
		DurationMonths:         months,
		DurationDays:           in.DurationDays(),
	}
}

// Fields returns the flattened view with stable English labels.
func (s Summary) Fields() []model.Field {
	fields := s.Base.Fields()
	return append(fields,
		model.Field{Label: "Duration (Months)", Value: s.DurationMonths},
		model.Field{Label: "Duration (Days)", Value: s.DurationDays},
		model.Field{Label: "Estimated Employee Contributions (Monthly)", Value: s.EmployeeContribMonthly},
		model.Field{Label: "Estimated Employer Contributions (Monthly)", Value: s.EmployerContribMonthly},
		model.Field{Label: "Estimated Total Cost (Monthly)", Value: s.TotalCostMonthly},
		model.Field{Label: "Total Gross (Assignment)", Value: s.TotalGrossAssignment},
		model.Field{Label: "Total Cost (Assignment)", Value: s.TotalCostAssignment},
	)
}
