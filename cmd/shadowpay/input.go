package main

import (
	"github.com/Veraticus/shadow-payroll/internal/model"
	"github.com/spf13/cobra"
)

// inputFlags are the assignment parameters shared by estimate and calc.
type inputFlags struct {
	home     string
	host     string
	currency string
	salary   float64
	housing  float64
	school   float64
	fxRate   float64
	months   int
	children int
	spouse   bool
}

func addInputFlags(cmd *cobra.Command, f *inputFlags) {
	d := model.NewPayrollInput(model.DefaultLimits())

	flags := cmd.Flags()
	flags.StringVar(&f.home, "home", d.HomeCountry(), "home country")
	flags.StringVar(&f.host, "host", d.HostCountry(), "host country")
	flags.StringVar(&f.currency, "currency", d.DisplayCurrency(), "display currency (ISO code)")
	flags.Float64Var(&f.salary, "salary", d.SalaryUSD(), "annual base salary in USD")
	flags.IntVar(&f.months, "months", d.DurationMonths(), "assignment duration in months")
	flags.BoolVar(&f.spouse, "spouse", d.HasSpouse(), "dependent spouse joins the assignment")
	flags.IntVar(&f.children, "children", d.NumChildren(), "number of children")
	flags.Float64Var(&f.housing, "housing", d.HousingUSD(), "annual housing benefit in USD")
	flags.Float64Var(&f.school, "school", d.SchoolUSD(), "annual school benefit in USD")
	flags.Float64Var(&f.fxRate, "fx", d.FXRate(), "exchange rate, local currency per USD (skips the rate lookup)")
}

// build creates an input with every flag applied through its setter. The
// first invalid flag is reported and the rest are not applied.
func (f *inputFlags) build(limits model.Limits) (*model.PayrollInput, error) {
	in := model.NewPayrollInput(limits)
	steps := []func() error{
		func() error { return in.SetHomeCountry(f.home) },
		func() error { return in.SetHostCountry(f.host) },
		func() error { return in.SetDisplayCurrency(f.currency) },
		func() error { return in.SetSalaryUSD(f.salary) },
		func() error { return in.SetDurationMonths(f.months) },
		func() error { return in.SetHasSpouse(f.spouse) },
		func() error { return in.SetNumChildren(f.children) },
		func() error { return in.SetHousingUSD(f.housing) },
		func() error { return in.SetSchoolUSD(f.school) },
		func() error { return in.SetFXRate(f.fxRate) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return in, nil
}

// manualRate reports whether the user gave --fx.
func manualRate(cmd *cobra.Command) bool {
	return cmd.Flags().Changed("fx")
}
