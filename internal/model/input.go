package model

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/Veraticus/shadow-payroll/internal/common"
)

// Limits bounds every field of a PayrollInput.
type Limits struct {
	Currencies    []string
	MaxSalary     float64
	MaxBenefit    float64
	MaxFXRate     float64
	MinDuration   int
	MaxDuration   int
	MaxDependents int
}

// DefaultLimits returns the bounds used when no configuration overrides them.
func DefaultLimits() Limits {
	return Limits{
		MaxSalary:     10_000_000,
		MaxBenefit:    1_000_000,
		MaxFXRate:     100_000,
		MinDuration:   1,
		MaxDuration:   60,
		MaxDependents: 10,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxSalary <= 0 {
		l.MaxSalary = d.MaxSalary
	}
	if l.MaxBenefit <= 0 {
		l.MaxBenefit = d.MaxBenefit
	}
	if l.MaxFXRate <= 0 {
		l.MaxFXRate = d.MaxFXRate
	}
	if l.MinDuration <= 0 {
		l.MinDuration = d.MinDuration
	}
	if l.MaxDuration <= 0 {
		l.MaxDuration = d.MaxDuration
	}
	if l.MaxDependents <= 0 {
		l.MaxDependents = d.MaxDependents
	}
	return l
}

// ValidationError reports an input value that violates a declared bound.
type ValidationError struct {
	Value  any
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return common.ErrValidation
}

// PayrollInput holds one scenario's raw parameters.
// It is mutable; every setter validates first and leaves the previous value in place on failure.
type PayrollInput struct {
	homeCountry     string
	hostCountry     string
	displayCurrency string
	limits          Limits
	salaryUSD       float64
	housingUSD      float64
	schoolUSD       float64
	fxRate          float64
	durationMonths  int
	numChildren     int
	hasSpouse       bool
}

// NewPayrollInput returns an input populated with the default assignment.
func NewPayrollInput(limits Limits) *PayrollInput {
	return &PayrollInput{
		limits:          limits.withDefaults(),
		salaryUSD:       400_000,
		durationMonths:  36,
		housingUSD:      50_000,
		schoolUSD:       30_000,
		fxRate:          1_000,
		homeCountry:     "United States",
		hostCountry:     "Argentina",
		displayCurrency: "USD",
	}
}

// Limits returns the bounds this input validates against.
func (p *PayrollInput) Limits() Limits { return p.limits }

// SalaryUSD is the annual base salary in USD.
func (p *PayrollInput) SalaryUSD() float64 { return p.salaryUSD }

// DurationMonths is the assignment length.
func (p *PayrollInput) DurationMonths() int { return p.durationMonths }

// DurationDays approximates the assignment length at 30 days per month.
func (p *PayrollInput) DurationDays() int { return p.durationMonths * 30 }

// HasSpouse reports a dependent spouse.
func (p *PayrollInput) HasSpouse() bool { return p.hasSpouse }

// NumChildren is the number of dependent children.
func (p *PayrollInput) NumChildren() int { return p.numChildren }

// HousingUSD is the annual housing benefit in USD.
func (p *PayrollInput) HousingUSD() float64 { return p.housingUSD }

// SchoolUSD is the annual school benefit in USD.
func (p *PayrollInput) SchoolUSD() float64 { return p.schoolUSD }

// BenefitsUSD is the sum of annual benefits in USD.
func (p *PayrollInput) BenefitsUSD() float64 { return p.housingUSD + p.schoolUSD }

// FXRate is the number of host currency units per USD.
func (p *PayrollInput) FXRate() float64 { return p.fxRate }

// HomeCountry is the origin jurisdiction.
func (p *PayrollInput) HomeCountry() string { return p.homeCountry }

// HostCountry is the destination jurisdiction.
func (p *PayrollInput) HostCountry() string { return p.hostCountry }

// DisplayCurrency is the user-selected presentation currency.
func (p *PayrollInput) DisplayCurrency() string { return p.displayCurrency }

// SetSalaryUSD sets the annual base salary.
func (p *PayrollInput) SetSalaryUSD(v float64) error {
	if err := checkMoney("salary_usd", v, p.limits.MaxSalary); err != nil {
		return err
	}
	p.salaryUSD = v
	return nil
}

// SetDurationMonths sets the assignment length.
func (p *PayrollInput) SetDurationMonths(v int) error {
	if v < p.limits.MinDuration || v > p.limits.MaxDuration {
		return &ValidationError{
			Field:  "duration_months",
			Value:  v,
			Reason: fmt.Sprintf("must be between %d and %d", p.limits.MinDuration, p.limits.MaxDuration),
		}
	}
	p.durationMonths = v
	return nil
}

// SetHasSpouse sets the dependent spouse flag.
func (p *PayrollInput) SetHasSpouse(v bool) error {
	p.hasSpouse = v
	return nil
}

// SetNumChildren sets the number of dependent children.
func (p *PayrollInput) SetNumChildren(v int) error {
	if v < 0 || v > p.limits.MaxDependents {
		return &ValidationError{
			Field:  "num_children",
			Value:  v,
			Reason: fmt.Sprintf("must be between 0 and %d", p.limits.MaxDependents),
		}
	}
	p.numChildren = v
	return nil
}

// SetHousingUSD sets the annual housing benefit.
func (p *PayrollInput) SetHousingUSD(v float64) error {
	if err := checkMoney("housing_usd", v, p.limits.MaxBenefit); err != nil {
		return err
	}
	p.housingUSD = v
	return nil
}

// SetSchoolUSD sets the annual school benefit.
func (p *PayrollInput) SetSchoolUSD(v float64) error {
	if err := checkMoney("school_usd", v, p.limits.MaxBenefit); err != nil {
		return err
	}
	p.schoolUSD = v
	return nil
}

// SetFXRate sets the exchange rate. Rates below 1.0 are valid for inverse pairs.
func (p *PayrollInput) SetFXRate(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return &ValidationError{Field: "fx_rate", Value: v, Reason: "must be greater than 0"}
	}
	if v > p.limits.MaxFXRate {
		return &ValidationError{
			Field:  "fx_rate",
			Value:  v,
			Reason: fmt.Sprintf("must not exceed %g", p.limits.MaxFXRate),
		}
	}
	p.fxRate = v
	return nil
}

// SetHomeCountry sets the origin jurisdiction.
func (p *PayrollInput) SetHomeCountry(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return &ValidationError{Field: "home_country", Value: v, Reason: "is required"}
	}
	p.homeCountry = v
	return nil
}

// SetHostCountry sets the destination jurisdiction.
func (p *PayrollInput) SetHostCountry(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return &ValidationError{Field: "host_country", Value: v, Reason: "is required"}
	}
	p.hostCountry = v
	return nil
}

// SetDisplayCurrency sets the presentation currency.
func (p *PayrollInput) SetDisplayCurrency(v string) error {
	code := strings.ToUpper(strings.TrimSpace(v))
	if !isCurrencyCode(code) {
		return &ValidationError{Field: "display_currency", Value: v, Reason: "must be a three-letter ISO 4217 code"}
	}
	if len(p.limits.Currencies) > 0 && !slices.Contains(p.limits.Currencies, code) {
		return &ValidationError{Field: "display_currency", Value: v, Reason: "is not a supported currency"}
	}
	p.displayCurrency = code
	return nil
}

// Validate re-runs every field check against the current values.
func (p *PayrollInput) Validate() error {
	shadow := &PayrollInput{limits: p.limits}
	checks := []error{
		shadow.SetSalaryUSD(p.salaryUSD),
		shadow.SetDurationMonths(p.durationMonths),
		shadow.SetNumChildren(p.numChildren),
		shadow.SetHousingUSD(p.housingUSD),
		shadow.SetSchoolUSD(p.schoolUSD),
		shadow.SetFXRate(p.fxRate),
		shadow.SetHomeCountry(p.homeCountry),
		shadow.SetHostCountry(p.hostCountry),
		shadow.SetDisplayCurrency(p.displayCurrency),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

// Clone returns an independent copy that can be edited separately.
func (p *PayrollInput) Clone() *PayrollInput {
	c := *p
	c.limits.Currencies = slices.Clone(p.limits.Currencies)
	return &c
}

// Snapshot captures the current values as an immutable value.
func (p *PayrollInput) Snapshot() InputSnapshot {
	return InputSnapshot{
		HomeCountry:     p.homeCountry,
		HostCountry:     p.hostCountry,
		DisplayCurrency: p.displayCurrency,
		SalaryUSD:       p.salaryUSD,
		HousingUSD:      p.housingUSD,
		SchoolUSD:       p.schoolUSD,
		FXRate:          p.fxRate,
		DurationMonths:  p.durationMonths,
		NumChildren:     p.numChildren,
		HasSpouse:       p.hasSpouse,
	}
}

// InputSnapshot is a value copy of a PayrollInput at one point in time.
type InputSnapshot struct {
	HomeCountry     string  `yaml:"home_country" json:"home_country"`
	HostCountry     string  `yaml:"host_country" json:"host_country"`
	DisplayCurrency string  `yaml:"display_currency" json:"display_currency"`
	SalaryUSD       float64 `yaml:"salary_usd" json:"salary_usd"`
	HousingUSD      float64 `yaml:"housing_usd" json:"housing_usd"`
	SchoolUSD       float64 `yaml:"school_usd" json:"school_usd"`
	FXRate          float64 `yaml:"fx_rate" json:"fx_rate"`
	DurationMonths  int     `yaml:"duration_months" json:"duration_months"`
	NumChildren     int     `yaml:"num_children" json:"num_children"`
	HasSpouse       bool    `yaml:"has_spouse" json:"has_spouse"`
}

// Input rebuilds a validated PayrollInput from the snapshot.
func (s InputSnapshot) Input(limits Limits) (*PayrollInput, error) {
	p := NewPayrollInput(limits)
	setters := []error{
		p.SetSalaryUSD(s.SalaryUSD),
		p.SetDurationMonths(s.DurationMonths),
		p.SetHasSpouse(s.HasSpouse),
		p.SetNumChildren(s.NumChildren),
		p.SetHousingUSD(s.HousingUSD),
		p.SetSchoolUSD(s.SchoolUSD),
		p.SetFXRate(s.FXRate),
		p.SetHomeCountry(s.HomeCountry),
		p.SetHostCountry(s.HostCountry),
		p.SetDisplayCurrency(s.DisplayCurrency),
	}
	for _, err := range setters {
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

func checkMoney(field string, v, ceiling float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ValidationError{Field: field, Value: v, Reason: "must be a finite number"}
	}
	if v < 0 {
		return &ValidationError{Field: field, Value: v, Reason: "must not be negative"}
	}
	if v > ceiling {
		return &ValidationError{Field: field, Value: v, Reason: fmt.Sprintf("must not exceed %g", ceiling)}
	}
	return nil
}

func isCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
