package tui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/Veraticus/shadow-payroll/internal/model"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindNumber
	kindInteger
	kindBool
)

// field is one form row bound to a PayrollInput setter.
type field struct {
	apply   func(p *model.PayrollInput, raw string) error
	current func(p *model.PayrollInput) string
	label   string
	hint    string
	err     string
	input   textinput.Model
	kind    fieldKind
}

func newInput(placeholder string, suggestions []string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 64
	ti.Width = 30
	ti.KeyMap.AcceptSuggestion = key.NewBinding(key.WithKeys("right"))
	if len(suggestions) > 0 {
		ti.ShowSuggestions = true
		ti.SetSuggestions(suggestions)
	}
	return ti
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseNumber(name, raw string) (float64, error) {
	cleaned := strings.NewReplacer(",", "", "_", "", "$", "", " ", "").Replace(raw)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, &model.ValidationError{Field: name, Value: raw, Reason: "must be a number"}
	}
	return v, nil
}

func parseInteger(name, raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &model.ValidationError{Field: name, Value: raw, Reason: "must be a whole number"}
	}
	return v, nil
}

func parseBool(name, raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "y", "yes", "true", "1":
		return true, nil
	case "n", "no", "false", "0", "":
		return false, nil
	default:
		return false, &model.ValidationError{Field: name, Value: raw, Reason: "must be yes or no"}
	}
}

func moneyField(label, name string, set func(*model.PayrollInput, float64) error, get func(*model.PayrollInput) float64) field {
	return field{
		label: label,
		kind:  kindNumber,
		input: newInput("0", nil),
		apply: func(p *model.PayrollInput, raw string) error {
			v, err := parseNumber(name, raw)
			if err != nil {
				return err
			}
			return set(p, v)
		},
		current: func(p *model.PayrollInput) string { return formatNumber(get(p)) },
	}
}

func intField(label, name string, set func(*model.PayrollInput, int) error, get func(*model.PayrollInput) int) field {
	return field{
		label: label,
		kind:  kindInteger,
		input: newInput("0", nil),
		apply: func(p *model.PayrollInput, raw string) error {
			v, err := parseInteger(name, raw)
			if err != nil {
				return err
			}
			return set(p, v)
		},
		current: func(p *model.PayrollInput) string { return strconv.Itoa(get(p)) },
	}
}

func textField(label string, suggestions []string, set func(*model.PayrollInput, string) error, get func(*model.PayrollInput) string) field {
	return field{
		label:   label,
		kind:    kindText,
		input:   newInput(label, suggestions),
		apply:   set,
		current: get,
	}
}

func buildFields(cfg Config) []field {
	spouse := field{
		label: "Dependent spouse",
		kind:  kindBool,
		hint:  "Space toggles",
		input: newInput("No", nil),
		apply: func(p *model.PayrollInput, raw string) error {
			v, err := parseBool("has_spouse", raw)
			if err != nil {
				return err
			}
			return p.SetHasSpouse(v)
		},
		current: func(p *model.PayrollInput) string {
			if p.HasSpouse() {
				return "Yes"
			}
			return "No"
		},
	}

	fx := moneyField("FX rate (local per USD)", "fx_rate", (*model.PayrollInput).SetFXRate, (*model.PayrollInput).FXRate)
	fx.hint = "Rates below 1 are valid for strong currencies"

	salary := moneyField("Annual salary (USD)", "salary_usd", (*model.PayrollInput).SetSalaryUSD, (*model.PayrollInput).SalaryUSD)
	salary.hint = "Commas are ignored"

	return []field{
		textField("Home country", cfg.Countries, (*model.PayrollInput).SetHomeCountry, (*model.PayrollInput).HomeCountry),
		textField("Host country", cfg.Countries, (*model.PayrollInput).SetHostCountry, (*model.PayrollInput).HostCountry),
		textField("Display currency", cfg.Currencies, (*model.PayrollInput).SetDisplayCurrency, (*model.PayrollInput).DisplayCurrency),
		salary,
		intField("Duration (months)", "duration_months", (*model.PayrollInput).SetDurationMonths, (*model.PayrollInput).DurationMonths),
		spouse,
		intField("Children", "num_children", (*model.PayrollInput).SetNumChildren, (*model.PayrollInput).NumChildren),
		moneyField("Housing (USD/year)", "housing_usd", (*model.PayrollInput).SetHousingUSD, (*model.PayrollInput).HousingUSD),
		moneyField("School (USD/year)", "school_usd", (*model.PayrollInput).SetSchoolUSD, (*model.PayrollInput).SchoolUSD),
		fx,
	}
}

// errorText renders a setter failure for inline display.
func errorText(err error) string {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return verr.Reason
	}
	return err.Error()
}
