package estimate

import (
	"strconv"
	"strings"

	"github.com/Veraticus/shadow-payroll/internal/config"
	"github.com/Veraticus/shadow-payroll/internal/llm"
	"github.com/Veraticus/shadow-payroll/internal/model"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const systemPrompt = `You are a senior international tax and expatriate compensation specialist.
Respond only with a single JSON object matching the declared schema. Do not add prose, headings or code fences outside the JSON object.`

// Request is a fully composed estimation prompt. Text is also the cache key.
type Request struct {
	System        string
	Text          string
	LocalCurrency string
	Region        string
}

// LLM converts the request into a provider call with the response schema attached.
func (r Request) LLM() llm.Request {
	return llm.Request{
		System:     r.System,
		Prompt:     r.Text,
		Schema:     SchemaHint(),
		SchemaName: schemaName,
	}
}

// BuildRequest composes the estimation prompt for in. It is deterministic:
// equal inputs always yield byte-identical text.
func BuildRequest(in *model.PayrollInput, base model.BaseCalculation) Request {
	j, _ := config.Lookup(in.HostCountry())
	p := message.NewPrinter(language.English)

	cur := j.Currency
	days := in.DurationDays()
	home := in.HomeCountry()
	host := in.HostCountry()

	var b strings.Builder
	b.WriteString("Estimate the annual shadow payroll costs for an expatriate assignment.\n\n")

	b.WriteString("Assignment details:\n")
	p.Fprintf(&b, "- Home country: %s\n", home)
	p.Fprintf(&b, "- Host country: %s\n", host)
	p.Fprintf(&b, "- Annual base salary: USD %v\n", exact(in.SalaryUSD()))
	p.Fprintf(&b, "- Assignment duration: %d months (%d days)\n", in.DurationMonths(), days)
	p.Fprintf(&b, "- Housing allowance: USD %v per year\n", exact(in.HousingUSD()))
	p.Fprintf(&b, "- School allowance: USD %v per year\n", exact(in.SchoolUSD()))
	p.Fprintf(&b, "- Dependent spouse: %s\n", yesNo(in.HasSpouse()))
	p.Fprintf(&b, "- Dependent children: %d\n", in.NumChildren())
	p.Fprintf(&b, "- Host country currency: %s (1 USD = %v %s)\n", cur, exact(base.FXRate()), cur)
	p.Fprintf(&b, "- Region for benchmarking: %s\n\n", j.Region)

	b.WriteString("Monthly base in host currency, already computed:\n")
	p.Fprintf(&b, "- Salary: %s %.2f per month\n", cur, base.SalaryMonthly())
	p.Fprintf(&b, "- Benefits: %s %.2f per month\n", cur, base.BenefitsMonthly())
	p.Fprintf(&b, "- Gross: %s %.2f per month\n\n", cur, base.GrossMonthly())

	b.WriteString("Instructions:\n")
	b.WriteString("1. Provide an itemized annual cost breakdown in line_items with at least these labels:\n")
	b.WriteString("   Income Tax, Social Security - Employee, Social Security - Employer, PE Administration, Housing Allowance, Education Allowance.\n")
	b.WriteString("   If an item does not apply in the host country, include it with amount 0 and explain in range_disclaimer.\n")
	p.Fprintf(&b, "2. For each item give amount_usd in USD and amount_local in %s. Set local_currency to %q.\n", cur, cur)
	b.WriteString("   Give total_employer_cost_usd and total_employer_cost_local for the whole assignment year.\n")
	b.WriteString("3. If an item cannot be estimated with confidence, set is_range to true and give range_low_usd, range_high_usd and a range_disclaimer.\n")
	p.Fprintf(&b, "4. Rate the total cost in overall_rating and the key items in item_ratings against the %s average. Include the typical range for the region in USD.\n", j.Region)
	p.Fprintf(&b, "5. Assess permanent establishment risk in pe_risk for %s -> %s:\n", home, host)
	b.WriteString("   - pe_threshold_days: the PE day threshold for this country pair\n")
	b.WriteString("   - treaty_exists and treaty_name: whether a tax treaty applies\n")
	p.Fprintf(&b, "   - assignment_duration_days: %d, and exceeds_threshold\n", days)
	b.WriteString("   - mitigation_suggestions: 1 to 2 specific suggestions\n")
	b.WriteString("   - no_treaty_warning: a double taxation warning when no treaty exists\n")
	b.WriteString("   - economic_employer_note: the economic versus legal employer distinction when relevant\n")
	b.WriteString("6. Write insights_paragraph: 2 to 3 sentences on the key cost drivers and optimization opportunities, as an expert advisor.\n\n")

	b.WriteString("Rules:\n")
	b.WriteString("- Every level and risk_level must be exactly one of: Low, Medium, High.\n")
	b.WriteString("- All monetary amounts are ANNUAL, not monthly, and never negative.\n")
	b.WriteString("- Respond only with the JSON object matching the declared schema.\n")

	return Request{
		System:        systemPrompt,
		Text:          b.String(),
		LocalCurrency: cur,
		Region:        j.Region,
	}
}

// exact formats an input figure with grouping and every significant
// fraction digit, so distinct inputs never print alike.
func exact(v float64) number.Formatter {
	digits := 0
	if _, frac, ok := strings.Cut(strconv.FormatFloat(v, 'f', -1, 64), "."); ok {
		digits = len(frac)
	}
	return number.Decimal(v, number.MaxFractionDigits(digits))
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
