package report

import (
	"fmt"
	"strings"

	"github.com/Veraticus/shadow-payroll/internal/model"
)

// Markdown renders the document as a standalone GitHub-flavored Markdown report.
func Markdown(d Document) string {
	var b strings.Builder
	in := d.Input
	local := d.LocalCurrency()

	fmt.Fprintf(&b, "# Shadow Payroll Estimate: %s to %s\n\n", in.HomeCountry, in.HostCountry)
	if !d.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "_Generated %s_\n\n", asOf(d.GeneratedAt))
	}

	b.WriteString("## Assignment\n\n")
	b.WriteString("| Parameter | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Annual salary | %s |\n", money("USD", in.SalaryUSD))
	fmt.Fprintf(&b, "| Duration | %d months (%d days) |\n", d.Summary.DurationMonths, d.Summary.DurationDays)
	fmt.Fprintf(&b, "| Housing benefit | %s |\n", money("USD", in.HousingUSD))
	fmt.Fprintf(&b, "| School benefit | %s |\n", money("USD", in.SchoolUSD))
	fmt.Fprintf(&b, "| Spouse | %s |\n", yesNo(in.HasSpouse))
	fmt.Fprintf(&b, "| Children | %d |\n", in.NumChildren)
	fmt.Fprintf(&b, "| Exchange rate | 1 USD = %s |\n\n", money(local, d.Summary.Base.FXRate()))

	base := d.Summary.Base
	b.WriteString("## Monthly Base\n\n")
	b.WriteString("| Item | Amount |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Salary | %s |\n", money(local, base.SalaryMonthly()))
	fmt.Fprintf(&b, "| Benefits | %s |\n", money(local, base.BenefitsMonthly()))
	fmt.Fprintf(&b, "| Gross | %s |\n", money(local, base.GrossMonthly()))
	fmt.Fprintf(&b, "| Est. employee contributions | %s |\n", money(local, d.Summary.EmployeeContribMonthly))
	fmt.Fprintf(&b, "| Est. employer contributions | %s |\n", money(local, d.Summary.EmployerContribMonthly))
	fmt.Fprintf(&b, "| Est. total cost | %s |\n", money(local, d.Summary.TotalCostMonthly))
	fmt.Fprintf(&b, "| Total cost (assignment) | %s |\n\n", money(local, d.Summary.TotalCostAssignment))

	if d.Result != nil {
		writeEstimate(&b, d.Result, 2)
	} else {
		b.WriteString("## PE Risk\n\n")
		fmt.Fprintf(&b, "**Risk level:** %s (duration-based heuristic, no model estimate)\n\n", d.Fallback)
	}

	writeFX(&b, d)

	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "> %s\n", model.Disclaimer)
	return b.String()
}

// writeEstimate renders the estimate sections with headings at level.
func writeEstimate(b *strings.Builder, r *model.EstimationResult, level int) {
	local := r.LocalCurrency()
	h := strings.Repeat("#", level)

	fmt.Fprintf(b, "%s Annual Employer Cost\n\n", h)
	fmt.Fprintf(b, "**Total:** %s (%s)\n\n", money("USD", r.TotalEmployerCostUSD()), money(local, r.TotalEmployerCostLocal()))

	b.WriteString("| Item | USD | Local | Rating |\n|---|---:|---:|---|\n")
	ratings := make(map[string]model.Tier)
	for _, rating := range r.ItemRatings() {
		ratings[rating.ItemLabel] = rating.Level
	}
	var notes []string
	for _, item := range r.LineItems() {
		amount := money("USD", item.AmountUSD)
		if item.IsRange {
			amount = fmt.Sprintf("%s (%s to %s)", amount, usd(item.RangeLowUSD), usd(item.RangeHighUSD))
			if item.RangeDisclaimer != "" {
				notes = append(notes, fmt.Sprintf("%s: %s", item.Label, item.RangeDisclaimer))
			}
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n", escapeCell(item.Label), amount, money(local, item.AmountLocal), ratings[item.Label])
	}
	b.WriteString("\n")
	for _, note := range notes {
		fmt.Fprintf(b, "- _%s_\n", note)
	}
	if len(notes) > 0 {
		b.WriteString("\n")
	}

	overall := r.OverallRating()
	fmt.Fprintf(b, "%s Cost Rating\n\n", h)
	fmt.Fprintf(b, "**%s** compared with %s", overall.Level, orDefault(overall.RegionName, "the region"))
	if overall.TypicalRangeHighUSD > 0 {
		fmt.Fprintf(b, " (typical range %s to %s)", usd(overall.TypicalRangeLowUSD), usd(overall.TypicalRangeHighUSD))
	}
	b.WriteString("\n\n")

	risk := r.PERisk()
	fmt.Fprintf(b, "%s PE Risk\n\n", h)
	fmt.Fprintf(b, "**Risk level:** %s\n\n", risk.RiskLevel)
	fmt.Fprintf(b, "- Threshold: %d days; assignment: %d days", risk.ThresholdDays, risk.AssignmentDays)
	if risk.ExceedsThreshold {
		b.WriteString(" (exceeds threshold)")
	}
	b.WriteString("\n")
	if risk.TreatyExists {
		fmt.Fprintf(b, "- Treaty: %s\n", orDefault(risk.TreatyName, "yes"))
		if risk.TreatyImplications != "" {
			fmt.Fprintf(b, "- Implications: %s\n", risk.TreatyImplications)
		}
	} else {
		b.WriteString("- Treaty: none\n")
		if risk.NoTreatyWarning != "" {
			fmt.Fprintf(b, "- Warning: %s\n", risk.NoTreatyWarning)
		}
	}
	if risk.EconomicEmployerNote != "" {
		fmt.Fprintf(b, "- Economic employer: %s\n", risk.EconomicEmployerNote)
	}
	if risk.Disagrees() {
		fmt.Fprintf(b, "- Duration heuristic suggests **%s**; review the assessment.\n", risk.FallbackLevel)
	}
	b.WriteString("\n")
	if bar := peTimeline(risk.AssignmentDays, risk.ThresholdDays); bar != "" {
		fmt.Fprintf(b, "```\n%s\n```\n\n", bar)
	}
	if len(risk.Mitigations) > 0 {
		fmt.Fprintf(b, "%s# Mitigations\n\n", h)
		for _, m := range risk.Mitigations {
			fmt.Fprintf(b, "1. %s\n", m)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(b, "%s Insights\n\n", h)
	b.WriteString(r.Insights())
	b.WriteString("\n\n")

	if name := r.Metadata().Model; name != "" {
		fmt.Fprintf(b, "_Estimated by %s._\n\n", name)
	}
}

const timelineWidth = 40

// peTimeline draws the assignment length against the PE day threshold. The
// threshold is marked with a bar and days past it use a solid block.
func peTimeline(days, threshold int) string {
	if days <= 0 || threshold <= 0 {
		return ""
	}
	span := max(days, threshold)
	mark := threshold * timelineWidth / span
	filled := days * timelineWidth / span

	var line strings.Builder
	for i := range timelineWidth {
		if i == mark {
			line.WriteString("|")
		}
		switch {
		case i < filled && i >= mark:
			line.WriteString("█")
		case i < filled:
			line.WriteString("▓")
		default:
			line.WriteString("░")
		}
	}
	if mark >= timelineWidth {
		line.WriteString("|")
	}
	return printer.Sprintf("%s  %d days, threshold %d days", line.String(), days, threshold)
}

func writeFX(b *strings.Builder, d Document) {
	fx := d.FX
	if d.Result != nil && d.Result.Metadata().FX.Rate > 0 {
		fx = d.Result.Metadata().FX
	}
	if fx.Rate <= 0 {
		return
	}
	b.WriteString("## Exchange Rate\n\n")
	fmt.Fprintf(b, "1 USD = %s from %s, as of %s", money(fx.Currency, fx.Rate), orDefault(fx.Source, "unknown source"), asOf(fx.AsOf))
	if fx.Stale {
		b.WriteString(" **(stale)**")
	}
	b.WriteString("\n\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
