package report

import (
	"fmt"
	"strings"

	"github.com/Veraticus/shadow-payroll/internal/cli"
	"github.com/Veraticus/shadow-payroll/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// Terminal renders the document as boxed sections for a color terminal.
func Terminal(d Document) string {
	local := d.LocalCurrency()
	base := d.Summary.Base
	sections := make([]string, 0, 6)

	sections = append(sections, cli.FormatTitle(Title(d)))

	baseRows := []string{
		cli.Row("Monthly salary", money(local, base.SalaryMonthly())),
		cli.Row("Monthly benefits", money(local, base.BenefitsMonthly())),
		cli.Row("Monthly gross", money(local, base.GrossMonthly())),
		cli.Row("Est. employer contributions", money(local, d.Summary.EmployerContribMonthly)),
		cli.Row("Est. total cost (monthly)", money(local, d.Summary.TotalCostMonthly)),
		cli.Row("Total cost (assignment)", money(local, d.Summary.TotalCostAssignment)),
	}
	sections = append(sections, cli.Section("Monthly Base", strings.Join(baseRows, "\n")))

	if r := d.Result; r != nil {
		items := make([]string, 0, len(r.LineItems())+2)
		for _, item := range r.LineItems() {
			value := usd(item.AmountUSD)
			if item.IsRange {
				value = fmt.Sprintf("%s (%s-%s)", value, usd(item.RangeLowUSD), usd(item.RangeHighUSD))
			}
			items = append(items, cli.Row(item.Label, value))
		}
		items = append(items, "", cli.BoldStyle.Render(cli.Row("Total employer cost (annual)", usd(r.TotalEmployerCostUSD()))))
		sections = append(sections, cli.Section("Annual Employer Cost (USD)", strings.Join(items, "\n")))

		overall := r.OverallRating()
		risk := r.PERisk()
		ratings := []string{
			cli.Row("Cost rating", cli.FormatTier(overall.Level)),
			cli.Row("PE risk", cli.FormatTier(risk.RiskLevel)),
			cli.Row("Days vs threshold", fmt.Sprintf("%d / %d", risk.AssignmentDays, risk.ThresholdDays)),
		}
		if risk.TreatyExists {
			ratings = append(ratings, cli.Row("Treaty", orDefault(risk.TreatyName, "yes")))
		} else {
			ratings = append(ratings, cli.Row("Treaty", "none"))
		}
		if risk.Disagrees() {
			ratings = append(ratings, cli.FormatWarning(fmt.Sprintf("Duration heuristic suggests %s", risk.FallbackLevel)))
		}
		for _, m := range risk.Mitigations {
			ratings = append(ratings, cli.SubtleStyle.Render("• "+m))
		}
		sections = append(sections, cli.Section("Ratings", strings.Join(ratings, "\n")))

		sections = append(sections, cli.Section("Insights", lipgloss.NewStyle().Width(60).Render(r.Insights())))
	} else {
		sections = append(sections, cli.Section("PE Risk",
			cli.Row("Duration-based risk", cli.FormatTier(d.Fallback))))
	}

	fx := d.FX
	if d.Result != nil && d.Result.Metadata().FX.Rate > 0 {
		fx = d.Result.Metadata().FX
	}
	if fx.Rate > 0 {
		line := fmt.Sprintf("1 USD = %s (%s, %s)", money(fx.Currency, fx.Rate), orDefault(fx.Source, "unknown"), asOf(fx.AsOf))
		if fx.Stale {
			line = cli.FormatWarning(line + " stale")
		} else {
			line = cli.FormatInfo(line)
		}
		sections = append(sections, line)
	}

	sections = append(sections, cli.DisclaimerStyle.Render(model.Disclaimer))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
