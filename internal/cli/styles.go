// Package cli holds the terminal pieces shared by the shadowpay commands:
// the palette, message formatters, tier colors, a spinner, a yes/no prompt
// and interrupt handling.
package cli

import (
	"github.com/Veraticus/shadow-payroll/internal/model"
	"github.com/charmbracelet/lipgloss"
)

var (
	// AccentColor marks titles and prompts.
	AccentColor = lipgloss.Color("#5B8DEF")
	// LowColor shades Low tiers and completed actions.
	LowColor = lipgloss.Color("#4ECDC4")
	// MediumColor shades Medium tiers, warnings and the disclaimer.
	MediumColor = lipgloss.Color("#FFE66D")
	// HighColor shades High tiers and failures.
	HighColor = lipgloss.Color("#FF6B6B")
	// MutedColor is for labels and secondary detail.
	MutedColor = lipgloss.Color("#666666")

	ruleColor = lipgloss.Color("#333")

	// SubtleStyle renders secondary detail.
	SubtleStyle = lipgloss.NewStyle().Foreground(MutedColor)

	// BoldStyle renders emphasized labels and totals.
	BoldStyle = lipgloss.NewStyle().Bold(true)

	// DisclaimerStyle sets the disclaimer apart from the figures.
	DisclaimerStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(MediumColor)

	// TableHeaderStyle underlines a table's header row.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(ruleColor)

	// TableCellStyle pads table cells.
	TableCellStyle = lipgloss.NewStyle().PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(AccentColor).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ruleColor).
			Padding(1, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(34)

	figureStyle = lipgloss.NewStyle().
			Align(lipgloss.Right).
			Width(22)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	LedgerIcon  = "🧾"
)

// TierStyle colors a risk or cost tier: Low teal, Medium yellow, High red.
func TierStyle(t model.Tier) lipgloss.Style {
	switch t {
	case model.TierLow:
		return lipgloss.NewStyle().Foreground(LowColor).Bold(true)
	case model.TierMedium:
		return lipgloss.NewStyle().Foreground(MediumColor).Bold(true)
	case model.TierHigh:
		return lipgloss.NewStyle().Foreground(HighColor).Bold(true)
	default:
		return SubtleStyle
	}
}

// FormatTier renders a tier in its color.
func FormatTier(t model.Tier) string {
	return TierStyle(t).Render(string(t))
}

// Row lays out a muted label and a right-aligned figure.
func Row(label, figure string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), figureStyle.Render(figure))
}

// Section renders body in a rounded box under an accented title.
func Section(title, body string) string {
	heading := titleStyle.UnsetMargins().Render(title)
	return sectionStyle.Render(lipgloss.JoinVertical(lipgloss.Left, heading, body))
}

// FormatTitle renders a report title with the ledger icon.
func FormatTitle(title string) string {
	return titleStyle.Render(LedgerIcon + " " + title)
}

// FormatSuccess formats a completed action.
func FormatSuccess(message string) string {
	return lipgloss.NewStyle().Foreground(LowColor).Render(SuccessIcon + " " + message)
}

// FormatError formats a failure.
func FormatError(message string) string {
	return lipgloss.NewStyle().Foreground(HighColor).Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning.
func FormatWarning(message string) string {
	return lipgloss.NewStyle().Foreground(MediumColor).Render(WarningIcon + " " + message)
}

// FormatInfo formats a neutral notice.
func FormatInfo(message string) string {
	return lipgloss.NewStyle().Foreground(AccentColor).Render(InfoIcon + " " + message)
}

// FormatPrompt formats a yes/no question.
func FormatPrompt(prompt string) string {
	return BoldStyle.Foreground(AccentColor).Render(prompt + " [y/N] ")
}
