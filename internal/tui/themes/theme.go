// Package themes holds the color schemes of the input form.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Label       lipgloss.Style
	Focused     lipgloss.Style
	Normal      lipgloss.Style
	Hint        lipgloss.Style
	Error       lipgloss.Style
	Warning     lipgloss.Style
	RoundedBox  lipgloss.Style
	Primary     lipgloss.Color
	Muted       lipgloss.Color
	Border      lipgloss.Color
	Foreground  lipgloss.Color
	ErrorColor  lipgloss.Color
	WarnColor   lipgloss.Color
	AccentColor lipgloss.Color
}

func build(primary, accent, fg, muted, border, errColor, warn lipgloss.Color) Theme {
	return Theme{
		Primary:     primary,
		AccentColor: accent,
		Foreground:  fg,
		Muted:       muted,
		Border:      border,
		ErrorColor:  errColor,
		WarnColor:   warn,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary).
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(muted).
			MarginBottom(1),
		Label: lipgloss.NewStyle().
			Foreground(fg).
			Width(24),
		Focused: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Width(24),
		Normal: lipgloss.NewStyle().
			Foreground(fg),
		Hint: lipgloss.NewStyle().
			Foreground(muted).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(errColor).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(warn).
			Italic(true),
		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(1, 2),
	}
}

// Default is the default theme.
var Default = build(
	lipgloss.Color("#7c3aed"),
	lipgloss.Color("#a78bfa"),
	lipgloss.Color("#fafafa"),
	lipgloss.Color("#737373"),
	lipgloss.Color("#404040"),
	lipgloss.Color("#ef4444"),
	lipgloss.Color("#f59e0b"),
)

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = build(
	lipgloss.Color("#cba6f7"),
	lipgloss.Color("#f5c2e7"),
	lipgloss.Color("#cdd6f4"),
	lipgloss.Color("#6c7086"),
	lipgloss.Color("#45475a"),
	lipgloss.Color("#f38ba8"),
	lipgloss.Color("#f9e2af"),
)

// ByName returns a theme by its config name; unknown names get Default.
func ByName(name string) Theme {
	switch name {
	case "catppuccin", "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}
