package tui

import (
	"github.com/Veraticus/shadow-payroll/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme      themes.Theme
	Countries  []string
	Currencies []string
	Width      int
	Height     int
	AltScreen  bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:     themes.Default,
		Width:     80,
		Height:    24,
		AltScreen: true,
	}
}

// WithTheme sets the color theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithCountries offers completions for the country fields.
func WithCountries(countries []string) Option {
	return func(c *Config) {
		c.Countries = countries
	}
}

// WithCurrencies offers completions for the display currency field.
func WithCurrencies(currencies []string) Option {
	return func(c *Config) {
		c.Currencies = currencies
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithAltScreen toggles the alternate screen buffer.
func WithAltScreen(enabled bool) Option {
	return func(c *Config) {
		c.AltScreen = enabled
	}
}
