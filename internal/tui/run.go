package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/shadow-payroll/internal/model"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned when the user leaves the form without submitting.
var ErrCancelled = errors.New("input cancelled")

// Run shows the form for a copy of in and returns the edited copy once submitted.
func Run(ctx context.Context, in *model.PayrollInput, opts ...Option) (*model.PayrollInput, error) {
	if in == nil {
		return nil, fmt.Errorf("input is required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	edited := in.Clone()
	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	final, err := tea.NewProgram(NewModel(edited, opts...), programOpts...).Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("form failed: %w", err)
	}

	m, ok := final.(Model)
	if !ok || !m.Submitted() {
		return nil, ErrCancelled
	}
	return m.Input(), nil
}
