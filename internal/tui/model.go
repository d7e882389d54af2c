// Package tui provides the interactive assignment form.
package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/shadow-payroll/internal/model"
	"github.com/Veraticus/shadow-payroll/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model is the form state. Every committed edit goes through the
// PayrollInput setter, so the input is valid at all times.
type Model struct {
	theme     themes.Theme
	input     *model.PayrollInput
	help      help.Model
	keymap    KeyMap
	fields    []field
	focus     int
	width     int
	submitted bool
	cancelled bool
}

// NewModel creates a form editing in. The caller's input is modified in place.
func NewModel(in *model.PayrollInput, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	m := Model{
		theme:  cfg.Theme,
		input:  in,
		help:   help.New(),
		keymap: DefaultKeyMap(),
		fields: buildFields(cfg),
		width:  cfg.Width,
	}
	m.help.Width = cfg.Width

	for i := range m.fields {
		m.fields[i].input.SetValue(m.fields[i].current(in))
	}
	m.fields[0].input.Focus()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return m.fields[m.focus].input.Focus()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.ForceQuit), key.Matches(msg, m.keymap.Cancel):
			m.cancelled = true
			return m, tea.Quit

		case key.Matches(msg, m.keymap.Submit):
			if bad := m.commitAll(); bad >= 0 {
				return m, m.focusField(bad)
			}
			m.submitted = true
			return m, tea.Quit

		case key.Matches(msg, m.keymap.Next):
			m.commit(m.focus)
			return m, m.focusField((m.focus + 1) % len(m.fields))

		case key.Matches(msg, m.keymap.Prev):
			m.commit(m.focus)
			return m, m.focusField((m.focus - 1 + len(m.fields)) % len(m.fields))

		case key.Matches(msg, m.keymap.Toggle) && m.fields[m.focus].kind == kindBool:
			f := &m.fields[m.focus]
			if f.input.Value() == "Yes" {
				f.input.SetValue("No")
			} else {
				f.input.SetValue("Yes")
			}
			m.commit(m.focus)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.fields[m.focus].input, cmd = m.fields[m.focus].input.Update(msg)
	return m, cmd
}

// commit applies field i through its setter. On failure the input keeps
// its previous value and the field shows why.
func (m *Model) commit(i int) bool {
	f := &m.fields[i]
	if err := f.apply(m.input, f.input.Value()); err != nil {
		f.err = fmt.Sprintf("%s (keeping %s)", errorText(err), f.current(m.input))
		return false
	}
	f.err = ""
	f.input.SetValue(f.current(m.input))
	return true
}

// commitAll applies every field and returns the first failing index, or -1.
func (m *Model) commitAll() int {
	bad := -1
	for i := range m.fields {
		if !m.commit(i) && bad < 0 {
			bad = i
		}
	}
	return bad
}

func (m *Model) focusField(i int) tea.Cmd {
	m.fields[m.focus].input.Blur()
	m.focus = i
	return m.fields[i].input.Focus()
}

// View renders the form.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Shadow Payroll Assignment"))
	b.WriteString("\n")

	for i, f := range m.fields {
		label := m.theme.Label.Render(f.label)
		if i == m.focus {
			label = m.theme.Focused.Render("› " + f.label)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, label, f.input.View()))
		b.WriteString("\n")
		switch {
		case f.err != "":
			b.WriteString(m.theme.Error.Render("  ✗ " + f.err))
			b.WriteString("\n")
		case i == m.focus && f.hint != "":
			b.WriteString(m.theme.Hint.Render("  " + f.hint))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.theme.Warning.Render(model.Disclaimer))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keymap))

	return m.theme.RoundedBox.MaxWidth(max(m.width, 40)).Render(b.String())
}

// Submitted reports whether the form was completed with Enter.
func (m Model) Submitted() bool { return m.submitted }

// Cancelled reports whether the user left with Esc or Ctrl+C.
func (m Model) Cancelled() bool { return m.cancelled }

// Input returns the edited input.
func (m Model) Input() *model.PayrollInput { return m.input }

// Errors returns the current inline error of every field that has one, keyed by label.
func (m Model) Errors() map[string]string {
	out := make(map[string]string)
	for _, f := range m.fields {
		if f.err != "" {
			out[f.label] = f.err
		}
	}
	return out
}
