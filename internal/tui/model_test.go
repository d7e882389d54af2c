package tui

import (
	"testing"

	"github.com/Veraticus/shadow-payroll/internal/model"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) (Model, *model.PayrollInput) {
	t.Helper()
	in := model.NewPayrollInput(model.DefaultLimits())
	return NewModel(in, WithSize(100, 40), WithCountries([]string{"Argentina", "Germany"})), in
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func fieldIndex(t *testing.T, m Model, label string) int {
	t.Helper()
	for i, f := range m.fields {
		if f.label == label {
			return i
		}
	}
	t.Fatalf("no field %q", label)
	return -1
}

func focus(t *testing.T, m Model, label string) Model {
	t.Helper()
	for m.fields[m.focus].label != label {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	}
	return m
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestNewModelShowsCurrentValues(t *testing.T) {
	m, _ := newTestModel(t)

	assert.Equal(t, "United States", m.fields[fieldIndex(t, m, "Home country")].input.Value())
	assert.Equal(t, "400000", m.fields[fieldIndex(t, m, "Annual salary (USD)")].input.Value())
	assert.Equal(t, "36", m.fields[fieldIndex(t, m, "Duration (months)")].input.Value())
	assert.Equal(t, "No", m.fields[fieldIndex(t, m, "Dependent spouse")].input.Value())
	assert.Equal(t, 0, m.focus)
}

func TestValidEditCallsSetter(t *testing.T) {
	m, in := newTestModel(t)
	m = focus(t, m, "Annual salary (USD)")

	i := m.focus
	m.fields[i].input.SetValue("250,000")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})

	assert.InDelta(t, 250_000.0, in.SalaryUSD(), 0)
	assert.Empty(t, m.fields[i].err)
	assert.Equal(t, "250000", m.fields[i].input.Value())
	assert.Equal(t, i+1, m.focus)
}

func TestInvalidEditKeepsPriorValue(t *testing.T) {
	tests := []struct {
		label   string
		value   string
		wantErr string
	}{
		{"Duration (months)", "61", "must be between 1 and 60"},
		{"Duration (months)", "abc", "must be a whole number"},
		{"Annual salary (USD)", "-5", "must not be negative"},
		{"FX rate (local per USD)", "0", "must be greater than 0"},
		{"Children", "11", "must be between 0 and 10"},
		{"Host country", "   ", "is required"},
		{"Display currency", "EURO", "three-letter"},
	}

	for _, tt := range tests {
		t.Run(tt.label+"="+tt.value, func(t *testing.T) {
			m, in := newTestModel(t)
			before := in.Snapshot()
			m = focus(t, m, tt.label)

			i := m.focus
			m.fields[i].input.SetValue(tt.value)
			m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})

			assert.Equal(t, before, in.Snapshot(), "input must keep its prior value")
			assert.Contains(t, m.fields[i].err, tt.wantErr)
			assert.Contains(t, m.fields[i].err, "keeping")
			assert.Contains(t, m.View(), tt.wantErr)
		})
	}
}

func TestSubmitBlocksOnErrors(t *testing.T) {
	m, _ := newTestModel(t)
	m = focus(t, m, "Children")
	i := m.focus
	m.fields[i].input.SetValue("lots")

	m = focus(t, m, "Home country")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, isQuit(cmd))
	assert.False(t, m.Submitted())
	assert.Equal(t, i, m.focus, "focus moves to the first invalid field")
	assert.Contains(t, m.Errors(), "Children")
}

func TestSubmit(t *testing.T) {
	m, in := newTestModel(t)
	m = focus(t, m, "Host country")
	m.fields[m.focus].input.SetValue("Germany")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, isQuit(cmd))
	assert.True(t, m.Submitted())
	assert.False(t, m.Cancelled())
	assert.Equal(t, "Germany", in.HostCountry())
	assert.Same(t, in, m.Input())
}

func TestCancel(t *testing.T) {
	for _, msg := range []tea.KeyMsg{{Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		m, in := newTestModel(t)
		before := in.Snapshot()
		m.fields[0].input.SetValue("Canada")

		m, cmd := update(t, m, msg)
		assert.True(t, isQuit(cmd))
		assert.True(t, m.Cancelled())
		assert.False(t, m.Submitted())
		assert.Equal(t, before, in.Snapshot())
	}
}

func TestToggleSpouse(t *testing.T) {
	m, in := newTestModel(t)
	m = focus(t, m, "Dependent spouse")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.True(t, in.HasSpouse())
	assert.Equal(t, "Yes", m.fields[m.focus].input.Value())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.False(t, in.HasSpouse())
}

func TestSpaceTypesIntoTextFields(t *testing.T) {
	m, in := newTestModel(t)
	m.fields[0].input.SetValue("United")
	m.fields[0].input.CursorEnd()

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Kingdom")})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})

	assert.Equal(t, "United Kingdom", in.HomeCountry())
}

func TestNavigationWraps(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, len(m.fields)-1, m.focus)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, m.focus)
}

func TestWindowResize(t *testing.T) {
	m, _ := newTestModel(t)
	m, cmd := update(t, m, tea.WindowSizeMsg{Width: 120, Height: 50})

	assert.Nil(t, cmd)
	assert.Equal(t, 120, m.width)
	assert.Contains(t, m.View(), "Shadow Payroll Assignment")
	assert.Contains(t, m.View(), "Annual salary (USD)")
}
