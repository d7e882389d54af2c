package sheets

import (
	"github.com/Veraticus/shadow-payroll/internal/model"
)

// Table is one tab's worth of cells. The first row is the heading.
type Table struct {
	Title string
	Rows  [][]any
}

// Width is the widest row's cell count.
func (t Table) Width() int {
	width := 0
	for _, row := range t.Rows {
		width = max(width, len(row))
	}
	return width
}

// FieldsTable lays flattened fields out as Field/Value rows. Numbers stay numeric
// so the sheet can format and sum them; the disclaimer is appended if missing.
func FieldsTable(title string, fields []model.Field) Table {
	rows := make([][]any, 0, len(fields)+3)
	rows = append(rows,
		[]any{title},
		[]any{"Field", "Value"},
	)

	hasDisclaimer := false
	for _, f := range fields {
		if f.Label == "Disclaimer" {
			hasDisclaimer = true
		}
		rows = append(rows, []any{f.Label, cellValue(f)})
	}
	if !hasDisclaimer {
		rows = append(rows, []any{"Disclaimer", model.Disclaimer})
	}

	return Table{Title: title, Rows: rows}
}

// GridTable wraps pre-formatted rows, such as a scenario comparison, under a title.
func GridTable(title string, grid [][]string) Table {
	rows := make([][]any, 0, len(grid)+3)
	rows = append(rows, []any{title})
	for _, line := range grid {
		row := make([]any, len(line))
		for i, cell := range line {
			row[i] = cell
		}
		rows = append(rows, row)
	}
	rows = append(rows, []any{}, []any{"Disclaimer", model.Disclaimer})
	return Table{Title: title, Rows: rows}
}

func cellValue(f model.Field) any {
	switch v := f.Value.(type) {
	case float64, int:
		return v
	default:
		return f.String()
	}
}
