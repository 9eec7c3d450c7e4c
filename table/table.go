package table

import (
	"strconv"

	"github.com/cockroachdb/errors"
)

// ============================================================================
// TABLE — Labelled-Column Result Table
// ============================================================================
// The engine's unit of data exchange: ordered named columns plus a row
// label per row (the row index). Cells are string or float64.
//
// Aggregators produce tables labelled by group key; concatenation preserves
// those labels so callers can still disambiguate rows after merging.
// ============================================================================

// Table is an ordered collection of named columns with labelled rows.
// Column order is first-set order. The zero value is not usable; use New.
type Table struct {
	columns []string
	cells   map[string][]any
	labels  []string
}

// New creates a table with one row per label. Labels are the row index and
// survive concatenation unchanged.
func New(labels ...string) *Table {
	return &Table{
		cells:  make(map[string][]any),
		labels: append([]string(nil), labels...),
	}
}

// NumberedLabels returns "0".."n-1", the default row index for raw data
// loaded without a natural key.
func NumberedLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = strconv.Itoa(i)
	}
	return labels
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return len(t.labels) }

// Columns returns the column names in order. The slice is a copy.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Labels returns the row labels in order. The slice is a copy.
func (t *Table) Labels() []string {
	return append([]string(nil), t.labels...)
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.cells[name]
	return ok
}

// SetColumn adds or replaces a column. The value count must match the row
// count. A new column is appended to the column order; replacing keeps the
// original position.
func (t *Table) SetColumn(name string, values []any) error {
	if len(values) != len(t.labels) {
		return errors.Newf("column %q: %d values for %d rows", name, len(values), len(t.labels))
	}
	if _, exists := t.cells[name]; !exists {
		t.columns = append(t.columns, name)
	}
	t.cells[name] = append([]any(nil), values...)
	return nil
}

// SetScalar broadcasts a single value down a column, overwriting any
// existing column of the same name.
func (t *Table) SetScalar(name string, value any) {
	values := make([]any, len(t.labels))
	for i := range values {
		values[i] = value
	}
	// Length always matches, so the error path is unreachable.
	_ = t.SetColumn(name, values)
}

// Value returns the cell at (column, row), or nil when the column is absent
// or the row out of range.
func (t *Table) Value(column string, row int) any {
	col, ok := t.cells[column]
	if !ok || row < 0 || row >= len(col) {
		return nil
	}
	return col[row]
}

// Float returns the cell at (column, row) as a float64. The second return
// is false for missing, non-numeric, or nil cells.
func (t *Table) Float(column string, row int) (float64, bool) {
	v, ok := t.Value(column, row).(float64)
	return v, ok
}

// String returns the cell at (column, row) as a string, or "" when the
// cell is missing or not a string.
func (t *Table) String(column string, row int) string {
	s, _ := t.Value(column, row).(string)
	return s
}

// Filter returns a new table holding the rows for which keep returns true,
// labels preserved.
func (t *Table) Filter(keep func(row int) bool) *Table {
	var rows []int
	for i := range t.labels {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return t.Take(rows)
}

// Take returns a new table holding the given rows in the given order,
// labels preserved.
func (t *Table) Take(rows []int) *Table {
	labels := make([]string, len(rows))
	for i, r := range rows {
		labels[i] = t.labels[r]
	}
	out := New(labels...)
	for _, name := range t.columns {
		src := t.cells[name]
		values := make([]any, len(rows))
		for i, r := range rows {
			values[i] = src[r]
		}
		_ = out.SetColumn(name, values)
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := New(t.labels...)
	for _, name := range t.columns {
		_ = out.SetColumn(name, t.cells[name])
	}
	return out
}

// Rows returns each row as a label plus column→cell map, in row order.
// Convenience for JSON output and tests.
func (t *Table) Rows() []Row {
	rows := make([]Row, len(t.labels))
	for i, label := range t.labels {
		cells := make(map[string]any, len(t.columns))
		for _, name := range t.columns {
			cells[name] = t.cells[name][i]
		}
		rows[i] = Row{Label: label, Cells: cells}
	}
	return rows
}

// Row is one exported table row.
type Row struct {
	Label string         `json:"label"`
	Cells map[string]any `json:"cells"`
}

// Concat concatenates tables row-wise into one table. Row labels are
// preserved as-is (no renumbering). Every table must carry the same column
// set; the output uses the first table's column order. Concatenating zero
// tables yields an empty table.
func Concat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return New(), nil
	}
	first := tables[0]
	for _, other := range tables[1:] {
		if err := sameColumns(first, other); err != nil {
			return nil, err
		}
	}

	var labels []string
	for _, t := range tables {
		labels = append(labels, t.labels...)
	}
	out := New(labels...)
	for _, name := range first.columns {
		var values []any
		for _, t := range tables {
			values = append(values, t.cells[name]...)
		}
		if err := out.SetColumn(name, values); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func sameColumns(a, b *Table) error {
	if len(a.columns) != len(b.columns) {
		return errors.Newf("cannot concat: column count mismatch (%d vs %d)", len(a.columns), len(b.columns))
	}
	for _, name := range a.columns {
		if !b.HasColumn(name) {
			return errors.Newf("cannot concat: column %q missing from one table", name)
		}
	}
	return nil
}
