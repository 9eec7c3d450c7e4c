package aggregate

import (
	"github.com/cockroachdb/errors"

	"github.com/shaycrk/drain/table"
)

// ============================================================================
// INDEX — Row Grouping Keys
// ============================================================================
// An Index assigns each row of a table to a group. The aggregator computes
// one output row per distinct group key, in first-seen row order.
// ============================================================================

// Index assigns rows to groups.
type Index interface {
	// GroupKey returns the group key for one row.
	GroupKey(t *table.Table, row int) (string, error)
}

// ColumnIndex groups rows by the string value of a column.
type ColumnIndex string

// GroupKey returns the row's value in the index column.
func (c ColumnIndex) GroupKey(t *table.Table, row int) (string, error) {
	if !t.HasColumn(string(c)) {
		return "", errors.Newf("index column %q not in table", string(c))
	}
	return t.String(string(c), row), nil
}

// FuncIndex groups rows by an arbitrary key function. Useful for derived
// keys (e.g. a spatial partition precomputed upstream).
type FuncIndex func(t *table.Table, row int) (string, error)

// GroupKey applies the key function.
func (f FuncIndex) GroupKey(t *table.Table, row int) (string, error) {
	return f(t, row)
}
