package aggregation

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/shaycrk/drain/table"
)

// ============================================================================
// CENSORING — Blank Outcome Columns Past the End Date
// ============================================================================

// Censor returns a copy of t in which each censored column is blanked (set
// to nil) on every row whose observation date is after the end date. The
// columns mapping pairs a censored column with the date column recording
// when its value was observed. That column is independent of the event-date
// column used for windowing, so a row inside the window can still have a
// late-recorded outcome blanked. Rows whose observation date is missing or
// unparsable are left untouched. With no columns the input is returned
// unchanged.
//
// This keeps aggregates computed "as of" a date from reading outcomes
// recorded later.
func Censor(t *table.Table, columns map[string]string, end time.Time) (*table.Table, error) {
	if len(columns) == 0 {
		return t, nil
	}

	out := t.Clone()
	for _, col := range sortedKeys(columns) {
		dateColumn := columns[col]
		if !out.HasColumn(col) {
			return nil, errors.Newf("censor: column %q not in table", col)
		}
		if !t.HasColumn(dateColumn) {
			return nil, errors.Newf("censor: date column %q not in table", dateColumn)
		}
		values := make([]any, t.NumRows())
		for row := 0; row < t.NumRows(); row++ {
			dt, ok := cellDate(t, dateColumn, row)
			if ok && dt.After(end) {
				values[row] = nil
			} else {
				values[row] = t.Value(col, row)
			}
		}
		if err := out.SetColumn(col, values); err != nil {
			return nil, err
		}
	}
	return out, nil
}
