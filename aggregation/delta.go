package aggregation

import (
	"regexp"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/shaycrk/drain/table"
)

// ============================================================================
// DELTA — Time-Window Selection
// ============================================================================
// A delta names the width of the lookback window ending at an argument's
// date. Grammar: "<n>y" (years), "<n>m" (months), "<n>d" (days), or "all"
// (unbounded lookback). A window selects rows whose date lies in
// (date-delta, date].
// ============================================================================

// DeltaAll selects every row up to the end date.
const DeltaAll = "all"

var deltaPattern = regexp.MustCompile(`^(\d+)([ymd])$`)

// Delta is a parsed time-window width.
type Delta struct {
	Years  int
	Months int
	Days   int
	All    bool
}

// ParseDelta parses a delta string.
func ParseDelta(s string) (Delta, error) {
	if s == DeltaAll {
		return Delta{All: true}, nil
	}
	m := deltaPattern.FindStringSubmatch(s)
	if m == nil {
		return Delta{}, errors.Newf("malformed delta %q: want <n>y, <n>m, <n>d, or %q", s, DeltaAll)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Delta{}, errors.Wrapf(err, "malformed delta %q", s)
	}
	switch m[2] {
	case "y":
		return Delta{Years: n}, nil
	case "m":
		return Delta{Months: n}, nil
	default:
		return Delta{Days: n}, nil
	}
}

// Start returns the exclusive lower bound of the window ending at end.
// The second return is false for the unbounded "all" delta.
func (d Delta) Start(end time.Time) (time.Time, bool) {
	if d.All {
		return time.Time{}, false
	}
	return end.AddDate(-d.Years, -d.Months, -d.Days), true
}

// window returns the rows of t whose date column falls in (end-delta, end].
// Rows with a missing or unparsable date are excluded.
func window(t *table.Table, dateColumn string, end time.Time, delta string) (*table.Table, error) {
	if !t.HasColumn(dateColumn) {
		return nil, errors.Newf("date column %q not in table", dateColumn)
	}
	d, err := ParseDelta(delta)
	if err != nil {
		return nil, err
	}
	start, bounded := d.Start(end)

	return t.Filter(func(row int) bool {
		dt, ok := cellDate(t, dateColumn, row)
		if !ok || dt.After(end) {
			return false
		}
		return !bounded || dt.After(start)
	}), nil
}

// cellDate reads a date cell, accepting time.Time values or strings in
// DateFormat.
func cellDate(t *table.Table, column string, row int) (time.Time, bool) {
	switch v := t.Value(column, row).(type) {
	case time.Time:
		return v, true
	case string:
		dt, err := time.Parse(DateFormat, v)
		if err != nil {
			return time.Time{}, false
		}
		return dt, true
	default:
		return time.Time{}, false
	}
}
