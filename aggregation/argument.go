package aggregation

import (
	"strings"
	"time"
)

// ============================================================================
// ARGUMENT — One Unit of Aggregation Work
// ============================================================================

// Parameter names recognized by InsertArgs.
const (
	ArgIndex = "index"
	ArgDate  = "date"
	ArgDelta = "delta"
)

// DateFormat is the wire format for dates in arguments and inserted columns.
const DateFormat = "2006-01-02"

// Argument is one parameter combination denoting a single aggregation.
// Index is always set and must resolve in the variant's index mapping.
// Date and Delta are set only by time-aware variants; the zero value means
// absent.
type Argument struct {
	Index string
	Date  time.Time
	Delta string
}

// HasDate reports whether the date parameter is present.
func (a Argument) HasDate() bool { return !a.Date.IsZero() }

// HasDelta reports whether the delta parameter is present.
func (a Argument) HasDelta() bool { return a.Delta != "" }

// String renders the argument for logs and errors, e.g.
// "index=city date=2020-01-01 delta=1y".
func (a Argument) String() string {
	parts := []string{ArgIndex + "=" + a.Index}
	if a.HasDate() {
		parts = append(parts, ArgDate+"="+a.Date.Format(DateFormat))
	}
	if a.HasDelta() {
		parts = append(parts, ArgDelta+"="+a.Delta)
	}
	return strings.Join(parts, " ")
}

// value returns the named parameter as an insertable cell value. The second
// return is false when the parameter is absent from this argument.
func (a Argument) value(name string) (any, bool) {
	switch name {
	case ArgIndex:
		return a.Index, true
	case ArgDate:
		if !a.HasDate() {
			return nil, false
		}
		return a.Date.Format(DateFormat), true
	case ArgDelta:
		if !a.HasDelta() {
			return nil, false
		}
		return a.Delta, true
	default:
		return nil, false
	}
}
