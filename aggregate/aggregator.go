package aggregate

import (
	"math"

	"github.com/cockroachdb/errors"

	"github.com/shaycrk/drain/table"
)

// ============================================================================
// AGGREGATOR — Grouped Statistics over One Table
// ============================================================================
// Pipeline: group rows by index key → compute each statistic per group.
// Groups keep first-seen row order. The source table is never mutated, so
// one aggregator can serve many Aggregate calls (and many goroutines).
// ============================================================================

// Aggregator computes grouped statistics for a fixed source table.
// Construct once per (table, statistics) pair and reuse across indexes.
type Aggregator struct {
	src   *table.Table
	stats []Statistic
}

// New creates an aggregator over a source table.
func New(src *table.Table, stats []Statistic) *Aggregator {
	return &Aggregator{src: src, stats: stats}
}

// Aggregate groups the source rows by the index and returns a table with
// one row per group (row label = group key) and one column per statistic.
// An empty source yields an empty table, not an error.
func (a *Aggregator) Aggregate(idx Index) (*table.Table, error) {
	if idx == nil {
		return nil, errors.AssertionFailedf("aggregate: nil index")
	}

	// 1. Group — first-seen key order.
	grouped := make(map[string][]int)
	var order []string
	for i := 0; i < a.src.NumRows(); i++ {
		key, err := idx.GroupKey(a.src, i)
		if err != nil {
			return nil, errors.Wrapf(err, "grouping row %d", i)
		}
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	// 2. Aggregate — one column per statistic.
	out := table.New(order...)
	for _, stat := range a.stats {
		values := make([]any, len(order))
		for gi, key := range order {
			values[gi] = a.compute(stat, grouped[key])
		}
		if err := out.SetColumn(stat.Name, values); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// compute evaluates one statistic over the rows of one group. Non-numeric
// and missing cells are skipped. A group with no numeric cells counts its
// rows and sums to 0, but has no mean, min, or max: those yield a nil cell
// rather than a fabricated zero.
func (a *Aggregator) compute(stat Statistic, rows []int) any {
	if stat.Kind == KindCount {
		return float64(len(rows))
	}

	var (
		sum   float64
		n     int
		min   = math.Inf(1)
		max   = math.Inf(-1)
		found bool
	)
	for _, r := range rows {
		v, ok := a.src.Float(stat.Column, r)
		if !ok {
			continue
		}
		sum += v
		n++
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		found = true
	}

	switch stat.Kind {
	case KindSum:
		return sum
	case KindMean:
		if n == 0 {
			return nil
		}
		return sum / float64(n)
	case KindMin:
		if !found {
			return nil
		}
		return min
	case KindMax:
		if !found {
			return nil
		}
		return max
	default:
		return sum
	}
}
