package aggregate

// ============================================================================
// STATISTICS — What to Compute per Group
// ============================================================================

// Kind identifies a statistic.
type Kind string

const (
	KindCount Kind = "count"
	KindSum   Kind = "sum"
	KindMean  Kind = "mean"
	KindMin   Kind = "min"
	KindMax   Kind = "max"
)

// Statistic describes one aggregate output column: a statistic kind, the
// source column it reads (empty for count), and the output column name.
type Statistic struct {
	Kind   Kind
	Column string
	Name   string
}

// Count counts rows per group. Output column "count".
func Count() Statistic {
	return Statistic{Kind: KindCount, Name: "count"}
}

// Sum sums a numeric column per group. Output column "sum_<col>".
func Sum(column string) Statistic {
	return Statistic{Kind: KindSum, Column: column, Name: "sum_" + column}
}

// Mean averages a numeric column per group. Output column "mean_<col>".
func Mean(column string) Statistic {
	return Statistic{Kind: KindMean, Column: column, Name: "mean_" + column}
}

// Min takes the smallest value of a numeric column per group.
func Min(column string) Statistic {
	return Statistic{Kind: KindMin, Column: column, Name: "min_" + column}
}

// Max takes the largest value of a numeric column per group.
func Max(column string) Statistic {
	return Statistic{Kind: KindMax, Column: column, Name: "max_" + column}
}

// Named overrides the output column name.
func (s Statistic) Named(name string) Statistic {
	s.Name = name
	return s
}
