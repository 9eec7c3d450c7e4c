// Package drain provides a grouped-aggregation engine for tabular data.
//
// Usage:
//
//	import "github.com/shaycrk/drain/aggregation"
//
//	agg, err := aggregation.NewSimple("counts", aggregation.SimpleConfig{
//	    Inputs:     []pipeline.Step{source},
//	    Indexes:    aggregation.IndexColumns("city", "region"),
//	    Statistics: []aggregate.Statistic{aggregate.Count(), aggregate.Sum("amount")},
//	})
//	result, err := pipeline.NewRunner().Run(ctx, agg)
//
// An aggregation expands a combinatorial space of (index, date, delta)
// arguments, computes one grouped table per argument, and assembles the
// results either disjointly or concatenated per index name. Parallel
// aggregations decompose into independent children at construction time;
// the pipeline runner executes them concurrently.
//
// The engine never performs I/O — inputs arrive as already-materialized
// tables through pipeline steps.
package drain
