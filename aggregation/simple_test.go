package aggregation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaycrk/drain/aggregate"
	"github.com/shaycrk/drain/pipeline"
	"github.com/shaycrk/drain/table"
)

// ============================================================================
// SIMPLE AGGREGATION TESTS
// ============================================================================

func citySource(t *testing.T) pipeline.Step {
	t.Helper()
	tbl := table.New(table.NumberedLabels(5)...)
	require.NoError(t, tbl.SetColumn("city", []any{"nyc", "chi", "nyc", "sf", "chi"}))
	require.NoError(t, tbl.SetColumn("region", []any{"east", "midwest", "east", "west", "midwest"}))
	require.NoError(t, tbl.SetColumn("amount", []any{10.0, 20.0, 30.0, 5.0, 15.0}))
	return pipeline.NewSource("cities", tbl)
}

func runAggregation(t *testing.T, agg *Aggregation) *Result {
	t.Helper()
	_, err := pipeline.NewRunner().Run(context.Background(), agg)
	require.NoError(t, err)
	res := agg.Result()
	require.NotNil(t, res)
	return res
}

// Concat mode, no parallel: one combined table per index name.
func TestSimpleConcat(t *testing.T) {
	agg, err := NewSimple("counts", SimpleConfig{
		Inputs:     []pipeline.Step{citySource(t)},
		Indexes:    IndexColumns("city", "region"),
		Statistics: []aggregate.Statistic{aggregate.Count()},
	})
	require.NoError(t, err)

	res := runAggregation(t, agg)
	assert.Nil(t, res.Disjoint)
	assert.Nil(t, res.Children)
	require.Len(t, res.Combined, 2)

	city := res.Combined["city"]
	require.NotNil(t, city)
	assert.Equal(t, []string{"nyc", "chi", "sf"}, city.Labels())
	count, _ := city.Float("count", 0)
	assert.Equal(t, 2.0, count)

	region := res.Combined["region"]
	require.NotNil(t, region)
	assert.Equal(t, []string{"east", "midwest", "west"}, region.Labels())
}

// Disjoint mode returns exactly one table per argument, in argument order.
func TestSimpleDisjoint(t *testing.T) {
	agg, err := NewSimple("counts", SimpleConfig{
		Inputs:     []pipeline.Step{citySource(t)},
		Indexes:    IndexColumns("city", "region"),
		Statistics: []aggregate.Statistic{aggregate.Count()},
	}, WithDisjoint())
	require.NoError(t, err)

	res := runAggregation(t, agg)
	assert.Nil(t, res.Combined)
	require.Len(t, res.Disjoint, len(agg.variant.Arguments()))
	// Argument order is sorted index-name order: city first.
	assert.Equal(t, []string{"nyc", "chi", "sf"}, res.Disjoint[0].Labels())
	assert.Equal(t, []string{"east", "midwest", "west"}, res.Disjoint[1].Labels())
}

// Parallel pass-through: one child per index, results forwarded keyed by
// split label.
func TestSimpleParallel(t *testing.T) {
	agg, err := NewSimple("counts", SimpleConfig{
		Inputs:     []pipeline.Step{citySource(t)},
		Indexes:    IndexColumns("city", "region"),
		Statistics: []aggregate.Statistic{aggregate.Count()},
	}, WithParallel())
	require.NoError(t, err)
	require.Len(t, agg.Children(), 2)

	res := runAggregation(t, agg)
	assert.Nil(t, res.Combined)
	assert.Nil(t, res.Disjoint)
	require.Len(t, res.Children, 2)

	byLabel := res.ChildMap()
	cityRes := byLabel["indexes=city"]
	require.NotNil(t, cityRes)
	require.Len(t, cityRes.Combined, 1)
	assert.Equal(t, []string{"nyc", "chi", "sf"}, cityRes.Combined["city"].Labels())

	regionRes := byLabel["indexes=region"]
	require.NotNil(t, regionRes)
	require.Len(t, regionRes.Combined, 1)
}

// Parallel decomposition covers the parent's argument space exactly once.
func TestSimpleSplitPartitionsArguments(t *testing.T) {
	cfg := SimpleConfig{
		Inputs:     []pipeline.Step{citySource(t)},
		Indexes:    IndexColumns("city", "region"),
		Statistics: []aggregate.Statistic{aggregate.Count()},
	}
	parent, err := NewSimple("counts", cfg)
	require.NoError(t, err)
	parallel, err := NewSimple("counts", cfg, WithParallel())
	require.NoError(t, err)

	var childArgs []Argument
	for _, child := range parallel.Children() {
		childArgs = append(childArgs, child.variant.Arguments()...)
	}
	assert.ElementsMatch(t, parent.variant.Arguments(), childArgs)
}

// Inserted columns are deterministic: every row carries the argument value.
func TestSimpleInsertArgs(t *testing.T) {
	agg, err := NewSimple("counts", SimpleConfig{
		Inputs:     []pipeline.Step{citySource(t)},
		Indexes:    IndexColumns("city"),
		Statistics: []aggregate.Statistic{aggregate.Count()},
	}, WithInsertArgs(ArgIndex))
	require.NoError(t, err)

	res := runAggregation(t, agg)
	city := res.Combined["city"]
	require.NotNil(t, city)
	for row := 0; row < city.NumRows(); row++ {
		assert.Equal(t, "city", city.String(ArgIndex, row))
	}
}

// The index parameter stays implicit when not in InsertArgs.
func TestSimpleIndexNotInsertedByDefault(t *testing.T) {
	agg, err := NewSimple("counts", SimpleConfig{
		Inputs:     []pipeline.Step{citySource(t)},
		Indexes:    IndexColumns("region"),
		Statistics: []aggregate.Statistic{aggregate.Count()},
	})
	require.NoError(t, err)

	res := runAggregation(t, agg)
	assert.Equal(t, []string{"count"}, res.Combined["region"].Columns())
}

// One aggregator serves every argument of a non-parallel run.
func TestSimpleAggregatorMemoized(t *testing.T) {
	agg, err := NewSimple("counts", SimpleConfig{
		Inputs:     []pipeline.Step{citySource(t)},
		Indexes:    IndexColumns("city", "region"),
		Statistics: []aggregate.Statistic{aggregate.Count()},
	})
	require.NoError(t, err)
	runAggregation(t, agg)

	v := agg.variant.(*simpleVariant)
	first, err := v.Aggregator(Argument{Index: "city"})
	require.NoError(t, err)
	second, err := v.Aggregator(Argument{Index: "region"})
	require.NoError(t, err)
	assert.Same(t, first, second)
}

// Running the same configuration twice yields identical results.
func TestSimpleIdempotent(t *testing.T) {
	agg, err := NewSimple("counts", SimpleConfig{
		Inputs:     []pipeline.Step{citySource(t)},
		Indexes:    IndexColumns("city", "region"),
		Statistics: []aggregate.Statistic{aggregate.Count(), aggregate.Sum("amount")},
	})
	require.NoError(t, err)

	first := runAggregation(t, agg)
	second := runAggregation(t, agg)
	require.Len(t, second.Combined, len(first.Combined))
	for name, tbl := range first.Combined {
		other := second.Combined[name]
		require.NotNil(t, other)
		assert.Equal(t, tbl.Labels(), other.Labels())
		assert.Equal(t, tbl.Rows(), other.Rows())
	}
}

func TestSimpleEmptyIndexes(t *testing.T) {
	agg, err := NewSimple("counts", SimpleConfig{
		Inputs:     []pipeline.Step{citySource(t)},
		Indexes:    map[string]aggregate.Index{},
		Statistics: []aggregate.Statistic{aggregate.Count()},
	})
	require.NoError(t, err)

	// No work is not an error.
	res := runAggregation(t, agg)
	assert.Empty(t, res.Combined)
	assert.Empty(t, res.Disjoint)
}

func TestSimpleConfigValidation(t *testing.T) {
	_, err := NewSimple("counts", SimpleConfig{
		Indexes:    IndexColumns("city"),
		Statistics: []aggregate.Statistic{aggregate.Count()},
	})
	require.Error(t, err)

	_, err = NewSimple("counts", SimpleConfig{
		Inputs:  []pipeline.Step{citySource(t)},
		Indexes: IndexColumns("city"),
	})
	require.Error(t, err)
}
