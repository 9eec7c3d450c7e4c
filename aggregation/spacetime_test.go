package aggregation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaycrk/drain/aggregate"
	"github.com/shaycrk/drain/pipeline"
	"github.com/shaycrk/drain/table"
)

// ============================================================================
// SPACETIME AGGREGATION TESTS
// ============================================================================

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DateFormat, s)
	require.NoError(t, err)
	return d
}

// Events across two years and two cities; one future row past 2020-01-01.
func eventSource(t *testing.T) pipeline.Step {
	t.Helper()
	tbl := table.New(table.NumberedLabels(5)...)
	require.NoError(t, tbl.SetColumn("date", []any{
		"2019-06-01", "2019-07-01", "2018-06-01", "2021-01-01", "2019-08-01",
	}))
	require.NoError(t, tbl.SetColumn("city", []any{"nyc", "chi", "nyc", "nyc", "chi"}))
	require.NoError(t, tbl.SetColumn("amount", []any{10.0, 20.0, 30.0, 99.0, 40.0}))
	require.NoError(t, tbl.SetColumn("outcome", []any{1.0, 0.0, 1.0, 1.0, 0.0}))
	require.NoError(t, tbl.SetColumn("outcome_date", []any{
		"2020-06-01", "2019-07-15", "2018-06-15", "2021-02-01", "2019-08-15",
	}))
	return pipeline.NewSource("events", tbl)
}

func cityConfig(t *testing.T, deltas ...string) SpacetimeConfig {
	t.Helper()
	return SpacetimeConfig{
		Inputs: []pipeline.Step{eventSource(t)},
		Spacedeltas: map[string]Spacedelta{
			"city": {Index: aggregate.ColumnIndex("city"), Deltas: deltas},
		},
		Dates:      []time.Time{date(t, "2020-01-01")},
		DateColumn: "date",
		Statistics: []aggregate.Statistic{aggregate.Sum("amount")},
	}
}

// The expansion is the full cartesian product in nested order: dates
// outermost, spacedelta names sorted, deltas in declared order.
func TestSpacetimeArguments(t *testing.T) {
	cfg := SpacetimeConfig{
		Inputs: []pipeline.Step{eventSource(t)},
		Spacedeltas: map[string]Spacedelta{
			"city":   {Index: aggregate.ColumnIndex("city"), Deltas: []string{"1y", "2y"}},
			"region": {Index: aggregate.ColumnIndex("city"), Deltas: []string{"all"}},
		},
		Dates:      []time.Time{date(t, "2020-01-01"), date(t, "2020-07-01")},
		DateColumn: "date",
		Statistics: []aggregate.Statistic{aggregate.Count()},
	}
	agg, err := NewSpacetime("events", cfg)
	require.NoError(t, err)

	args := agg.variant.Arguments()
	want := []Argument{
		{Index: "city", Date: date(t, "2020-01-01"), Delta: "1y"},
		{Index: "city", Date: date(t, "2020-01-01"), Delta: "2y"},
		{Index: "region", Date: date(t, "2020-01-01"), Delta: "all"},
		{Index: "city", Date: date(t, "2020-07-01"), Delta: "1y"},
		{Index: "city", Date: date(t, "2020-07-01"), Delta: "2y"},
		{Index: "region", Date: date(t, "2020-07-01"), Delta: "all"},
	}
	assert.Equal(t, want, args)
}

// Concat mode merges both deltas into one "city" table whose rows carry
// literal date and delta columns.
func TestSpacetimeConcatWithInsertArgs(t *testing.T) {
	agg, err := NewSpacetime("events", cityConfig(t, "1y", "2y"),
		WithInsertArgs(ArgDate, ArgDelta))
	require.NoError(t, err)

	res := runAggregation(t, agg)
	require.Len(t, res.Combined, 1)
	city := res.Combined["city"]
	require.NotNil(t, city)

	// 1y window (2019-01-01, 2020-01-01]: nyc=10, chi=20+40.
	// 2y window (2018-01-01, 2020-01-01]: nyc=10+30, chi=20+40.
	assert.Equal(t, []string{"nyc", "chi", "nyc", "chi"}, city.Labels())

	sum, _ := city.Float("sum_amount", 0)
	assert.Equal(t, 10.0, sum)
	sum, _ = city.Float("sum_amount", 1)
	assert.Equal(t, 60.0, sum)
	sum, _ = city.Float("sum_amount", 2)
	assert.Equal(t, 40.0, sum)
	sum, _ = city.Float("sum_amount", 3)
	assert.Equal(t, 60.0, sum)

	// Combined row count equals the sum of the members' row counts.
	assert.Equal(t, 4, city.NumRows())

	for row := 0; row < city.NumRows(); row++ {
		assert.Equal(t, "2020-01-01", city.String(ArgDate, row))
	}
	assert.Equal(t, "1y", city.String(ArgDelta, 0))
	assert.Equal(t, "1y", city.String(ArgDelta, 1))
	assert.Equal(t, "2y", city.String(ArgDelta, 2))
	assert.Equal(t, "2y", city.String(ArgDelta, 3))
}

// Disjoint mode returns the two tables positionally, unmerged.
func TestSpacetimeDisjoint(t *testing.T) {
	agg, err := NewSpacetime("events", cityConfig(t, "1y", "2y"), WithDisjoint())
	require.NoError(t, err)

	res := runAggregation(t, agg)
	assert.Nil(t, res.Combined)
	require.Len(t, res.Disjoint, 2)
	assert.Equal(t, []string{"nyc", "chi"}, res.Disjoint[0].Labels())
	assert.Equal(t, []string{"nyc", "chi"}, res.Disjoint[1].Labels())
}

// The "all" delta keeps everything up to the end date, nothing after it.
func TestSpacetimeDeltaAll(t *testing.T) {
	agg, err := NewSpacetime("events", cityConfig(t, "all"))
	require.NoError(t, err)

	res := runAggregation(t, agg)
	city := res.Combined["city"]
	require.NotNil(t, city)
	sum, _ := city.Float("sum_amount", 0)
	assert.Equal(t, 40.0, sum) // nyc: 10+30; the 2021 row is excluded
}

// Censoring is gated on each outcome's own observation date, not on the
// windowing column, so an event inside the window can still have its
// outcome blanked and the aggregate visibly changes.
func TestSpacetimeCensorColumns(t *testing.T) {
	cfg := cityConfig(t, "1y")
	cfg.Statistics = []aggregate.Statistic{aggregate.Sum("outcome")}
	open, err := NewSpacetime("events", cfg)
	require.NoError(t, err)
	openCity := runAggregation(t, open).Combined["city"]
	require.NotNil(t, openCity)

	cfg = cityConfig(t, "1y")
	cfg.Statistics = []aggregate.Statistic{aggregate.Sum("outcome")}
	cfg.CensorColumns = map[string]string{"outcome": "outcome_date"}
	censored, err := NewSpacetime("events", cfg)
	require.NoError(t, err)
	censoredCity := runAggregation(t, censored).Combined["city"]
	require.NotNil(t, censoredCity)

	// nyc's only 1y-window event (2019-06-01) had its outcome recorded on
	// 2020-06-01, after the end date: visible without censoring, blanked
	// with it.
	sum, _ := openCity.Float("sum_outcome", 0)
	assert.Equal(t, 1.0, sum)
	sum, _ = censoredCity.Float("sum_outcome", 0)
	assert.Equal(t, 0.0, sum)

	// chi's window outcomes were all observed in time: unchanged.
	sum, _ = openCity.Float("sum_outcome", 1)
	assert.Equal(t, 0.0, sum)
	sum, _ = censoredCity.Float("sum_outcome", 1)
	assert.Equal(t, 0.0, sum)
	assert.Equal(t, openCity.Labels(), censoredCity.Labels())
}

// Parallel decomposition: one child per date, covering the parent's
// argument space exactly once.
func TestSpacetimeParallel(t *testing.T) {
	cfg := cityConfig(t, "1y")
	cfg.Dates = []time.Time{date(t, "2020-01-01"), date(t, "2020-07-01")}

	parent, err := NewSpacetime("events", cfg)
	require.NoError(t, err)
	parallel, err := NewSpacetime("events", cfg, WithParallel())
	require.NoError(t, err)
	require.Len(t, parallel.Children(), 2)

	var childArgs []Argument
	for _, child := range parallel.Children() {
		childArgs = append(childArgs, child.variant.Arguments()...)
	}
	assert.ElementsMatch(t, parent.variant.Arguments(), childArgs)

	res := runAggregation(t, parallel)
	require.Len(t, res.Children, 2)
	assert.Equal(t, "dates=2020-01-01", res.Children[0].Label)
	assert.Equal(t, "dates=2020-07-01", res.Children[1].Label)
	first := res.Children[0].Result
	require.NotNil(t, first.Combined["city"])
}

// One aggregator per (date, delta) window, shared across indexes.
func TestSpacetimeAggregatorMemoizedPerWindow(t *testing.T) {
	cfg := SpacetimeConfig{
		Inputs: []pipeline.Step{eventSource(t)},
		Spacedeltas: map[string]Spacedelta{
			"city":  {Index: aggregate.ColumnIndex("city"), Deltas: []string{"1y"}},
			"city2": {Index: aggregate.ColumnIndex("city"), Deltas: []string{"1y"}},
		},
		Dates:      []time.Time{date(t, "2020-01-01")},
		DateColumn: "date",
		Statistics: []aggregate.Statistic{aggregate.Count()},
	}
	agg, err := NewSpacetime("events", cfg)
	require.NoError(t, err)
	runAggregation(t, agg)

	v := agg.variant.(*spacetimeVariant)
	assert.Len(t, v.aggs, 1)
}

func TestSpacetimeEmptyDates(t *testing.T) {
	cfg := cityConfig(t, "1y")
	cfg.Dates = nil
	agg, err := NewSpacetime("events", cfg)
	require.NoError(t, err)

	// Empty expansion space is no work, not an error.
	res := runAggregation(t, agg)
	assert.Empty(t, res.Combined)
}

func TestSpacetimeMalformedDelta(t *testing.T) {
	_, err := NewSpacetime("events", cityConfig(t, "1parsec"))
	require.Error(t, err)
}

func TestSpacetimeMissingDateColumn(t *testing.T) {
	cfg := cityConfig(t, "1y")
	cfg.DateColumn = ""
	_, err := NewSpacetime("events", cfg)
	require.Error(t, err)
}
