package aggregation

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/shaycrk/drain/aggregate"
	"github.com/shaycrk/drain/pipeline"
)

// ============================================================================
// SPACETIME VARIANT — Dates × Spacedeltas × Deltas
// ============================================================================
// An aggregation over space and time: each argument pairs a spatial index
// with an end date and a lookback delta selecting the rows to aggregate.
// Indexes and deltas are assumed independent of the date, so every date is
// combined with every (index, delta) pair of every spacedelta.
// ============================================================================

// Spacedelta pairs a spatial index with an ordered list of deltas.
type Spacedelta struct {
	Index  aggregate.Index
	Deltas []string
}

// SpacetimeConfig configures a spacetime aggregation.
type SpacetimeConfig struct {
	// Inputs supply the source table; the first input's result is used.
	Inputs []pipeline.Step
	// Spacedeltas maps index names to (index, deltas) pairs.
	Spacedeltas map[string]Spacedelta
	// Dates are the window end dates.
	Dates []time.Time
	// DateColumn holds each row's date in the source table.
	DateColumn string
	// CensorColumns maps outcome columns to the date columns recording when
	// each value was observed. An outcome is blanked on rows whose
	// observation date is after an argument's end date, so "as of date"
	// results never read later outcomes. Observation dates are distinct
	// from DateColumn, which only selects the window. Optional.
	CensorColumns map[string]string
	// Statistics to compute per group.
	Statistics []aggregate.Statistic
}

// NewSpacetime creates a spacetime aggregation step. With WithParallel it
// decomposes into one child per date at construction time. Config is
// validated here: malformed deltas and a missing date column fail fast.
func NewSpacetime(name string, cfg SpacetimeConfig, opts ...Option) (*Aggregation, error) {
	if len(cfg.Inputs) == 0 {
		return nil, errors.Newf("spacetime aggregation %q: at least one input required", name)
	}
	if len(cfg.Statistics) == 0 {
		return nil, errors.Newf("spacetime aggregation %q: at least one statistic required", name)
	}
	if cfg.DateColumn == "" {
		return nil, errors.Newf("spacetime aggregation %q: date column required", name)
	}
	for idx, sd := range cfg.Spacedeltas {
		for _, delta := range sd.Deltas {
			if _, err := ParseDelta(delta); err != nil {
				return nil, errors.Wrapf(err, "spacetime aggregation %q: spacedelta %q", name, idx)
			}
		}
	}
	v := &spacetimeVariant{
		inputs:        cfg.Inputs,
		spacedeltas:   cfg.Spacedeltas,
		names:         sortedKeys(cfg.Spacedeltas),
		dates:         cfg.Dates,
		dateColumn:    cfg.DateColumn,
		censorColumns: cfg.CensorColumns,
		stats:         cfg.Statistics,
		aggs:          make(map[string]*aggregate.Aggregator),
	}
	return newAggregation(name, v, applyOptions(opts))
}

type spacetimeVariant struct {
	inputs        []pipeline.Step
	spacedeltas   map[string]Spacedelta
	names         []string
	dates         []time.Time
	dateColumn    string
	censorColumns map[string]string
	stats         []aggregate.Statistic
	label         string

	aggs map[string]*aggregate.Aggregator // memoized per (date, delta)
}

// Arguments is the full cartesian product: dates outermost, then
// spacedelta names (sorted), then each spacedelta's deltas in declared
// order. No date filtering happens here.
func (v *spacetimeVariant) Arguments() []Argument {
	var args []Argument
	for _, date := range v.dates {
		for _, name := range v.names {
			for _, delta := range v.spacedeltas[name].Deltas {
				args = append(args, Argument{Index: name, Date: date, Delta: delta})
			}
		}
	}
	return args
}

func (v *spacetimeVariant) Indexes() map[string]aggregate.Index {
	m := make(map[string]aggregate.Index, len(v.spacedeltas))
	for name, sd := range v.spacedeltas {
		m[name] = sd.Index
	}
	return m
}

// Aggregator builds one aggregator per (date, delta) window and reuses it
// across the indexes sharing that window: the statistic set depends on the
// window, not on the spatial index.
func (v *spacetimeVariant) Aggregator(arg Argument) (*aggregate.Aggregator, error) {
	key := arg.Date.Format(DateFormat) + "|" + arg.Delta
	if agg, ok := v.aggs[key]; ok {
		return agg, nil
	}

	src, err := inputTable(v.inputs)
	if err != nil {
		return nil, err
	}
	censored, err := Censor(src, v.censorColumns, arg.Date)
	if err != nil {
		return nil, err
	}
	windowed, err := window(censored, v.dateColumn, arg.Date, arg.Delta)
	if err != nil {
		return nil, err
	}

	agg := aggregate.New(windowed, v.stats)
	v.aggs[key] = agg
	return agg, nil
}

// Split decomposes by date: each child carries all spacedeltas and a
// single date.
func (v *spacetimeVariant) Split() ([]Variant, error) {
	subs := make([]Variant, 0, len(v.dates))
	for _, date := range v.dates {
		subs = append(subs, &spacetimeVariant{
			inputs:        v.inputs,
			spacedeltas:   v.spacedeltas,
			names:         v.names,
			dates:         []time.Time{date},
			dateColumn:    v.dateColumn,
			censorColumns: v.censorColumns,
			stats:         v.stats,
			label:         "dates=" + date.Format(DateFormat),
			aggs:          make(map[string]*aggregate.Aggregator),
		})
	}
	return subs, nil
}

func (v *spacetimeVariant) Label() string { return v.label }

func (v *spacetimeVariant) Inputs() []pipeline.Step { return v.inputs }
