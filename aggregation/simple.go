package aggregation

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/shaycrk/drain/aggregate"
	"github.com/shaycrk/drain/pipeline"
)

// ============================================================================
// SIMPLE VARIANT — One Argument per Index
// ============================================================================

// SimpleConfig configures a simple aggregation: the same statistics
// computed once per index over the first input's table.
type SimpleConfig struct {
	// Inputs supply the source table; the first input's result is used.
	Inputs []pipeline.Step
	// Indexes maps index names to index objects. Use IndexColumns to
	// normalize a plain list of column names.
	Indexes map[string]aggregate.Index
	// Statistics to compute per group.
	Statistics []aggregate.Statistic
}

// IndexColumns normalizes a list of column names into an index mapping
// where each name indexes the column of the same name.
func IndexColumns(columns ...string) map[string]aggregate.Index {
	m := make(map[string]aggregate.Index, len(columns))
	for _, c := range columns {
		m[c] = aggregate.ColumnIndex(c)
	}
	return m
}

// NewSimple creates a simple aggregation step. With WithParallel it
// decomposes into one child per index at construction time.
func NewSimple(name string, cfg SimpleConfig, opts ...Option) (*Aggregation, error) {
	if len(cfg.Inputs) == 0 {
		return nil, errors.Newf("simple aggregation %q: at least one input required", name)
	}
	if len(cfg.Statistics) == 0 {
		return nil, errors.Newf("simple aggregation %q: at least one statistic required", name)
	}
	v := &simpleVariant{
		inputs:  cfg.Inputs,
		indexes: cfg.Indexes,
		names:   sortedKeys(cfg.Indexes),
		stats:   cfg.Statistics,
	}
	return newAggregation(name, v, applyOptions(opts))
}

type simpleVariant struct {
	inputs  []pipeline.Step
	indexes map[string]aggregate.Index
	names   []string
	stats   []aggregate.Statistic
	label   string

	agg *aggregate.Aggregator // memoized; statistics don't vary by argument
}

func (v *simpleVariant) Arguments() []Argument {
	args := make([]Argument, 0, len(v.names))
	for _, name := range v.names {
		args = append(args, Argument{Index: name})
	}
	return args
}

func (v *simpleVariant) Indexes() map[string]aggregate.Index { return v.indexes }

// Aggregator builds the single aggregator on first use and reuses it for
// every argument: the statistic set is independent of the index.
func (v *simpleVariant) Aggregator(Argument) (*aggregate.Aggregator, error) {
	if v.agg == nil {
		t, err := inputTable(v.inputs)
		if err != nil {
			return nil, err
		}
		v.agg = aggregate.New(t, v.stats)
	}
	return v.agg, nil
}

// Split decomposes by index: one child per index name.
func (v *simpleVariant) Split() ([]Variant, error) {
	subs := make([]Variant, 0, len(v.names))
	for _, name := range v.names {
		subs = append(subs, &simpleVariant{
			inputs:  v.inputs,
			indexes: map[string]aggregate.Index{name: v.indexes[name]},
			names:   []string{name},
			stats:   v.stats,
			label:   "indexes=" + name,
		})
	}
	return subs, nil
}

func (v *simpleVariant) Label() string { return v.label }

func (v *simpleVariant) Inputs() []pipeline.Step { return v.inputs }

// sortedKeys fixes the enumeration order of an index mapping. Go maps are
// unordered; sorting keeps argument order deterministic across runs.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
