package aggregation

// ============================================================================
// OPTIONS — Functional Options Shared by All Variants
// ============================================================================

// Options are the flags common to every aggregation variant.
type Options struct {
	// Parallel decomposes the aggregation into independent children at
	// construction time; the children become the step's inputs.
	Parallel bool
	// Concat merges same-index results into one table per index name.
	// When false, results are returned disjointly, one table per argument.
	Concat bool
	// Target marks the result as a final/persistable output. Interpreted
	// by the surrounding framework, not by this engine.
	Target bool
	// Prefix is a naming hint for persisted/joined output columns.
	// Interpreted by the surrounding framework.
	Prefix string
	// InsertArgs names the expansion parameters ("index", "date", "delta")
	// written as literal columns into each result table. Parameters not
	// listed stay implicit in which result table a row belongs to.
	InsertArgs []string
}

// Option configures an aggregation via functional options.
type Option func(*Options)

// WithParallel enables decomposition into independent child aggregations.
func WithParallel() Option {
	return func(o *Options) { o.Parallel = true }
}

// WithDisjoint disables concatenation: results are returned per argument.
func WithDisjoint() Option {
	return func(o *Options) { o.Concat = false }
}

// WithTarget marks the aggregation's result as a final output.
func WithTarget() Option {
	return func(o *Options) { o.Target = true }
}

// WithPrefix sets the output naming hint.
func WithPrefix(prefix string) Option {
	return func(o *Options) { o.Prefix = prefix }
}

// WithInsertArgs selects which expansion parameters become literal columns.
func WithInsertArgs(names ...string) Option {
	return func(o *Options) { o.InsertArgs = names }
}

// applyOptions creates an Options from functional options.
func applyOptions(opts []Option) Options {
	cfg := Options{Concat: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
