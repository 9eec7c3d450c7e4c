package aggregation

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/shaycrk/drain/aggregate"
	"github.com/shaycrk/drain/pipeline"
	"github.com/shaycrk/drain/table"
)

// ============================================================================
// AGGREGATION — Expansion, Execution, and Assembly
// ============================================================================
// An Aggregation is a pipeline step that runs one grouped aggregation per
// expansion argument and assembles the results.
//
// Non-parallel: expand arguments → resolve aggregator + index per argument
// → aggregate → insert literal columns → assemble (disjoint or concat).
//
// Parallel: decomposition happened at construction; the children are the
// step's inputs and Run merely forwards their already-computed results.
// ============================================================================

// Variant supplies the expansion-policy-specific operations of an
// aggregation. Implementations must be side-effect free apart from
// aggregator memoization.
type Variant interface {
	// Arguments enumerates, in deterministic order, the combinations this
	// instance is responsible for. An empty space yields an empty list.
	Arguments() []Argument
	// Indexes maps index names to index objects. Every Argument's Index
	// must resolve here.
	Indexes() map[string]aggregate.Index
	// Aggregator returns the aggregator for one argument. Implementations
	// memoize aggregators across arguments whose statistics coincide; an
	// aggregator must not be rebuilt per argument when avoidable.
	Aggregator(arg Argument) (*aggregate.Aggregator, error)
	// Split clones this variant into children whose argument spaces
	// partition this variant's space. Variants that cannot decompose
	// return an assertion failure.
	Split() ([]Variant, error)
	// Label identifies the slice of the space a split child covers, e.g.
	// "indexes=city" or "dates=2020-01-01". Empty for an unsplit variant.
	Label() string
	// Inputs are the upstream steps supplying source tables.
	Inputs() []pipeline.Step
}

// Result is the output of an aggregation run. Exactly one field is
// populated, depending on the Parallel and Concat flags:
//
//	Disjoint — non-parallel, Concat=false: one table per argument, in
//	           argument order.
//	Combined — non-parallel, Concat=true: one merged table per index name.
//	Children — parallel: the children's results in child order, labelled
//	           by each child's split slice.
//
// Children carry the full split label ("indexes=city", "dates=2020-01-01"),
// not the bare parameter name, so ChildMap stays collision-free when every
// child slices the same parameter.
type Result struct {
	Disjoint []*table.Table
	Combined map[string]*table.Table
	Children []ChildResult
}

// ChildResult pairs a parallel child's split label with its result.
type ChildResult struct {
	Label  string
	Result *Result
}

// ChildMap returns the children's results keyed by split label.
func (r *Result) ChildMap() map[string]*Result {
	m := make(map[string]*Result, len(r.Children))
	for _, c := range r.Children {
		m[c.Label] = c.Result
	}
	return m
}

// Aggregation is the executor and assembler shared by all variants.
// It implements pipeline.Step; construct via NewSimple or NewSpacetime.
type Aggregation struct {
	pipeline.StepBase
	opts     Options
	variant  Variant
	children []*Aggregation
	log      *slog.Logger
}

// newAggregation wires a variant into a runnable step. With Parallel set it
// splits the variant and installs the children as inputs; each child is a
// non-parallel clone scoped to a disjoint slice of the argument space.
func newAggregation(name string, v Variant, opts Options) (*Aggregation, error) {
	a := &Aggregation{opts: opts, variant: v, log: slog.Default()}

	if !opts.Parallel {
		a.StepBase = pipeline.NewStepBase(name, v.Inputs()...)
		return a, nil
	}

	subs, err := v.Split()
	if err != nil {
		return nil, errors.Wrapf(err, "aggregation %q: parallel decomposition", name)
	}
	childOpts := opts
	childOpts.Parallel = false
	steps := make([]pipeline.Step, 0, len(subs))
	for _, sub := range subs {
		child := &Aggregation{opts: childOpts, variant: sub, log: a.log}
		child.StepBase = pipeline.NewStepBase(name+"/"+sub.Label(), sub.Inputs()...)
		a.children = append(a.children, child)
		steps = append(steps, child)
	}
	a.StepBase = pipeline.NewStepBase(name, steps...)
	return a, nil
}

// Options returns the aggregation's flags. Target and Prefix are carried
// for the surrounding framework.
func (a *Aggregation) Options() Options { return a.opts }

// Children returns the parallel children, nil for non-parallel instances.
func (a *Aggregation) Children() []*Aggregation { return a.children }

// Result returns the typed result after a runner pass, nil before.
func (a *Aggregation) Result() *Result {
	r, _ := a.GetResult().(*Result)
	return r
}

// Run implements pipeline.Step.
func (a *Aggregation) Run(ctx context.Context) (any, error) {
	res, err := a.execute(ctx)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (a *Aggregation) execute(ctx context.Context) (*Result, error) {
	if a.opts.Parallel {
		return a.forwardChildren()
	}

	args := a.variant.Arguments()
	indexes := a.variant.Indexes()
	a.log.Debug("aggregation expanding", "step", a.Name(), "arguments", len(args))

	tables := make([]*table.Table, 0, len(args))
	for _, arg := range args {
		idx, ok := indexes[arg.Index]
		if !ok {
			return nil, errors.Newf("aggregation %q: argument %s references unknown index %q",
				a.Name(), arg, arg.Index)
		}
		agg, err := a.variant.Aggregator(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "aggregation %q: aggregator for %s", a.Name(), arg)
		}
		t, err := agg.Aggregate(idx)
		if err != nil {
			return nil, errors.Wrapf(err, "aggregation %q: %s", a.Name(), arg)
		}
		a.insertArgs(t, arg)
		tables = append(tables, t)
	}

	if !a.opts.Concat {
		return &Result{Disjoint: tables}, nil
	}
	return assemble(args, tables)
}

// forwardChildren implements the parallel pass-through contract: the
// children already ran (they are this step's inputs), so the parent only
// collects their results.
func (a *Aggregation) forwardChildren() (*Result, error) {
	out := &Result{Children: make([]ChildResult, 0, len(a.children))}
	for _, child := range a.children {
		r, ok := child.GetResult().(*Result)
		if !ok {
			return nil, errors.AssertionFailedf(
				"aggregation %q: child %q has no result; parallel aggregations must run through a pipeline runner",
				a.Name(), child.Name())
		}
		out.Children = append(out.Children, ChildResult{Label: child.variant.Label(), Result: r})
	}
	return out, nil
}

// insertArgs writes each InsertArgs parameter present in the argument as a
// literal broadcast column, overwriting existing columns of the same name.
func (a *Aggregation) insertArgs(t *table.Table, arg Argument) {
	for _, name := range a.opts.InsertArgs {
		if v, ok := arg.value(name); ok {
			t.SetScalar(name, v)
		}
	}
}

// assemble groups result tables by their argument's index name, preserving
// first-seen order within each group, and concatenates each group row-wise.
func assemble(args []Argument, tables []*table.Table) (*Result, error) {
	groups := make(map[string][]*table.Table)
	var order []string
	for i, arg := range args {
		if _, seen := groups[arg.Index]; !seen {
			order = append(order, arg.Index)
		}
		groups[arg.Index] = append(groups[arg.Index], tables[i])
	}

	combined := make(map[string]*table.Table, len(order))
	for _, name := range order {
		merged, err := table.Concat(groups[name]...)
		if err != nil {
			return nil, errors.Wrapf(err, "concatenating results for index %q", name)
		}
		combined[name] = merged
	}
	return &Result{Combined: combined}, nil
}

// inputTable resolves the first input's materialized table.
func inputTable(inputs []pipeline.Step) (*table.Table, error) {
	if len(inputs) == 0 {
		return nil, errors.AssertionFailedf("aggregation has no inputs")
	}
	t, ok := inputs[0].GetResult().(*table.Table)
	if !ok {
		return nil, errors.Newf("input %q has not produced a table; run through a pipeline runner",
			inputs[0].Name())
	}
	return t, nil
}
