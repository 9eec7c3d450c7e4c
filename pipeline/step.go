package pipeline

import (
	"context"

	"github.com/shaycrk/drain/table"
)

// ============================================================================
// STEP — Upstream/Downstream Contract
// ============================================================================
// The aggregation core consumes inputs through this interface and exposes
// itself through it. Dependency resolution, caching, and scheduling belong
// to the Runner (or an external framework); a Step only declares its
// inputs and computes its own result once those inputs have run.
// ============================================================================

// Step is one node of a pipeline. Run is called after every input has run;
// it reads input results via GetResult.
type Step interface {
	// Name identifies the step in logs and errors.
	Name() string
	// Inputs are the upstream steps this step depends on.
	Inputs() []Step
	// Run computes the step's result. The runner guarantees inputs ran first.
	Run(ctx context.Context) (any, error)
	// GetResult returns the cached result of the last Run, or nil before it.
	GetResult() any

	setResult(v any)
}

// StepBase supplies the input and result bookkeeping of a Step. Embed it
// by pointer-receiver convention and implement Run.
type StepBase struct {
	name   string
	inputs []Step
	result any
}

// NewStepBase creates the embedded base for a step.
func NewStepBase(name string, inputs ...Step) StepBase {
	return StepBase{name: name, inputs: inputs}
}

func (b *StepBase) Name() string { return b.name }

func (b *StepBase) Inputs() []Step { return b.inputs }

func (b *StepBase) GetResult() any { return b.result }

func (b *StepBase) setResult(v any) { b.result = v }

// ============================================================================
// SOURCE — Leaf Step Wrapping a Materialized Table
// ============================================================================

// Source is a leaf step that yields a fixed table. Used for test fixtures
// and CLI inputs; production pipelines substitute real upstream steps.
type Source struct {
	StepBase
	t *table.Table
}

// NewSource creates a source step for an already-materialized table.
func NewSource(name string, t *table.Table) *Source {
	return &Source{StepBase: NewStepBase(name), t: t}
}

// Run yields the wrapped table.
func (s *Source) Run(ctx context.Context) (any, error) {
	return s.t, nil
}
