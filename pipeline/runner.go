package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ============================================================================
// RUNNER — Dependency-First Execution
// ============================================================================
// Runs a step after its inputs, inputs of one step concurrently. Steps
// share no mutable state (parallel aggregation children are disjoint by
// construction), so no coordination beyond completion ordering is needed.
// Each step runs at most once per runner, even when shared between
// branches. Errors propagate unmodified; nothing is retried.
// ============================================================================

// Runner executes a step graph depth-first.
type Runner struct {
	log *slog.Logger

	mu    sync.Mutex
	onces map[Step]*stepOnce
}

type stepOnce struct {
	once sync.Once
	err  error
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger used for run progress.
func WithLogger(log *slog.Logger) RunnerOption {
	return func(r *Runner) { r.log = log }
}

// NewRunner creates a runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		log:   slog.Default(),
		onces: make(map[Step]*stepOnce),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the step and everything upstream of it, returning the
// step's result. A failed input aborts the whole run with that error.
func (r *Runner) Run(ctx context.Context, step Step) (any, error) {
	runID := uuid.NewString()
	log := r.log.With("run", runID)
	log.Info("pipeline run starting", "step", step.Name())

	if err := r.runStep(ctx, log, step); err != nil {
		log.Error("pipeline run failed", "step", step.Name(), "error", err)
		return nil, err
	}
	log.Info("pipeline run finished", "step", step.Name())
	return step.GetResult(), nil
}

func (r *Runner) runStep(ctx context.Context, log *slog.Logger, step Step) error {
	so := r.onceFor(step)
	so.once.Do(func() {
		so.err = r.runOnce(ctx, log, step)
	})
	return so.err
}

func (r *Runner) runOnce(ctx context.Context, log *slog.Logger, step Step) error {
	if inputs := step.Inputs(); len(inputs) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		for _, input := range inputs {
			input := input
			g.Go(func() error {
				return r.runStep(gctx, log, input)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	log.Debug("running step", "step", step.Name(), "inputs", len(step.Inputs()))
	result, err := step.Run(ctx)
	if err != nil {
		return err
	}
	step.setResult(result)
	return nil
}

func (r *Runner) onceFor(step Step) *stepOnce {
	r.mu.Lock()
	defer r.mu.Unlock()
	so, ok := r.onces[step]
	if !ok {
		so = &stepOnce{}
		r.onces[step] = so
	}
	return so
}
