package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"mast/pkg/decl"
)

// ErrEventNotMatched is returned when the triggering event is not in
// the pipeline's trigger set; nothing is scheduled.
var ErrEventNotMatched = errors.New("event does not match pipeline triggers")

const (
	defaultMaxConcurrency = 5
	defaultStepTimeout    = 10 * time.Minute
)

// Config carries the engine's collaborators. Zero fields get
// defaults: builtin resolver, no-op reporter, bounded concurrency.
type Config struct {
	Resolver       Resolver
	Reporter       Reporter
	MaxConcurrency int
	StepTimeout    time.Duration
}

// Engine executes a parsed pipeline declaration for a triggering
// event. Runs are stateless relative to prior runs; every run gets a
// fresh UUID and fresh environments.
type Engine struct {
	provisioner Provisioner
	resolver    Resolver
	reporter    Reporter
	sched       *Scheduler
	stepTimeout time.Duration
}

func New(provisioner Provisioner, cfg Config) *Engine {
	if cfg.Resolver == nil {
		cfg.Resolver = NewBuiltinResolver(nil)
	}
	if cfg.Reporter == nil {
		cfg.Reporter = NopReporter{}
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = defaultMaxConcurrency
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = defaultStepTimeout
	}
	return &Engine{
		provisioner: provisioner,
		resolver:    cfg.Resolver,
		reporter:    cfg.Reporter,
		sched:       &Scheduler{MaxConcurrency: cfg.MaxConcurrency},
		stepTimeout: cfg.StepTimeout,
	}
}

// Run schedules every eligible job, waits for all of them to reach a
// terminal state and aggregates the verdict. Job failures never abort
// sibling jobs; only a trigger mismatch prevents execution.
func (e *Engine) Run(ctx context.Context, p *decl.Pipeline, event string) (PipelineResult, error) {
	return e.RunWithID(ctx, uuid.New().String(), p, event)
}

// RunWithID is Run with a caller-assigned run identifier, for callers
// that hand the identifier out before execution starts.
func (e *Engine) RunWithID(ctx context.Context, runID string, p *decl.Pipeline, event string) (PipelineResult, error) {
	jobs := e.sched.Eligible(p, event)
	if jobs == nil {
		return PipelineResult{}, ErrEventNotMatched
	}

	start := time.Now()
	runner := &JobRunner{
		Provisioner: e.provisioner,
		Executor:    &StepExecutor{Resolver: e.resolver, DefaultTimeout: e.stepTimeout},
		Reporter:    e.reporter,
	}

	results := e.sched.Run(jobs,
		func(job decl.Job) JobResult {
			return runner.Run(ctx, runID, job)
		},
		func(job decl.Job) JobResult {
			result := skippedJob(job)
			runner.reportSteps(runID, result)
			return result
		})

	verdict := Aggregate(runID, p.Name, event, results)
	verdict.Duration = time.Since(start)
	e.reporter.PipelineCompleted(verdict)
	return verdict, nil
}
