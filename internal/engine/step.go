package engine

import (
	"context"
	"errors"
	"time"

	"mast/pkg/decl"
)

// StepExecutor runs a single step in a prepared environment, capturing
// exit status and combined output. Every failure mode is recovered
// into the StepResult; Execute never panics the job.
type StepExecutor struct {
	Resolver       Resolver
	DefaultTimeout time.Duration
}

func (e *StepExecutor) Execute(ctx context.Context, step decl.Step, env Environment) StepResult {
	result := StepResult{Step: step.Label(), Status: StatusRunning}
	start := time.Now()

	timeout := step.TimeoutDuration(e.DefaultTimeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var res ExecResult
	var err error
	if step.IsAction() {
		var inv Invocable
		inv, err = e.Resolver.Resolve(step.Uses)
		if err != nil {
			result.Status = StatusFailed
			result.Reason = ReasonResolution
			result.Output = err.Error()
			result.Duration = time.Since(start)
			return result
		}
		res, err = inv.Invoke(ctx, env, step.With)
	} else {
		res, err = env.Exec(ctx, step.Run)
	}
	result.Duration = time.Since(start)
	result.Output = res.Output
	result.ExitCode = res.ExitCode

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.Status = StatusFailed
		result.Reason = ReasonTimeout
	case err != nil:
		result.Status = StatusFailed
		result.Reason = ReasonEnvironment
		if result.Output == "" {
			result.Output = err.Error()
		}
	case res.ExitCode != 0:
		result.Status = StatusFailed
		result.Reason = ReasonExit
	default:
		result.Status = StatusSuccess
	}
	return result
}
