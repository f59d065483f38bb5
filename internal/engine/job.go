package engine

import (
	"context"
	"time"

	"mast/pkg/decl"
)

// JobRunner sequences a job's steps on a single freshly provisioned
// environment. The first failing step short-circuits the rest to
// skipped; the environment is torn down on every exit path.
type JobRunner struct {
	Provisioner Provisioner
	Executor    *StepExecutor
	Reporter    Reporter
}

func (r *JobRunner) Run(ctx context.Context, runID string, job decl.Job) JobResult {
	start := time.Now()
	result := JobResult{Job: job.Name, Status: StatusRunning}
	r.Reporter.JobStarted(runID, job.Name)

	env, err := r.Provisioner.Provision(ctx, job.RunsOn)
	if err != nil {
		// Nothing ran; the job fails and every step is recorded skipped
		// except a synthetic provision failure.
		result.Status = StatusFailed
		result.Steps = append(result.Steps, StepResult{
			Step:   "provision " + job.RunsOn,
			Status: StatusFailed,
			Reason: ReasonEnvironment,
			Output: err.Error(),
		})
		for _, step := range job.Steps {
			result.Steps = append(result.Steps, skippedStep(step))
		}
		result.Duration = time.Since(start)
		r.reportSteps(runID, result)
		return result
	}
	defer func() {
		// Teardown must run even when ctx is already cancelled.
		_ = r.Provisioner.Teardown(context.WithoutCancel(ctx), env)
	}()

	failed := false
	for _, step := range job.Steps {
		var sr StepResult
		if failed {
			sr = skippedStep(step)
		} else {
			sr = r.Executor.Execute(ctx, step, env)
			if sr.Status == StatusFailed {
				failed = true
			}
		}
		result.Steps = append(result.Steps, sr)
		r.Reporter.StepCompleted(runID, job.Name, sr)
	}

	if failed {
		result.Status = StatusFailed
	} else {
		result.Status = StatusSuccess
	}
	result.Duration = time.Since(start)
	r.Reporter.JobCompleted(runID, result)
	return result
}

func (r *JobRunner) reportSteps(runID string, result JobResult) {
	for _, sr := range result.Steps {
		r.Reporter.StepCompleted(runID, result.Job, sr)
	}
	r.Reporter.JobCompleted(runID, result)
}

func skippedStep(step decl.Step) StepResult {
	return StepResult{Step: step.Label(), Status: StatusSkipped}
}

// skippedJob records a job that never started because a predecessor
// ended failed or skipped.
func skippedJob(job decl.Job) JobResult {
	result := JobResult{Job: job.Name, Status: StatusSkipped}
	for _, step := range job.Steps {
		result.Steps = append(result.Steps, skippedStep(step))
	}
	return result
}
