package engine

import "time"

// Status is the lifecycle state of a step, job or pipeline run.
// Success, Failed and Skipped are terminal; a result never changes
// once produced.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Terminal reports whether the state can no longer change.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusSkipped
}

// Reason qualifies a failed StepResult.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonExit        Reason = "exit"        // non-zero exit status
	ReasonTimeout     Reason = "timeout"     // per-step limit exceeded, forcibly terminated
	ReasonResolution  Reason = "resolution"  // action name could not be resolved
	ReasonEnvironment Reason = "environment" // environment fault (provision/exec infrastructure)
)

type StepResult struct {
	Step     string
	Status   Status
	Reason   Reason
	ExitCode int
	Output   string
	Duration time.Duration
}

type JobResult struct {
	Job      string
	Status   Status
	Steps    []StepResult
	Duration time.Duration
}

// PipelineResult maps job names to their results. Overall status is
// success iff every job result is success.
type PipelineResult struct {
	RunID    string
	Pipeline string
	Event    string
	Status   Status
	Jobs     map[string]JobResult
	Duration time.Duration
}

// Aggregate combines terminal job results into a pipeline verdict.
// Callers must only pass terminal results; there is no partial
// aggregation.
func Aggregate(runID, pipeline, event string, jobs map[string]JobResult) PipelineResult {
	status := StatusSuccess
	for _, jr := range jobs {
		if jr.Status != StatusSuccess {
			status = StatusFailed
			break
		}
	}
	return PipelineResult{
		RunID:    runID,
		Pipeline: pipeline,
		Event:    event,
		Status:   status,
		Jobs:     jobs,
	}
}
