package engine

import "go.uber.org/zap"

// Reporter receives job transitions and per-step, per-job and overall
// outcomes. It is write-only from the engine's perspective;
// implementations persist, log or forward them. JobStarted fires when
// a job's environment provisioning begins; skipped jobs never start.
type Reporter interface {
	JobStarted(runID, job string)
	StepCompleted(runID, job string, result StepResult)
	JobCompleted(runID string, result JobResult)
	PipelineCompleted(result PipelineResult)
}

type NopReporter struct{}

func (NopReporter) JobStarted(string, string)                {}
func (NopReporter) StepCompleted(string, string, StepResult) {}
func (NopReporter) JobCompleted(string, JobResult)           {}
func (NopReporter) PipelineCompleted(PipelineResult)         {}

// LogReporter writes outcomes to the structured log.
type LogReporter struct {
	Logger *zap.Logger
}

func (r LogReporter) JobStarted(runID, job string) {
	r.Logger.Info("job started",
		zap.String("run", runID),
		zap.String("job", job))
}

func (r LogReporter) StepCompleted(runID, job string, result StepResult) {
	r.Logger.Info("step completed",
		zap.String("run", runID),
		zap.String("job", job),
		zap.String("step", result.Step),
		zap.String("status", string(result.Status)),
		zap.String("reason", string(result.Reason)),
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("duration", result.Duration))
}

func (r LogReporter) JobCompleted(runID string, result JobResult) {
	r.Logger.Info("job completed",
		zap.String("run", runID),
		zap.String("job", result.Job),
		zap.String("status", string(result.Status)),
		zap.Duration("duration", result.Duration))
}

func (r LogReporter) PipelineCompleted(result PipelineResult) {
	r.Logger.Info("pipeline completed",
		zap.String("run", result.RunID),
		zap.String("pipeline", result.Pipeline),
		zap.String("event", result.Event),
		zap.String("status", string(result.Status)),
		zap.Int("jobs", len(result.Jobs)))
}

// MultiReporter fans outcomes out to several sinks in order.
type MultiReporter []Reporter

func (m MultiReporter) JobStarted(runID, job string) {
	for _, r := range m {
		r.JobStarted(runID, job)
	}
}

func (m MultiReporter) StepCompleted(runID, job string, result StepResult) {
	for _, r := range m {
		r.StepCompleted(runID, job, result)
	}
}

func (m MultiReporter) JobCompleted(runID string, result JobResult) {
	for _, r := range m {
		r.JobCompleted(runID, result)
	}
}

func (m MultiReporter) PipelineCompleted(result PipelineResult) {
	for _, r := range m {
		r.PipelineCompleted(result)
	}
}
