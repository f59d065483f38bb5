// Package report persists engine outcomes through the DAO layer; it
// is the queryable face of the reporting sink.
package report

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"mast/internal/engine"
	"mast/internal/server/dao"
	"mast/internal/server/model"
)

// DAOReporter implements engine.Reporter by upserting job and step
// rows as they complete and finalizing the run row at the end.
type DAOReporter struct {
	runDao dao.RunDao
	logger *zap.Logger

	mu       sync.Mutex
	ordinals map[string]int // runUUID+"/"+job -> steps recorded so far
}

func NewDAOReporter(runDao dao.RunDao, logger *zap.Logger) *DAOReporter {
	return &DAOReporter{
		runDao:   runDao,
		logger:   logger,
		ordinals: make(map[string]int),
	}
}

func (r *DAOReporter) nextOrdinal(runID, job string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := runID + "/" + job
	r.ordinals[key]++
	return r.ordinals[key]
}

func (r *DAOReporter) JobStarted(runID, job string) {
	jobRun := &model.JobRun{
		RunUUID: runID,
		JobName: job,
		Status:  string(engine.StatusRunning),
	}
	if err := r.runDao.UpsertJobRun(context.Background(), jobRun); err != nil {
		r.logger.Error("persist job start",
			zap.String("run", runID), zap.String("job", job), zap.Error(err))
	}
}

func (r *DAOReporter) StepCompleted(runID, job string, result engine.StepResult) {
	stepRun := &model.StepRun{
		RunUUID:    runID,
		JobName:    job,
		Ordinal:    r.nextOrdinal(runID, job),
		StepName:   result.Step,
		Status:     string(result.Status),
		Reason:     string(result.Reason),
		ExitCode:   result.ExitCode,
		Output:     result.Output,
		DurationMS: result.Duration.Milliseconds(),
	}
	if err := r.runDao.UpsertStepRun(context.Background(), stepRun); err != nil {
		r.logger.Error("persist step result",
			zap.String("run", runID), zap.String("job", job), zap.Error(err))
	}
}

func (r *DAOReporter) JobCompleted(runID string, result engine.JobResult) {
	jobRun := &model.JobRun{
		RunUUID:    runID,
		JobName:    result.Job,
		Status:     string(result.Status),
		DurationMS: result.Duration.Milliseconds(),
	}
	if err := r.runDao.UpsertJobRun(context.Background(), jobRun); err != nil {
		r.logger.Error("persist job result",
			zap.String("run", runID), zap.String("job", result.Job), zap.Error(err))
	}
}

func (r *DAOReporter) PipelineCompleted(result engine.PipelineResult) {
	if err := r.runDao.UpdateRunStatus(context.Background(), result.RunID, string(result.Status)); err != nil {
		r.logger.Error("persist run status",
			zap.String("run", result.RunID), zap.Error(err))
	}
	r.mu.Lock()
	for key := range r.ordinals {
		if len(key) > len(result.RunID) && key[:len(result.RunID)] == result.RunID {
			delete(r.ordinals, key)
		}
	}
	r.mu.Unlock()
}
