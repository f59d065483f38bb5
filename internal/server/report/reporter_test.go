package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mast/internal/engine"
	"mast/internal/server/dao"
	"mast/internal/server/model"
)

func setupDB(t *testing.T) {
	t.Helper()
	database, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(
		&model.Pipeline{},
		&model.PipelineRun{},
		&model.JobRun{},
		&model.StepRun{},
	))
	dao.SetDB(database)
}

func TestDAOReporterPersistsRun(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	runDao := dao.NewRunDao()

	require.NoError(t, runDao.CreateRun(ctx, &model.PipelineRun{
		RunUUID: "run-9", PipelineID: 1, Version: 1, Event: "push", Status: "running",
	}))

	reporter := NewDAOReporter(runDao, zap.NewNop())

	reporter.StepCompleted("run-9", "lint", engine.StepResult{
		Step: "checkout", Status: engine.StatusSuccess, Duration: 80 * time.Millisecond,
	})
	reporter.StepCompleted("run-9", "lint", engine.StepResult{
		Step:     "clippy",
		Status:   engine.StatusFailed,
		Reason:   engine.ReasonExit,
		ExitCode: 101,
		Output:   "error: unused variable",
		Duration: 2 * time.Second,
	})
	reporter.JobCompleted("run-9", engine.JobResult{
		Job: "lint", Status: engine.StatusFailed, Duration: 3 * time.Second,
	})
	reporter.PipelineCompleted(engine.PipelineResult{
		RunID: "run-9", Pipeline: "checks", Status: engine.StatusFailed,
	})

	run, err := runDao.GetRunByUUID(ctx, "run-9")
	require.NoError(t, err)
	assert.Equal(t, "failed", run.Status)

	steps, err := runDao.GetStepRuns(ctx, "run-9")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	// Report order fixes the ordinals.
	assert.Equal(t, "checkout", steps[0].StepName)
	assert.Equal(t, 1, steps[0].Ordinal)
	assert.Equal(t, "clippy", steps[1].StepName)
	assert.Equal(t, 2, steps[1].Ordinal)
	assert.Equal(t, "exit", steps[1].Reason)
	assert.Equal(t, 101, steps[1].ExitCode)
	assert.EqualValues(t, 2000, steps[1].DurationMS)

	jobs, err := runDao.GetJobRuns(ctx, "run-9")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "failed", jobs[0].Status)
}

func TestDAOReporterOrdinalsResetPerRun(t *testing.T) {
	setupDB(t)
	runDao := dao.NewRunDao()
	reporter := NewDAOReporter(runDao, zap.NewNop())

	reporter.StepCompleted("run-a", "build", engine.StepResult{Step: "one", Status: engine.StatusSuccess})
	reporter.PipelineCompleted(engine.PipelineResult{RunID: "run-a", Status: engine.StatusSuccess})

	// A later run of the same job starts counting from one again.
	reporter.StepCompleted("run-b", "build", engine.StepResult{Step: "one", Status: engine.StatusSuccess})

	steps, err := runDao.GetStepRuns(context.Background(), "run-b")
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, 1, steps[0].Ordinal)
}

func TestDAOReporterRecordsRunningJob(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	runDao := dao.NewRunDao()
	reporter := NewDAOReporter(runDao, zap.NewNop())

	// A started job is visible as a running row before any outcome.
	reporter.JobStarted("run-c", "build")

	jobs, err := runDao.GetJobRuns(ctx, "run-c")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "running", jobs[0].Status)

	reporter.JobCompleted("run-c", engine.JobResult{
		Job: "build", Status: engine.StatusSuccess, Duration: time.Second,
	})

	jobs, err = runDao.GetJobRuns(ctx, "run-c")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "success", jobs[0].Status)
	assert.EqualValues(t, 1000, jobs[0].DurationMS)
}
