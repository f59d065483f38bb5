package dao

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mast/internal/common"
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
		&model.User{},
	))
	SetDB(database)
}

func TestPipelineVersioning(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	pipelineDao := NewPipelineDao()

	v1 := &model.Pipeline{Name: "checks", Version: 1, Config: "name: checks"}
	require.NoError(t, pipelineDao.Create(ctx, v1))

	// Same name and version collides.
	dup := &model.Pipeline{Name: "checks", Version: 1, Config: "name: checks"}
	err := pipelineDao.Create(ctx, dup)
	require.Error(t, err)
	var errNo common.ErrNo
	require.True(t, errors.As(err, &errNo))
	assert.Equal(t, common.PipelineExists, errNo.ErrCode)

	v2 := &model.Pipeline{Name: "checks", Version: 2, Config: "name: checks # v2"}
	require.NoError(t, pipelineDao.Create(ctx, v2))

	newest, err := pipelineDao.GetNewestVersionByName(ctx, "checks")
	require.NoError(t, err)
	assert.Equal(t, 2, newest.Version)

	// Looking up through an old version's ID still lands on the newest.
	newest, err = pipelineDao.GetNewestVersionByID(ctx, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, newest.Version)

	// The old version stays addressable for run history.
	old, err := pipelineDao.GetByID(ctx, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, old.Version)
}

func TestListNewestVersions(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	pipelineDao := NewPipelineDao()

	for _, name := range []string{"alpha", "beta"} {
		for v := 1; v <= 3; v++ {
			require.NoError(t, pipelineDao.Create(ctx, &model.Pipeline{
				Name: name, Version: v, Config: fmt.Sprintf("name: %s", name),
			}))
		}
	}

	pipelines, err := pipelineDao.ListNewestVersions(ctx)
	require.NoError(t, err)
	require.Len(t, pipelines, 2)
	for _, p := range pipelines {
		assert.Equal(t, 3, p.Version)
	}
}

func TestPipelineNotFound(t *testing.T) {
	setupDB(t)
	ctx := context.Background()

	_, err := NewPipelineDao().GetNewestVersionByName(ctx, "ghost")
	require.Error(t, err)
	var errNo common.ErrNo
	require.True(t, errors.As(err, &errNo))
	assert.Equal(t, common.PipelineNotExists, errNo.ErrCode)
}

func TestRunLifecycle(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	runDao := NewRunDao()

	run := &model.PipelineRun{
		RunUUID: "run-1", PipelineID: 7, Version: 2, Event: "push", Status: "running",
	}
	require.NoError(t, runDao.CreateRun(ctx, run))

	require.NoError(t, runDao.UpdateRunStatus(ctx, "run-1", "success"))
	got, err := runDao.GetRunByUUID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "success", got.Status)
}

func TestStepRunUpsertAndOrdering(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	runDao := NewRunDao()

	// Out-of-order writes, including one overwrite of the same step.
	steps := []*model.StepRun{
		{RunUUID: "run-2", JobName: "lint", Ordinal: 2, StepName: "clippy", Status: "failed", ExitCode: 1},
		{RunUUID: "run-2", JobName: "lint", Ordinal: 1, StepName: "checkout", Status: "running"},
		{RunUUID: "run-2", JobName: "build", Ordinal: 1, StepName: "compile", Status: "success"},
		{RunUUID: "run-2", JobName: "lint", Ordinal: 1, StepName: "checkout", Status: "success"},
	}
	for _, s := range steps {
		require.NoError(t, runDao.UpsertStepRun(ctx, s))
	}

	got, err := runDao.GetStepRuns(ctx, "run-2")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "compile", got[0].StepName)
	assert.Equal(t, "checkout", got[1].StepName)
	assert.Equal(t, "success", got[1].Status)
	assert.Equal(t, "clippy", got[2].StepName)

	jobRun := &model.JobRun{RunUUID: "run-2", JobName: "lint", Status: "running"}
	require.NoError(t, runDao.UpsertJobRun(ctx, jobRun))
	require.NoError(t, runDao.UpsertJobRun(ctx, &model.JobRun{
		RunUUID: "run-2", JobName: "lint", Status: "failed", DurationMS: 1200,
	}))

	jobs, err := runDao.GetJobRuns(ctx, "run-2")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "failed", jobs[0].Status)
	assert.EqualValues(t, 1200, jobs[0].DurationMS)
}

func TestUserDao(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	userDao := NewUserDao()

	require.NoError(t, userDao.Create(ctx, &model.User{
		Username: "admin", PasswordHash: "abcd", Role: "admin",
	}))

	user, err := userDao.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Role)

	_, err = userDao.GetByUsername(ctx, "nobody")
	require.Error(t, err)
	var errNo common.ErrNo
	require.True(t, errors.As(err, &errNo))
	assert.Equal(t, common.UserNotExists, errNo.ErrCode)
}
