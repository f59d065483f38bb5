// Package handler holds the gin endpoints of the server.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"mast/internal/common"
	"mast/internal/engine"
	"mast/internal/server/dao"
	"mast/internal/server/model"
	"mast/internal/server/schedule"
	"mast/pkg/decl"
)

// RunEnqueuer submits recorded runs for execution.
type RunEnqueuer interface {
	EnqueueRun(payload schedule.RunPayload) error
}

// ScheduleRegistrar keeps a pipeline's cron entry in sync with its
// newest declaration.
type ScheduleRegistrar interface {
	Upsert(p *model.Pipeline) error
}

var (
	enqueuer RunEnqueuer
	cron     ScheduleRegistrar
)

// Init wires the queue and the cron scheduler into the handlers.
func Init(e RunEnqueuer, c ScheduleRegistrar) {
	enqueuer = e
	cron = c
}

// startRun records a run for the given pipeline version and enqueues
// it. The run UUID is handed out before the worker picks the task up.
func startRun(c *gin.Context, pipeline *model.Pipeline, event string) (string, error) {
	p, err := decl.Parse([]byte(pipeline.Config))
	if err != nil {
		return "", common.NewErrNo(common.DeclarationInvalid)
	}
	if !p.Triggered(event) {
		return "", common.NewErrNo(common.EventNotMatched)
	}

	runUUID := uuid.New().String()
	run := &model.PipelineRun{
		RunUUID:    runUUID,
		PipelineID: pipeline.ID,
		Version:    pipeline.Version,
		Event:      event,
		Status:     string(engine.StatusRunning),
	}
	if err := dao.NewRunDao().CreateRun(c, run); err != nil {
		return "", common.NewErrNo(common.PipelineStartFail)
	}

	err = enqueuer.EnqueueRun(schedule.RunPayload{
		RunUUID:    runUUID,
		PipelineID: pipeline.ID,
		Version:    pipeline.Version,
		Event:      event,
		Config:     pipeline.Config,
	})
	if err != nil {
		return "", common.NewErrNo(common.PipelineStartFail)
	}
	return runUUID, nil
}
