package schedule

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"mast/internal/common"
	"mast/internal/engine"
	"mast/internal/server/dao"
	"mast/internal/server/model"
	"mast/pkg/decl"
)

// Worker consumes run tasks and executes them through the engine.
// Step and job outcomes are persisted as they happen by the DAO
// reporter wired into the engine.
type Worker struct {
	srv    *asynq.Server
	eng    *engine.Engine
	runDao dao.RunDao
	logger *zap.Logger
}

func NewWorker(cfg common.Config, eng *engine.Engine) *Worker {
	srv := asynq.NewServer(redisOpt(cfg), asynq.Config{
		Concurrency: cfg.MaxConcurrency,
	})
	return &Worker{
		srv:    srv,
		eng:    eng,
		runDao: dao.NewRunDao(),
		logger: common.GetLogger(),
	}
}

func (w *Worker) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypePipelineExecute, w.handleRun)
	return w.srv.Start(mux)
}

func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}

func (w *Worker) handleRun(ctx context.Context, t *asynq.Task) error {
	var payload RunPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		w.logger.Error("discard undecodable run task", zap.Error(err))
		return nil
	}

	runUUID := payload.RunUUID
	if runUUID == "" {
		// Cron tasks share one registered payload, so the run record
		// is created here rather than at trigger time.
		runUUID = uuid.New().String()
		run := &model.PipelineRun{
			RunUUID:    runUUID,
			PipelineID: payload.PipelineID,
			Version:    payload.Version,
			Event:      payload.Event,
			Status:     string(engine.StatusRunning),
		}
		if err := w.runDao.CreateRun(ctx, run); err != nil {
			w.logger.Error("create scheduled run record",
				zap.Uint("pipeline_id", payload.PipelineID), zap.Error(err))
			return err
		}
	}

	p, err := decl.Parse([]byte(payload.Config))
	if err != nil {
		w.logger.Error("stored declaration no longer parses",
			zap.String("run_uuid", runUUID), zap.Error(err))
		w.markFailed(ctx, runUUID)
		return nil
	}

	result, err := w.eng.RunWithID(ctx, runUUID, p, payload.Event)
	if err != nil {
		if errors.Is(err, engine.ErrEventNotMatched) {
			w.logger.Warn("queued run no longer matches its event",
				zap.String("run_uuid", runUUID), zap.String("event", payload.Event))
			w.markFailed(ctx, runUUID)
			return nil
		}
		w.logger.Error("pipeline run aborted", zap.String("run_uuid", runUUID), zap.Error(err))
		w.markFailed(ctx, runUUID)
		return err
	}

	w.logger.Info("pipeline run finished",
		zap.String("run_uuid", runUUID),
		zap.String("pipeline", result.Pipeline),
		zap.String("status", string(result.Status)),
		zap.Duration("duration", result.Duration))
	return nil
}

func (w *Worker) markFailed(ctx context.Context, runUUID string) {
	if err := w.runDao.UpdateRunStatus(ctx, runUUID, string(engine.StatusFailed)); err != nil {
		w.logger.Error("update run status", zap.String("run_uuid", runUUID), zap.Error(err))
	}
}
