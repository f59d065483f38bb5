// Package schedule connects triggers to the engine through an asynq
// queue: webhook and manual triggers enqueue run tasks, declaration
// cron triggers register with the asynq scheduler, and the worker
// consumes tasks and drives the engine.
package schedule

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"mast/internal/common"
)

const TypePipelineExecute = "pipeline:execute"

// RunPayload is the queued description of one pipeline run. RunUUID
// is empty for cron-scheduled tasks; the worker assigns one and
// creates the run record itself.
type RunPayload struct {
	RunUUID    string `json:"run_uuid,omitempty"`
	PipelineID uint   `json:"pipeline_id"` // exact version row
	Version    int    `json:"version"`
	Event      string `json:"event"`
	Config     string `json:"config"`
}

func redisOpt(cfg common.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
}

func newRunTask(payload RunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePipelineExecute, data), nil
}

// Enqueuer submits run tasks to the queue.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(cfg common.Config) *Enqueuer {
	return &Enqueuer{client: asynq.NewClient(redisOpt(cfg))}
}

func (e *Enqueuer) EnqueueRun(payload RunPayload) error {
	task, err := newRunTask(payload)
	if err != nil {
		return err
	}
	_, err = e.client.Enqueue(task)
	return err
}

func (e *Enqueuer) Close() error {
	return e.client.Close()
}
