package schedule

import (
	"context"
	"sync"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"mast/internal/common"
	"mast/internal/server/dao"
	"mast/internal/server/model"
	"mast/pkg/decl"
)

// CronScheduler registers declaration cron triggers with the asynq
// scheduler. Each pipeline name holds at most one entry; updating a
// pipeline replaces its entry with the newest version's schedule.
type CronScheduler struct {
	scheduler *asynq.Scheduler
	dao       dao.PipelineDao
	logger    *zap.Logger

	mu      sync.Mutex
	entries map[string]string // pipeline name -> entry id
}

func NewCronScheduler(cfg common.Config) *CronScheduler {
	return &CronScheduler{
		scheduler: asynq.NewScheduler(redisOpt(cfg), nil),
		dao:       dao.NewPipelineDao(),
		logger:    common.GetLogger(),
		entries:   make(map[string]string),
	}
}

func (s *CronScheduler) Start() error {
	return s.scheduler.Start()
}

func (s *CronScheduler) Shutdown() {
	s.scheduler.Shutdown()
}

// LoadAll registers schedules for the newest version of every stored
// pipeline. Called once at startup.
func (s *CronScheduler) LoadAll(ctx context.Context) error {
	pipelines, err := s.dao.ListNewestVersions(ctx)
	if err != nil {
		return err
	}
	for _, p := range pipelines {
		if err := s.Upsert(p); err != nil {
			s.logger.Error("register pipeline schedule",
				zap.String("name", p.Name), zap.Error(err))
		}
	}
	return nil
}

// Upsert replaces the pipeline's schedule entry with the one its
// declaration asks for, or removes it when the declaration has no
// schedule trigger.
func (s *CronScheduler) Upsert(p *model.Pipeline) error {
	d, err := decl.Parse([]byte(p.Config))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.entries[p.Name]; ok {
		if err := s.scheduler.Unregister(entryID); err != nil {
			s.logger.Warn("unregister stale schedule",
				zap.String("name", p.Name), zap.Error(err))
		}
		delete(s.entries, p.Name)
	}

	if !d.Triggered(decl.EventSchedule) {
		return nil
	}

	task, err := newRunTask(RunPayload{
		PipelineID: p.ID,
		Version:    p.Version,
		Event:      decl.EventSchedule,
		Config:     p.Config,
	})
	if err != nil {
		return err
	}
	entryID, err := s.scheduler.Register(d.Cron, task)
	if err != nil {
		return err
	}
	s.entries[p.Name] = entryID
	s.logger.Info("pipeline schedule registered",
		zap.String("name", p.Name), zap.String("cron", d.Cron))
	return nil
}
