package scheduler

import (
	"context"
	"fmt"

	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic enqueues the cadence sweep on a cron spec such as "@every 1h"
// or "0 7 * * *".
type Periodic struct {
	scheduler *asynq.Scheduler
	entryID   string
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	spec := cfg.GetCadenceSweepSpec()
	if spec == "" {
		spec = "@every 1h"
	}

	s := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				log.Warn("periodic enqueue failed", "error", err)
			}
		},
	})
	entryID, err := s.Register(spec, NewCadenceSweepTask(), asynq.Queue(queueName(cfg)), asynq.MaxRetry(1))
	if err != nil {
		return nil, fmt.Errorf("register cadence sweep %q: %w", spec, err)
	}
	log.Info("cadence sweep registered", "spec", spec, "entryId", entryID)

	return &Periodic{scheduler: s, entryID: entryID, log: log}, nil
}

// Run blocks until ctx is cancelled.
func (p *Periodic) Run(ctx context.Context) {
	if p == nil || p.scheduler == nil {
		return
	}
	if err := p.scheduler.Start(); err != nil {
		p.log.Error("periodic scheduler failed to start", "error", err)
		return
	}
	<-ctx.Done()
	p.scheduler.Shutdown()
}
