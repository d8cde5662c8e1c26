package scheduler

import (
	"context"
	"fmt"

	cadencetransport "outreach_backend/internal/cadence/transport"
	contacttransport "outreach_backend/internal/contacts/transport"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// BulkEnricher runs a bulk enrichment synchronously.
type BulkEnricher interface {
	BulkEnrich(ctx context.Context, tenantID uuid.UUID, contactIDs []uuid.UUID) (contacttransport.BulkResult, error)
}

// CadenceSweeper sends reminder digests for due contacts.
type CadenceSweeper interface {
	Sweep(ctx context.Context) (cadencetransport.SweepResult, error)
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	enricher BulkEnricher
	sweeper  CadenceSweeper
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, enricher BulkEnricher, sweeper CadenceSweeper, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := &Worker{
		server:   server,
		mux:      asynq.NewServeMux(),
		enricher: enricher,
		sweeper:  sweeper,
		log:      log,
	}
	w.mux.HandleFunc(TaskBulkEnrichment, w.handleBulkEnrichment)
	w.mux.HandleFunc(TaskCadenceSweep, w.handleCadenceSweep)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleBulkEnrichment never retries on per contact failures; those are in
// the result. Only a broken payload or cancellation fails the task.
func (w *Worker) handleBulkEnrichment(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseBulkEnrichmentPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	result, err := w.enricher.BulkEnrich(ctx, payload.TenantID, payload.ContactIDs)
	if err != nil {
		return err
	}

	w.log.Info("bulk enrichment task done",
		"tenantId", payload.TenantID,
		"requested", result.Requested,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	return nil
}

func (w *Worker) handleCadenceSweep(ctx context.Context, _ *asynq.Task) error {
	result, err := w.sweeper.Sweep(ctx)
	if err != nil {
		return err
	}
	w.log.Info("cadence sweep done", "tenants", result.Tenants, "due", result.Due, "digests", result.Digests)
	return nil
}
