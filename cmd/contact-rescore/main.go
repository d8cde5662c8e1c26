package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"outreach_backend/internal/companies"
	"outreach_backend/internal/contacts"
	"outreach_backend/internal/enrichment"
	"outreach_backend/internal/events"
	"outreach_backend/platform/config"
	"outreach_backend/platform/db"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"
)

// contact-rescore recomputes contact and company scores from the stored
// enrichment payloads. It never calls the enrichment provider.
func main() {
	batchSize := flag.Int("batch", 200, "contacts per keyset page")
	force := flag.Bool("force", false, "rescore contacts already on the current score version")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env, cfg.LogLevel)
	log.Info("starting contact rescore", "batch", *batchSize, "force", *force)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	companiesModule := companies.NewModule(pool, eventBus, val, log)
	contactsModule := contacts.NewModule(pool, companiesModule.Service(), cfg.GetPhoneDefaultRegion(), val, log)
	// Rescoring reads payloads from Postgres, so neither the Redis payload
	// cache nor the positioning agent is needed.
	enrichmentModule := enrichment.NewModule(nil, cfg, nil, contactsModule, companiesModule.Service(), eventBus, cfg.GetPhoneDefaultRegion(), val, log)

	started := time.Now()
	stats, err := enrichmentModule.Service().RescoreAll(ctx, *batchSize, *force)
	if err != nil {
		log.Error("rescore aborted", "error", err, "processed", stats.Processed, "updated", stats.Updated, "failed", stats.Failed)
		pool.Close()
		os.Exit(1)
	}
	log.Info("rescore complete",
		"processed", stats.Processed,
		"updated", stats.Updated,
		"failed", stats.Failed,
		"elapsed", time.Since(started).Round(time.Millisecond).String(),
	)
}
