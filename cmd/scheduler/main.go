package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"outreach_backend/internal/cadence"
	"outreach_backend/internal/companies"
	"outreach_backend/internal/contacts"
	"outreach_backend/internal/email"
	"outreach_backend/internal/enrichment"
	"outreach_backend/internal/enrichment/positioning"
	"outreach_backend/internal/events"
	"outreach_backend/internal/scheduler"
	"outreach_backend/platform/ai/openai"
	"outreach_backend/platform/ai/textgen"
	"outreach_backend/platform/cache"
	"outreach_backend/platform/config"
	"outreach_backend/platform/db"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env, cfg.LogLevel)
	log.Info("starting scheduler", "env", cfg.Env, "queue", cfg.GetAsynqQueueName(), "sweepSpec", cfg.GetCadenceSweepSpec())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	var rdb *redis.Client
	if err := withRetry(ctx, log, "redis connection", 5, 2*time.Second, func() error {
		c, err := cache.NewClient(ctx, cfg)
		if err != nil {
			return err
		}
		rdb = c
		return nil
	}); err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	defer func() { _ = rdb.Close() }()

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()
	sender := email.NewSender(cfg)
	val := validator.New()

	// Worker-side wiring only; no HTTP routes are mounted here.
	companiesModule := companies.NewModule(pool, eventBus, val, log)
	contactsModule := contacts.NewModule(pool, companiesModule.Service(), cfg.GetPhoneDefaultRegion(), val, log)
	enrichmentModule := enrichment.NewModule(rdb, cfg, positioningGenerator(cfg, log), contactsModule, companiesModule.Service(), eventBus, cfg.GetPhoneDefaultRegion(), val, log)
	cadenceModule := cadence.NewModule(contactsModule.Repository(), sender, cfg.GetReminderDigestRecipients(), eventBus, val, log)

	periodic, err := scheduler.NewPeriodic(cfg, log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}
	go periodic.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, enrichmentModule.Service(), cadenceModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func positioningGenerator(cfg config.LLMConfig, log *logger.Logger) textgen.Generator {
	if !cfg.IsLLMEnabled() {
		return nil
	}
	agent, err := textgen.New(textgen.Config{
		AppName:     "outreach",
		AgentName:   "positioning",
		Description: "Classifies a company's market position and competitors.",
		Instruction: positioning.Instruction,
		Model: openai.NewModel(openai.Config{
			APIKey:   cfg.GetLLMAPIKey(),
			BaseURL:  cfg.GetLLMBaseURL(),
			Model:    cfg.GetLLMModel(),
			JSONMode: true,
		}),
	}, log)
	if err != nil {
		log.Warn("positioning agent unavailable, using tiers only", "error", err)
		return nil
	}
	return agent
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
