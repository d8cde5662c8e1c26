package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"outreach_backend/internal/adapters/storage"
	"outreach_backend/internal/cadence"
	"outreach_backend/internal/companies"
	"outreach_backend/internal/contacts"
	"outreach_backend/internal/email"
	"outreach_backend/internal/enrichment"
	"outreach_backend/internal/enrichment/positioning"
	"outreach_backend/internal/events"
	apphttp "outreach_backend/internal/http"
	"outreach_backend/internal/http/router"
	"outreach_backend/internal/imports"
	"outreach_backend/internal/outreach"
	outreachsvc "outreach_backend/internal/outreach/service"
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
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

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
	log.Info("database connection established")

	var applied []int64
	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		versions, err := db.RunMigrations(ctx, pool, cfg.MigrationsDir)
		applied = versions
		return err
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete", "applied", applied)

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
	sender := email.NewSender(cfg)
	if !sender.Enabled() {
		log.Warn("SMTP not configured; outreach sends and reminder digests disabled")
	}
	val := validator.New()

	exportStore := initExportStore(ctx, cfg, log)
	positioningGen, draftGen := initGenerators(cfg, log)

	queue, closeQueue := initQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	companiesModule := companies.NewModule(pool, eventBus, val, log)
	contactsModule := contacts.NewModule(pool, companiesModule.Service(), cfg.GetPhoneDefaultRegion(), val, log)
	enrichmentModule := enrichment.NewModule(rdb, cfg, positioningGen, contactsModule, companiesModule.Service(), eventBus, cfg.GetPhoneDefaultRegion(), val, log)
	if queue != nil {
		enrichmentModule.Service().SetQueue(queue)
	}
	cadenceModule := cadence.NewModule(contactsModule.Repository(), sender, cfg.GetReminderDigestRecipients(), eventBus, val, log)
	importsModule := imports.NewModule(contactsModule, exportStore, eventBus, val, log)
	outreachModule := outreach.NewModule(pool, contactsModule.Repository(), companiesModule.Service(), draftGen, sender, eventBus, val, log)

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolHealth(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			companiesModule,
			contactsModule,
			enrichmentModule,
			cadenceModule,
			importsModule,
			outreachModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initExportStore returns a nil interface when MinIO is off so exports fall
// back to streaming the CSV.
func initExportStore(ctx context.Context, cfg *config.Config, log *logger.Logger) storage.ExportStore {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; exports are streamed")
		return nil
	}
	svc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	if err := withRetry(ctx, log, "ensure exports bucket", 5, 2*time.Second, func() error {
		return svc.EnsureBucketExists(ctx)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketExports())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "exportsBucket", cfg.GetMinioBucketExports())
	return svc
}

// initGenerators builds the positioning and drafting agents. Both are nil
// interfaces when no LLM is configured.
func initGenerators(cfg config.LLMConfig, log *logger.Logger) (textgen.Generator, textgen.Generator) {
	if !cfg.IsLLMEnabled() {
		log.Warn("LLM_API_KEY not configured; positioning uses tiers only and drafts use templates")
		return nil, nil
	}

	positioningModel := openai.NewModel(openai.Config{
		APIKey:   cfg.GetLLMAPIKey(),
		BaseURL:  cfg.GetLLMBaseURL(),
		Model:    cfg.GetLLMModel(),
		JSONMode: true,
	})
	positioningAgent, err := textgen.New(textgen.Config{
		AppName:     "outreach",
		AgentName:   "positioning",
		Description: "Classifies a company's market position and competitors.",
		Instruction: positioning.Instruction,
		Model:       positioningModel,
	}, log)
	if err != nil {
		log.Error("failed to initialize positioning agent", "error", err)
		panic("failed to initialize positioning agent: " + err.Error())
	}

	draftTemperature := 0.7
	draftModel := openai.NewModel(openai.Config{
		APIKey:      cfg.GetLLMAPIKey(),
		BaseURL:     cfg.GetLLMBaseURL(),
		Model:       cfg.GetLLMModel(),
		JSONMode:    true,
		Temperature: &draftTemperature,
	})
	draftAgent, err := textgen.New(textgen.Config{
		AppName:     "outreach",
		AgentName:   "drafter",
		Description: "Writes personalized outreach emails.",
		Instruction: outreachsvc.DraftInstruction,
		Model:       draftModel,
	}, log)
	if err != nil {
		log.Error("failed to initialize drafting agent", "error", err)
		panic("failed to initialize drafting agent: " + err.Error())
	}

	log.Info("llm agents initialized", "model", cfg.GetLLMModel())
	return positioningAgent, draftAgent
}

func initQueue(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; async bulk enrichment disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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

	return fmt.Errorf("%s: %w", name, lastErr)
}
