package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"outreach_backend/platform/apperr"
	"outreach_backend/platform/cache"
	"outreach_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	bulkEnrichmentTimeout = 30 * time.Minute
	bulkEnrichmentRetries = 2
	// An identical tenant+contacts request is rejected while one is pending.
	bulkEnrichmentUniqueTTL = 10 * time.Minute
)

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueBulkEnrichment schedules enrichment of contactIDs and returns the
// task id. Resubmitting the same batch while it is queued is a Conflict.
func (c *Client) EnqueueBulkEnrichment(ctx context.Context, tenantID uuid.UUID, contactIDs []uuid.UUID) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("scheduler client not configured")
	}

	task, err := NewBulkEnrichmentTask(BulkEnrichmentPayload{TenantID: tenantID, ContactIDs: contactIDs})
	if err != nil {
		return "", err
	}

	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(bulkEnrichmentRetries),
		asynq.Timeout(bulkEnrichmentTimeout),
		asynq.Unique(bulkEnrichmentUniqueTTL),
	)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return "", apperr.Conflict("an identical bulk enrichment is already queued")
	}
	if err != nil {
		return "", fmt.Errorf("enqueue bulk enrichment: %w", err)
	}
	return info.ID, nil
}

func redisClientOpt(cfg config.RedisConfig) (asynq.RedisClientOpt, error) {
	opt, err := cache.ParseOptions(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}

func queueName(cfg config.SchedulerConfig) string {
	if q := cfg.GetAsynqQueueName(); q != "" {
		return q
	}
	return "default"
}
