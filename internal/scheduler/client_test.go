package scheduler

import (
	"context"
	"testing"

	"outreach_backend/platform/apperr"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schedulerConfig struct {
	url   string
	queue string
}

func (c schedulerConfig) GetRedisURL() string         { return c.url }
func (c schedulerConfig) GetRedisTLSInsecure() bool   { return false }
func (c schedulerConfig) GetAsynqQueueName() string   { return c.queue }
func (c schedulerConfig) GetAsynqConcurrency() int    { return 1 }
func (c schedulerConfig) GetCadenceSweepSpec() string { return "@every 1h" }

func TestEnqueueBulkEnrichment_RejectsDuplicateBatch(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(schedulerConfig{url: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	tenant := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	taskID, err := client.EnqueueBulkEnrichment(ctx, tenant, ids)
	require.NoError(t, err)
	assert.NotEmpty(t, taskID)

	_, err = client.EnqueueBulkEnrichment(ctx, tenant, ids)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "got %v", err)

	_, err = client.EnqueueBulkEnrichment(ctx, uuid.New(), ids)
	assert.NoError(t, err, "another tenant's batch is not a duplicate")
}

func TestEnqueueBulkEnrichment_EmptyBatch(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(schedulerConfig{url: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	_, err = client.EnqueueBulkEnrichment(context.Background(), uuid.New(), nil)
	assert.Error(t, err)
}

func TestQueueNameDefaults(t *testing.T) {
	assert.Equal(t, "default", queueName(schedulerConfig{}))
	assert.Equal(t, "enrichment", queueName(schedulerConfig{queue: "enrichment"}))
}

func TestNewClient_RequiresRedisURL(t *testing.T) {
	_, err := NewClient(schedulerConfig{})
	assert.Error(t, err)
}
