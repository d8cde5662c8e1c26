package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestWithContext_AttachesRequestAndTenant(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, "production", "")

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, TenantIDKey, "tenant-1")
	log.WithContext(ctx).Info("hello")

	entry := lastLine(t, &buf)
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "tenant-1", entry["tenant_id"])
}

func TestProviderCall_LevelsByOutcome(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, "production", "")

	log.ProviderCall("apollo", "people.match", 120*time.Millisecond, nil)
	assert.Zero(t, buf.Len(), "successful calls log at debug")

	log.ProviderCall("apollo", "people.match", 3*time.Second, errors.New("status 503"))
	entry := lastLine(t, &buf)
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "apollo", entry["provider"])
	assert.Equal(t, "status 503", entry["error"])
	assert.EqualValues(t, 3000, entry["latency_ms"])
}

func TestNew_LevelOverride(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, "production", "debug")
	log.Debug("visible")
	assert.Contains(t, buf.String(), "visible")

	buf.Reset()
	log = newWithWriter(&buf, "production", "not-a-level")
	log.Debug("hidden")
	assert.Zero(t, buf.Len())
}
