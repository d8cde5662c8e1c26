// Package logger wraps slog with the handful of structured events the
// service emits (requests, provider calls, rate limiting).
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	TenantIDKey  contextKey = "tenant_id"
)

type Logger struct {
	*slog.Logger
}

// New picks the handler from env: text for "development", JSON otherwise.
// level overrides the default (debug in development, info elsewhere) when
// it parses as a slog level such as "warn" or "DEBUG".
func New(env, level string) *Logger {
	return newWithWriter(os.Stdout, env, level)
}

func newWithWriter(w io.Writer, env, level string) *Logger {
	dev := strings.EqualFold(env, "development")

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if dev {
		opts.Level = slog.LevelDebug
	}
	var parsed slog.Level
	if level != "" && parsed.UnmarshalText([]byte(level)) == nil {
		opts.Level = parsed
	}

	if dev {
		return &Logger{Logger: slog.New(slog.NewTextHandler(w, opts))}
	}
	return &Logger{Logger: slog.New(slog.NewJSONHandler(w, opts))}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithContext attaches request_id and tenant_id when ctx carries them.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}
	var attrs []any
	if v, ok := ctx.Value(RequestIDKey).(string); ok && v != "" {
		attrs = append(attrs, slog.String("request_id", v))
	}
	if v, ok := ctx.Value(TenantIDKey).(string); ok && v != "" {
		attrs = append(attrs, slog.String("tenant_id", v))
	}
	if len(attrs) == 0 {
		return l
	}
	return &Logger{Logger: l.With(attrs...)}
}

func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("client_ip", clientIP),
	)
}

// ProviderCall records one call to Apollo, the LLM or SMTP. Failures are
// warnings because every caller has a fallback.
func (l *Logger) ProviderCall(provider, operation string, latency time.Duration, err error) {
	attrs := []any{
		slog.String("provider", provider),
		slog.String("operation", operation),
		slog.Int64("latency_ms", latency.Milliseconds()),
	}
	if err != nil {
		l.Warn("provider_call", append(attrs, slog.String("error", err.Error()))...)
		return
	}
	l.Debug("provider_call", attrs...)
}

func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
