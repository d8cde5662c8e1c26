// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	GetDatabaseMaxConns() int
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RedisConfig provides the Redis connection used by the payload cache.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetCadenceSweepSpec() string
}

// EnrichmentConfig provides settings for the Apollo enrichment provider.
type EnrichmentConfig interface {
	GetApolloAPIKey() string
	GetApolloBaseURL() string
	GetEnrichmentPayloadTTL() time.Duration
	IsApolloEnabled() bool
}

// LLMConfig provides settings for the OpenAI-compatible chat model.
type LLMConfig interface {
	GetLLMAPIKey() string
	GetLLMBaseURL() string
	GetLLMModel() string
	IsLLMEnabled() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketExports() string
	IsMinIOEnabled() bool
}

// SMTPConfig provides settings for outbound email.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsSMTPEnabled() bool
}

// PhoneConfig provides the default region used to parse phone numbers.
type PhoneConfig interface {
	GetPhoneDefaultRegion() string
}

// CadenceConfig provides settings for follow-up reminders.
type CadenceConfig interface {
	GetReminderDigestRecipients() map[uuid.UUID]string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	LogLevel             string
	HTTPAddr             string
	DatabaseURL          string
	DatabaseMaxConns     int
	MigrationsDir        string
	JWTAccessSecret      string
	CORSAllowAll         bool
	CORSOrigins          []string
	CORSAllowCreds       bool
	RedisURL             string
	RedisTLSInsecure     bool
	AsynqQueueName       string
	AsynqConcurrency     int
	CadenceSweepSpec     string
	ApolloAPIKey         string
	ApolloBaseURL        string
	EnrichmentPayloadTTL time.Duration
	LLMAPIKey            string
	LLMBaseURL           string
	LLMModel             string
	MinIOEndpoint        string
	MinIOAccessKey       string
	MinIOSecretKey       string
	MinIOUseSSL          bool
	MinioBucketExports   string
	SMTPHost             string
	SMTPPort             int
	SMTPUsername         string
	SMTPPassword         string
	EmailFromName        string
	EmailFromAddress     string
	PhoneDefaultRegion   string

	// ReminderDigestRecipients maps a tenant to its digest recipient.
	ReminderDigestRecipients map[uuid.UUID]string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string  { return c.DatabaseURL }
func (c *Config) GetDatabaseMaxConns() int { return c.DatabaseMaxConns }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// RedisConfig / SchedulerConfig implementation
func (c *Config) GetRedisURL() string         { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool   { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string   { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int    { return c.AsynqConcurrency }
func (c *Config) GetCadenceSweepSpec() string { return c.CadenceSweepSpec }

// EnrichmentConfig implementation
func (c *Config) GetApolloAPIKey() string                 { return c.ApolloAPIKey }
func (c *Config) GetApolloBaseURL() string                { return c.ApolloBaseURL }
func (c *Config) GetEnrichmentPayloadTTL() time.Duration { return c.EnrichmentPayloadTTL }
func (c *Config) IsApolloEnabled() bool                   { return c.ApolloAPIKey != "" }

// LLMConfig implementation
func (c *Config) GetLLMAPIKey() string  { return c.LLMAPIKey }
func (c *Config) GetLLMBaseURL() string { return c.LLMBaseURL }
func (c *Config) GetLLMModel() string   { return c.LLMModel }
func (c *Config) IsLLMEnabled() bool    { return c.LLMAPIKey != "" }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string      { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string     { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string     { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool          { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketExports() string { return c.MinioBucketExports }
func (c *Config) IsMinIOEnabled() bool          { return c.MinIOEndpoint != "" }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsSMTPEnabled() bool         { return c.SMTPHost != "" && c.EmailFromAddress != "" }

// PhoneConfig implementation
func (c *Config) GetPhoneDefaultRegion() string { return c.PhoneDefaultRegion }

// CadenceConfig implementation
func (c *Config) GetReminderDigestRecipients() map[uuid.UUID]string {
	return c.ReminderDigestRecipients
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", ""),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		DatabaseMaxConns:     mustInt(getEnv("DATABASE_MAX_CONNS", "20")),
		MigrationsDir:        getEnv("MIGRATIONS_DIR", "migrations"),
		JWTAccessSecret:      getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		CORSAllowCreds:       strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:             getEnv("REDIS_URL", ""),
		RedisTLSInsecure:     strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:       getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:     mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		CadenceSweepSpec:     getEnv("CADENCE_SWEEP_SPEC", "@every 1h"),
		ApolloAPIKey:         getEnv("APOLLO_API_KEY", ""),
		ApolloBaseURL:        getEnv("APOLLO_BASE_URL", "https://api.apollo.io"),
		EnrichmentPayloadTTL: mustDuration(getEnv("ENRICHMENT_PAYLOAD_TTL", "1h")),
		LLMAPIKey:            getEnv("LLM_API_KEY", ""),
		LLMBaseURL:           getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMModel:             getEnv("LLM_MODEL", "gpt-4o-mini"),
		MinIOEndpoint:        getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:       getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:       getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:          strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketExports:   getEnv("MINIO_BUCKET_EXPORTS", "contact-exports"),
		SMTPHost:             getEnv("SMTP_HOST", ""),
		SMTPPort:             mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:         getEnv("SMTP_USERNAME", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		EmailFromName:        getEnv("EMAIL_FROM_NAME", "Outreach"),
		EmailFromAddress:     getEnv("EMAIL_FROM_ADDRESS", ""),
		PhoneDefaultRegion:   strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "US")),
	}

	recipients, err := parseDigestRecipients(getEnv("REMINDER_DIGEST_TO", ""))
	if err != nil {
		return nil, err
	}
	cfg.ReminderDigestRecipients = recipients

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.EnrichmentPayloadTTL <= 0 {
		return nil, fmt.Errorf("ENRICHMENT_PAYLOAD_TTL must be a positive duration")
	}
	if cfg.SMTPHost != "" && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when SMTP_HOST is set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

// parseDigestRecipients reads "tenant-uuid=email" pairs separated by
// commas. Digests only go to the recipient of the tenant they describe.
func parseDigestRecipients(value string) (map[uuid.UUID]string, error) {
	recipients := make(map[uuid.UUID]string)
	for _, pair := range splitCSV(value) {
		rawTenant, address, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("REMINDER_DIGEST_TO: expected tenant=email, got %q", pair)
		}
		tenantID, err := uuid.Parse(strings.TrimSpace(rawTenant))
		if err != nil {
			return nil, fmt.Errorf("REMINDER_DIGEST_TO: invalid tenant id %q", rawTenant)
		}
		address = strings.TrimSpace(address)
		if address == "" {
			return nil, fmt.Errorf("REMINDER_DIGEST_TO: empty recipient for tenant %s", tenantID)
		}
		recipients[tenantID] = address
	}
	return recipients, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
