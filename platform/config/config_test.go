package config

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/outreach")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CORS_ALLOW_ALL", "false")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetEnrichmentPayloadTTL() != time.Hour {
		t.Fatalf("expected 1h payload ttl, got %s", cfg.GetEnrichmentPayloadTTL())
	}
	if cfg.IsApolloEnabled() || cfg.IsLLMEnabled() || cfg.IsMinIOEnabled() || cfg.IsSMTPEnabled() {
		t.Fatalf("optional integrations should be disabled without credentials")
	}
	if cfg.GetPhoneDefaultRegion() != "US" {
		t.Fatalf("expected default phone region US, got %q", cfg.GetPhoneDefaultRegion())
	}
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing DATABASE_URL")
	}
}

func TestLoad_RejectsWildcardWithCredentials(t *testing.T) {
	setRequired(t)
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for wildcard origins with credentials")
	}
}

func TestLoad_SMTPNeedsSender(t *testing.T) {
	setRequired(t)
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("EMAIL_FROM_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when SMTP host is set without a from address")
	}
}

func TestLoad_DigestRecipientsPerTenant(t *testing.T) {
	setRequired(t)
	tenantA, tenantB := uuid.New(), uuid.New()
	t.Setenv("REMINDER_DIGEST_TO", tenantA.String()+"=a@example.com, "+tenantB.String()+" = b@example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := cfg.GetReminderDigestRecipients()
	if len(got) != 2 || got[tenantA] != "a@example.com" || got[tenantB] != "b@example.com" {
		t.Fatalf("unexpected recipients: %v", got)
	}
}

func TestLoad_RejectsMalformedDigestRecipients(t *testing.T) {
	for _, value := range []string{"owner@example.com", "not-a-uuid=a@example.com", uuid.NewString() + "="} {
		setRequired(t)
		t.Setenv("REMINDER_DIGEST_TO", value)
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for REMINDER_DIGEST_TO=%q", value)
		}
	}
}
