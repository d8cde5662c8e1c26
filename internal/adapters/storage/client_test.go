package storage

import (
	"strings"
	"testing"
)

func TestObjectKey(t *testing.T) {
	key := objectKey("tenant-1/exports", "contacts.csv")
	if !strings.HasPrefix(key, "tenant-1/exports/contacts_") {
		t.Fatalf("unexpected prefix: %s", key)
	}
	if !strings.HasSuffix(key, ".csv") {
		t.Fatalf("unexpected suffix: %s", key)
	}
	if len(key) != len("tenant-1/exports/contacts_")+8+len(".csv") {
		t.Fatalf("unexpected length: %s", key)
	}
	if objectKey("a", "x.csv") == objectKey("a", "x.csv") {
		t.Fatalf("keys should be unique")
	}
}

func TestObjectKey_StripsDirectoriesFromFileName(t *testing.T) {
	key := objectKey("tenant-1/exports", "../../etc/contacts.csv")
	if !strings.HasPrefix(key, "tenant-1/exports/contacts_") {
		t.Fatalf("unexpected key: %s", key)
	}
}

func TestDisplayName(t *testing.T) {
	cases := map[string]string{
		"tenant/exports/contacts-20260301_1a2b3c4d.csv": "contacts-20260301.csv",
		"tenant/exports/contacts.csv":                   "contacts.csv",
		"tenant/exports/my_file.csv":                    "my_file.csv",
	}
	for key, want := range cases {
		if got := displayName(key); got != want {
			t.Fatalf("displayName(%q) = %q, want %q", key, got, want)
		}
	}
	key := objectKey("t/exports", "contacts.csv")
	if got := displayName(key); got != "contacts.csv" {
		t.Fatalf("round trip gave %q", got)
	}
}

func TestExpiryRule(t *testing.T) {
	cfg := expiryRule()
	if len(cfg.Rules) != 1 || int(cfg.Rules[0].Expiration.Days) != exportRetentionDays {
		t.Fatalf("unexpected lifecycle: %+v", cfg.Rules)
	}
}

func TestAttachmentQuotesFileName(t *testing.T) {
	got := attachment("contacts 2026.csv")
	if got != `attachment; filename="contacts 2026.csv"` {
		t.Fatalf("unexpected disposition %q", got)
	}
}
