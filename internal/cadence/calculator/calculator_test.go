package calculator

import (
	"testing"
	"time"
)

var now = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func TestCalculatePrecedence(t *testing.T) {
	last := now.Add(-48 * time.Hour)
	override := now.Add(72 * time.Hour)

	tests := []struct {
		name   string
		in     Input
		want   *time.Time
		reason Reason
	}{
		{
			name:   "opt-out beats everything",
			in:     Input{LastContactedAt: &last, Tier: TierWarm, OverrideAt: &override, DoNotContact: true},
			want:   nil,
			reason: ReasonOptedOut,
		},
		{
			name:   "override beats cadence",
			in:     Input{LastContactedAt: &last, Tier: TierWarm, OverrideAt: &override},
			want:   ptr(override),
			reason: ReasonOverride,
		},
		{
			name:   "override beats never contacted",
			in:     Input{Tier: TierCold, OverrideAt: &override},
			want:   ptr(override),
			reason: ReasonOverride,
		},
		{
			name:   "never contacted is due now",
			in:     Input{Tier: TierDormant},
			want:   ptr(now),
			reason: ReasonNeverContacted,
		},
		{
			name:   "warm cadence",
			in:     Input{LastContactedAt: &last, Tier: TierWarm},
			want:   ptr(last.Add(3 * 24 * time.Hour)),
			reason: ReasonCadence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.in, now)
			if got.Reason != tt.reason {
				t.Fatalf("reason = %s, want %s", got.Reason, tt.reason)
			}
			switch {
			case tt.want == nil && got.NextContactAt != nil:
				t.Fatalf("expected no date, got %v", got.NextContactAt)
			case tt.want != nil && (got.NextContactAt == nil || !got.NextContactAt.Equal(*tt.want)):
				t.Fatalf("next = %v, want %v", got.NextContactAt, tt.want)
			}
		})
	}
}

func TestTierOffsets(t *testing.T) {
	last := now
	tests := map[string]int{
		"cold":        7,
		"warm":        3,
		"established": 14,
		"dormant":     30,
		"Warm ":       3,
		"unknown":     7,
		"":            7,
	}
	for raw, days := range tests {
		got := Calculate(Input{LastContactedAt: &last, Tier: ParseTier(raw)}, now)
		want := last.Add(time.Duration(days) * 24 * time.Hour)
		if !got.NextContactAt.Equal(want) {
			t.Fatalf("tier %q: next = %v, want %v", raw, got.NextContactAt, want)
		}
	}
}

func TestUnparsedTierFallsBackToCold(t *testing.T) {
	last := now
	got := Calculate(Input{LastContactedAt: &last, Tier: Tier("vip")}, now)
	if !got.NextContactAt.Equal(last.Add(7 * 24 * time.Hour)) {
		t.Fatalf("unexpected next %v", got.NextContactAt)
	}
}

func TestIsDueAndOverdue(t *testing.T) {
	past := now.Add(-50 * time.Hour)
	future := now.Add(time.Hour)

	if !IsDue(&past, now) || !IsDue(ptr(now), now) {
		t.Fatal("past and present dates are due")
	}
	if IsDue(&future, now) || IsDue(nil, now) {
		t.Fatal("future and missing dates are not due")
	}
	if d := OverdueDays(&past, now); d != 2 {
		t.Fatalf("overdue days = %d, want 2", d)
	}
	if d := OverdueDays(&future, now); d != 0 {
		t.Fatalf("overdue days = %d, want 0", d)
	}
}
