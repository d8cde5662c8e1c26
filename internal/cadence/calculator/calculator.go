// Package calculator computes when a contact should be contacted next.
// Precedence is fixed: opt-out, then a manual override, then contacts that
// were never reached (due immediately), then the tier cadence.
package calculator

import (
	"strings"
	"time"
)

// Tier is the relationship tier of a contact.
type Tier string

const (
	TierCold        Tier = "cold"
	TierWarm        Tier = "warm"
	TierEstablished Tier = "established"
	TierDormant     Tier = "dormant"
)

// Reason explains how the next contact date was chosen.
type Reason string

const (
	ReasonOptedOut       Reason = "opted_out"
	ReasonOverride       Reason = "override"
	ReasonNeverContacted Reason = "never_contacted"
	ReasonCadence        Reason = "cadence"
)

const day = 24 * time.Hour

var offsets = map[Tier]time.Duration{
	TierCold:        7 * day,
	TierWarm:        3 * day,
	TierEstablished: 14 * day,
	TierDormant:     30 * day,
}

// ParseTier maps free text onto a tier. Unknown values are cold.
func ParseTier(value string) Tier {
	t := Tier(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := offsets[t]; ok {
		return t
	}
	return TierCold
}

// Offset is the follow-up interval of a tier.
func (t Tier) Offset() time.Duration {
	if d, ok := offsets[t]; ok {
		return d
	}
	return offsets[TierCold]
}

// Input is the cadence state of one contact.
type Input struct {
	LastContactedAt *time.Time
	Tier            Tier
	OverrideAt      *time.Time
	DoNotContact    bool
}

// Result is the computed follow-up. NextContactAt is nil for opted-out contacts.
type Result struct {
	NextContactAt *time.Time `json:"nextContactAt"`
	Reason        Reason     `json:"reason"`
}

// Calculate returns the next contact date for in as of now.
func Calculate(in Input, now time.Time) Result {
	switch {
	case in.DoNotContact:
		return Result{Reason: ReasonOptedOut}
	case in.OverrideAt != nil:
		at := in.OverrideAt.UTC()
		return Result{NextContactAt: &at, Reason: ReasonOverride}
	case in.LastContactedAt == nil:
		at := now.UTC()
		return Result{NextContactAt: &at, Reason: ReasonNeverContacted}
	default:
		at := in.LastContactedAt.UTC().Add(in.Tier.Offset())
		return Result{NextContactAt: &at, Reason: ReasonCadence}
	}
}

// IsDue reports whether a contact with this next date should be contacted at now.
func IsDue(next *time.Time, now time.Time) bool {
	return next != nil && !next.After(now)
}

// OverdueDays is the number of whole days next lies before now; 0 when not overdue.
func OverdueDays(next *time.Time, now time.Time) int {
	if next == nil || !now.After(*next) {
		return 0
	}
	return int(now.Sub(*next) / day)
}
