package transport

import (
	"time"

	contacttransport "outreach_backend/internal/contacts/transport"
)

type RecordContactRequest struct {
	At *time.Time `json:"at,omitempty"`
}

// OverrideRequest pins the next contact date. A null date clears the override.
type OverrideRequest struct {
	At *time.Time `json:"at"`
}

type OptOutRequest struct {
	DoNotContact *bool `json:"doNotContact" validate:"required"`
}

type DueRequest struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=500"`
}

type DueResponse struct {
	AsOf  time.Time                          `json:"asOf"`
	Count int                                `json:"count"`
	Items []contacttransport.ContactResponse `json:"items"`
}

// SweepResult summarizes one periodic reminder run.
type SweepResult struct {
	Tenants int `json:"tenants"`
	Due     int `json:"due"`
	Digests int `json:"digests"`
}
