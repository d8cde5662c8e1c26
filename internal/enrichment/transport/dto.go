package transport

import (
	"time"

	companytransport "outreach_backend/internal/companies/transport"
	contacttransport "outreach_backend/internal/contacts/transport"
	"outreach_backend/internal/enrichment/payload"
	"outreach_backend/internal/enrichment/positioning"
	"outreach_backend/internal/enrichment/scoring"

	"github.com/google/uuid"
)

// LookupRequest identifies a person by email, LinkedIn URL, or first and
// last name together with a company domain.
type LookupRequest struct {
	Email       string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	LinkedInURL string `json:"linkedinUrl,omitempty" validate:"omitempty,url,max=500"`
	FirstName   string `json:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName    string `json:"lastName,omitempty" validate:"omitempty,max=100"`
	Domain      string `json:"domain,omitempty" validate:"omitempty,max=255"`
}

type IngestRequest struct {
	Payload payload.Payload `json:"payload"`
}

type SaveRequest struct {
	ContactID        *uuid.UUID `json:"contactId,omitempty"`
	RelationshipTier string     `json:"relationshipTier,omitempty" validate:"omitempty,relationship_tier"`
}

type BulkEnrichRequest struct {
	ContactIDs []uuid.UUID `json:"contactIds" validate:"required,min=1,max=200,dive,required"`
	Async      bool        `json:"async"`
}

// PreviewResponse is what a payload would produce if saved. Positioning
// holds deterministic tiers only.
type PreviewResponse struct {
	Payload     payload.Payload    `json:"payload"`
	Scores      scoring.Result     `json:"scores"`
	Positioning positioning.Result `json:"positioning"`
}

type TokenResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Preview   PreviewResponse `json:"preview"`
}

type SaveResponse struct {
	Created     bool                              `json:"created"`
	Contact     contacttransport.ContactResponse  `json:"contact"`
	Company     *companytransport.CompanyResponse `json:"company,omitempty"`
	Scores      scoring.Result                    `json:"scores"`
	Positioning *positioning.Result               `json:"positioning,omitempty"`
}

type BulkEnqueuedResponse struct {
	TaskID    string `json:"taskId"`
	Requested int    `json:"requested"`
}

// RescoreAllRequest drives the admin batch rescore.
type RescoreAllRequest struct {
	BatchSize int  `json:"batchSize" validate:"omitempty,min=1,max=1000"`
	Force     bool `json:"force"`
}

// RescoreStats summarizes a batch rescore.
type RescoreStats struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Failed    int `json:"failed"`
}
