// Package events holds the domain events exchanged between modules. The bus
// itself lives in platform/events and is re-exported here.
package events

import (
	"time"

	"outreach_backend/platform/events"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Enrichment Domain Events
// =============================================================================

// ContactEnriched is published after an enrichment payload has been scored
// and saved onto a contact.
type ContactEnriched struct {
	BaseEvent
	TenantID     uuid.UUID  `json:"tenantId"`
	ContactID    uuid.UUID  `json:"contactId"`
	CompanyID    *uuid.UUID `json:"companyId,omitempty"`
	Created      bool       `json:"created"`
	Persona      string     `json:"persona"`
	Readiness    int        `json:"readiness"`
	Opportunity  int        `json:"opportunity"`
	ScoreVersion string     `json:"scoreVersion"`
}

func (e ContactEnriched) EventName() string { return "enrichment.contact.enriched" }
func (e ContactEnriched) Tenant() string    { return e.TenantID.String() }

// CompanyResolved is published when enrichment or import created a company
// that did not exist before.
type CompanyResolved struct {
	BaseEvent
	TenantID  uuid.UUID `json:"tenantId"`
	CompanyID uuid.UUID `json:"companyId"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
}

func (e CompanyResolved) EventName() string { return "companies.company.created" }
func (e CompanyResolved) Tenant() string    { return e.TenantID.String() }

// =============================================================================
// Contact Domain Events
// =============================================================================

// ContactsImported is published once a CSV import finished.
type ContactsImported struct {
	BaseEvent
	TenantID uuid.UUID `json:"tenantId"`
	Rows     int       `json:"rows"`
	Created  int       `json:"created"`
	Updated  int       `json:"updated"`
	Skipped  int       `json:"skipped"`
}

func (e ContactsImported) EventName() string { return "contacts.import.completed" }
func (e ContactsImported) Tenant() string    { return e.TenantID.String() }

// =============================================================================
// Outreach Domain Events
// =============================================================================

// OutreachSent is published after an email was delivered to a contact.
type OutreachSent struct {
	BaseEvent
	TenantID   uuid.UUID  `json:"tenantId"`
	ContactID  uuid.UUID  `json:"contactId"`
	TemplateID *uuid.UUID `json:"templateId,omitempty"`
	Channel    string     `json:"channel"`
	Subject    string     `json:"subject"`
	SentAt     time.Time  `json:"sentAt"`
}

func (e OutreachSent) EventName() string { return "outreach.message.sent" }
func (e OutreachSent) Tenant() string    { return e.TenantID.String() }
