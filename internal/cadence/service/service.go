package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"outreach_backend/internal/cadence/calculator"
	"outreach_backend/internal/cadence/transport"
	"outreach_backend/internal/contacts/repository"
	contactsvc "outreach_backend/internal/contacts/service"
	"outreach_backend/internal/email"
	"outreach_backend/internal/events"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultDueLimit = 100
	digestMaxItems  = 25
)

// Repository is the contact storage the cadence service needs.
type Repository interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (repository.Contact, error)
	SetCadence(ctx context.Context, tenantID, id uuid.UUID, c repository.Cadence) (repository.Contact, error)
	ListDue(ctx context.Context, tenantID uuid.UUID, before time.Time, limit int) ([]repository.Contact, error)
	DueCounts(ctx context.Context, before time.Time) ([]repository.TenantDue, error)
}

// Service keeps next_contact_at consistent with the cadence rules.
type Service struct {
	repo       Repository
	sender     email.Sender
	recipients map[uuid.UUID]string
	log        *logger.Logger
	now        func() time.Time
}

// New creates a cadence service. recipients maps each tenant to the address
// that receives its digest; tenants without one, or a nil sender, only get
// their due counts logged.
func New(repo Repository, sender email.Sender, recipients map[uuid.UUID]string, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Service{repo: repo, sender: sender, recipients: recipients, log: log, now: time.Now}
}

// RecordContact marks the contact as reached at `at` (now when zero). Any
// override is cleared since the follow-up it pinned has happened.
func (s *Service) RecordContact(ctx context.Context, tenantID, id uuid.UUID, at time.Time) (repository.Contact, error) {
	c, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return repository.Contact{}, err
	}
	if at.IsZero() {
		at = s.now()
	}
	at = at.UTC()
	c.LastContactedAt = &at
	c.NextContactOverrideAt = nil

	updated, err := s.store(ctx, c)
	if err != nil {
		return repository.Contact{}, err
	}
	s.log.Info("contact reached", "contactId", id, "tenantId", tenantID, "nextContactAt", updated.NextContactAt)
	return updated, nil
}

// SetOverride pins the next contact date; nil removes the pin.
func (s *Service) SetOverride(ctx context.Context, tenantID, id uuid.UUID, at *time.Time) (repository.Contact, error) {
	c, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return repository.Contact{}, err
	}
	if at != nil {
		pinned := at.UTC()
		at = &pinned
	}
	c.NextContactOverrideAt = at
	return s.store(ctx, c)
}

// SetOptOut flags or unflags the contact as do-not-contact.
func (s *Service) SetOptOut(ctx context.Context, tenantID, id uuid.UUID, optOut bool) (repository.Contact, error) {
	c, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return repository.Contact{}, err
	}
	c.DoNotContactAgain = optOut
	updated, err := s.store(ctx, c)
	if err != nil {
		return repository.Contact{}, err
	}
	s.log.Info("contact opt-out changed", "contactId", id, "tenantId", tenantID, "doNotContact", optOut)
	return updated, nil
}

// Recalculate recomputes the stored next contact date.
func (s *Service) Recalculate(ctx context.Context, tenantID, id uuid.UUID) (repository.Contact, error) {
	c, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return repository.Contact{}, err
	}
	return s.store(ctx, c)
}

func (s *Service) store(ctx context.Context, c repository.Contact) (repository.Contact, error) {
	result := calculator.Calculate(calculator.Input{
		LastContactedAt: c.LastContactedAt,
		Tier:            calculator.ParseTier(c.RelationshipTier),
		OverrideAt:      c.NextContactOverrideAt,
		DoNotContact:    c.DoNotContactAgain,
	}, s.now())

	return s.repo.SetCadence(ctx, c.TenantID, c.ID, repository.Cadence{
		LastContactedAt: c.LastContactedAt,
		NextContactAt:   result.NextContactAt,
		OverrideAt:      c.NextContactOverrideAt,
		DoNotContact:    c.DoNotContactAgain,
	})
}

// ListDue returns the tenant's due contacts, most overdue first.
func (s *Service) ListDue(ctx context.Context, tenantID uuid.UUID, limit int) (transport.DueResponse, error) {
	if limit < 1 {
		limit = defaultDueLimit
	}
	now := s.now()
	items, err := s.repo.ListDue(ctx, tenantID, now, limit)
	if err != nil {
		return transport.DueResponse{}, err
	}
	return transport.DueResponse{
		AsOf:  now.UTC(),
		Count: len(items),
		Items: contactsvc.ToResponses(items, now),
	}, nil
}

// Sweep sends one reminder digest per tenant with due contacts, addressed to
// that tenant's own recipient. Without SMTP or a recipient for the tenant the
// due count is only logged. A failed digest is logged and does not stop the
// sweep.
func (s *Service) Sweep(ctx context.Context) (transport.SweepResult, error) {
	now := s.now()
	counts, err := s.repo.DueCounts(ctx, now)
	if err != nil {
		return transport.SweepResult{}, err
	}

	var result transport.SweepResult
	for _, tc := range counts {
		result.Tenants++
		result.Due += tc.Count

		to := strings.TrimSpace(s.recipients[tc.TenantID])
		if !s.sender.Enabled() || to == "" {
			s.log.Info("contacts due for follow-up", "tenantId", tc.TenantID, "due", tc.Count)
			continue
		}

		due, err := s.repo.ListDue(ctx, tc.TenantID, now, digestMaxItems)
		if err != nil {
			return result, fmt.Errorf("list due for digest: %w", err)
		}
		digest := buildDigest(due, tc.Count, now)
		if err := s.sender.SendReminderDigest(ctx, to, digest); err != nil {
			s.log.Error("reminder digest failed", "tenantId", tc.TenantID, "error", err)
			continue
		}
		result.Digests++
	}

	s.log.Info("cadence sweep finished", "tenants", result.Tenants, "due", result.Due, "digests", result.Digests)
	return result, nil
}

// HandleOutreachSent records the contact moment of a delivered message.
func (s *Service) HandleOutreachSent(ctx context.Context, event events.Event) error {
	sent, ok := event.(events.OutreachSent)
	if !ok {
		return nil
	}
	_, err := s.RecordContact(ctx, sent.TenantID, sent.ContactID, sent.SentAt)
	return err
}

// RegisterSubscriptions wires the service to outreach events.
func (s *Service) RegisterSubscriptions(bus events.Bus) {
	bus.Subscribe(events.OutreachSent{}.EventName(), events.HandlerFunc(s.HandleOutreachSent))
}

func buildDigest(due []repository.Contact, total int, now time.Time) email.Digest {
	items := make([]email.DigestItem, 0, len(due))
	for _, c := range due {
		item := email.DigestItem{
			Name:        strings.TrimSpace(c.FirstName + " " + c.LastName),
			OverdueDays: calculator.OverdueDays(c.NextContactAt, now),
		}
		if c.Email != nil {
			item.Email = *c.Email
		}
		if item.Name == "" {
			item.Name = item.Email
		}
		if c.CompanyName != nil {
			item.Company = *c.CompanyName
		}
		if c.ReadinessScore != nil {
			item.Readiness = *c.ReadinessScore
		}
		items = append(items, item)
	}
	remaining := total - len(items)
	if remaining < 0 {
		remaining = 0
	}
	return email.Digest{Items: items, Remaining: remaining}
}
