// Package service orchestrates enrichment: provider lookup, the payload
// cache, scoring, positioning and persistence onto contacts and companies.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"outreach_backend/internal/cadence/calculator"
	companydomain "outreach_backend/internal/companies/domain"
	companyrepo "outreach_backend/internal/companies/repository"
	companysvc "outreach_backend/internal/companies/service"
	contactrepo "outreach_backend/internal/contacts/repository"
	contactsvc "outreach_backend/internal/contacts/service"
	contacttransport "outreach_backend/internal/contacts/transport"
	"outreach_backend/internal/enrichment/client"
	"outreach_backend/internal/enrichment/payload"
	"outreach_backend/internal/enrichment/positioning"
	"outreach_backend/internal/enrichment/scoring"
	"outreach_backend/internal/enrichment/store"
	"outreach_backend/internal/enrichment/transport"
	"outreach_backend/internal/events"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/phone"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	bulkParallelism     = 4
	msgNotConfigured    = "enrichment provider not configured"
	msgLookupIdentity   = "provide an email, a LinkedIn URL, or first name, last name and domain"
	msgNoStoredPayload  = "contact has no enrichment payload"
	msgQueueUnavailable = "background jobs are not configured"
)

// PayloadStore is the token keyed payload cache.
type PayloadStore interface {
	Put(ctx context.Context, tenantID uuid.UUID, p payload.Payload) (store.Token, error)
	Get(ctx context.Context, tenantID uuid.UUID, token string) (*payload.Payload, error)
	Consume(ctx context.Context, tenantID uuid.UUID, token string) (*payload.Payload, error)
	Restore(ctx context.Context, tenantID uuid.UUID, token string, p payload.Payload) error
}

// Matcher looks a person up at the enrichment provider.
type Matcher interface {
	MatchPerson(ctx context.Context, req client.MatchRequest) (*payload.Payload, error)
}

// Positioner classifies a company. It never fails.
type Positioner interface {
	Infer(ctx context.Context, in positioning.Input) positioning.Result
}

// ContactStore is the contact persistence enrichment writes to.
type ContactStore interface {
	Create(ctx context.Context, contact contactrepo.Contact) (contactrepo.Contact, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (contactrepo.Contact, error)
	GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (contactrepo.Contact, error)
	Update(ctx context.Context, update contactrepo.ContactUpdate) (contactrepo.Contact, error)
	ApplyEnrichment(ctx context.Context, tenantID, id uuid.UUID, e contactrepo.Enrichment) (contactrepo.Contact, error)
	UpdateScores(ctx context.Context, tenantID, id uuid.UUID, s contactrepo.Scores) error
	ListWithPayload(ctx context.Context, after *contactrepo.Cursor, limit int) ([]contactrepo.Contact, error)
}

// CadenceRecalculator recomputes the next contact date after a tier change.
type CadenceRecalculator interface {
	Recalculate(ctx context.Context, c contactrepo.Contact) (contactrepo.Contact, error)
}

// CompanyService resolves employers and stores company enrichment.
type CompanyService interface {
	Resolve(ctx context.Context, tenantID uuid.UUID, in companysvc.ResolveInput) (companysvc.Resolution, error)
	ApplyEnrichment(ctx context.Context, tenantID, id uuid.UUID, e companyrepo.Enrichment) (companyrepo.Company, error)
}

// BulkEnqueuer schedules bulk enrichment in the background.
type BulkEnqueuer interface {
	EnqueueBulkEnrichment(ctx context.Context, tenantID uuid.UUID, contactIDs []uuid.UUID) (string, error)
}

// Deps groups the collaborators of the service. Matcher and Queue may be nil.
type Deps struct {
	Store       PayloadStore
	Matcher     Matcher
	Positioner  Positioner
	Contacts    ContactStore
	Cadence     CadenceRecalculator
	Companies   CompanyService
	Queue       BulkEnqueuer
	EventBus    events.Bus
	PhoneRegion string
	Log         *logger.Logger
}

// Service provides enrichment operations.
type Service struct {
	store      PayloadStore
	matcher    Matcher
	positioner Positioner
	contacts   ContactStore
	cadence    CadenceRecalculator
	companies  CompanyService
	queue      BulkEnqueuer
	eventBus   events.Bus
	region     string
	log        *logger.Logger
	now        func() time.Time
}

// New creates the enrichment service.
func New(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:      d.Store,
		matcher:    d.Matcher,
		positioner: d.Positioner,
		contacts:   d.Contacts,
		cadence:    d.Cadence,
		companies:  d.Companies,
		queue:      d.Queue,
		eventBus:   d.EventBus,
		region:     d.PhoneRegion,
		log:        log,
		now:        time.Now,
	}
}

// SetQueue attaches the background enqueuer once the scheduler client exists.
func (s *Service) SetQueue(q BulkEnqueuer) {
	s.queue = q
}

// Lookup fetches a person from the provider, caches the normalized payload
// and returns a token with a score preview. Nothing is persisted.
func (s *Service) Lookup(ctx context.Context, tenantID uuid.UUID, req transport.LookupRequest) (transport.TokenResponse, error) {
	if s.matcher == nil {
		return transport.TokenResponse{}, apperr.Validation(msgNotConfigured)
	}
	hasName := strings.TrimSpace(req.FirstName) != "" && strings.TrimSpace(req.LastName) != "" && strings.TrimSpace(req.Domain) != ""
	if strings.TrimSpace(req.Email) == "" && strings.TrimSpace(req.LinkedInURL) == "" && !hasName {
		return transport.TokenResponse{}, apperr.Validation(msgLookupIdentity)
	}

	p, err := s.matcher.MatchPerson(ctx, client.MatchRequest{
		Email:       req.Email,
		LinkedInURL: req.LinkedInURL,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Domain:      req.Domain,
	})
	if err != nil {
		return transport.TokenResponse{}, err
	}
	return s.cache(ctx, tenantID, *p)
}

// Ingest caches a caller supplied payload, for example from a webhook or a
// client side fetch.
func (s *Service) Ingest(ctx context.Context, tenantID uuid.UUID, p payload.Payload) (transport.TokenResponse, error) {
	return s.cache(ctx, tenantID, p)
}

func (s *Service) cache(ctx context.Context, tenantID uuid.UUID, p payload.Payload) (transport.TokenResponse, error) {
	p.Normalize(s.now())
	if err := p.Validate(); err != nil {
		return transport.TokenResponse{}, apperr.Validation(err.Error())
	}

	token, err := s.store.Put(ctx, tenantID, p)
	if err != nil {
		return transport.TokenResponse{}, err
	}
	s.log.WithContext(ctx).Info("enrichment payload cached", "tenantId", tenantID, "source", p.Source)
	return transport.TokenResponse{
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
		Preview:   preview(p),
	}, nil
}

// Preview reads a cached payload without consuming it.
func (s *Service) Preview(ctx context.Context, tenantID uuid.UUID, token string) (transport.PreviewResponse, error) {
	p, err := s.store.Get(ctx, tenantID, token)
	if err != nil {
		return transport.PreviewResponse{}, err
	}
	return preview(*p), nil
}

func preview(p payload.Payload) transport.PreviewResponse {
	in := positioningInput(p.Organization)
	return transport.PreviewResponse{
		Payload:     p,
		Scores:      scoring.Score(p),
		Positioning: positioning.Fallback(in),
	}
}

// Save consumes the token and persists the payload. When persistence fails
// the payload is put back so the caller can retry with the same token, even
// if the failure was the caller going away.
func (s *Service) Save(ctx context.Context, tenantID uuid.UUID, token string, req transport.SaveRequest) (transport.SaveResponse, error) {
	p, err := s.store.Consume(ctx, tenantID, token)
	if err != nil {
		return transport.SaveResponse{}, err
	}

	resp, err := s.persist(ctx, tenantID, *p, req.ContactID, req.RelationshipTier)
	if err != nil {
		if restoreErr := s.store.Restore(context.WithoutCancel(ctx), tenantID, token, *p); restoreErr != nil {
			s.log.WithContext(ctx).Error("restore enrichment token failed", "error", restoreErr)
		}
		return transport.SaveResponse{}, err
	}
	return resp, nil
}

func (s *Service) persist(ctx context.Context, tenantID uuid.UUID, p payload.Payload, contactID *uuid.UUID, tier string) (transport.SaveResponse, error) {
	result := scoring.Score(p)
	resp := transport.SaveResponse{Scores: result}

	var companyID *uuid.UUID
	org := p.Organization
	var orgName, orgDomain, orgWebsite string
	if org != nil {
		orgName, orgDomain, orgWebsite = org.Name, org.PrimaryDomain, org.WebsiteURL
	}
	res, err := s.companies.Resolve(ctx, tenantID, companysvc.ResolveInput{
		Name:          orgName,
		PrimaryDomain: orgDomain,
		WebsiteURL:    orgWebsite,
		Email:         p.Person.Email,
	})
	if err != nil {
		return transport.SaveResponse{}, err
	}
	if res.Company != nil {
		companyID = &res.Company.ID
		company := *res.Company
		if org != nil && result.Company != nil {
			pos := s.positioner.Infer(ctx, positioningInput(org))
			resp.Positioning = &pos
			company, err = s.companies.ApplyEnrichment(ctx, tenantID, company.ID, companyEnrichment(*org, *result.Company, pos, p.FetchedAt))
			if err != nil {
				return transport.SaveResponse{}, err
			}
		}
		mapped := companysvc.ToResponse(company)
		resp.Company = &mapped
	}

	contact, created, err := s.targetContact(ctx, tenantID, p, contactID, tier, companyID)
	if err != nil {
		return transport.SaveResponse{}, err
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return transport.SaveResponse{}, fmt.Errorf("encode payload: %w", err)
	}
	person := p.Person
	contact, err = s.contacts.ApplyEnrichment(ctx, tenantID, contact.ID, contactrepo.Enrichment{
		CompanyID:   companyID,
		FirstName:   person.FirstName,
		LastName:    person.LastName,
		Email:       nonEmpty(person.Email),
		Phone:       nonEmpty(phone.NormalizeE164(person.Phone, s.region)),
		Title:       nonEmpty(person.Title),
		LinkedInURL: nonEmpty(person.LinkedInURL),
		City:        nonEmpty(person.City),
		Country:     nonEmpty(person.Country),
		Scores:      contactScores(result),
		Payload:     raw,
		EnrichedAt:  s.now().UTC(),
	})
	if err != nil {
		return transport.SaveResponse{}, err
	}

	resp.Created = created
	resp.Contact = contactsvc.ToResponse(contact, s.now())

	s.log.WithContext(ctx).Info("contact enriched",
		"contactId", contact.ID,
		"tenantId", tenantID,
		"created", created,
		"persona", result.Contact.Persona,
		"readiness", result.Contact.Readiness,
	)
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.ContactEnriched{
			BaseEvent:    events.NewBaseEvent(),
			TenantID:     tenantID,
			ContactID:    contact.ID,
			CompanyID:    companyID,
			Created:      created,
			Persona:      string(result.Contact.Persona),
			Readiness:    result.Contact.Readiness,
			Opportunity:  result.Contact.Opportunity,
			ScoreVersion: result.Version,
		})
	}
	return resp, nil
}

// targetContact picks the contact a payload is saved onto: the explicit id,
// else the contact with the payload's email, else a new contact.
func (s *Service) targetContact(ctx context.Context, tenantID uuid.UUID, p payload.Payload, contactID *uuid.UUID, tier string, companyID *uuid.UUID) (contactrepo.Contact, bool, error) {
	var (
		contact contactrepo.Contact
		err     error
	)
	switch {
	case contactID != nil:
		contact, err = s.contacts.GetByID(ctx, tenantID, *contactID)
	case p.Person.Email != "":
		contact, err = s.contacts.GetByEmail(ctx, tenantID, p.Person.Email)
		if apperr.Is(err, apperr.KindNotFound) {
			return s.createContact(ctx, tenantID, p, tier, companyID)
		}
	default:
		return s.createContact(ctx, tenantID, p, tier, companyID)
	}
	if err != nil {
		return contactrepo.Contact{}, false, err
	}

	if tier = strings.TrimSpace(tier); tier != "" {
		parsed := string(calculator.ParseTier(tier))
		if parsed != contact.RelationshipTier {
			contact, err = s.contacts.Update(ctx, contactrepo.ContactUpdate{ID: contact.ID, TenantID: tenantID, RelationshipTier: &parsed})
			if err != nil {
				return contactrepo.Contact{}, false, err
			}
			if s.cadence != nil {
				if contact, err = s.cadence.Recalculate(ctx, contact); err != nil {
					return contactrepo.Contact{}, false, err
				}
			}
		}
	}
	return contact, false, nil
}

func (s *Service) createContact(ctx context.Context, tenantID uuid.UUID, p payload.Payload, tier string, companyID *uuid.UUID) (contactrepo.Contact, bool, error) {
	parsed := calculator.ParseTier(tier)
	next := calculator.Calculate(calculator.Input{Tier: parsed}, s.now())
	contact, err := s.contacts.Create(ctx, contactrepo.Contact{
		ID:               uuid.New(),
		TenantID:         tenantID,
		CompanyID:        companyID,
		FirstName:        p.Person.FirstName,
		LastName:         p.Person.LastName,
		Email:            nonEmpty(p.Person.Email),
		LinkedInURL:      nonEmpty(p.Person.LinkedInURL),
		RelationshipTier: string(parsed),
		NextContactAt:    next.NextContactAt,
	})
	if err != nil {
		return contactrepo.Contact{}, false, err
	}
	return contact, true, nil
}

// EnrichContact looks up an existing contact at the provider and saves the
// result onto it directly, without a token round trip.
func (s *Service) EnrichContact(ctx context.Context, tenantID, contactID uuid.UUID) (transport.SaveResponse, error) {
	if s.matcher == nil {
		return transport.SaveResponse{}, apperr.Validation(msgNotConfigured)
	}
	contact, err := s.contacts.GetByID(ctx, tenantID, contactID)
	if err != nil {
		return transport.SaveResponse{}, err
	}

	req := client.MatchRequest{FirstName: contact.FirstName, LastName: contact.LastName}
	if contact.Email != nil {
		req.Email = *contact.Email
		if d, ok := companydomain.FromEmail(*contact.Email); ok {
			req.Domain = d
		}
	}
	if contact.LinkedInURL != nil {
		req.LinkedInURL = *contact.LinkedInURL
	}
	if req.Email == "" && req.LinkedInURL == "" {
		return transport.SaveResponse{}, apperr.Validation("contact has no email or LinkedIn URL to match on")
	}

	p, err := s.matcher.MatchPerson(ctx, req)
	if err != nil {
		return transport.SaveResponse{}, err
	}
	p.Normalize(s.now())
	return s.persist(ctx, tenantID, *p, &contact.ID, "")
}

// BulkEnrich enriches every contact with bounded parallelism. A failing
// contact never aborts the others; nothing is rolled back.
func (s *Service) BulkEnrich(ctx context.Context, tenantID uuid.UUID, contactIDs []uuid.UUID) (contacttransport.BulkResult, error) {
	ids := dedupe(contactIDs)
	result := contacttransport.BulkResult{Requested: len(ids), Errors: []contacttransport.BulkItemError{}}
	if s.matcher == nil {
		return result, apperr.Validation(msgNotConfigured)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkParallelism)
	for _, id := range ids {
		g.Go(func() error {
			_, err := s.EnrichContact(gctx, tenantID, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, contacttransport.BulkItemError{ID: id, Error: bulkErrorMessage(err)})
				return nil
			}
			result.Succeeded++
			return nil
		})
	}
	_ = g.Wait()

	s.log.WithContext(ctx).Info("bulk enrichment finished",
		"tenantId", tenantID,
		"requested", result.Requested,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	return result, ctx.Err()
}

// EnqueueBulkEnrich hands bulk enrichment to the background worker.
func (s *Service) EnqueueBulkEnrich(ctx context.Context, tenantID uuid.UUID, contactIDs []uuid.UUID) (transport.BulkEnqueuedResponse, error) {
	if s.matcher == nil {
		return transport.BulkEnqueuedResponse{}, apperr.Validation(msgNotConfigured)
	}
	if s.queue == nil {
		return transport.BulkEnqueuedResponse{}, apperr.Validation(msgQueueUnavailable)
	}
	ids := dedupe(contactIDs)
	taskID, err := s.queue.EnqueueBulkEnrichment(ctx, tenantID, ids)
	if err != nil {
		return transport.BulkEnqueuedResponse{}, err
	}
	return transport.BulkEnqueuedResponse{TaskID: taskID, Requested: len(ids)}, nil
}

// Rescore recomputes a contact's scores from its stored payload.
func (s *Service) Rescore(ctx context.Context, tenantID, contactID uuid.UUID) (contacttransport.ContactResponse, error) {
	contact, err := s.contacts.GetByID(ctx, tenantID, contactID)
	if err != nil {
		return contacttransport.ContactResponse{}, err
	}
	if err := s.rescore(ctx, contact); err != nil {
		return contacttransport.ContactResponse{}, err
	}
	contact, err = s.contacts.GetByID(ctx, tenantID, contactID)
	if err != nil {
		return contacttransport.ContactResponse{}, err
	}
	return contactsvc.ToResponse(contact, s.now()), nil
}

func (s *Service) rescore(ctx context.Context, contact contactrepo.Contact) error {
	if len(contact.EnrichmentPayload) == 0 {
		return apperr.Validation(msgNoStoredPayload)
	}
	var p payload.Payload
	if err := json.Unmarshal(contact.EnrichmentPayload, &p); err != nil {
		return fmt.Errorf("decode stored payload: %w", err)
	}
	return s.contacts.UpdateScores(ctx, contact.TenantID, contact.ID, contactScores(scoring.Score(p)))
}

// RescoreAll walks every contact with a stored payload in keyset order and
// rewrites its scores. Contacts already on the current score version are
// skipped unless force is set.
func (s *Service) RescoreAll(ctx context.Context, batchSize int, force bool) (transport.RescoreStats, error) {
	if batchSize < 1 {
		batchSize = 200
	}
	var stats transport.RescoreStats
	var cursor *contactrepo.Cursor
	for {
		batch, err := s.contacts.ListWithPayload(ctx, cursor, batchSize)
		if err != nil {
			return stats, err
		}
		for _, c := range batch {
			stats.Processed++
			if !force && c.ScoreVersion != nil && *c.ScoreVersion == scoring.Version {
				continue
			}
			if err := s.rescore(ctx, c); err != nil {
				stats.Failed++
				s.log.Warn("rescore failed", "contactId", c.ID, "error", err)
				continue
			}
			stats.Updated++
		}
		if len(batch) < batchSize {
			return stats, nil
		}
		last := batch[len(batch)-1]
		cursor = &contactrepo.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
}

func positioningInput(org *payload.Organization) positioning.Input {
	if org == nil {
		return positioning.Input{}
	}
	return positioning.Input{
		Name:          org.Name,
		Industry:      org.Industry,
		AnnualRevenue: org.AnnualRevenue,
		Headcount:     org.EstimatedEmployees,
	}
}

func companyEnrichment(org payload.Organization, scores scoring.CompanyScores, pos positioning.Result, fetchedAt time.Time) companyrepo.Enrichment {
	return companyrepo.Enrichment{
		WebsiteURL:          nonEmpty(org.WebsiteURL),
		Industry:            nonEmpty(org.Industry),
		Headcount:           org.EstimatedEmployees,
		AnnualRevenue:       org.AnnualRevenue,
		TotalFunding:        org.TotalFunding,
		LatestFundingStage:  nonEmpty(org.LatestFundingStage),
		LatestFundingAt:     org.LatestFundingAt,
		FoundedYear:         org.FoundedYear,
		PublicTicker:        nonEmpty(org.PublicTicker),
		HealthScore:         scores.Health,
		GrowthScore:         scores.Growth,
		StabilityScore:      scores.Stability,
		MarketPositionScore: scores.MarketPosition,
		ReadinessScore:      scores.Readiness,
		PositioningCategory: nonEmpty(pos.Category),
		PositioningIndustry: nonEmpty(pos.Industry),
		PositioningLabel:    nonEmpty(pos.Label),
		Competitors:         pos.Competitors,
		RevenueTier:         pos.RevenueTier,
		HeadcountTier:       pos.HeadcountTier,
		PositioningSource:   pos.Source,
		EnrichedAt:          fetchedAt.UTC(),
	}
}

func contactScores(r scoring.Result) contactrepo.Scores {
	c := r.Contact
	return contactrepo.Scores{
		Seniority:       c.Seniority,
		BuyingPower:     c.BuyingPower,
		Urgency:         c.Urgency,
		RolePower:       c.RolePower,
		CareerMomentum:  c.CareerMomentum,
		CareerStability: c.CareerStability,
		BuyerLikelihood: c.BuyerLikelihood,
		Readiness:       c.Readiness,
		Opportunity:     c.Opportunity,
		Persona:         string(c.Persona),
		Department:      string(c.Department),
		SeniorityLabel:  c.SeniorityLabel,
		Version:         r.Version,
	}
}

func bulkErrorMessage(err error) string {
	if e, ok := apperr.As(err); ok && e.Kind != apperr.KindInternal && e.Kind != apperr.KindUnknown {
		return e.Message
	}
	return "enrichment failed"
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func nonEmpty(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
