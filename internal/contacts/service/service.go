package service

import (
	"context"
	"strings"
	"time"

	"outreach_backend/internal/cadence/calculator"
	companysvc "outreach_backend/internal/companies/service"
	"outreach_backend/internal/contacts/repository"
	"outreach_backend/internal/contacts/transport"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/phone"

	"github.com/google/uuid"
)

const msgNoIdentity = "a contact needs an email or a first and last name"

// Repository is the storage the service needs.
type Repository interface {
	Create(ctx context.Context, contact repository.Contact) (repository.Contact, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (repository.Contact, error)
	GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (repository.Contact, error)
	Update(ctx context.Context, update repository.ContactUpdate) (repository.Contact, error)
	SetCadence(ctx context.Context, tenantID, id uuid.UUID, c repository.Cadence) (repository.Contact, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	BulkDelete(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)
	List(ctx context.Context, params repository.ListParams) (repository.ListResult, error)
}

// CompanyResolver finds or creates the employer of a contact.
type CompanyResolver interface {
	Resolve(ctx context.Context, tenantID uuid.UUID, in companysvc.ResolveInput) (companysvc.Resolution, error)
}

// Draft is a contact as supplied by a form or an imported row.
type Draft struct {
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	Title            string
	Department       string
	LinkedInURL      string
	City             string
	Country          string
	Notes            string
	RelationshipTier string
	PipelineStage    string
	CompanyID        *uuid.UUID
	CompanyName      string
	CompanyDomain    string
}

// Service provides business logic for contacts.
type Service struct {
	repo      Repository
	companies CompanyResolver
	region    string
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new contacts service. region is the default phone region.
func New(repo Repository, companies CompanyResolver, region string, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, companies: companies, region: region, log: log, now: time.Now}
}

func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req transport.CreateContactRequest) (transport.ContactResponse, error) {
	contact, err := s.create(ctx, tenantID, draftFromRequest(req))
	if err != nil {
		return transport.ContactResponse{}, err
	}
	return ToResponse(contact, s.now()), nil
}

// Upsert creates the contact or, when one with the same email exists,
// fills in the supplied fields. It reports whether a new contact was created.
func (s *Service) Upsert(ctx context.Context, tenantID uuid.UUID, d Draft) (repository.Contact, bool, error) {
	email := normalizeEmail(d.Email)
	if email == "" {
		c, err := s.create(ctx, tenantID, d)
		return c, err == nil, err
	}

	existing, err := s.repo.GetByEmail(ctx, tenantID, email)
	if apperr.Is(err, apperr.KindNotFound) {
		c, err := s.create(ctx, tenantID, d)
		return c, err == nil, err
	}
	if err != nil {
		return repository.Contact{}, false, err
	}

	companyID, err := s.resolveCompany(ctx, tenantID, d)
	if err != nil {
		return repository.Contact{}, false, err
	}
	update := repository.ContactUpdate{
		ID:          existing.ID,
		TenantID:    tenantID,
		CompanyID:   companyID,
		FirstName:   nonEmpty(d.FirstName),
		LastName:    nonEmpty(d.LastName),
		Phone:       nonEmpty(phone.NormalizeE164(d.Phone, s.region)),
		Title:       nonEmpty(d.Title),
		Department:  nonEmpty(d.Department),
		LinkedInURL: nonEmpty(d.LinkedInURL),
		City:        nonEmpty(d.City),
		Country:     nonEmpty(d.Country),
		Notes:       nonEmpty(d.Notes),
	}
	if tier := strings.TrimSpace(d.RelationshipTier); tier != "" {
		update.RelationshipTier = stringPtr(string(calculator.ParseTier(tier)))
	}
	update.PipelineStage = lowerNonEmpty(d.PipelineStage)

	updated, err := s.repo.Update(ctx, update)
	if err != nil {
		return repository.Contact{}, false, err
	}
	if update.RelationshipTier != nil && *update.RelationshipTier != existing.RelationshipTier {
		if updated, err = s.Recalculate(ctx, updated); err != nil {
			return repository.Contact{}, false, err
		}
	}
	return updated, false, nil
}

func (s *Service) create(ctx context.Context, tenantID uuid.UUID, d Draft) (repository.Contact, error) {
	first := strings.TrimSpace(d.FirstName)
	last := strings.TrimSpace(d.LastName)
	email := normalizeEmail(d.Email)
	if email == "" && (first == "" || last == "") {
		return repository.Contact{}, apperr.Validation(msgNoIdentity)
	}

	companyID, err := s.resolveCompany(ctx, tenantID, d)
	if err != nil {
		return repository.Contact{}, err
	}

	tier := calculator.ParseTier(d.RelationshipTier)
	next := calculator.Calculate(calculator.Input{Tier: tier}, s.now())

	contact := repository.Contact{
		ID:               uuid.New(),
		TenantID:         tenantID,
		CompanyID:        companyID,
		FirstName:        first,
		LastName:         last,
		Email:            nonEmpty(email),
		Phone:            nonEmpty(phone.NormalizeE164(d.Phone, s.region)),
		Title:            nonEmpty(d.Title),
		Department:       nonEmpty(d.Department),
		LinkedInURL:      nonEmpty(d.LinkedInURL),
		City:             nonEmpty(d.City),
		Country:          nonEmpty(d.Country),
		Notes:            nonEmpty(d.Notes),
		RelationshipTier: string(tier),
		PipelineStage:    strings.ToLower(strings.TrimSpace(d.PipelineStage)),
		NextContactAt:    next.NextContactAt,
	}

	created, err := s.repo.Create(ctx, contact)
	if err != nil {
		return repository.Contact{}, err
	}
	s.log.Info("contact created", "contactId", created.ID, "tenantId", tenantID)
	return created, nil
}

func (s *Service) resolveCompany(ctx context.Context, tenantID uuid.UUID, d Draft) (*uuid.UUID, error) {
	if d.CompanyID != nil {
		return d.CompanyID, nil
	}
	if s.companies == nil || (strings.TrimSpace(d.CompanyName) == "" && strings.TrimSpace(d.CompanyDomain) == "") {
		return nil, nil
	}
	res, err := s.companies.Resolve(ctx, tenantID, companysvc.ResolveInput{
		Name:          d.CompanyName,
		PrimaryDomain: d.CompanyDomain,
		Email:         d.Email,
	})
	if err != nil {
		return nil, err
	}
	if res.Company == nil {
		return nil, nil
	}
	return &res.Company.ID, nil
}

func (s *Service) GetByID(ctx context.Context, tenantID, id uuid.UUID) (transport.ContactResponse, error) {
	contact, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.ContactResponse{}, err
	}
	return ToResponse(contact, s.now()), nil
}

func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req transport.UpdateContactRequest) (transport.ContactResponse, error) {
	existing, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.ContactResponse{}, err
	}

	update := repository.ContactUpdate{
		ID:            id,
		TenantID:      tenantID,
		CompanyID:     req.CompanyID,
		FirstName:     trimmedPtr(req.FirstName),
		LastName:      trimmedPtr(req.LastName),
		Title:         trimmedPtr(req.Title),
		Department:    trimmedPtr(req.Department),
		LinkedInURL:   trimmedPtr(req.LinkedInURL),
		City:          trimmedPtr(req.City),
		Country:       trimmedPtr(req.Country),
		Notes:         trimmedPtr(req.Notes),
		PipelineStage: lowerPtr(req.PipelineStage),
	}
	if req.Email != nil {
		if email := normalizeEmail(*req.Email); email != "" {
			update.Email = &email
		} else {
			if !hasFullName(existing, update) {
				return transport.ContactResponse{}, apperr.Validation(msgNoIdentity)
			}
			update.ClearEmail = true
		}
	}
	if req.Phone != nil {
		if normalized := phone.NormalizeE164(*req.Phone, s.region); normalized != "" {
			update.Phone = &normalized
		} else {
			update.ClearPhone = true
		}
	}
	if req.RelationshipTier != nil {
		update.RelationshipTier = stringPtr(string(calculator.ParseTier(*req.RelationshipTier)))
	}

	contact, err := s.repo.Update(ctx, update)
	if err != nil {
		return transport.ContactResponse{}, err
	}

	if update.RelationshipTier != nil && *update.RelationshipTier != existing.RelationshipTier {
		if contact, err = s.Recalculate(ctx, contact); err != nil {
			return transport.ContactResponse{}, err
		}
	}
	return ToResponse(contact, s.now()), nil
}

// Recalculate recomputes and stores the next contact date from the
// contact's current cadence state.
func (s *Service) Recalculate(ctx context.Context, c repository.Contact) (repository.Contact, error) {
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

func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.log.Info("contact deleted", "contactId", id, "tenantId", tenantID)
	return nil
}

// BulkDelete deletes every listed contact. Ids that do not exist (or belong
// to another tenant) are reported as failed items.
func (s *Service) BulkDelete(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (transport.BulkResult, error) {
	unique := dedupe(ids)
	deleted, err := s.repo.BulkDelete(ctx, tenantID, unique)
	if err != nil {
		return transport.BulkResult{}, err
	}

	gone := make(map[uuid.UUID]struct{}, len(deleted))
	for _, id := range deleted {
		gone[id] = struct{}{}
	}
	result := transport.BulkResult{Requested: len(unique), Errors: []transport.BulkItemError{}}
	for _, id := range unique {
		if _, ok := gone[id]; ok {
			result.Succeeded++
			continue
		}
		result.Failed++
		result.Errors = append(result.Errors, transport.BulkItemError{ID: id, Error: "contact not found"})
	}

	s.log.Info("contacts bulk deleted", "tenantId", tenantID, "requested", result.Requested, "deleted", result.Succeeded)
	return result, nil
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req transport.ListContactsRequest) (transport.ListContactsResponse, error) {
	params, err := ListParamsFromRequest(tenantID, req)
	if err != nil {
		return transport.ListContactsResponse{}, err
	}
	result, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.ListContactsResponse{}, err
	}

	return transport.ListContactsResponse{
		Items:      ToResponses(result.Items, s.now()),
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// ListParamsFromRequest converts list query parameters into repository filters.
func ListParamsFromRequest(tenantID uuid.UUID, req transport.ListContactsRequest) (repository.ListParams, error) {
	params := repository.ListParams{
		TenantID:     tenantID,
		Search:       req.Search,
		Stage:        req.Stage,
		Tier:         req.Tier,
		Persona:      req.Persona,
		MinReadiness: req.MinReadiness,
		DueBefore:    req.DueBefore,
		SortBy:       req.SortBy,
		SortOrder:    req.SortOrder,
		Page:         req.Page,
		PageSize:     req.PageSize,
	}
	if req.CompanyID != "" {
		id, err := uuid.Parse(req.CompanyID)
		if err != nil {
			return repository.ListParams{}, apperr.BadRequest("invalid companyId")
		}
		params.CompanyID = &id
	}
	return params, nil
}

func draftFromRequest(req transport.CreateContactRequest) Draft {
	return Draft{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		Phone:            req.Phone,
		Title:            req.Title,
		Department:       req.Department,
		LinkedInURL:      req.LinkedInURL,
		City:             req.City,
		Country:          req.Country,
		Notes:            req.Notes,
		RelationshipTier: req.RelationshipTier,
		PipelineStage:    req.PipelineStage,
		CompanyID:        req.CompanyID,
		CompanyName:      req.CompanyName,
		CompanyDomain:    req.CompanyDomain,
	}
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

// hasFullName reports whether the contact keeps a first and last name after
// update is applied.
func hasFullName(existing repository.Contact, update repository.ContactUpdate) bool {
	first, last := existing.FirstName, existing.LastName
	if update.FirstName != nil {
		first = *update.FirstName
	}
	if update.LastName != nil {
		last = *update.LastName
	}
	return strings.TrimSpace(first) != "" && strings.TrimSpace(last) != ""
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func nonEmpty(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func lowerNonEmpty(value string) *string {
	return nonEmpty(strings.ToLower(value))
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}

func lowerPtr(value *string) *string {
	if value == nil {
		return nil
	}
	lowered := strings.ToLower(strings.TrimSpace(*value))
	return &lowered
}

func stringPtr(value string) *string { return &value }
