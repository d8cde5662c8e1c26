package service

import (
	"context"
	"strings"

	"outreach_backend/internal/companies/domain"
	"outreach_backend/internal/companies/repository"
	"outreach_backend/internal/companies/transport"
	"outreach_backend/internal/events"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
)

// Repository is the storage the service needs.
type Repository interface {
	Create(ctx context.Context, company repository.Company) (repository.Company, error)
	CreateOrGetByDomain(ctx context.Context, company repository.Company) (repository.Company, bool, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (repository.Company, error)
	GetByDomain(ctx context.Context, tenantID uuid.UUID, domain string) (repository.Company, error)
	GetByNameWithoutDomain(ctx context.Context, tenantID uuid.UUID, name string) (repository.Company, error)
	GetByName(ctx context.Context, tenantID uuid.UUID, name string) (repository.Company, error)
	AttachDomain(ctx context.Context, tenantID, id uuid.UUID, domain string) error
	Update(ctx context.Context, update repository.CompanyUpdate) (repository.Company, error)
	ApplyEnrichment(ctx context.Context, tenantID, id uuid.UUID, e repository.Enrichment) (repository.Company, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, params repository.ListParams) (repository.ListResult, error)
	ListContacts(ctx context.Context, tenantID, companyID uuid.UUID) ([]repository.CompanyContact, error)
}

// Service provides business logic for companies.
type Service struct {
	repo     Repository
	eventBus events.Bus
	log      *logger.Logger
}

// New creates a new companies service.
func New(repo Repository, eventBus events.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, eventBus: eventBus, log: log}
}

func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req transport.CreateCompanyRequest) (transport.CompanyResponse, error) {
	company := repository.Company{
		ID:            uuid.New(),
		TenantID:      tenantID,
		Name:          strings.TrimSpace(req.Name),
		WebsiteURL:    optional(req.WebsiteURL),
		Industry:      optional(req.Industry),
		Headcount:     req.Headcount,
		AnnualRevenue: req.AnnualRevenue,
	}
	if d, ok := domain.Resolve(req.Domain, req.WebsiteURL, ""); ok {
		company.Domain = &d
	} else if strings.TrimSpace(req.Domain) != "" {
		return transport.CompanyResponse{}, apperr.Validation("domain is not a registrable domain")
	}

	created, err := s.repo.Create(ctx, company)
	if err != nil {
		return transport.CompanyResponse{}, err
	}
	s.log.Info("company created", "companyId", created.ID, "tenantId", tenantID)
	return ToResponse(created), nil
}

func (s *Service) GetByID(ctx context.Context, tenantID, id uuid.UUID) (transport.CompanyResponse, error) {
	company, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.CompanyResponse{}, err
	}
	return ToResponse(company), nil
}

func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req transport.UpdateCompanyRequest) (transport.CompanyResponse, error) {
	update := repository.CompanyUpdate{
		ID:            id,
		TenantID:      tenantID,
		Name:          trimmedPtr(req.Name),
		WebsiteURL:    trimmedPtr(req.WebsiteURL),
		Industry:      trimmedPtr(req.Industry),
		Headcount:     req.Headcount,
		AnnualRevenue: req.AnnualRevenue,
	}
	if req.Domain != nil {
		d, ok := domain.Normalize(*req.Domain)
		if !ok {
			return transport.CompanyResponse{}, apperr.Validation("domain is not a registrable domain")
		}
		update.Domain = &d
	}

	company, err := s.repo.Update(ctx, update)
	if err != nil {
		return transport.CompanyResponse{}, err
	}
	return ToResponse(company), nil
}

func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.log.Info("company deleted", "companyId", id, "tenantId", tenantID)
	return nil
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req transport.ListCompaniesRequest) (transport.ListCompaniesResponse, error) {
	result, err := s.repo.List(ctx, repository.ListParams{
		TenantID:  tenantID,
		Search:    req.Search,
		Industry:  req.Industry,
		Tier:      req.Tier,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
	if err != nil {
		return transport.ListCompaniesResponse{}, err
	}

	items := make([]transport.CompanyResponse, 0, len(result.Items))
	for _, company := range result.Items {
		items = append(items, ToResponse(company))
	}

	return transport.ListCompaniesResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

func (s *Service) ListContacts(ctx context.Context, tenantID, companyID uuid.UUID) ([]transport.CompanyContactResponse, error) {
	if _, err := s.repo.GetByID(ctx, tenantID, companyID); err != nil {
		return nil, err
	}
	contacts, err := s.repo.ListContacts(ctx, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.CompanyContactResponse, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, transport.CompanyContactResponse{
			ID:        c.ID,
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Email:     c.Email,
			Title:     c.Title,
			Persona:   c.Persona,
			Readiness: c.ReadinessScore,
		})
	}
	return out, nil
}

// ApplyEnrichment stores the firmographics, scores and positioning of an
// enrichment save on the company.
func (s *Service) ApplyEnrichment(ctx context.Context, tenantID, id uuid.UUID, e repository.Enrichment) (repository.Company, error) {
	return s.repo.ApplyEnrichment(ctx, tenantID, id, e)
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
