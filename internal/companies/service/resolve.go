package service

import (
	"context"
	"strings"

	"outreach_backend/internal/companies/domain"
	"outreach_backend/internal/companies/repository"
	"outreach_backend/internal/events"
	"outreach_backend/platform/apperr"

	"github.com/google/uuid"
)

// ResolveInput carries every hint that can identify a contact's employer.
type ResolveInput struct {
	Name          string
	PrimaryDomain string
	WebsiteURL    string
	Email         string
}

// Resolution is the outcome of Resolve. Company is nil when the input held
// neither a usable domain nor a name.
type Resolution struct {
	Company *repository.Company
	Created bool
}

// Resolve finds or creates the company for the input. A registrable domain
// wins: lookup by domain, then by a same-named company without a domain
// (which gets the domain attached), then creation. Without a domain the
// company is matched by name only.
func (s *Service) Resolve(ctx context.Context, tenantID uuid.UUID, in ResolveInput) (Resolution, error) {
	name := strings.TrimSpace(in.Name)
	d, hasDomain := domain.Resolve(in.PrimaryDomain, in.WebsiteURL, in.Email)

	if hasDomain {
		company, err := s.repo.GetByDomain(ctx, tenantID, d)
		if err == nil {
			return Resolution{Company: &company}, nil
		}
		if !apperr.Is(err, apperr.KindNotFound) {
			return Resolution{}, err
		}

		if name != "" {
			company, err := s.repo.GetByNameWithoutDomain(ctx, tenantID, name)
			if err == nil {
				if err := s.repo.AttachDomain(ctx, tenantID, company.ID, d); err != nil {
					return Resolution{}, err
				}
				company.Domain = &d
				return Resolution{Company: &company}, nil
			}
			if !apperr.Is(err, apperr.KindNotFound) {
				return Resolution{}, err
			}
		} else {
			name = d
		}

		company, created, err := s.repo.CreateOrGetByDomain(ctx, repository.Company{
			ID:       uuid.New(),
			TenantID: tenantID,
			Name:     name,
			Domain:   &d,
		})
		if err != nil {
			return Resolution{}, err
		}
		if created {
			s.publishCreated(ctx, company)
		}
		return Resolution{Company: &company, Created: created}, nil
	}

	if name == "" {
		return Resolution{}, nil
	}

	company, err := s.repo.GetByName(ctx, tenantID, name)
	if err == nil {
		return Resolution{Company: &company}, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return Resolution{}, err
	}

	company, err = s.repo.Create(ctx, repository.Company{ID: uuid.New(), TenantID: tenantID, Name: name})
	if err != nil {
		return Resolution{}, err
	}
	s.publishCreated(ctx, company)
	return Resolution{Company: &company, Created: true}, nil
}

func (s *Service) publishCreated(ctx context.Context, company repository.Company) {
	s.log.Info("company resolved", "companyId", company.ID, "tenantId", company.TenantID, "name", company.Name)
	if s.eventBus == nil {
		return
	}
	var d string
	if company.Domain != nil {
		d = *company.Domain
	}
	s.eventBus.Publish(ctx, events.CompanyResolved{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  company.TenantID,
		CompanyID: company.ID,
		Name:      company.Name,
		Domain:    d,
	})
}
