// Package contacts provides the contacts bounded context module.
package contacts

import (
	companysvc "outreach_backend/internal/companies/service"
	"outreach_backend/internal/contacts/handler"
	"outreach_backend/internal/contacts/repository"
	"outreach_backend/internal/contacts/service"
	apphttp "outreach_backend/internal/http"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the contacts bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the contacts module with all its dependencies.
func NewModule(
	pool *pgxpool.Pool,
	companies *companysvc.Service,
	phoneRegion string,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, companies, phoneRegion, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "contacts"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository exposes the contact store to the enrichment, cadence and import modules.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts contact routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/contacts"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
