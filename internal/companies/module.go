// Package companies provides the companies bounded context module.
package companies

import (
	"outreach_backend/internal/companies/handler"
	"outreach_backend/internal/companies/repository"
	"outreach_backend/internal/companies/service"
	"outreach_backend/internal/events"
	apphttp "outreach_backend/internal/http"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the companies bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the companies module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "companies"
}

// Service returns the service layer for company resolution by other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts company routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/companies"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
