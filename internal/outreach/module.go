// Package outreach provides email templates, AI assisted drafts and sending.
package outreach

import (
	companysvc "outreach_backend/internal/companies/service"
	contactrepo "outreach_backend/internal/contacts/repository"
	"outreach_backend/internal/email"
	"outreach_backend/internal/events"
	apphttp "outreach_backend/internal/http"
	"outreach_backend/internal/outreach/handler"
	"outreach_backend/internal/outreach/repository"
	"outreach_backend/internal/outreach/service"
	"outreach_backend/platform/ai/textgen"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the outreach bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the outreach module. gen may be nil.
func NewModule(
	pool *pgxpool.Pool,
	contacts *contactrepo.Repository,
	companies *companysvc.Service,
	gen textgen.Generator,
	sender email.Sender,
	eventBus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	svc := service.New(repository.New(pool), contacts, companies, gen, sender, eventBus, log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "outreach"
}

// Service returns the service layer.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts outreach routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/outreach"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
