// Package cadence provides follow-up scheduling for contacts: the next
// contact date, due lists and the periodic reminder sweep.
package cadence

import (
	"outreach_backend/internal/cadence/handler"
	"outreach_backend/internal/cadence/service"
	contactrepo "outreach_backend/internal/contacts/repository"
	"outreach_backend/internal/email"
	"outreach_backend/internal/events"
	apphttp "outreach_backend/internal/http"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"

	"github.com/google/uuid"
)

// Module is the cadence bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the cadence module and subscribes it to outreach events.
func NewModule(
	repo *contactrepo.Repository,
	sender email.Sender,
	digestRecipients map[uuid.UUID]string,
	eventBus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	svc := service.New(repo, sender, digestRecipients, log)
	if eventBus != nil {
		svc.RegisterSubscriptions(eventBus)
	}
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "cadence"
}

// Service returns the service layer for the scheduler.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts cadence routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/cadence"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
