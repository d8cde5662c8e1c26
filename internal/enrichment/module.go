// Package enrichment provides the enrichment bounded context module:
// provider lookups, the payload cache, scoring and company positioning.
package enrichment

import (
	companysvc "outreach_backend/internal/companies/service"
	"outreach_backend/internal/contacts"
	"outreach_backend/internal/enrichment/client"
	"outreach_backend/internal/enrichment/handler"
	"outreach_backend/internal/enrichment/positioning"
	"outreach_backend/internal/enrichment/service"
	"outreach_backend/internal/enrichment/store"
	"outreach_backend/internal/events"
	apphttp "outreach_backend/internal/http"
	"outreach_backend/platform/ai/textgen"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"

	"github.com/redis/go-redis/v9"
)

// Module is the enrichment bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the enrichment service. gen may be nil when no LLM is
// configured; positioning then returns tiers only.
func NewModule(
	rdb redis.Cmdable,
	cfg config.EnrichmentConfig,
	gen textgen.Generator,
	contactsModule *contacts.Module,
	companies *companysvc.Service,
	eventBus events.Bus,
	phoneRegion string,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	var matcher service.Matcher
	if cfg.IsApolloEnabled() {
		matcher = client.New(cfg.GetApolloBaseURL(), cfg.GetApolloAPIKey(), log)
	} else {
		log.Warn("APOLLO_API_KEY not set, enrichment lookups disabled")
	}

	svc := service.New(service.Deps{
		Store:       store.New(rdb, cfg.GetEnrichmentPayloadTTL()),
		Matcher:     matcher,
		Positioner:  positioning.NewInferrer(gen, log),
		Contacts:    contactsModule.Repository(),
		Cadence:     contactsModule.Service(),
		Companies:   companies,
		EventBus:    eventBus,
		PhoneRegion: phoneRegion,
		Log:         log,
	})
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "enrichment"
}

// Service returns the service layer for the scheduler and CLI.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts enrichment routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/enrichment"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/enrichment"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
