// Package imports provides CSV import and export of contacts.
package imports

import (
	"outreach_backend/internal/adapters/storage"
	"outreach_backend/internal/contacts"
	"outreach_backend/internal/events"
	apphttp "outreach_backend/internal/http"
	"outreach_backend/internal/imports/handler"
	"outreach_backend/internal/imports/service"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"
)

// Module is the import/export module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule wires the importer and exporter. store may be nil, in which
// case exports are streamed.
func NewModule(
	contactsModule *contacts.Module,
	store storage.ExportStore,
	eventBus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	importer := service.NewImporter(contactsModule.Service(), val, eventBus, log)
	exporter := service.NewExporter(contactsModule.Repository(), store, log)
	return &Module{handler: handler.New(importer, exporter, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "imports"
}

// RegisterRoutes mounts import and export routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
