package crm

import (
	apphttp "dealdesk_backend/internal/http"
)

// Module wires the CRM directory and sync endpoints. The sync service and
// API client are constructed in main and injected, since other modules
// share them.
type Module struct {
	handler *Handler
}

// NewModule builds the CRM module.
func NewModule(sync SyncRunner, directory *Directory) *Module {
	return &Module{handler: NewHandler(sync, directory)}
}

func (m *Module) Name() string {
	return "crm"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/crm")
	group.POST("/sync", m.handler.Sync)
	group.GET("/buyers", m.handler.ListBuyers)
	group.GET("/properties", m.handler.ListProperties)
}

var _ apphttp.Module = (*Module)(nil)
