package pipeline

import (
	apphttp "dealdesk_backend/internal/http"
)

// Module wires the pipeline stage registry HTTP routes.
type Module struct {
	handler *Handler
}

func NewModule() *Module {
	return &Module{handler: NewHandler()}
}

func (m *Module) Name() string {
	return "pipeline"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/pipeline")
	group.GET("/stages", m.handler.ListStages)
}

var _ apphttp.Module = (*Module)(nil)
