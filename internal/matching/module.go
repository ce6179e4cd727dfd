package matching

import (
	"dealdesk_backend/internal/crm"
	apphttp "dealdesk_backend/internal/http"
	"dealdesk_backend/platform/config"
	"dealdesk_backend/platform/logger"
	"dealdesk_backend/platform/metrics"
)

// Module wires the scorer, aggregator, and match routes.
type Module struct {
	aggregator *Aggregator
	handler    *Handler
}

// NewModule builds the matching module, loading weight overrides when
// configured.
func NewModule(cfg config.MatchingConfig, directory *crm.Directory, log *logger.Logger, met *metrics.Metrics) (*Module, error) {
	weights, err := LoadWeights(cfg.GetMatchWeightsFile())
	if err != nil {
		return nil, err
	}

	aggregator := NewAggregator(NewScorer(weights), met, log)
	return &Module{
		aggregator: aggregator,
		handler:    NewHandler(aggregator, directory),
	}, nil
}

// Aggregator exposes the aggregator for non-HTTP callers.
func (m *Module) Aggregator() *Aggregator {
	return m.aggregator
}

func (m *Module) Name() string {
	return "matching"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/matches")
	group.GET("/property/:id", m.handler.BuyersForProperty)
	group.GET("/buyer/:id", m.handler.PropertiesForBuyer)
}

var _ apphttp.Module = (*Module)(nil)
