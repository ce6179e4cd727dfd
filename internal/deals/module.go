package deals

import (
	"time"

	"dealdesk_backend/internal/deals/activity"
	"dealdesk_backend/internal/events"
	apphttp "dealdesk_backend/internal/http"
	"dealdesk_backend/platform/config"
	"dealdesk_backend/platform/logger"
	"dealdesk_backend/platform/metrics"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module wires the deal store, transition controller, and HTTP routes.
type Module struct {
	store      *Store
	controller *Controller
	handler    *Handler
}

// NewModule builds the deals module. pool may be nil when the activity feed
// is disabled (e.g. in the worker binary).
func NewModule(pool *pgxpool.Pool, crm AssociationSyncer, bus events.Bus, cfg config.DealsConfig, log *logger.Logger, met *metrics.Metrics) *Module {
	store := NewStore(time.Now)
	manager := NewTransitionManager(crm, log)

	var activityRepo *activity.Repository
	var recorder ActivityRecorder
	if pool != nil {
		activityRepo = activity.NewRepository(pool)
		recorder = NewActivityRecorder(activityRepo)
	}

	controller := NewController(store, manager, bus, recorder, log, met)
	handler := NewHandler(store, controller, activityRepo, cfg.GetStaleDealThreshold(), time.Now)

	return &Module{
		store:      store,
		controller: controller,
		handler:    handler,
	}
}

// Store exposes the deal snapshot store for the CRM sync pass and the
// stale-deal sweep.
func (m *Module) Store() *Store {
	return m.store
}

// Controller exposes the transition controller for non-HTTP callers.
func (m *Module) Controller() *Controller {
	return m.controller
}

func (m *Module) Name() string {
	return "deals"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/deals")
	group.GET("", m.handler.List)
	group.POST("/:id/transition", m.handler.Transition)
	group.POST("/:id/undo", m.handler.Undo)
	group.GET("/:id/activity", m.handler.Activity)
}

var _ apphttp.Module = (*Module)(nil)
