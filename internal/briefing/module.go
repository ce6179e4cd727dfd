package briefing

import (
	"time"

	"dealdesk_backend/internal/deals"
	apphttp "dealdesk_backend/internal/http"
	"dealdesk_backend/internal/scheduler"
	"dealdesk_backend/platform/config"

	"github.com/redis/go-redis/v9"
)

// Module wires the briefing routes over the deal store and redis.
type Module struct {
	handler *Handler
}

// NewModule builds the briefing module. sweeper may be nil when the task
// queue is not configured; the manual sweep route is skipped then.
func NewModule(rdb redis.Cmdable, store *deals.Store, cfg config.DealsConfig, sweeper scheduler.SweepScheduler) *Module {
	dismissal := NewDismissalStore(rdb, time.Now)
	return &Module{
		handler: NewHandler(store, dismissal, cfg.GetStaleDealThreshold(), sweeper),
	}
}

func (m *Module) Name() string {
	return "briefing"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/briefing")
	group.GET("", m.handler.Get)
	group.POST("/dismiss", m.handler.Dismiss)
	if m.handler.sweeper != nil {
		group.POST("/sweep", m.handler.Sweep)
	}
}

var _ apphttp.Module = (*Module)(nil)
