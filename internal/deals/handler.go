package deals

import (
	"net/http"
	"time"

	"dealdesk_backend/internal/deals/activity"
	"dealdesk_backend/internal/pipeline"
	"dealdesk_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler exposes the deal board endpoints.
type Handler struct {
	store      *Store
	controller *Controller
	activity   *activity.Repository
	staleAfter time.Duration
	now        func() time.Time
}

// NewHandler creates the deals handler. activityRepo may be nil.
func NewHandler(store *Store, controller *Controller, activityRepo *activity.Repository, staleAfter time.Duration, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{
		store:      store,
		controller: controller,
		activity:   activityRepo,
		staleAfter: staleAfter,
		now:        now,
	}
}

type dealView struct {
	Deal
	IsStale bool `json:"isStale"`
}

type transitionRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

// List handles GET /api/v1/deals.
func (h *Handler) List(c *gin.Context) {
	now := h.now()
	deals := h.store.List()
	views := make([]dealView, 0, len(deals))
	for _, d := range deals {
		views = append(views, dealView{
			Deal:    d,
			IsStale: !pipeline.IsTerminal(d.Stage) && d.IsStale(now, h.staleAfter),
		})
	}
	httpkit.OK(c, gin.H{"deals": views, "totalCount": len(views)})
}

// Transition handles POST /api/v1/deals/:id/transition.
func (h *Handler) Transition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "from and to stages are required")
		return
	}

	cmd, err := h.controller.RequestTransition(
		c.Request.Context(),
		c.Param("id"),
		pipeline.Stage(req.From),
		pipeline.Stage(req.To),
	)
	if err != nil && cmd == nil {
		httpkit.HandleError(c, err)
		return
	}
	if cmd.Status == TransitionFailed {
		// The snapshot was reverted; tell the client so it can roll back its
		// optimistic render and offer a manual retry.
		httpkit.JSON(c, http.StatusBadGateway, cmd)
		return
	}

	httpkit.OK(c, gin.H{
		"dealId":        cmd.DealID,
		"status":        cmd.Status,
		"newRelationId": cmd.NewRelationID,
		"canUndo":       cmd.CanUndo(),
	})
}

// Undo handles POST /api/v1/deals/:id/undo by replaying the most recent
// applied transition in reverse.
func (h *Handler) Undo(c *gin.Context) {
	cmd, ok := h.controller.LastCommand(c.Param("id"))
	if !ok {
		httpkit.Error(c, http.StatusNotFound, "no transition to undo for this deal")
		return
	}

	undone, err := cmd.Undo(c.Request.Context())
	if err != nil && undone == nil {
		httpkit.HandleError(c, err)
		return
	}
	if undone.Status == TransitionFailed {
		httpkit.JSON(c, http.StatusBadGateway, undone)
		return
	}

	httpkit.OK(c, gin.H{
		"dealId":        undone.DealID,
		"status":        undone.Status,
		"newRelationId": undone.NewRelationID,
	})
}

// Activity handles GET /api/v1/deals/:id/activity.
func (h *Handler) Activity(c *gin.Context) {
	if h.activity == nil {
		httpkit.OK(c, gin.H{"entries": []struct{}{}})
		return
	}

	entries, err := h.activity.ListByDeal(c.Request.Context(), c.Param("id"), 50)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"entries": entries})
}
