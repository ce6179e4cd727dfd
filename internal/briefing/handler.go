package briefing

import (
	"net/http"
	"time"

	"dealdesk_backend/internal/deals"
	"dealdesk_backend/internal/scheduler"
	"dealdesk_backend/platform/apperr"
	"dealdesk_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler serves the daily briefing: deals that have sat without activity
// past the staleness threshold, unless the user dismissed today's briefing.
type Handler struct {
	store     *deals.Store
	dismissal *DismissalStore
	threshold time.Duration
	sweeper   scheduler.SweepScheduler
}

// NewHandler creates the briefing handler.
func NewHandler(store *deals.Store, dismissal *DismissalStore, threshold time.Duration, sweeper scheduler.SweepScheduler) *Handler {
	return &Handler{store: store, dismissal: dismissal, threshold: threshold, sweeper: sweeper}
}

type staleDealView struct {
	DealID         string    `json:"dealId"`
	BuyerID        string    `json:"buyerId"`
	PropertyID     string    `json:"propertyId"`
	Stage          string    `json:"stage"`
	LastActivityAt time.Time `json:"lastActivityAt"`
}

// Get returns today's briefing for the authenticated user.
func (h *Handler) Get(c *gin.Context) {
	userID, ok := httpkit.UserID(c)
	if !ok {
		httpkit.HandleError(c, apperr.Unauthorized("missing user identity"))
		return
	}

	if h.dismissal.IsDismissedToday(c.Request.Context(), userID.String()) {
		httpkit.JSON(c, http.StatusOK, gin.H{"dismissed": true, "staleDeals": []staleDealView{}})
		return
	}

	stale := h.store.Stale(h.threshold)
	views := make([]staleDealView, 0, len(stale))
	for _, deal := range stale {
		views = append(views, staleDealView{
			DealID:         deal.ID,
			BuyerID:        deal.BuyerID,
			PropertyID:     deal.PropertyID,
			Stage:          string(deal.Stage),
			LastActivityAt: deal.LastActivityAt,
		})
	}
	httpkit.JSON(c, http.StatusOK, gin.H{"dismissed": false, "staleDeals": views})
}

// Dismiss suppresses today's briefing for the authenticated user.
func (h *Handler) Dismiss(c *gin.Context) {
	userID, ok := httpkit.UserID(c)
	if !ok {
		httpkit.HandleError(c, apperr.Unauthorized("missing user identity"))
		return
	}

	if err := h.dismissal.DismissToday(c.Request.Context(), userID.String()); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.JSON(c, http.StatusOK, gin.H{"dismissed": true})
}

// Sweep enqueues an out-of-schedule stale-deal sweep.
func (h *Handler) Sweep(c *gin.Context) {
	err := h.sweeper.EnqueueStaleDealSweep(c.Request.Context(), scheduler.StaleDealSweepPayload{})
	if err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindUnavailable, "failed to enqueue sweep", err))
		return
	}
	httpkit.JSON(c, http.StatusAccepted, gin.H{"enqueued": true})
}
