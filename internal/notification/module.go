// Package notification subscribes to domain events and fans them out as
// in-app rows and operational email. Domain modules publish events and stay
// ignorant of delivery channels.
package notification

import (
	"context"
	"fmt"
	"net/http"

	"dealdesk_backend/internal/crm"
	"dealdesk_backend/internal/deals"
	"dealdesk_backend/internal/email"
	"dealdesk_backend/internal/events"
	apphttp "dealdesk_backend/internal/http"
	"dealdesk_backend/internal/notification/inapp"
	"dealdesk_backend/platform/apperr"
	"dealdesk_backend/platform/httpkit"
	"dealdesk_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Module owns the event subscriptions and the notification feed routes.
type Module struct {
	repo      *inapp.Repository
	sender    email.Sender
	opsEmail  string
	store     *deals.Store
	directory *crm.Directory
	log       *logger.Logger
}

// NewModule builds the notification module. sender may be a NoopSender when
// SMTP is not configured; repo may be nil when no database is attached.
func NewModule(repo *inapp.Repository, sender email.Sender, opsEmail string, store *deals.Store, directory *crm.Directory, log *logger.Logger) *Module {
	return &Module{
		repo:      repo,
		sender:    sender,
		opsEmail:  opsEmail,
		store:     store,
		directory: directory,
		log:       log,
	}
}

// RegisterHandlers subscribes the module to the events it reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.DealStageChanged{}.EventName(), events.HandlerFunc(m.onStageChanged))
	bus.Subscribe(events.DealTransitionFailed{}.EventName(), events.HandlerFunc(m.onTransitionFailed))
	bus.Subscribe(events.StaleDealsDetected{}.EventName(), events.HandlerFunc(m.onStaleDeals))
}

func (m *Module) onStageChanged(ctx context.Context, event events.Event) error {
	e, ok := event.(events.DealStageChanged)
	if !ok {
		return nil
	}

	title := "Deal moved"
	if e.IsUndo {
		title = "Deal move undone"
	}
	content := fmt.Sprintf("%s: %s → %s", m.dealLabel(e.BuyerID, e.PropertyID), e.FromStage, e.ToStage)

	_, err := m.repo.Create(ctx, inapp.CreateParams{
		Title:    title,
		Content:  content,
		DealID:   &e.DealID,
		Category: "pipeline",
	})
	return err
}

func (m *Module) onTransitionFailed(ctx context.Context, event events.Event) error {
	e, ok := event.(events.DealTransitionFailed)
	if !ok {
		return nil
	}

	_, err := m.repo.Create(ctx, inapp.CreateParams{
		Title:    "Stage change failed",
		Content:  fmt.Sprintf("Deal could not move from %s to %s: %s", e.FromStage, e.ToStage, e.Reason),
		DealID:   &e.DealID,
		Category: "error",
	})
	if err != nil {
		return err
	}

	if m.opsEmail == "" {
		return nil
	}
	if err := m.sender.SendTransitionFailureAlert(ctx, m.opsEmail, e.DealID, e.FromStage, e.ToStage, e.Reason); err != nil {
		m.log.Error("transition failure alert email failed", "error", err, "deal_id", e.DealID)
	}
	return nil
}

func (m *Module) onStaleDeals(ctx context.Context, event events.Event) error {
	e, ok := event.(events.StaleDealsDetected)
	if !ok {
		return nil
	}
	if m.opsEmail == "" || len(e.DealIDs) == 0 {
		return nil
	}

	digest := make([]email.StaleDeal, 0, len(e.DealIDs))
	for _, id := range e.DealIDs {
		deal, ok := m.store.Get(id)
		if !ok {
			continue
		}
		entry := email.StaleDeal{
			DealID:         deal.ID,
			Stage:          string(deal.Stage),
			LastActivityAt: deal.LastActivityAt,
		}
		if buyer, ok := m.directory.Buyer(deal.BuyerID); ok {
			entry.BuyerName = buyer.Name
		}
		if property, ok := m.directory.Property(deal.PropertyID); ok {
			entry.PropertyLabel = property.Address
		}
		digest = append(digest, entry)
	}

	return m.sender.SendStaleDealDigest(ctx, m.opsEmail, digest)
}

func (m *Module) dealLabel(buyerID, propertyID string) string {
	buyerName := buyerID
	if buyer, ok := m.directory.Buyer(buyerID); ok {
		buyerName = buyer.Name
	}
	propertyLabel := propertyID
	if property, ok := m.directory.Property(propertyID); ok {
		propertyLabel = property.Address
	}
	return fmt.Sprintf("%s / %s", buyerName, propertyLabel)
}

func (m *Module) Name() string {
	return "notification"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/notifications")
	group.GET("", m.list)
	group.POST("/:id/read", m.markRead)
}

func (m *Module) list(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"
	notifications, err := m.repo.List(c.Request.Context(), unreadOnly, 50)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	if notifications == nil {
		notifications = []inapp.Notification{}
	}
	httpkit.JSON(c, http.StatusOK, gin.H{"notifications": notifications})
}

func (m *Module) markRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid notification id"))
		return
	}
	if err := m.repo.MarkRead(c.Request.Context(), id); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"ok": true})
}

var _ apphttp.Module = (*Module)(nil)
