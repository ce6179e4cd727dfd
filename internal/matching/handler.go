package matching

import (
	"net/http"

	"dealdesk_backend/internal/crm"
	"dealdesk_backend/platform/apperr"
	"dealdesk_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler serves match views over the CRM directory.
type Handler struct {
	aggregator *Aggregator
	directory  *crm.Directory
}

// NewHandler creates the matching handler.
func NewHandler(aggregator *Aggregator, directory *crm.Directory) *Handler {
	return &Handler{aggregator: aggregator, directory: directory}
}

// BuyersForProperty returns tiered buyer matches for one property.
func (h *Handler) BuyersForProperty(c *gin.Context) {
	property, ok := h.directory.Property(c.Param("id"))
	if !ok {
		httpkit.HandleError(c, apperr.NotFound("property not found"))
		return
	}
	result := h.aggregator.BuyersForProperty(property, h.directory.Buyers())
	httpkit.JSON(c, http.StatusOK, result)
}

// PropertiesForBuyer returns tiered property matches for one buyer.
func (h *Handler) PropertiesForBuyer(c *gin.Context) {
	buyer, ok := h.directory.Buyer(c.Param("id"))
	if !ok {
		httpkit.HandleError(c, apperr.NotFound("buyer not found"))
		return
	}
	result := h.aggregator.PropertiesForBuyer(buyer, h.directory.Properties())
	httpkit.JSON(c, http.StatusOK, result)
}
