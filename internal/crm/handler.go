package crm

import (
	"context"
	"net/http"

	"dealdesk_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// SyncRunner runs one CRM sync pass. Implemented by the service subpackage;
// defined here so the handler does not depend on it.
type SyncRunner interface {
	Sync(ctx context.Context) (ParseStats, error)
}

// Handler exposes the buyer/property directory and the manual sync trigger.
type Handler struct {
	sync      SyncRunner
	directory *Directory
}

// NewHandler creates the CRM handler.
func NewHandler(sync SyncRunner, directory *Directory) *Handler {
	return &Handler{sync: sync, directory: directory}
}

type buyerView struct {
	ContactID         string   `json:"contactId"`
	Name              string   `json:"name"`
	Email             string   `json:"email,omitempty"`
	Phone             string   `json:"phone,omitempty"`
	DesiredBeds       *int     `json:"desiredBeds,omitempty"`
	DesiredBaths      *float64 `json:"desiredBaths,omitempty"`
	DownPayment       *float64 `json:"downPayment,omitempty"`
	PriceMin          *float64 `json:"priceMin,omitempty"`
	PriceMax          *float64 `json:"priceMax,omitempty"`
	PreferredZips     []string `json:"preferredZips,omitempty"`
	PreferredLocation string   `json:"preferredLocation,omitempty"`
}

type propertyView struct {
	ID           string  `json:"id"`
	Code         string  `json:"code,omitempty"`
	Address      string  `json:"address"`
	City         string  `json:"city,omitempty"`
	State        string  `json:"state,omitempty"`
	Zip          string  `json:"zip"`
	Price        float64 `json:"price"`
	Beds         int     `json:"beds"`
	Baths        float64 `json:"baths"`
	Sqft         int     `json:"sqft,omitempty"`
	HeroImageURL string  `json:"heroImageUrl,omitempty"`
}

// Sync triggers a sync pass against the CRM and reports parse stats.
func (h *Handler) Sync(c *gin.Context) {
	stats, err := h.sync.Sync(c.Request.Context())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.JSON(c, http.StatusOK, gin.H{
		"total":   stats.Total,
		"parsed":  stats.Parsed,
		"dropped": stats.Dropped,
	})
}

// ListBuyers returns the buyer directory.
func (h *Handler) ListBuyers(c *gin.Context) {
	buyers := h.directory.Buyers()
	views := make([]buyerView, 0, len(buyers))
	for _, b := range buyers {
		views = append(views, buyerView{
			ContactID:         b.ContactID,
			Name:              b.Name,
			Email:             b.Email,
			Phone:             b.Phone,
			DesiredBeds:       b.DesiredBeds,
			DesiredBaths:      b.DesiredBaths,
			DownPayment:       b.DownPayment,
			PriceMin:          b.PriceMin,
			PriceMax:          b.PriceMax,
			PreferredZips:     b.PreferredZips,
			PreferredLocation: b.PreferredLocation,
		})
	}
	httpkit.JSON(c, http.StatusOK, gin.H{"buyers": views})
}

// ListProperties returns the property directory.
func (h *Handler) ListProperties(c *gin.Context) {
	properties := h.directory.Properties()
	views := make([]propertyView, 0, len(properties))
	for _, p := range properties {
		views = append(views, propertyView{
			ID:           p.ID,
			Code:         p.Code,
			Address:      p.Address,
			City:         p.City,
			State:        p.State,
			Zip:          p.Zip,
			Price:        p.Price,
			Beds:         p.Beds,
			Baths:        p.Baths,
			Sqft:         p.Sqft,
			HeroImageURL: p.HeroImageURL,
		})
	}
	httpkit.JSON(c, http.StatusOK, gin.H{"properties": views})
}
