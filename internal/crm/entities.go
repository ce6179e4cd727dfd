// Package crm is the boundary to the GoHighLevel CRM. Raw opportunity and
// contact payloads are converted here, once, into the typed entities the
// rest of the system consumes; loosely-typed custom fields never travel
// further inward.
package crm

import (
	"strings"

	"dealdesk_backend/internal/geo"
)

// Buyer is a purchase-side contact with derived preference data. Created
// and updated in the CRM; read-only here.
type Buyer struct {
	ContactID         string           `json:"contactId"`
	Name              string           `json:"name"`
	Email             string           `json:"email"`
	Phone             string           `json:"phone,omitempty"`
	DesiredBeds       *int             `json:"desiredBeds,omitempty"`
	DesiredBaths      *float64         `json:"desiredBaths,omitempty"`
	DownPayment       *float64         `json:"downPayment,omitempty"`
	PriceMin          *float64         `json:"priceMin,omitempty"`
	PriceMax          *float64         `json:"priceMax,omitempty"`
	PreferredZips     []string         `json:"preferredZips,omitempty"`
	PreferredLocation string           `json:"preferredLocation,omitempty"`
	Coordinates       *geo.Coordinates `json:"coordinates,omitempty"`
}

// PrefersZip reports whether the zip is in the buyer's preferred set.
// Order of the preferred set is irrelevant.
func (b Buyer) PrefersZip(zip string) bool {
	zip = strings.TrimSpace(zip)
	if zip == "" {
		return false
	}
	for _, z := range b.PreferredZips {
		if strings.TrimSpace(z) == zip {
			return true
		}
	}
	return false
}

// BudgetMidpoint returns the midpoint of the buyer's price range when both
// bounds are present.
func (b Buyer) BudgetMidpoint() *float64 {
	if b.PriceMin == nil || b.PriceMax == nil {
		return nil
	}
	mid := (*b.PriceMin + *b.PriceMax) / 2
	return &mid
}

// Property is a listed home. Read-only to this service.
type Property struct {
	ID           string           `json:"id"`
	Code         string           `json:"code,omitempty"`
	Address      string           `json:"address"`
	City         string           `json:"city"`
	State        string           `json:"state"`
	Zip          string           `json:"zip"`
	Price        float64          `json:"price"`
	Beds         int              `json:"beds"`
	Baths        float64          `json:"baths"`
	Sqft         int              `json:"sqft,omitempty"`
	HeroImageURL string           `json:"heroImageUrl,omitempty"`
	Coordinates  *geo.Coordinates `json:"coordinates,omitempty"`
}
