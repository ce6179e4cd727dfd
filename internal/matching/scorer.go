package matching

import (
	"fmt"

	"dealdesk_backend/internal/crm"
	"dealdesk_backend/internal/geo"
)

// BudgetBand classifies the buyer's purchasing power against one property.
type BudgetBand string

const (
	BudgetStrong  BudgetBand = "strong"
	BudgetGood    BudgetBand = "good"
	BudgetLimited BudgetBand = "limited"
	// BudgetUnknown means the buyer carries neither a down payment nor a
	// price range; the budget term is omitted rather than penalized.
	BudgetUnknown BudgetBand = ""
)

// Score is the ephemeral result of matching one buyer against one property.
// It is recomputed on every match request and never persisted.
type Score struct {
	Value          float64    `json:"value"`
	IsPriority     bool       `json:"isPriority"`
	DistanceMiles  *float64   `json:"distanceMiles,omitempty"`
	BudgetBand     BudgetBand `json:"budgetBand,omitempty"`
	LocationReason string     `json:"locationReason,omitempty"`
}

// ScoredBuyer pairs a buyer with its score against a fixed property.
type ScoredBuyer struct {
	Buyer crm.Buyer `json:"buyer"`
	Score Score     `json:"score"`
}

// ScoredProperty pairs a property with its score against a fixed buyer.
type ScoredProperty struct {
	Property crm.Property `json:"property"`
	Score    Score        `json:"score"`
}

// Scorer computes match scores. It is a pure function of its inputs: no
// mutation, no error path. Missing optional fields drop their bonus term
// instead of failing the pair.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer with the given weights.
func NewScorer(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

// ScoreProperty scores one (buyer, property) pair.
func (s *Scorer) ScoreProperty(buyer crm.Buyer, property crm.Property) Score {
	var score Score
	var value float64

	if buyer.PrefersZip(property.Zip) {
		score.IsPriority = true
		value += s.weights.ZipMatch
	}

	score.BudgetBand = s.budgetBand(buyer, property.Price)
	switch score.BudgetBand {
	case BudgetStrong:
		value += s.weights.BudgetStrong
	case BudgetGood:
		value += s.weights.BudgetGood
	case BudgetLimited:
		value += s.weights.BudgetLimited
	}

	value += s.bedsBonus(buyer.DesiredBeds, property.Beds)
	value += s.bathsBonus(buyer.DesiredBaths, property.Baths)

	buyerZip := ""
	if len(buyer.PreferredZips) > 0 {
		buyerZip = buyer.PreferredZips[0]
	}
	score.DistanceMiles = geo.DistanceBetween(buyer.Coordinates, property.Coordinates, buyerZip, property.Zip)
	if score.DistanceMiles != nil {
		value += s.distanceBonus(*score.DistanceMiles)
	}

	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	score.Value = value
	score.LocationReason = s.locationReason(score, property)

	return score
}

// budgetBand compares the buyer's down payment against the price; buyers
// without one fall back to their price-range midpoint as a capacity proxy.
func (s *Scorer) budgetBand(buyer crm.Buyer, price float64) BudgetBand {
	if price <= 0 {
		return BudgetUnknown
	}

	if buyer.DownPayment != nil && *buyer.DownPayment > 0 {
		ratio := *buyer.DownPayment / price
		switch {
		case ratio >= 0.20:
			return BudgetStrong
		case ratio >= 0.10:
			return BudgetGood
		default:
			return BudgetLimited
		}
	}

	midpoint := buyer.BudgetMidpoint()
	if midpoint == nil {
		return BudgetUnknown
	}
	switch {
	case price <= *midpoint:
		return BudgetStrong
	case buyer.PriceMax != nil && price <= *buyer.PriceMax:
		return BudgetGood
	default:
		return BudgetLimited
	}
}

func (s *Scorer) bedsBonus(desired *int, actual int) float64 {
	if desired == nil || actual <= 0 {
		return 0
	}
	switch {
	case actual >= *desired:
		return s.weights.BedsFull
	case actual == *desired-1:
		return s.weights.BedsPartial
	default:
		return 0
	}
}

func (s *Scorer) bathsBonus(desired *float64, actual float64) float64 {
	if desired == nil || actual <= 0 {
		return 0
	}
	switch {
	case actual >= *desired:
		return s.weights.BathsFull
	case actual >= *desired-1:
		return s.weights.BathsPartial
	default:
		return 0
	}
}

// distanceBonus decays linearly from the max at zero miles to nothing at
// the configured range.
func (s *Scorer) distanceBonus(miles float64) float64 {
	if miles >= s.weights.DistanceRangeMiles {
		return 0
	}
	return s.weights.DistanceMax * (1 - miles/s.weights.DistanceRangeMiles)
}

// locationReason names the dominant contributing factor for UI display.
func (s *Scorer) locationReason(score Score, property crm.Property) string {
	if score.IsPriority {
		return fmt.Sprintf("In preferred zip %s", property.Zip)
	}
	if score.BudgetBand == BudgetStrong {
		return "Strong buying power at this price"
	}
	if score.DistanceMiles != nil && *score.DistanceMiles < s.weights.DistanceRangeMiles {
		return fmt.Sprintf("About %.0f miles from preferred area", *score.DistanceMiles)
	}
	return ""
}
