package matching

import (
	"sort"
	"time"

	"dealdesk_backend/internal/crm"
	"dealdesk_backend/platform/logger"
	"dealdesk_backend/platform/metrics"
)

// Tier thresholds. Pairs scoring below the potential floor are computed but
// never surfaced.
const (
	interestedThreshold = 60
	potentialThreshold  = 30
)

const (
	directionBuyersForProperty  = "buyers_for_property"
	directionPropertiesForBuyer = "properties_for_buyer"
)

// BuyerMatches is one aggregation run of buyers against a property.
type BuyerMatches struct {
	Interested []ScoredBuyer `json:"interested"`
	Potential  []ScoredBuyer `json:"potential"`
	TotalCount int           `json:"totalCount"`
	ElapsedMs  float64       `json:"elapsedMs"`
}

// PropertyMatches is one aggregation run of properties against a buyer.
type PropertyMatches struct {
	Interested []ScoredProperty `json:"interested"`
	Potential  []ScoredProperty `json:"potential"`
	TotalCount int              `json:"totalCount"`
	ElapsedMs  float64          `json:"elapsedMs"`
}

// Aggregator runs the scorer over a candidate set and partitions the
// results into tiers. Aside from timing capture it is pure: candidates are
// never mutated and the output order is deterministic.
type Aggregator struct {
	scorer *Scorer
	met    *metrics.Metrics
	log    *logger.Logger
	now    func() time.Time
}

// NewAggregator creates an aggregator.
func NewAggregator(scorer *Scorer, met *metrics.Metrics, log *logger.Logger) *Aggregator {
	return &Aggregator{scorer: scorer, met: met, log: log, now: time.Now}
}

// BuyersForProperty scores every candidate buyer against the property.
func (a *Aggregator) BuyersForProperty(property crm.Property, buyers []crm.Buyer) BuyerMatches {
	start := a.now()

	result := BuyerMatches{TotalCount: len(buyers)}
	for _, buyer := range buyers {
		score := a.scorer.ScoreProperty(buyer, property)
		switch {
		case score.Value >= interestedThreshold:
			result.Interested = append(result.Interested, ScoredBuyer{Buyer: buyer, Score: score})
		case score.Value >= potentialThreshold:
			result.Potential = append(result.Potential, ScoredBuyer{Buyer: buyer, Score: score})
		}
	}

	// Ties keep candidate order, so the sort must be stable.
	sort.SliceStable(result.Interested, func(i, j int) bool {
		return result.Interested[i].Score.Value > result.Interested[j].Score.Value
	})
	sort.SliceStable(result.Potential, func(i, j int) bool {
		return result.Potential[i].Score.Value > result.Potential[j].Score.Value
	})

	result.ElapsedMs = a.observe(directionBuyersForProperty, start, len(buyers), len(result.Interested), len(result.Potential))
	return result
}

// PropertiesForBuyer scores every candidate property against the buyer.
func (a *Aggregator) PropertiesForBuyer(buyer crm.Buyer, properties []crm.Property) PropertyMatches {
	start := a.now()

	result := PropertyMatches{TotalCount: len(properties)}
	for _, property := range properties {
		score := a.scorer.ScoreProperty(buyer, property)
		switch {
		case score.Value >= interestedThreshold:
			result.Interested = append(result.Interested, ScoredProperty{Property: property, Score: score})
		case score.Value >= potentialThreshold:
			result.Potential = append(result.Potential, ScoredProperty{Property: property, Score: score})
		}
	}

	sort.SliceStable(result.Interested, func(i, j int) bool {
		return result.Interested[i].Score.Value > result.Interested[j].Score.Value
	})
	sort.SliceStable(result.Potential, func(i, j int) bool {
		return result.Potential[i].Score.Value > result.Potential[j].Score.Value
	})

	result.ElapsedMs = a.observe(directionPropertiesForBuyer, start, len(properties), len(result.Interested), len(result.Potential))
	return result
}

func (a *Aggregator) observe(direction string, start time.Time, candidates, interested, potential int) float64 {
	elapsed := a.now().Sub(start)
	elapsedMs := float64(elapsed.Microseconds()) / 1000

	if a.met != nil {
		a.met.MatchDuration.WithLabelValues(direction).Observe(elapsed.Seconds())
		a.met.PairsScored.Add(float64(candidates))
	}
	if a.log != nil {
		a.log.MatchComputed(direction, candidates, interested, potential, elapsedMs)
	}
	return elapsedMs
}
