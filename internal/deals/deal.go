// Package deals manages buyer-property pairings moving through the pipeline:
// the local deal snapshots, the stage transition manager that syncs changes
// to the CRM, and the optimistic update controller with first-class undo.
package deals

import (
	"time"

	"dealdesk_backend/internal/pipeline"
)

// Deal is a tracked buyer-property pairing under pipeline management. The
// CRM remains the system of record; these snapshots exist so the board can
// render, guard, and optimistically update without a round trip.
type Deal struct {
	ID             string         `json:"id"`
	OpportunityID  string         `json:"opportunityId"`
	BuyerID        string         `json:"buyerId"`
	PropertyID     string         `json:"propertyId"`
	Stage          pipeline.Stage `json:"stage"`
	RelationID     string         `json:"relationId,omitempty"`
	LastActivityAt time.Time      `json:"lastActivityAt"`
}

// IsStale reports whether the deal has had no activity within the threshold.
func (d Deal) IsStale(now time.Time, threshold time.Duration) bool {
	if threshold <= 0 {
		return false
	}
	return now.Sub(d.LastActivityAt) > threshold
}
