// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"dealdesk_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Deal Pipeline Events
// =============================================================================

// DealStageChanged is published after a stage transition has been confirmed
// by the CRM. Undo transitions publish it too, with the directions swapped.
type DealStageChanged struct {
	BaseEvent
	DealID     string `json:"dealId"`
	BuyerID    string `json:"buyerId"`
	PropertyID string `json:"propertyId"`
	FromStage  string `json:"fromStage"`
	ToStage    string `json:"toStage"`
	RelationID string `json:"relationId"`
	IsUndo     bool   `json:"isUndo"`
}

func (e DealStageChanged) EventName() string { return "deals.stage.changed" }

// DealTransitionFailed is published when a transition's remote calls failed
// and the deal was left at its prior stage.
type DealTransitionFailed struct {
	BaseEvent
	DealID    string `json:"dealId"`
	FromStage string `json:"fromStage"`
	ToStage   string `json:"toStage"`
	Reason    string `json:"reason"`
}

func (e DealTransitionFailed) EventName() string { return "deals.transition.failed" }

// StaleDealsDetected is published by the nightly sweep when deals have had no
// activity past the staleness threshold.
type StaleDealsDetected struct {
	BaseEvent
	DealIDs   []string  `json:"dealIds"`
	Threshold string    `json:"threshold"`
	SweptAt   time.Time `json:"sweptAt"`
}

func (e StaleDealsDetected) EventName() string { return "deals.stale.detected" }

// OpportunitiesSynced is published after a CRM sync pass has refreshed the
// local deal snapshots.
type OpportunitiesSynced struct {
	BaseEvent
	Total   int `json:"total"`
	Parsed  int `json:"parsed"`
	Dropped int `json:"dropped"`
}

func (e OpportunitiesSynced) EventName() string { return "crm.opportunities.synced" }
