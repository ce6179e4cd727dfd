package deals

import (
	"context"
	"sync"

	"dealdesk_backend/internal/events"
	"dealdesk_backend/internal/pipeline"
	"dealdesk_backend/platform/apperr"
	"dealdesk_backend/platform/logger"
	"dealdesk_backend/platform/metrics"
)

// TransitionStatus describes the outcome of a transition request.
type TransitionStatus string

const (
	// TransitionApplied means the CRM confirmed the change and the snapshot
	// was committed.
	TransitionApplied TransitionStatus = "applied"
	// TransitionNoOp means from == to; nothing was sent to the CRM.
	TransitionNoOp TransitionStatus = "noop"
	// TransitionFailed means a remote call failed and the snapshot was
	// reverted to its pre-transition state.
	TransitionFailed TransitionStatus = "failed"
)

// TransitionCommand is the value object returned for every transition
// request. A successful forward command exposes Undo as a first-class,
// re-invokable operation: undo is just another transition in the reverse
// direction, using the relation id the forward transition produced.
type TransitionCommand struct {
	DealID        string           `json:"dealId"`
	From          pipeline.Stage   `json:"from"`
	To            pipeline.Stage   `json:"to"`
	Status        TransitionStatus `json:"status"`
	NewRelationID string           `json:"newRelationId,omitempty"`
	Error         string           `json:"error,omitempty"`

	ctrl *Controller
}

// CanUndo reports whether invoking Undo makes sense for this command.
func (cmd *TransitionCommand) CanUndo() bool {
	return cmd.Status == TransitionApplied && cmd.ctrl != nil
}

// Undo performs the reverse transition. It goes through the same controller
// path as any other transition, so it carries the same guards: if it fails,
// the deal stays at the post-forward stage and the failure is reported.
func (cmd *TransitionCommand) Undo(ctx context.Context) (*TransitionCommand, error) {
	if !cmd.CanUndo() {
		return nil, apperr.Conflict("nothing to undo for this transition")
	}
	return cmd.ctrl.RequestTransition(ctx, cmd.DealID, cmd.To, cmd.From)
}

// ActivityRecorder persists a confirmed transition for the activity feed.
// Recording failures are logged, never surfaced: the feed is advisory.
type ActivityRecorder interface {
	Record(ctx context.Context, deal Deal, from, to pipeline.Stage, relationID string, isUndo bool) error
}

// Controller wraps the transition manager with the optimistic UI contract:
// flip the local snapshot first, confirm with the CRM, commit or revert, and
// hand back an undoable command.
type Controller struct {
	store    *Store
	manager  *TransitionManager
	bus      events.Bus
	activity ActivityRecorder
	log      *logger.Logger
	met      *metrics.Metrics

	mu      sync.Mutex
	lastCmd map[string]*TransitionCommand
}

// NewController creates the transition controller. activity may be nil.
func NewController(store *Store, manager *TransitionManager, bus events.Bus, activity ActivityRecorder, log *logger.Logger, met *metrics.Metrics) *Controller {
	return &Controller{
		store:    store,
		manager:  manager,
		bus:      bus,
		activity: activity,
		log:      log,
		met:      met,
		lastCmd:  make(map[string]*TransitionCommand),
	}
}

// RequestTransition moves a deal from one stage to another with optimistic
// local state. The returned command is non-nil whenever the request was
// accepted for processing, including failures; the error mirrors the
// command's status for callers that prefer error handling.
func (c *Controller) RequestTransition(ctx context.Context, dealID string, from, to pipeline.Stage) (*TransitionCommand, error) {
	if !pipeline.IsKnown(from) || !pipeline.IsKnown(to) {
		return nil, apperr.Validation("unknown pipeline stage")
	}

	// Holding the deal rejects a second request before any remote call, and
	// keeps sync upserts away from it until the outcome is settled.
	if !c.store.Hold(dealID) {
		c.met.Transitions.WithLabelValues("conflict").Inc()
		return nil, apperr.Conflict("a transition is already in flight for this deal")
	}
	defer c.store.Release(dealID)

	deal, ok := c.store.Get(dealID)
	if !ok {
		return nil, apperr.NotFound("deal not found")
	}
	if deal.Stage != from {
		c.met.Transitions.WithLabelValues("conflict").Inc()
		return nil, apperr.Conflict("deal is no longer at the requested stage")
	}

	cmd := &TransitionCommand{DealID: dealID, From: from, To: to, ctrl: c}

	if from == to {
		cmd.Status = TransitionNoOp
		c.met.Transitions.WithLabelValues("noop").Inc()
		return cmd, nil
	}

	// Optimistic flip; relation id stays put until the CRM confirms.
	if err := c.store.SetStage(dealID, to); err != nil {
		return nil, err
	}

	result, err := c.manager.Transition(ctx, deal, from, to)
	if err != nil {
		if revertErr := c.store.SetStage(dealID, from); revertErr != nil {
			c.log.Error("failed to revert optimistic stage", "dealId", dealID, "error", revertErr)
		}
		cmd.Status = TransitionFailed
		cmd.Error = err.Error()
		c.met.Transitions.WithLabelValues("failed").Inc()
		c.bus.Publish(ctx, events.DealTransitionFailed{
			BaseEvent: events.NewBaseEvent(),
			DealID:    dealID,
			FromStage: string(from),
			ToStage:   string(to),
			Reason:    err.Error(),
		})
		return cmd, err
	}

	if err := c.store.Commit(dealID, to, result.NewRelationID); err != nil {
		return nil, err
	}

	cmd.Status = TransitionApplied
	cmd.NewRelationID = result.NewRelationID
	c.met.Transitions.WithLabelValues("ok").Inc()
	c.log.StageTransition(dealID, string(from), string(to), result.NewRelationID)

	isUndo := c.isUndoOf(dealID, from, to)
	if c.activity != nil {
		if err := c.activity.Record(ctx, deal, from, to, result.NewRelationID, isUndo); err != nil {
			c.log.DatabaseError("record_transition_activity", err)
		}
	}
	c.bus.Publish(ctx, events.DealStageChanged{
		BaseEvent:  events.NewBaseEvent(),
		DealID:     dealID,
		BuyerID:    deal.BuyerID,
		PropertyID: deal.PropertyID,
		FromStage:  string(from),
		ToStage:    string(to),
		RelationID: result.NewRelationID,
		IsUndo:     isUndo,
	})

	c.mu.Lock()
	c.lastCmd[dealID] = cmd
	c.mu.Unlock()

	return cmd, nil
}

// LastCommand returns the most recent applied command for a deal, which the
// undo endpoint replays in reverse.
func (c *Controller) LastCommand(dealID string) (*TransitionCommand, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cmd, ok := c.lastCmd[dealID]
	return cmd, ok
}

// isUndoOf reports whether the just-applied transition exactly reverses the
// previous one for this deal, i.e. it is an undo.
func (c *Controller) isUndoOf(dealID string, from, to pipeline.Stage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, ok := c.lastCmd[dealID]
	if !ok {
		return false
	}
	return prev.From == to && prev.To == from
}
