package deals

import (
	"context"

	"dealdesk_backend/internal/pipeline"
	"dealdesk_backend/platform/apperr"
	"dealdesk_backend/platform/logger"
)

const (
	opTransition = "deals.transition"
)

// AssociationSyncer is the slice of the CRM client the transition manager
// needs: the buyer-property relation record plus the opportunity's own
// pipeline stage marker.
type AssociationSyncer interface {
	CreateAssociation(ctx context.Context, fromID, toID, label string) (string, error)
	DeleteAssociation(ctx context.Context, relationID string) error
	UpdateOpportunityStage(ctx context.Context, opportunityID, stage string) error
}

// TransitionResult carries what the caller needs to commit a transition.
type TransitionResult struct {
	// NewRelationID identifies the association created at the target stage;
	// it becomes the "current" relation id for any future reverse transition.
	NewRelationID string
	// NoOp is true when from == to and no remote call was made.
	NoOp bool
}

// TransitionManager executes one stage change against the CRM. It never
// mutates the deal snapshot itself; the caller commits only after success,
// which keeps failures free of partial state.
type TransitionManager struct {
	crm AssociationSyncer
	log *logger.Logger
}

// NewTransitionManager creates a transition manager.
func NewTransitionManager(crm AssociationSyncer, log *logger.Logger) *TransitionManager {
	return &TransitionManager{crm: crm, log: log}
}

// Transition validates and performs a stage change for the deal.
//
// The association swap is delete-then-create, sequentially: the new record
// must not exist while the old one still does, or the CRM would hold two
// live associations for one deal.
func (m *TransitionManager) Transition(ctx context.Context, deal Deal, from, to pipeline.Stage) (TransitionResult, error) {
	if deal.Stage != from {
		return TransitionResult{}, apperr.Conflict("deal is no longer at the requested stage").WithOp(opTransition)
	}
	if !pipeline.IsKnown(to) {
		return TransitionResult{}, apperr.Validation("unknown target stage").WithOp(opTransition)
	}

	// Re-drop onto the same column: succeed without touching the CRM.
	if from == to {
		return TransitionResult{NoOp: true}, nil
	}

	if deal.RelationID != "" {
		if err := m.crm.DeleteAssociation(ctx, deal.RelationID); err != nil {
			m.log.CRMError("delete_association", err)
			return TransitionResult{}, apperr.Wrap(apperr.KindUnavailable, "failed to clear previous stage association", err).WithOp(opTransition)
		}
	}

	cfg, _ := pipeline.ConfigFor(to)
	relationID, err := m.crm.CreateAssociation(ctx, deal.BuyerID, deal.PropertyID, cfg.RelationLabel)
	if err != nil {
		m.log.CRMError("create_association", err)
		return TransitionResult{}, apperr.Wrap(apperr.KindUnavailable, "failed to create stage association", err).WithOp(opTransition)
	}

	if err := m.crm.UpdateOpportunityStage(ctx, deal.OpportunityID, string(to)); err != nil {
		m.log.CRMError("update_opportunity_stage", err)
		// The target-stage association already exists remotely but the caller
		// will keep the old relation id. Remove it, or a retry would create a
		// second live record for the deal.
		if delErr := m.crm.DeleteAssociation(ctx, relationID); delErr != nil {
			m.log.CRMError("delete_association_rollback", delErr)
		}
		return TransitionResult{}, apperr.Wrap(apperr.KindUnavailable, "failed to update opportunity stage", err).WithOp(opTransition)
	}

	return TransitionResult{NewRelationID: relationID}, nil
}
