package deals

import (
	"context"

	"dealdesk_backend/internal/deals/activity"
	"dealdesk_backend/internal/pipeline"
)

// activityAdapter bridges the controller's ActivityRecorder port to the
// Postgres-backed activity repository.
type activityAdapter struct {
	repo *activity.Repository
}

// NewActivityRecorder wraps the repository as an ActivityRecorder.
func NewActivityRecorder(repo *activity.Repository) ActivityRecorder {
	return &activityAdapter{repo: repo}
}

func (a *activityAdapter) Record(ctx context.Context, deal Deal, from, to pipeline.Stage, relationID string, isUndo bool) error {
	return a.repo.Insert(ctx, activity.Entry{
		DealID:     deal.ID,
		BuyerID:    deal.BuyerID,
		PropertyID: deal.PropertyID,
		FromStage:  string(from),
		ToStage:    string(to),
		RelationID: relationID,
		IsUndo:     isUndo,
	})
}
