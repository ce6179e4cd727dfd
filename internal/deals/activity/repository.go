// Package activity persists confirmed stage transitions for the dashboard
// activity feed. The feed is advisory; write failures never block a
// transition.
package activity

import (
	"context"
	"time"

	"dealdesk_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opRecord     = "deals.activity.repository.record"
	opListByDeal = "deals.activity.repository.list_by_deal"
)

// Entry is one row of the feed.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	DealID     string    `json:"dealId"`
	BuyerID    string    `json:"buyerId"`
	PropertyID string    `json:"propertyId"`
	FromStage  string    `json:"fromStage"`
	ToStage    string    `json:"toStage"`
	RelationID string    `json:"relationId"`
	IsUndo     bool      `json:"isUndo"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Repository stores activity entries in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates the activity repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert persists one transition entry.
func (r *Repository) Insert(ctx context.Context, e Entry) error {
	if r == nil || r.pool == nil {
		return apperr.Internal("activity repository not configured").WithOp(opRecord)
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO deal_activity (id, deal_id, buyer_id, property_id, from_stage, to_stage, relation_id, is_undo, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.New(), e.DealID, e.BuyerID, e.PropertyID, e.FromStage, e.ToStage, e.RelationID, e.IsUndo, time.Now().UTC(),
	)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to record deal activity", err).WithOp(opRecord)
	}
	return nil
}

// ListByDeal returns the most recent entries for one deal.
func (r *Repository) ListByDeal(ctx context.Context, dealID string, limit int) ([]Entry, error) {
	if r == nil || r.pool == nil {
		return nil, apperr.Internal("activity repository not configured").WithOp(opListByDeal)
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, deal_id, buyer_id, property_id, from_stage, to_stage, relation_id, is_undo, created_at
		FROM deal_activity
		WHERE deal_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		dealID, limit,
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list deal activity", err).WithOp(opListByDeal)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.DealID, &e.BuyerID, &e.PropertyID, &e.FromStage, &e.ToStage, &e.RelationID, &e.IsUndo, &e.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to scan deal activity", err).WithOp(opListByDeal)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to read deal activity", err).WithOp(opListByDeal)
	}

	return entries, nil
}
