package deals

import (
	"sort"
	"sync"
	"time"

	"dealdesk_backend/internal/pipeline"
	"dealdesk_backend/platform/apperr"
)

// Store holds the local deal snapshots. Reads always see a deal as it was
// before or after a transition, never mid-transition; the transition
// controller serializes writes per deal.
type Store struct {
	mu    sync.RWMutex
	deals map[string]Deal
	held  map[string]struct{}
	now   func() time.Time
}

// NewStore creates an empty store. The clock is injected so staleness can be
// tested deterministically.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		deals: make(map[string]Deal),
		held:  make(map[string]struct{}),
		now:   now,
	}
}

// Hold marks the deal as owned by an in-flight transition. It returns false
// when another transition already holds it. While held, sync upserts for the
// deal are skipped so readers never observe a mid-transition stage from the
// CRM racing the optimistic flip.
func (s *Store) Hold(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.held[id]; busy {
		return false
	}
	s.held[id] = struct{}{}
	return true
}

// Release gives the deal back to sync writes.
func (s *Store) Release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.held, id)
}

// Upsert inserts or replaces a deal snapshot, preserving the stored relation
// id and activity timestamp when the incoming record lacks them. Used by the
// CRM sync pass. Deals held by an in-flight transition are skipped; the next
// sync pass picks them up once released.
func (s *Store) Upsert(deal Deal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.held[deal.ID]; busy {
		return
	}
	if existing, ok := s.deals[deal.ID]; ok {
		if deal.RelationID == "" {
			deal.RelationID = existing.RelationID
		}
		if deal.LastActivityAt.IsZero() {
			deal.LastActivityAt = existing.LastActivityAt
		}
	}
	if deal.LastActivityAt.IsZero() {
		deal.LastActivityAt = s.now()
	}
	s.deals[deal.ID] = deal
}

// Get returns a snapshot copy of the deal.
func (s *Store) Get(id string) (Deal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	deal, ok := s.deals[id]
	return deal, ok
}

// List returns all deal snapshots ordered by most recent activity.
func (s *Store) List() []Deal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Deal, 0, len(s.deals))
	for _, d := range s.deals {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivityAt.After(out[j].LastActivityAt)
	})
	return out
}

// SetStage updates only the stage field. The transition controller uses it
// for the optimistic flip and for reverting it; the relation id and activity
// timestamp move only on Commit.
func (s *Store) SetStage(id string, stage pipeline.Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deal, ok := s.deals[id]
	if !ok {
		return apperr.NotFound("deal not found").WithOp("deals.store.set_stage")
	}
	deal.Stage = stage
	s.deals[id] = deal
	return nil
}

// Commit publishes the confirmed post-transition state: new stage, new
// relation id, fresh activity timestamp.
func (s *Store) Commit(id string, stage pipeline.Stage, relationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deal, ok := s.deals[id]
	if !ok {
		return apperr.NotFound("deal not found").WithOp("deals.store.commit")
	}
	deal.Stage = stage
	deal.RelationID = relationID
	deal.LastActivityAt = s.now()
	s.deals[id] = deal
	return nil
}

// Stale returns deals with no activity within the threshold, excluding
// terminal stages where inactivity is expected.
func (s *Store) Stale(threshold time.Duration) []Deal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	var out []Deal
	for _, d := range s.deals {
		if pipeline.IsTerminal(d.Stage) {
			continue
		}
		if d.IsStale(now, threshold) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivityAt.Before(out[j].LastActivityAt)
	})
	return out
}
