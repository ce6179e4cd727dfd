// Package briefing serves the daily stale-deal briefing and remembers who
// dismissed it.
package briefing

import (
	"context"
	"fmt"
	"time"

	"dealdesk_backend/platform/apperr"

	"github.com/redis/go-redis/v9"
)

const opDismissal = "briefing.dismissal"

// dismissalTTL keeps dismissal keys well past the day they apply to, then
// lets redis reclaim them.
const dismissalTTL = 48 * time.Hour

// DismissalStore records per-user, per-day briefing dismissals in redis.
// A dismissal only suppresses the briefing for the calendar day it was made.
type DismissalStore struct {
	rdb redis.Cmdable
	now func() time.Time
}

// NewDismissalStore creates a dismissal store. now is injected so tests can
// pin the day boundary.
func NewDismissalStore(rdb redis.Cmdable, now func() time.Time) *DismissalStore {
	return &DismissalStore{rdb: rdb, now: now}
}

// Dismiss marks the briefing dismissed for the user on the given date.
func (s *DismissalStore) Dismiss(ctx context.Context, userID string, date time.Time) error {
	err := s.rdb.Set(ctx, dismissalKey(userID, date), "1", dismissalTTL).Err()
	if err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "failed to store briefing dismissal", err).WithOp(opDismissal)
	}
	return nil
}

// IsDismissedFor reports whether the user dismissed the briefing on the
// given date. Lookup failures read as not dismissed; showing the briefing
// twice beats hiding it.
func (s *DismissalStore) IsDismissedFor(ctx context.Context, userID string, date time.Time) bool {
	n, err := s.rdb.Exists(ctx, dismissalKey(userID, date)).Result()
	if err != nil {
		return false
	}
	return n > 0
}

// DismissToday dismisses the briefing for the store's current day.
func (s *DismissalStore) DismissToday(ctx context.Context, userID string) error {
	return s.Dismiss(ctx, userID, s.now())
}

// IsDismissedToday checks the store's current day.
func (s *DismissalStore) IsDismissedToday(ctx context.Context, userID string) bool {
	return s.IsDismissedFor(ctx, userID, s.now())
}

func dismissalKey(userID string, date time.Time) string {
	return fmt.Sprintf("briefing:dismissed:%s:%s", userID, date.UTC().Format("2006-01-02"))
}
