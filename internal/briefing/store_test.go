package briefing

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testStore(t *testing.T, now time.Time) (*DismissalStore, *miniredis.Miniredis) {
	t.Helper()

	mini := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewDismissalStore(rdb, func() time.Time { return now }), mini
}

func TestDismissalRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	store, _ := testStore(t, now)
	ctx := context.Background()

	if store.IsDismissedToday(ctx, "user-1") {
		t.Fatal("fresh store should report not dismissed")
	}
	if err := store.DismissToday(ctx, "user-1"); err != nil {
		t.Fatal(err)
	}
	if !store.IsDismissedToday(ctx, "user-1") {
		t.Fatal("dismissal not visible")
	}
}

func TestDismissalScopedToUserAndDay(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	store, _ := testStore(t, now)
	ctx := context.Background()

	if err := store.DismissToday(ctx, "user-1"); err != nil {
		t.Fatal(err)
	}

	if store.IsDismissedToday(ctx, "user-2") {
		t.Fatal("dismissal leaked across users")
	}
	if store.IsDismissedFor(ctx, "user-1", now.AddDate(0, 0, 1)) {
		t.Fatal("dismissal leaked into the next day")
	}
}

func TestDismissalExpires(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	store, mini := testStore(t, now)
	ctx := context.Background()

	if err := store.DismissToday(ctx, "user-1"); err != nil {
		t.Fatal(err)
	}

	mini.FastForward(49 * time.Hour)

	if store.IsDismissedToday(ctx, "user-1") {
		t.Fatal("dismissal should have expired after 48h")
	}
}

func TestDismissalLookupFailureReadsAsNotDismissed(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	store, mini := testStore(t, now)
	ctx := context.Background()

	mini.Close()

	if store.IsDismissedToday(ctx, "user-1") {
		t.Fatal("unreachable redis must read as not dismissed")
	}
}
