package deals

import (
	"testing"
	"time"

	"dealdesk_backend/internal/pipeline"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestUpsertPreservesLocalState(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(fixedClock(now))

	store.Upsert(Deal{ID: "d1", Stage: pipeline.StageSentToBuyer, RelationID: "rel-1", LastActivityAt: now.Add(-time.Hour)})

	// A re-sync without relation id or timestamp must not wipe them.
	store.Upsert(Deal{ID: "d1", Stage: pipeline.StageBuyerInterested})

	deal, ok := store.Get("d1")
	if !ok {
		t.Fatal("deal missing")
	}
	if deal.RelationID != "rel-1" {
		t.Fatalf("relation id lost: %q", deal.RelationID)
	}
	if !deal.LastActivityAt.Equal(now.Add(-time.Hour)) {
		t.Fatalf("activity timestamp lost: %v", deal.LastActivityAt)
	}
	if deal.Stage != pipeline.StageBuyerInterested {
		t.Fatalf("stage not updated: %q", deal.Stage)
	}
}

func TestSetStageDoesNotTouchRelationOrActivity(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(fixedClock(now))
	store.Upsert(Deal{ID: "d1", Stage: pipeline.StageSentToBuyer, RelationID: "rel-1", LastActivityAt: now.Add(-time.Hour)})

	if err := store.SetStage("d1", pipeline.StageBuyerInterested); err != nil {
		t.Fatal(err)
	}

	deal, _ := store.Get("d1")
	if deal.Stage != pipeline.StageBuyerInterested {
		t.Fatalf("stage not flipped: %q", deal.Stage)
	}
	if deal.RelationID != "rel-1" || !deal.LastActivityAt.Equal(now.Add(-time.Hour)) {
		t.Fatalf("optimistic flip leaked into committed state: %+v", deal)
	}
}

func TestCommitMovesRelationAndActivity(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(fixedClock(now))
	store.Upsert(Deal{ID: "d1", Stage: pipeline.StageSentToBuyer, RelationID: "rel-1", LastActivityAt: now.Add(-time.Hour)})

	if err := store.Commit("d1", pipeline.StageBuyerInterested, "rel-2"); err != nil {
		t.Fatal(err)
	}

	deal, _ := store.Get("d1")
	if deal.RelationID != "rel-2" {
		t.Fatalf("relation id not committed: %q", deal.RelationID)
	}
	if !deal.LastActivityAt.Equal(now) {
		t.Fatalf("activity timestamp not refreshed: %v", deal.LastActivityAt)
	}
}

func TestHeldDealSkipsSyncUpserts(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(fixedClock(now))
	store.Upsert(Deal{ID: "d1", Stage: pipeline.StageSentToBuyer, RelationID: "rel-1", LastActivityAt: now.Add(-time.Hour)})

	if !store.Hold("d1") {
		t.Fatal("expected to hold an idle deal")
	}
	if store.Hold("d1") {
		t.Fatal("expected a second hold to be rejected")
	}

	// A sync pass landing mid-transition must not move the deal.
	store.Upsert(Deal{ID: "d1", Stage: pipeline.StageOfferMade, RelationID: "rel-remote"})
	deal, _ := store.Get("d1")
	if deal.Stage != pipeline.StageSentToBuyer || deal.RelationID != "rel-1" {
		t.Fatalf("sync wrote a held deal: %+v", deal)
	}

	// The transition's own writes still go through.
	if err := store.SetStage("d1", pipeline.StageBuyerInterested); err != nil {
		t.Fatal(err)
	}

	store.Release("d1")
	store.Upsert(Deal{ID: "d1", Stage: pipeline.StageOfferMade})
	deal, _ = store.Get("d1")
	if deal.Stage != pipeline.StageOfferMade {
		t.Fatalf("upsert after release did not apply: %+v", deal)
	}
	if !store.Hold("d1") {
		t.Fatal("expected the hold to be available again after release")
	}
}

func TestStaleExcludesTerminalAndSortsOldestFirst(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	store := NewStore(fixedClock(now))
	threshold := 120 * time.Hour

	store.Upsert(Deal{ID: "fresh", Stage: pipeline.StageOfferMade, LastActivityAt: now.Add(-time.Hour)})
	store.Upsert(Deal{ID: "old", Stage: pipeline.StageSentToBuyer, LastActivityAt: now.Add(-10 * 24 * time.Hour)})
	store.Upsert(Deal{ID: "older", Stage: pipeline.StageShowingScheduled, LastActivityAt: now.Add(-20 * 24 * time.Hour)})
	store.Upsert(Deal{ID: "closed", Stage: pipeline.StageClosedWon, LastActivityAt: now.Add(-30 * 24 * time.Hour)})
	store.Upsert(Deal{ID: "lost", Stage: pipeline.StageNotInterested, LastActivityAt: now.Add(-30 * 24 * time.Hour)})

	stale := store.Stale(threshold)

	if len(stale) != 2 {
		t.Fatalf("expected 2 stale deals, got %d", len(stale))
	}
	if stale[0].ID != "older" || stale[1].ID != "old" {
		t.Fatalf("expected oldest first, got %s then %s", stale[0].ID, stale[1].ID)
	}
}

func TestListOrdersByRecentActivity(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	store := NewStore(fixedClock(now))

	store.Upsert(Deal{ID: "a", Stage: pipeline.StageSentToBuyer, LastActivityAt: now.Add(-3 * time.Hour)})
	store.Upsert(Deal{ID: "b", Stage: pipeline.StageSentToBuyer, LastActivityAt: now.Add(-time.Hour)})
	store.Upsert(Deal{ID: "c", Stage: pipeline.StageSentToBuyer, LastActivityAt: now.Add(-2 * time.Hour)})

	list := store.List()
	if len(list) != 3 || list[0].ID != "b" || list[1].ID != "c" || list[2].ID != "a" {
		t.Fatalf("unexpected order: %+v", list)
	}
}
