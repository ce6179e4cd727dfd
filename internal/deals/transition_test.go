package deals

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"dealdesk_backend/internal/pipeline"
	"dealdesk_backend/platform/apperr"
	"dealdesk_backend/platform/logger"
)

// fakeSyncer records CRM calls in order and fails on demand.
type fakeSyncer struct {
	calls []string

	createErr error
	deleteErr error
	updateErr error

	nextRelation int
}

func (f *fakeSyncer) CreateAssociation(_ context.Context, fromID, toID, label string) (string, error) {
	f.calls = append(f.calls, "create:"+label)
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextRelation++
	return fmt.Sprintf("rel-%d", f.nextRelation), nil
}

func (f *fakeSyncer) DeleteAssociation(_ context.Context, relationID string) error {
	f.calls = append(f.calls, "delete:"+relationID)
	return f.deleteErr
}

func (f *fakeSyncer) UpdateOpportunityStage(_ context.Context, opportunityID, stage string) error {
	f.calls = append(f.calls, "stage:"+stage)
	return f.updateErr
}

func testDeal() Deal {
	return Deal{
		ID:            "d1",
		OpportunityID: "opp-1",
		BuyerID:       "buyer-1",
		PropertyID:    "prop-1",
		Stage:         pipeline.StageSentToBuyer,
		RelationID:    "rel-old",
	}
}

func TestTransitionDeleteThenCreateOrder(t *testing.T) {
	syncer := &fakeSyncer{}
	manager := NewTransitionManager(syncer, logger.New("test"))

	result, err := manager.Transition(context.Background(), testDeal(), pipeline.StageSentToBuyer, pipeline.StageBuyerInterested)
	if err != nil {
		t.Fatal(err)
	}
	if result.NewRelationID != "rel-1" {
		t.Fatalf("unexpected relation id: %q", result.NewRelationID)
	}

	want := []string{"delete:rel-old", "create:deal-buyer-interested", "stage:Buyer_Interested"}
	if len(syncer.calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, syncer.calls)
	}
	for i := range want {
		if syncer.calls[i] != want[i] {
			t.Fatalf("expected calls %v, got %v", want, syncer.calls)
		}
	}
}

func TestTransitionSkipsDeleteWithoutRelation(t *testing.T) {
	syncer := &fakeSyncer{}
	manager := NewTransitionManager(syncer, logger.New("test"))

	deal := testDeal()
	deal.RelationID = ""

	if _, err := manager.Transition(context.Background(), deal, pipeline.StageSentToBuyer, pipeline.StageBuyerInterested); err != nil {
		t.Fatal(err)
	}
	if syncer.calls[0] != "create:deal-buyer-interested" {
		t.Fatalf("expected create first, got %v", syncer.calls)
	}
}

func TestTransitionSameStageMakesNoRemoteCalls(t *testing.T) {
	syncer := &fakeSyncer{}
	manager := NewTransitionManager(syncer, logger.New("test"))

	result, err := manager.Transition(context.Background(), testDeal(), pipeline.StageSentToBuyer, pipeline.StageSentToBuyer)
	if err != nil {
		t.Fatal(err)
	}
	if !result.NoOp {
		t.Fatal("expected a no-op result")
	}
	if len(syncer.calls) != 0 {
		t.Fatalf("expected zero remote calls, got %v", syncer.calls)
	}
}

func TestTransitionCreateFailureIsUnavailable(t *testing.T) {
	syncer := &fakeSyncer{createErr: errors.New("api down")}
	manager := NewTransitionManager(syncer, logger.New("test"))

	_, err := manager.Transition(context.Background(), testDeal(), pipeline.StageSentToBuyer, pipeline.StageBuyerInterested)
	if err == nil {
		t.Fatal("expected an error")
	}
	if apperr.GetKind(err) != apperr.KindUnavailable {
		t.Fatalf("expected unavailable kind, got %v", apperr.GetKind(err))
	}
}

func TestTransitionStageUpdateFailureRemovesNewAssociation(t *testing.T) {
	syncer := &fakeSyncer{updateErr: errors.New("api down")}
	manager := NewTransitionManager(syncer, logger.New("test"))

	_, err := manager.Transition(context.Background(), testDeal(), pipeline.StageSentToBuyer, pipeline.StageBuyerInterested)
	if apperr.GetKind(err) != apperr.KindUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}

	want := []string{"delete:rel-old", "create:deal-buyer-interested", "stage:Buyer_Interested", "delete:rel-1"}
	if len(syncer.calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, syncer.calls)
	}
	for i := range want {
		if syncer.calls[i] != want[i] {
			t.Fatalf("expected calls %v, got %v", want, syncer.calls)
		}
	}
}

// liveSyncer models the CRM's association table: deletes of unknown relation
// ids succeed, as the real client treats a 404 on delete.
type liveSyncer struct {
	live         map[string]string
	updateErr    error
	nextRelation int
}

func newLiveSyncer() *liveSyncer {
	return &liveSyncer{live: map[string]string{"rel-old": "deal-sent-to-buyer"}}
}

func (f *liveSyncer) CreateAssociation(_ context.Context, fromID, toID, label string) (string, error) {
	f.nextRelation++
	id := fmt.Sprintf("rel-%d", f.nextRelation)
	f.live[id] = label
	return id, nil
}

func (f *liveSyncer) DeleteAssociation(_ context.Context, relationID string) error {
	delete(f.live, relationID)
	return nil
}

func (f *liveSyncer) UpdateOpportunityStage(_ context.Context, _, _ string) error {
	return f.updateErr
}

func TestTransitionRetryAfterStageUpdateFailureKeepsOneLiveAssociation(t *testing.T) {
	syncer := newLiveSyncer()
	syncer.updateErr = errors.New("api down")
	manager := NewTransitionManager(syncer, logger.New("test"))

	deal := testDeal()
	if _, err := manager.Transition(context.Background(), deal, pipeline.StageSentToBuyer, pipeline.StageBuyerInterested); err == nil {
		t.Fatal("expected the first attempt to fail")
	}

	// Snapshot was never committed, so the retry carries the same deal.
	syncer.updateErr = nil
	result, err := manager.Transition(context.Background(), deal, pipeline.StageSentToBuyer, pipeline.StageBuyerInterested)
	if err != nil {
		t.Fatal(err)
	}

	if len(syncer.live) != 1 {
		t.Fatalf("expected one live association, got %v", syncer.live)
	}
	if label, ok := syncer.live[result.NewRelationID]; !ok || label != "deal-buyer-interested" {
		t.Fatalf("live association does not match the committed relation: %v", syncer.live)
	}
}

func TestTransitionStaleSnapshotConflicts(t *testing.T) {
	syncer := &fakeSyncer{}
	manager := NewTransitionManager(syncer, logger.New("test"))

	_, err := manager.Transition(context.Background(), testDeal(), pipeline.StageOfferMade, pipeline.StageUnderContract)
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(syncer.calls) != 0 {
		t.Fatalf("expected zero remote calls, got %v", syncer.calls)
	}
}

func TestTransitionUnknownTargetIsValidation(t *testing.T) {
	syncer := &fakeSyncer{}
	manager := NewTransitionManager(syncer, logger.New("test"))

	_, err := manager.Transition(context.Background(), testDeal(), pipeline.StageSentToBuyer, pipeline.Stage("bogus"))
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation, got %v", err)
	}
}
