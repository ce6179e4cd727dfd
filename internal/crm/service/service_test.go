package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dealdesk_backend/internal/crm"
	"dealdesk_backend/internal/deals"
	"dealdesk_backend/internal/events"
	"dealdesk_backend/internal/pipeline"
	"dealdesk_backend/platform/apperr"
	"dealdesk_backend/platform/logger"
	"dealdesk_backend/platform/validator"
)

type fakeAPI struct {
	opportunities []crm.RawOpportunity
	contacts      map[string]crm.RawContact
	listErr       error
}

func (f *fakeAPI) ListOpportunities(context.Context) ([]crm.RawOpportunity, error) {
	return f.opportunities, f.listErr
}

func (f *fakeAPI) GetContact(_ context.Context, contactID string) (crm.RawContact, error) {
	contact, ok := f.contacts[contactID]
	if !ok {
		return crm.RawContact{}, errors.New("contact not found")
	}
	return contact, nil
}

type captureBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *captureBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *captureBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *captureBus) Subscribe(string, events.Handler) {}

func propertyFields() []crm.RawCustomField {
	return []crm.RawCustomField{
		{Key: "opportunity.property_address", Value: "100 Main St"},
		{Key: "opportunity.property_zip", Value: "85001"},
		{Key: "opportunity.property_price", Value: float64(200000)},
	}
}

func newSyncFixture(api *fakeAPI) (*Service, *crm.Directory, *deals.Store, *captureBus) {
	directory := crm.NewDirectory()
	store := deals.NewStore(func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) })
	bus := &captureBus{}
	svc := NewService(api, crm.NewParser(validator.New()), directory, store, bus, logger.New("test"))
	return svc, directory, store, bus
}

func TestSyncPopulatesReadModels(t *testing.T) {
	api := &fakeAPI{
		opportunities: []crm.RawOpportunity{
			{ID: "opp-1", ContactID: "c-1", CustomFields: propertyFields(), RelationLabel: "deal-buyer-interested", RelationID: "rel-1"},
		},
		contacts: map[string]crm.RawContact{
			"c-1": {ID: "c-1", Name: "Dana Alvarez"},
		},
	}
	svc, directory, store, bus := newSyncFixture(api)

	stats, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 1 || stats.Parsed != 1 || stats.Dropped != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if _, ok := directory.Buyer("c-1"); !ok {
		t.Fatal("buyer missing from directory")
	}
	if _, ok := directory.Property("opp-1"); !ok {
		t.Fatal("property missing from directory")
	}

	deal, ok := store.Get("opp-1")
	if !ok {
		t.Fatal("deal snapshot missing")
	}
	if deal.Stage != pipeline.StageBuyerInterested || deal.RelationID != "rel-1" {
		t.Fatalf("unexpected deal: %+v", deal)
	}

	if len(bus.events) != 1 || bus.events[0].EventName() != (events.OpportunitiesSynced{}).EventName() {
		t.Fatalf("expected a synced event, got %+v", bus.events)
	}
}

func TestSyncDropsUnparseableRecords(t *testing.T) {
	api := &fakeAPI{
		opportunities: []crm.RawOpportunity{
			{ID: "opp-good", ContactID: "c-1", CustomFields: propertyFields()},
			// No price: fails the required-field gate.
			{ID: "opp-bad", ContactID: "c-1", CustomFields: []crm.RawCustomField{
				{Key: "opportunity.property_address", Value: "200 Oak Ave"},
				{Key: "opportunity.property_zip", Value: "85001"},
			}},
			// Contact cannot be hydrated into a buyer (no name).
			{ID: "opp-orphan", ContactID: "c-2", CustomFields: propertyFields()},
		},
		contacts: map[string]crm.RawContact{
			"c-1": {ID: "c-1", Name: "Dana Alvarez"},
			"c-2": {ID: "c-2"},
		},
	}
	svc, directory, store, _ := newSyncFixture(api)

	stats, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 3 || stats.Parsed != 1 || stats.Dropped != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if _, ok := store.Get("opp-bad"); ok {
		t.Fatal("dropped record leaked into the store")
	}
	if len(directory.Properties()) != 1 {
		t.Fatalf("expected one property, got %d", len(directory.Properties()))
	}
}

func TestSyncListFailureIsUnavailable(t *testing.T) {
	api := &fakeAPI{listErr: errors.New("api down")}
	svc, _, _, _ := newSyncFixture(api)

	_, err := svc.Sync(context.Background())
	if apperr.GetKind(err) != apperr.KindUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestSyncEnrichesCoordinatesFromZip(t *testing.T) {
	api := &fakeAPI{
		opportunities: []crm.RawOpportunity{
			{ID: "opp-1", ContactID: "c-1", CustomFields: propertyFields()},
		},
		contacts: map[string]crm.RawContact{
			"c-1": {ID: "c-1", Name: "Dana Alvarez", CustomFields: []crm.RawCustomField{
				{Key: "contact.preferred_zips", Value: "85001"},
			}},
		},
	}
	svc, directory, _, _ := newSyncFixture(api)

	if _, err := svc.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}

	property, _ := directory.Property("opp-1")
	if property.Coordinates == nil {
		t.Fatal("property coordinates not derived from zip centroid")
	}
	buyer, _ := directory.Buyer("c-1")
	if buyer.Coordinates == nil {
		t.Fatal("buyer coordinates not derived from preferred zip")
	}
}
