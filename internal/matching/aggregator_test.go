package matching

import (
	"testing"

	"dealdesk_backend/internal/crm"
)

func testAggregator() *Aggregator {
	return NewAggregator(NewScorer(DefaultWeights()), nil, nil)
}

func TestTierPartition(t *testing.T) {
	agg := testAggregator()
	property := testProperty("85001")

	buyers := []crm.Buyer{
		// zip + strong budget + proximity: interested.
		{ContactID: "hot", DownPayment: floatPtr(40000), PreferredZips: []string{"85001"}},
		// strong budget only: potential.
		{ContactID: "warm", DownPayment: floatPtr(40000)},
		// nothing matches: dropped.
		{ContactID: "cold"},
	}

	result := agg.BuyersForProperty(property, buyers)

	if result.TotalCount != 3 {
		t.Fatalf("expected 3 candidates, got %d", result.TotalCount)
	}
	if len(result.Interested) != 1 || result.Interested[0].Buyer.ContactID != "hot" {
		t.Fatalf("unexpected interested tier: %+v", result.Interested)
	}
	if len(result.Potential) != 1 || result.Potential[0].Buyer.ContactID != "warm" {
		t.Fatalf("unexpected potential tier: %+v", result.Potential)
	}

	for _, m := range result.Interested {
		if m.Score.Value < interestedThreshold {
			t.Fatalf("interested entry below threshold: %f", m.Score.Value)
		}
	}
	for _, m := range result.Potential {
		if m.Score.Value < potentialThreshold || m.Score.Value >= interestedThreshold {
			t.Fatalf("potential entry outside band: %f", m.Score.Value)
		}
	}
}

func TestTierOrderingDescendingAndStable(t *testing.T) {
	agg := testAggregator()
	property := testProperty("85001")

	// "second" and "third" produce identical scores; input order must hold.
	buyers := []crm.Buyer{
		{ContactID: "second", DownPayment: floatPtr(40000)},
		{ContactID: "first", DownPayment: floatPtr(40000), PreferredZips: []string{"85001"}},
		{ContactID: "third", DownPayment: floatPtr(40000)},
	}

	result := agg.BuyersForProperty(property, buyers)

	var order []string
	for _, m := range result.Interested {
		order = append(order, m.Buyer.ContactID)
	}
	for _, m := range result.Potential {
		order = append(order, m.Buyer.ContactID)
	}

	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestPropertiesForBuyerDirection(t *testing.T) {
	agg := testAggregator()
	buyer := testBuyer()

	properties := []crm.Property{
		testProperty("85001"),
		testProperty("90210"),
		{ID: "p-overpriced", Zip: "98101", Price: 4000000},
	}

	result := agg.PropertiesForBuyer(buyer, properties)

	if result.TotalCount != 3 {
		t.Fatalf("expected 3 candidates, got %d", result.TotalCount)
	}
	if len(result.Interested) != 1 || result.Interested[0].Property.Zip != "85001" {
		t.Fatalf("unexpected interested tier: %+v", result.Interested)
	}
	for _, m := range result.Potential {
		if m.Property.ID == "p-overpriced" {
			t.Fatal("overpriced distant property should be dropped")
		}
	}
}

func TestAggregatorDoesNotMutateInputs(t *testing.T) {
	agg := testAggregator()
	property := testProperty("85001")
	buyers := []crm.Buyer{testBuyer()}
	before := buyers[0]

	agg.BuyersForProperty(property, buyers)

	if buyers[0].ContactID != before.ContactID || buyers[0].Name != before.Name {
		t.Fatal("buyer mutated during aggregation")
	}
}
