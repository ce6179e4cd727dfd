package matching

import (
	"testing"

	"dealdesk_backend/internal/crm"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func testBuyer() crm.Buyer {
	return crm.Buyer{
		ContactID:     "c-1",
		Name:          "Dana Alvarez",
		DownPayment:   floatPtr(40000),
		PreferredZips: []string{"85001"},
	}
}

func testProperty(zip string) crm.Property {
	return crm.Property{
		ID:      "p-1",
		Address: "100 Main St",
		Zip:     zip,
		Price:   200000,
	}
}

func TestScorePreferredZipStrongBudget(t *testing.T) {
	scorer := NewScorer(DefaultWeights())

	// $40k down on a $200k property in the preferred zip.
	score := scorer.ScoreProperty(testBuyer(), testProperty("85001"))

	if !score.IsPriority {
		t.Fatal("expected isPriority for zip match")
	}
	if score.BudgetBand != BudgetStrong {
		t.Fatalf("expected strong budget band, got %q", score.BudgetBand)
	}
	if score.Value < 80 {
		t.Fatalf("expected score >= 80, got %f", score.Value)
	}
}

func TestScoreOutsidePreferredZipScoresLower(t *testing.T) {
	scorer := NewScorer(DefaultWeights())

	inZip := scorer.ScoreProperty(testBuyer(), testProperty("85001"))
	outZip := scorer.ScoreProperty(testBuyer(), testProperty("90210"))

	if outZip.IsPriority {
		t.Fatal("90210 is not in the preferred set")
	}
	if outZip.Value >= inZip.Value {
		t.Fatalf("expected out-of-zip score %f < in-zip score %f", outZip.Value, inZip.Value)
	}
}

func TestScoreBounds(t *testing.T) {
	scorer := NewScorer(DefaultWeights())

	buyers := []crm.Buyer{
		{},
		testBuyer(),
		{
			DownPayment:   floatPtr(1e9),
			DesiredBeds:   intPtr(1),
			DesiredBaths:  floatPtr(1),
			PreferredZips: []string{"85001"},
		},
	}
	properties := []crm.Property{
		{},
		testProperty("85001"),
		{Zip: "85001", Price: 1, Beds: 10, Baths: 10},
	}

	for _, b := range buyers {
		for _, p := range properties {
			score := scorer.ScoreProperty(b, p)
			if score.Value < 0 || score.Value > 100 {
				t.Fatalf("score out of bounds: %f", score.Value)
			}
		}
	}
}

func TestScoreBudgetBands(t *testing.T) {
	scorer := NewScorer(DefaultWeights())
	property := testProperty("90210")

	cases := []struct {
		name string
		down float64
		want BudgetBand
	}{
		{"strong at 20 percent", 40000, BudgetStrong},
		{"good at 10 percent", 20000, BudgetGood},
		{"limited below 10 percent", 10000, BudgetLimited},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buyer := crm.Buyer{DownPayment: floatPtr(tc.down)}
			score := scorer.ScoreProperty(buyer, property)
			if score.BudgetBand != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, score.BudgetBand)
			}
		})
	}
}

func TestScoreBudgetFallsBackToPriceRange(t *testing.T) {
	scorer := NewScorer(DefaultWeights())

	buyer := crm.Buyer{PriceMin: floatPtr(180000), PriceMax: floatPtr(260000)}
	score := scorer.ScoreProperty(buyer, testProperty("90210"))
	if score.BudgetBand != BudgetStrong {
		t.Fatalf("price at or under the midpoint should be strong, got %q", score.BudgetBand)
	}

	pricier := testProperty("90210")
	pricier.Price = 250000
	score = scorer.ScoreProperty(buyer, pricier)
	if score.BudgetBand != BudgetGood {
		t.Fatalf("price within range but over midpoint should be good, got %q", score.BudgetBand)
	}
}

func TestScoreMissingFieldsDegrade(t *testing.T) {
	scorer := NewScorer(DefaultWeights())

	// No preferences at all: no bonuses, no distance, no panic.
	score := scorer.ScoreProperty(crm.Buyer{}, crm.Property{Zip: "unknown"})
	if score.Value != 0 {
		t.Fatalf("expected zero score, got %f", score.Value)
	}
	if score.DistanceMiles != nil {
		t.Fatalf("expected nil distance, got %f", *score.DistanceMiles)
	}
	if score.BudgetBand != BudgetUnknown {
		t.Fatalf("expected unknown budget band, got %q", score.BudgetBand)
	}
}

func TestScoreBedBathPartialCredit(t *testing.T) {
	weights := DefaultWeights()
	scorer := NewScorer(weights)

	buyer := crm.Buyer{DesiredBeds: intPtr(4), DesiredBaths: floatPtr(3)}

	exact := scorer.ScoreProperty(buyer, crm.Property{Beds: 4, Baths: 3})
	if exact.Value != weights.BedsFull+weights.BathsFull {
		t.Fatalf("expected full spec credit, got %f", exact.Value)
	}

	near := scorer.ScoreProperty(buyer, crm.Property{Beds: 3, Baths: 2.5})
	if near.Value != weights.BedsPartial+weights.BathsPartial {
		t.Fatalf("expected partial spec credit, got %f", near.Value)
	}

	far := scorer.ScoreProperty(buyer, crm.Property{Beds: 1, Baths: 1})
	if far.Value != 0 {
		t.Fatalf("expected no spec credit, got %f", far.Value)
	}
}

func TestScoreDistanceDecay(t *testing.T) {
	scorer := NewScorer(DefaultWeights())

	// Buyer anchored to Phoenix via preferred zip, properties at increasing
	// distances. Closer must never score lower.
	buyer := crm.Buyer{PreferredZips: []string{"85004"}}

	near := scorer.ScoreProperty(buyer, crm.Property{Zip: "85003", Price: 0})
	far := scorer.ScoreProperty(buyer, crm.Property{Zip: "98101", Price: 0})

	if near.DistanceMiles == nil || far.DistanceMiles == nil {
		t.Fatal("expected both distances to resolve")
	}
	if near.Value < far.Value {
		t.Fatalf("closer property scored lower: near=%f far=%f", near.Value, far.Value)
	}
	if far.Value != 0 {
		t.Fatalf("beyond the decay range the proximity bonus should vanish, got %f", far.Value)
	}
}

func TestLocationReasonDominantFactor(t *testing.T) {
	scorer := NewScorer(DefaultWeights())

	zipMatch := scorer.ScoreProperty(testBuyer(), testProperty("85001"))
	if zipMatch.LocationReason != "In preferred zip 85001" {
		t.Fatalf("unexpected reason: %q", zipMatch.LocationReason)
	}

	budgetOnly := scorer.ScoreProperty(crm.Buyer{DownPayment: floatPtr(50000)}, testProperty("90210"))
	if budgetOnly.LocationReason != "Strong buying power at this price" {
		t.Fatalf("unexpected reason: %q", budgetOnly.LocationReason)
	}
}
