package geo

import (
	"math"
	"testing"
)

func TestDistanceSymmetric(t *testing.T) {
	phoenix := Coordinates{Lat: 33.4484, Lon: -112.0740}
	beverlyHills := Coordinates{Lat: 34.0901, Lon: -118.4065}

	ab := Distance(phoenix, beverlyHills)
	ba := Distance(beverlyHills, phoenix)

	if math.Abs(ab-ba) > 1e-9 {
		t.Fatalf("distance not symmetric: %f vs %f", ab, ba)
	}
}

func TestDistanceKnownCities(t *testing.T) {
	phoenix := Coordinates{Lat: 33.4484, Lon: -112.0740}
	beverlyHills := Coordinates{Lat: 34.0901, Lon: -118.4065}

	// Phoenix to Beverly Hills is roughly 370 miles great-circle.
	got := Distance(phoenix, beverlyHills)
	if got < 350 || got > 390 {
		t.Fatalf("expected ~370 miles, got %f", got)
	}
}

func TestDistanceZero(t *testing.T) {
	p := Coordinates{Lat: 33.4484, Lon: -112.0740}
	if got := Distance(p, p); got != 0 {
		t.Fatalf("expected zero distance, got %f", got)
	}
}

func TestZipCoordinates(t *testing.T) {
	if _, ok := ZipCoordinates("85001"); !ok {
		t.Fatal("expected 85001 to resolve")
	}
	if _, ok := ZipCoordinates("00000"); ok {
		t.Fatal("expected 00000 to be unknown")
	}
}

func TestZipCoordinatesStripsPlusFour(t *testing.T) {
	full, ok := ZipCoordinates("85001-1234")
	if !ok {
		t.Fatal("expected zip+4 to resolve via its five-digit prefix")
	}
	base, _ := ZipCoordinates("85001")
	if full != base {
		t.Fatalf("zip+4 resolved differently: %v vs %v", full, base)
	}
}

func TestDistanceByZipUnresolved(t *testing.T) {
	if got := DistanceByZip("85001", "99999"); got != nil {
		t.Fatalf("expected nil for unknown zip, got %f", *got)
	}
}

func TestDistanceBetweenPrefersCoordinates(t *testing.T) {
	a := &Coordinates{Lat: 33.4484, Lon: -112.0740}
	b := &Coordinates{Lat: 33.4484, Lon: -112.0740}

	got := DistanceBetween(a, b, "90210", "98101")
	if got == nil {
		t.Fatal("expected a distance")
	}
	if *got != 0 {
		t.Fatalf("expected coordinates to win over zips, got %f", *got)
	}
}

func TestDistanceBetweenFallsBackToZips(t *testing.T) {
	got := DistanceBetween(nil, nil, "85001", "85001")
	if got == nil {
		t.Fatal("expected zip fallback to resolve")
	}
	if *got != 0 {
		t.Fatalf("expected zero distance for same zip, got %f", *got)
	}
}

func TestDistanceBetweenNilWhenUnresolvable(t *testing.T) {
	if got := DistanceBetween(nil, nil, "", "85001"); got != nil {
		t.Fatalf("expected nil, got %f", *got)
	}
}
