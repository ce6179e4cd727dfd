// Package geo provides distance calculations between coordinates and zip
// codes. Everything here is pure; unresolvable locations yield nil rather
// than errors.
package geo

import (
	_ "embed"
	"math"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const earthRadiusMiles = 3958.8

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lon float64 `yaml:"lon" json:"lon"`
}

//go:embed zip_centroids.yaml
var zipCentroidsYAML []byte

type centroidFile struct {
	Zips map[string]Coordinates `yaml:"zips"`
}

var (
	centroidsOnce sync.Once
	centroids     map[string]Coordinates
)

func loadCentroids() map[string]Coordinates {
	centroidsOnce.Do(func() {
		var file centroidFile
		if err := yaml.Unmarshal(zipCentroidsYAML, &file); err != nil {
			centroids = map[string]Coordinates{}
			return
		}
		centroids = file.Zips
	})
	return centroids
}

// Distance computes the haversine distance between two coordinates in miles.
// Symmetric: Distance(a, b) == Distance(b, a).
func Distance(a, b Coordinates) float64 {
	latA := toRadians(a.Lat)
	latB := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(h))
}

// ZipCoordinates resolves a zip code to its area centroid.
func ZipCoordinates(zip string) (Coordinates, bool) {
	c, ok := loadCentroids()[normalizeZip(zip)]
	return c, ok
}

// DistanceByZip computes the distance in miles between two zip-code
// centroids. Returns nil when either zip cannot be resolved.
func DistanceByZip(zipA, zipB string) *float64 {
	a, okA := ZipCoordinates(zipA)
	b, okB := ZipCoordinates(zipB)
	if !okA || !okB {
		return nil
	}
	d := Distance(a, b)
	return &d
}

// DistanceBetween computes the distance for two optional coordinate pairs,
// falling back to zip centroids when one side lacks a geocode. Returns nil
// when neither path resolves.
func DistanceBetween(a, b *Coordinates, zipA, zipB string) *float64 {
	if a != nil && b != nil {
		d := Distance(*a, *b)
		return &d
	}
	return DistanceByZip(zipA, zipB)
}

func normalizeZip(zip string) string {
	zip = strings.TrimSpace(zip)
	// Zip+4 codes resolve through their 5-digit prefix.
	if i := strings.IndexByte(zip, '-'); i > 0 {
		zip = zip[:i]
	}
	return zip
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
