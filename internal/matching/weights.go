// Package matching scores buyers against properties and groups the results
// into presentation tiers.
package matching

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Weights are the tunable scoring bonuses. The rules (zip match is the
// largest single bonus, budget bands decrease, distance decays) are fixed;
// the magnitudes can be tuned per deployment via a YAML file.
type Weights struct {
	ZipMatch float64 `yaml:"zip_match"`

	BudgetStrong  float64 `yaml:"budget_strong"`
	BudgetGood    float64 `yaml:"budget_good"`
	BudgetLimited float64 `yaml:"budget_limited"`

	BedsFull    float64 `yaml:"beds_full"`
	BedsPartial float64 `yaml:"beds_partial"`

	BathsFull    float64 `yaml:"baths_full"`
	BathsPartial float64 `yaml:"baths_partial"`

	DistanceMax float64 `yaml:"distance_max"`
	// DistanceRangeMiles is where the proximity bonus decays to zero.
	DistanceRangeMiles float64 `yaml:"distance_range_miles"`
}

// DefaultWeights returns the stock scoring weights.
func DefaultWeights() Weights {
	return Weights{
		ZipMatch:           40,
		BudgetStrong:       30,
		BudgetGood:         20,
		BudgetLimited:      5,
		BedsFull:           10,
		BedsPartial:        5,
		BathsFull:          10,
		BathsPartial:       5,
		DistanceMax:        15,
		DistanceRangeMiles: 50,
	}
}

// LoadWeights reads a YAML weights file, falling back to defaults when the
// path is empty. Fields omitted in the file keep their default value.
func LoadWeights(path string) (Weights, error) {
	weights := DefaultWeights()
	if path == "" {
		return weights, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, fmt.Errorf("read weights file: %w", err)
	}
	if err := yaml.Unmarshal(data, &weights); err != nil {
		return Weights{}, fmt.Errorf("parse weights file: %w", err)
	}

	if err := weights.validate(); err != nil {
		return Weights{}, err
	}
	return weights, nil
}

// validate enforces the ordering rules the scorer relies on.
func (w Weights) validate() error {
	if w.ZipMatch <= w.BudgetStrong || w.ZipMatch <= w.DistanceMax {
		return fmt.Errorf("weights: zip match must be the largest single bonus")
	}
	if !(w.BudgetStrong > w.BudgetGood && w.BudgetGood > w.BudgetLimited) {
		return fmt.Errorf("weights: budget bands must decrease strong > good > limited")
	}
	if w.DistanceRangeMiles <= 0 {
		return fmt.Errorf("weights: distance range must be positive")
	}
	return nil
}
