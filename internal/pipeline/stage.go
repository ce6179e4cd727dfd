// Package pipeline defines the canonical deal pipeline stages and their
// metadata. The ordered forward chain is fixed; "Not Interested" is a side
// branch reachable from any non-terminal stage by explicit user action, never
// through Next.
package pipeline

// Stage is one discrete step in the deal pipeline.
type Stage string

const (
	StageSentToBuyer      Stage = "Sent_To_Buyer"
	StageBuyerInterested  Stage = "Buyer_Interested"
	StageShowingScheduled Stage = "Showing_Scheduled"
	StagePropertyViewed   Stage = "Property_Viewed"
	StageOfferMade        Stage = "Offer_Made"
	StageUnderContract    Stage = "Under_Contract"
	StageClosedWon        Stage = "Closed_Won"
	StageNotInterested    Stage = "Not_Interested"
)

// forwardOrder is the canonical forward chain. Display reordering must not
// affect transition semantics, so ranks are derived from this slice once and
// never recomputed from UI-facing lists.
var forwardOrder = []Stage{
	StageSentToBuyer,
	StageBuyerInterested,
	StageShowingScheduled,
	StagePropertyViewed,
	StageOfferMade,
	StageUnderContract,
	StageClosedWon,
}

var stageRank = func() map[Stage]int {
	ranks := make(map[Stage]int, len(forwardOrder))
	for i, s := range forwardOrder {
		ranks[s] = i
	}
	return ranks
}()

// Config holds per-stage presentation and sync metadata.
type Config struct {
	Label         string `json:"label"`
	ShortLabel    string `json:"shortLabel"`
	ColorHint     string `json:"colorHint"`
	RelationLabel string `json:"relationLabel"`
}

var stageConfigs = map[Stage]Config{
	StageSentToBuyer:      {Label: "Sent to Buyer", ShortLabel: "Sent", ColorHint: "slate", RelationLabel: "deal-sent-to-buyer"},
	StageBuyerInterested:  {Label: "Buyer Interested", ShortLabel: "Interested", ColorHint: "sky", RelationLabel: "deal-buyer-interested"},
	StageShowingScheduled: {Label: "Showing Scheduled", ShortLabel: "Showing", ColorHint: "indigo", RelationLabel: "deal-showing-scheduled"},
	StagePropertyViewed:   {Label: "Property Viewed", ShortLabel: "Viewed", ColorHint: "violet", RelationLabel: "deal-property-viewed"},
	StageOfferMade:        {Label: "Offer Made", ShortLabel: "Offer", ColorHint: "amber", RelationLabel: "deal-offer-made"},
	StageUnderContract:    {Label: "Under Contract", ShortLabel: "Contract", ColorHint: "orange", RelationLabel: "deal-under-contract"},
	StageClosedWon:        {Label: "Closed / Won", ShortLabel: "Closed", ColorHint: "green", RelationLabel: "deal-closed-won"},
	StageNotInterested:    {Label: "Not Interested", ShortLabel: "Lost", ColorHint: "red", RelationLabel: "deal-not-interested"},
}

// IsKnown reports whether the stage is part of the registry.
func IsKnown(stage Stage) bool {
	_, ok := stageConfigs[stage]
	return ok
}

// IsLost reports whether the stage is the lost side branch.
func IsLost(stage Stage) bool {
	return stage == StageNotInterested
}

// IsTerminal reports whether no further forward movement exists from the
// stage. Both the last forward stage and the lost branch are terminal.
func IsTerminal(stage Stage) bool {
	if IsLost(stage) {
		return true
	}
	return stage == forwardOrder[len(forwardOrder)-1]
}

// Next returns the stage immediately following the given one in the
// canonical order. ok is false for the last forward stage, the lost branch,
// and unknown stages.
func Next(stage Stage) (Stage, bool) {
	rank, ok := stageRank[stage]
	if !ok || rank+1 >= len(forwardOrder) {
		return "", false
	}
	return forwardOrder[rank+1], true
}

// Rank returns the stage's position in the forward chain. The lost branch
// has no rank; ok is false for it and for unknown stages.
func Rank(stage Stage) (int, bool) {
	rank, ok := stageRank[stage]
	return rank, ok
}

// ConfigFor returns the stage's presentation metadata.
func ConfigFor(stage Stage) (Config, bool) {
	cfg, ok := stageConfigs[stage]
	return cfg, ok
}

// Stages returns the registry contents in canonical order, with the lost
// branch last. The slice is a copy; callers may reorder it for display.
func Stages() []Stage {
	out := make([]Stage, 0, len(forwardOrder)+1)
	out = append(out, forwardOrder...)
	out = append(out, StageNotInterested)
	return out
}

// ByRelationLabel resolves a CRM association label back to its stage.
func ByRelationLabel(label string) (Stage, bool) {
	for stage, cfg := range stageConfigs {
		if cfg.RelationLabel == label {
			return stage, true
		}
	}
	return "", false
}
