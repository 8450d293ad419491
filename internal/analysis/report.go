package analysis

import (
	"maps"
	"slices"

	"hitstudio/internal/score"
)

// Report is one hit-potential analysis of a track.
type Report struct {
	TrackID         string             `json:"track_id"`
	OverallScore    float64            `json:"overall_score"`
	CategoryScores  map[string]float64 `json:"category_scores"`
	Insights        []string           `json:"insights"`
	Recommendations []string           `json:"recommendations"`
	Comparison      map[string]any     `json:"comparison,omitempty"`
}

// Clone returns a deep copy so callers can hand reports out without sharing
// the backing maps and slices.
func (r Report) Clone() Report {
	out := r
	out.CategoryScores = maps.Clone(r.CategoryScores)
	out.Insights = slices.Clone(r.Insights)
	out.Recommendations = slices.Clone(r.Recommendations)
	out.Comparison = maps.Clone(r.Comparison)
	return out
}

// Describe derives the display view of the report.
func (r Report) Describe() score.View {
	return score.Describe(r.OverallScore, r.CategoryScores)
}

// Tier is the tier of the overall score.
func (r Report) Tier() score.Tier {
	return score.TierFor(r.OverallScore)
}

// HistoryEntry is one stored analysis from the backend's score history.
type HistoryEntry struct {
	ID                string   `json:"id"`
	TrackID           string   `json:"track_id"`
	OverallScore      float64  `json:"overall_score"`
	ProductionQuality float64  `json:"production_quality"`
	CommercialAppeal  float64  `json:"commercial_appeal"`
	Innovation        float64  `json:"innovation"`
	EmotionalImpact   float64  `json:"emotional_impact"`
	RadioReadiness    float64  `json:"radio_readiness"`
	ViralPotential    *float64 `json:"viral_potential,omitempty"`
	CreatedAt         string   `json:"created_at"`
}

// Categories returns the entry's category scores keyed like Report.CategoryScores.
func (e HistoryEntry) Categories() map[string]float64 {
	out := map[string]float64{
		"production_quality": e.ProductionQuality,
		"commercial_appeal":  e.CommercialAppeal,
		"innovation":         e.Innovation,
		"emotional_impact":   e.EmotionalImpact,
		"radio_readiness":    e.RadioReadiness,
	}
	if e.ViralPotential != nil {
		out["viral_potential"] = *e.ViralPotential
	}
	return out
}

// Range is one benchmark score band as published by the backend.
type Range struct {
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Label string `json:"label"`
}

// Benchmarks are the backend's scoring thresholds and category weights.
type Benchmarks struct {
	ScoreRanges     map[string]Range   `json:"score_ranges"`
	CategoryWeights map[string]float64 `json:"category_weights"`
	Description     string             `json:"description"`
}

// LocalBenchmarks builds the benchmark table from the local tier table and
// default weights, for use when the backend is unreachable.
func LocalBenchmarks() Benchmarks {
	ranges := make(map[string]Range)
	for _, tier := range score.Ranges() {
		ranges[tier.Key] = Range{Min: tier.Min, Max: tier.Max, Label: tier.Label}
	}
	return Benchmarks{ScoreRanges: ranges, CategoryWeights: score.DefaultWeights()}
}
