package score_test

import (
	"math"
	"testing"

	"hitstudio/internal/score"
)

func TestTierForBoundaries(t *testing.T) {
	tests := []struct {
		score     float64
		wantLabel string
		wantColor score.Color
	}{
		{100, "Grammy Worthy", score.ColorYellow},
		{85, "Grammy Worthy", score.ColorYellow},
		{84.9, "Hit Potential", score.ColorGreen},
		{84.999, "Hit Potential", score.ColorGreen},
		{70, "Hit Potential", score.ColorGreen},
		{69.99, "Radio Ready", score.ColorBlue},
		{60, "Radio Ready", score.ColorBlue},
		{59.5, "Promising", score.ColorOrange},
		{45, "Promising", score.ColorOrange},
		{44.9, "Needs Work", score.ColorRed},
		{0, "Needs Work", score.ColorRed},
		{-12, "Needs Work", score.ColorRed},
		{130, "Grammy Worthy", score.ColorYellow},
	}
	for _, tt := range tests {
		got := score.TierFor(tt.score)
		if got.Label != tt.wantLabel {
			t.Errorf("TierFor(%v).Label = %q, want %q", tt.score, got.Label, tt.wantLabel)
		}
		if got.Color != tt.wantColor {
			t.Errorf("TierFor(%v).Color = %q, want %q", tt.score, got.Color, tt.wantColor)
		}
	}
}

func TestTierForNaNFallsToLowestTier(t *testing.T) {
	if got := score.TierFor(math.NaN()); got.Key != "needs_work" {
		t.Fatalf("expected needs_work for NaN, got %q", got.Key)
	}
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		score float64
		want  int
	}{
		{100, 1},
		{99.9, 1},
		{99, 1},
		{98, 3},
		{72, 42},
		{50, 75},
		// Unclamped at the low end of the scale.
		{0, 150},
		{-10, 165},
		{120, 1},
	}
	for _, tt := range tests {
		if got := score.Percentile(tt.score); got != tt.want {
			t.Errorf("Percentile(%v) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestCategoryLabel(t *testing.T) {
	tests := map[string]string{
		"vocal_quality":        "Vocal Quality",
		"hook_strength":        "Hook Strength",
		"production_quality":   "Production Quality",
		"innovation":           "Innovation",
		"radio-readiness":      "Radio Readiness",
		"__double__underscore": "Double Underscore",
		"bpm_DNA":              "Bpm DNA",
		"":                     "",
	}
	for key, want := range tests {
		if got := score.CategoryLabel(key); got != want {
			t.Errorf("CategoryLabel(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestDescribeSortsCategories(t *testing.T) {
	view := score.Describe(72, map[string]float64{
		"vocal_quality": 80,
		"hook_strength": 65,
	})
	if view.Tier.Label != "Hit Potential" {
		t.Fatalf("tier = %q, want Hit Potential", view.Tier.Label)
	}
	if view.Percentile != 42 {
		t.Fatalf("percentile = %d, want 42", view.Percentile)
	}
	if len(view.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(view.Categories))
	}
	if view.Categories[0].Label != "Hook Strength" || view.Categories[1].Label != "Vocal Quality" {
		t.Fatalf("unexpected category order: %+v", view.Categories)
	}
	if view.Categories[0].Tier.Label != "Radio Ready" {
		t.Fatalf("hook_strength tier = %q, want Radio Ready", view.Categories[0].Tier.Label)
	}
}

func TestRangesCoverScale(t *testing.T) {
	ranges := score.Ranges()
	if len(ranges) != 5 {
		t.Fatalf("expected 5 ranges, got %d", len(ranges))
	}
	if ranges[0].Max != 100 || ranges[len(ranges)-1].Min != 0 {
		t.Fatalf("unexpected scale ends: %+v", ranges)
	}
	for i := 1; i < len(ranges); i++ {
		if ranges[i].Max != ranges[i-1].Min-1 {
			t.Fatalf("gap between %q and %q", ranges[i-1].Key, ranges[i].Key)
		}
	}
	ranges[0].Label = "mutated"
	if score.Ranges()[0].Label != "Grammy Worthy" {
		t.Fatal("Ranges must return a copy")
	}
}

func TestWeightedOverall(t *testing.T) {
	categories := map[string]float64{
		"production_quality": 80,
		"commercial_appeal":  60,
		"unweighted_extra":   10,
	}
	got, ok := score.WeightedOverall(categories, score.DefaultWeights())
	if !ok {
		t.Fatal("expected weighted score")
	}
	want := (80*25 + 60*30) / 55.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("WeightedOverall = %v, want %v", got, want)
	}

	if _, ok := score.WeightedOverall(map[string]float64{"other": 50}, score.DefaultWeights()); ok {
		t.Fatal("expected no weighted score without weighted categories")
	}
}

func TestDescribeIncludesWeightedComposite(t *testing.T) {
	view := score.Describe(70, map[string]float64{
		"commercial_appeal": 81,
		"innovation":        58,
	})
	if view.Weighted == nil {
		t.Fatal("expected weighted composite")
	}
	want := (81*30 + 58*15) / 45.0
	if math.Abs(*view.Weighted-want) > 1e-9 {
		t.Fatalf("weighted = %v, want %v", *view.Weighted, want)
	}

	if view := score.Describe(70, map[string]float64{"hook_strength": 65}); view.Weighted != nil {
		t.Fatalf("expected no composite without weighted categories, got %v", *view.Weighted)
	}
}
