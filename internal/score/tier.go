package score

import "math"

// Color is the presentational key a view uses to paint a tier.
type Color string

const (
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorOrange Color = "orange"
	ColorRed    Color = "red"
)

// Tier is a named qualitative bucket of the 0-100 score scale. Min is
// inclusive; Max is the highest whole score shown for the band.
type Tier struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Color Color  `json:"color"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
}

// Ordered by descending threshold. The last entry catches everything below
// the previous threshold, including out-of-range and NaN inputs.
var tiers = []Tier{
	{Key: "grammy_worthy", Label: "Grammy Worthy", Color: ColorYellow, Min: 85, Max: 100},
	{Key: "hit_potential", Label: "Hit Potential", Color: ColorGreen, Min: 70, Max: 84},
	{Key: "radio_ready", Label: "Radio Ready", Color: ColorBlue, Min: 60, Max: 69},
	{Key: "promising", Label: "Promising", Color: ColorOrange, Min: 45, Max: 59},
	{Key: "needs_work", Label: "Needs Work", Color: ColorRed, Min: 0, Max: 44},
}

// TierFor maps a score to its tier. Scores are not range checked: anything at
// or above 85 is Grammy Worthy and anything below 45 is Needs Work.
func TierFor(s float64) Tier {
	for _, tier := range tiers[:len(tiers)-1] {
		if s >= float64(tier.Min) {
			return tier
		}
	}
	return tiers[len(tiers)-1]
}

// Ranges returns the tier bands from best to worst.
func Ranges() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// Percentile returns the "top X% of all tracks" display figure for a score.
// It saturates at 1 and has no upper clamp, so out-of-range inputs produce
// out-of-range figures (a score of 0 reports 150).
func Percentile(s float64) int {
	p := math.Floor((100 - s) * 1.5)
	if math.IsNaN(p) || p < 1 {
		return 1
	}
	return int(p)
}
