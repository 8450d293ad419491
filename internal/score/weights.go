package score

// DefaultWeights are the benchmark category weights, in percent.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		"production_quality": 25,
		"commercial_appeal":  30,
		"innovation":         15,
		"emotional_impact":   20,
		"radio_readiness":    10,
	}
}

// WeightedOverall computes a composite score from the categories that have a
// positive weight. It reports false when none of them do.
func WeightedOverall(categories map[string]float64, weights map[string]float64) (float64, bool) {
	var total, sum float64
	for key, value := range categories {
		weight := weights[key]
		if weight <= 0 {
			continue
		}
		total += weight
		sum += value * weight
	}
	if total == 0 {
		return 0, false
	}
	return sum / total, true
}
