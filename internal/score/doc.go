// Package score holds the pure derivations behind the Grammy Meter display:
// tier buckets with their color keys, the "top X%" percentile heuristic, and
// category label formatting.
//
// Nothing here talks to the backend or keeps state. Callers pass scores taken
// from an analysis report and render the returned values as they see fit.
package score
