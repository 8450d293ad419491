package score

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CategoryLabel turns a backend category key such as "vocal_quality" into
// "Vocal Quality". Underscores and hyphens separate words; only the first
// letter of each word is changed.
func CategoryLabel(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	if len(words) == 0 {
		return ""
	}
	// Casers hold state, so each call gets its own.
	caser := cases.Title(language.Und, cases.NoLower)
	return caser.String(strings.Join(words, " "))
}

// Category is one labelled entry of a score breakdown.
type Category struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
	Tier  Tier    `json:"tier"`
}

// View bundles every derived display value for an analysis result.
type View struct {
	Overall    float64    `json:"overall_score"`
	Tier       Tier       `json:"tier"`
	Percentile int        `json:"percentile"`
	// Weighted is the benchmark-weighted composite of the categories. It is
	// nil when no category carries a benchmark weight.
	Weighted   *float64   `json:"weighted_score,omitempty"`
	Categories []Category `json:"categories"`
}

// Describe derives the display view for an overall score and its category
// breakdown. Categories are sorted by key so output is stable.
func Describe(overall float64, categories map[string]float64) View {
	keys := make([]string, 0, len(categories))
	for key := range categories {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]Category, 0, len(keys))
	for _, key := range keys {
		value := categories[key]
		entries = append(entries, Category{
			Key:   key,
			Label: CategoryLabel(key),
			Score: value,
			Tier:  TierFor(value),
		})
	}
	view := View{
		Overall:    overall,
		Tier:       TierFor(overall),
		Percentile: Percentile(overall),
		Categories: entries,
	}
	if weighted, ok := WeightedOverall(categories, DefaultWeights()); ok {
		view.Weighted = &weighted
	}
	return view
}
