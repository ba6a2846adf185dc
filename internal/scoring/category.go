// Package scoring combines normalized features into category scores
// and category scores into the composite classification score.
package scoring

import (
	"fmt"
	"sort"

	"token-risk-engine/internal/domain"
)

// notableThreshold is the normalized score above which a feature gets
// its own explanation sentence.
const notableThreshold = 0.5

// ScoreCategory computes one category's score from its present
// normalized features. Returns ok=false when no features are present:
// the category is absent and must be excluded from aggregation, not
// scored as 0 or 0.5.
func ScoreCategory(cat domain.Category, features []domain.NormalizedFeature) (domain.CategoryScore, bool) {
	if len(features) == 0 {
		return domain.CategoryScore{}, false
	}

	var weightSum, contributionSum float64
	contributions := make([]float64, len(features))
	for i, f := range features {
		contributions[i] = f.Score * f.Weight
		weightSum += f.Weight
		contributionSum += contributions[i]
	}

	score := contributionSum / weightSum

	ranked := rankFeatures(features, contributions, contributionSum)
	explanations := explain(features)

	return domain.CategoryScore{
		Category:       cat,
		Score:          score,
		RankedFeatures: ranked,
		Explanations:   explanations,
	}, true
}

// rankFeatures orders features by contribution descending, ties broken
// by name ascending so output is deterministic across runs.
// Importance is the feature's share of the total contribution.
func rankFeatures(features []domain.NormalizedFeature, contributions []float64, total float64) []domain.FeatureImportance {
	type entry struct {
		name         string
		contribution float64
	}

	entries := make([]entry, len(features))
	for i, f := range features {
		entries[i] = entry{name: f.Name, contribution: contributions[i]}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].contribution != entries[j].contribution {
			return entries[i].contribution > entries[j].contribution
		}
		return entries[i].name < entries[j].name
	})

	ranked := make([]domain.FeatureImportance, len(entries))
	for i, e := range entries {
		importance := 0.0
		if total > 0 {
			importance = e.contribution / total
		}
		ranked[i] = domain.FeatureImportance{Name: e.name, Importance: importance}
	}
	return ranked
}

// explain emits one templated sentence per notable feature, in the
// input (name-sorted) order.
func explain(features []domain.NormalizedFeature) []string {
	var out []string
	for _, f := range features {
		if f.Score <= notableThreshold {
			continue
		}
		switch f.Direction {
		case domain.HigherIsWorse:
			out = append(out, fmt.Sprintf(
				"%s is elevated (raw %.4g): higher values increase risk (score %.2f)",
				f.Name, f.RawValue, f.Score))
		case domain.HigherIsBetter:
			out = append(out, fmt.Sprintf(
				"%s is low (raw %.4g): low values increase risk (score %.2f)",
				f.Name, f.RawValue, f.Score))
		}
	}
	return out
}
