package domain

// Direction declares how a raw metric relates to risk.
type Direction string

const (
	// HigherIsWorse means larger raw values indicate more risk
	// (e.g. creator_percentage).
	HigherIsWorse Direction = "higher_is_worse"

	// HigherIsBetter means larger raw values indicate less risk
	// (e.g. holder_count).
	HigherIsBetter Direction = "higher_is_better"
)

// NormalizedFeature is one raw metric mapped into a bounded risk
// contribution. Score is always in [0,1] regardless of the raw value.
type NormalizedFeature struct {
	Name      string
	RawValue  float64 // booleans are carried as 0 or 1
	Score     float64 // risk contribution in [0,1]
	Direction Direction
	Weight    float64 // > 0
}

// FeatureImportance is one entry of a category's ranked feature list.
type FeatureImportance struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"` // in [0,1]
}

// CategoryScore is the scored result for one category.
type CategoryScore struct {
	Category Category `json:"category"`
	Score    float64  `json:"score"` // in [0,1]

	// RankedFeatures is ordered by importance descending,
	// ties broken by name ascending.
	RankedFeatures []FeatureImportance `json:"ranked_features"`

	Explanations []string `json:"explanations"`
}

// TrendAdjustment is a bounded correction applied to a category score
// based on the token's own recent score history. A category with no
// usable history produces no adjustment entry at all.
type TrendAdjustment struct {
	Category    Category `json:"category"`
	Delta       float64  `json:"delta"` // in [-bound, +bound]
	Explanation string   `json:"explanation"`
}
