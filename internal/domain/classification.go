package domain

import "time"

// RiskLevel is the discrete bucket derived from the composite score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very_high"
)

// Risk level thresholds. Buckets partition [0,1] with boundaries
// closed on the lower end: [0,0.25) low, [0.25,0.5) medium,
// [0.5,0.75) high, [0.75,1] very_high.
const (
	riskMediumFloor   = 0.25
	riskHighFloor     = 0.50
	riskVeryHighFloor = 0.75
)

// RiskLevelFromScore maps a composite score to its risk level.
// The mapping is deterministic at bucket boundaries.
func RiskLevelFromScore(score float64) RiskLevel {
	switch {
	case score < riskMediumFloor:
		return RiskLow
	case score < riskHighFloor:
		return RiskMedium
	case score < riskVeryHighFloor:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}

// PeerComparison places a token's category scores against the
// benchmark corpus. Categories without benchmark data are absent
// from both maps rather than carrying a fabricated percentile.
type PeerComparison struct {
	Percentiles  map[Category]float64 `json:"percentiles"`   // 0-100
	RelativeRisk map[Category]string  `json:"relative_risk"` // qualitative label
}

// Classification is the full result of classifying one token.
// Categories absent from the input are absent from CategoryScores,
// FeatureImportance and Explanations; they are never null-filled.
type Classification struct {
	TokenID        string    `json:"token_id"`
	ComputedAt     time.Time `json:"computed_at"`
	CompositeScore float64   `json:"composite_score"` // in [0,1]
	RiskLevel      RiskLevel `json:"risk_level"`

	CategoryScores    map[Category]float64             `json:"category_scores"`
	FeatureImportance map[Category][]FeatureImportance `json:"feature_importance"`
	Explanations      map[Category][]string            `json:"explanations"`

	TrendAdjustments []TrendAdjustment `json:"trend_adjustments,omitempty"`
	PeerComparison   PeerComparison    `json:"peer_comparison"`
}

// Clone returns a deep copy. The cache owns stored classifications;
// callers always receive clones.
func (c *Classification) Clone() *Classification {
	if c == nil {
		return nil
	}

	out := *c

	out.CategoryScores = make(map[Category]float64, len(c.CategoryScores))
	for k, v := range c.CategoryScores {
		out.CategoryScores[k] = v
	}

	out.FeatureImportance = make(map[Category][]FeatureImportance, len(c.FeatureImportance))
	for k, v := range c.FeatureImportance {
		out.FeatureImportance[k] = append([]FeatureImportance(nil), v...)
	}

	out.Explanations = make(map[Category][]string, len(c.Explanations))
	for k, v := range c.Explanations {
		out.Explanations[k] = append([]string(nil), v...)
	}

	out.TrendAdjustments = append([]TrendAdjustment(nil), c.TrendAdjustments...)

	out.PeerComparison.Percentiles = make(map[Category]float64, len(c.PeerComparison.Percentiles))
	for k, v := range c.PeerComparison.Percentiles {
		out.PeerComparison.Percentiles[k] = v
	}
	out.PeerComparison.RelativeRisk = make(map[Category]string, len(c.PeerComparison.RelativeRisk))
	for k, v := range c.PeerComparison.RelativeRisk {
		out.PeerComparison.RelativeRisk[k] = v
	}

	return &out
}

// ScoreSnapshot is one historical observation of a token's category
// scores, used by the trend adjuster. Timestamps are Unix milliseconds.
type ScoreSnapshot struct {
	TokenID     string
	TimestampMs int64
	Scores      map[Category]float64
}
