package scoring

import (
	"errors"

	"token-risk-engine/internal/domain"
)

// ErrInsufficientData is returned when zero categories are present
// after normalization. Distinct from storage.ErrNotFound: "nothing to
// score" vs "nothing was ever computed".
var ErrInsufficientData = errors.New("insufficient data: no categories present")

// Composite aggregates category scores into one composite score and
// risk level. Weights are renormalized over present categories so a
// token is never penalized (or favored) merely for missing data.
// Scores must be keyed by valid categories; entries for unknown
// categories carry zero weight and are ignored.
func Composite(scores map[domain.Category]float64) (float64, domain.RiskLevel, error) {
	var weightSum, weighted float64
	for cat, score := range scores {
		w := cat.Weight()
		if w <= 0 {
			continue
		}
		weightSum += w
		weighted += score * w
	}

	if weightSum == 0 {
		return 0, "", ErrInsufficientData
	}

	composite := weighted / weightSum
	return composite, domain.RiskLevelFromScore(composite), nil
}
