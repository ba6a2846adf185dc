// Package trend applies bounded corrections to category scores based
// on a token's own short-term score history.
package trend

import (
	"fmt"
	"math"
	"sort"

	"token-risk-engine/internal/domain"
)

// Config holds trend adjustment knobs.
type Config struct {
	// Sensitivity is the minimum absolute score change between the two
	// most recent observations required to trigger an adjustment.
	Sensitivity float64

	// Bound clamps the applied delta to [-Bound, +Bound].
	Bound float64
}

// DefaultConfig returns the standard trend knobs.
func DefaultConfig() Config {
	return Config{Sensitivity: 0.10, Bound: 0.10}
}

// Adjust perturbs current category scores using the token's prior
// score snapshots (ordered by TimestampMs ascending). A category with
// fewer than two historical observations produces no adjustment entry.
// Adjusted scores are re-clamped to [0,1]. Returns the adjusted score
// map (always a fresh map) and the adjustment entries in canonical
// category order.
func Adjust(cfg Config, current map[domain.Category]float64, history []*domain.ScoreSnapshot) (map[domain.Category]float64, []domain.TrendAdjustment) {
	adjusted := make(map[domain.Category]float64, len(current))
	for cat, score := range current {
		adjusted[cat] = score
	}

	if len(history) < 2 {
		return adjusted, nil
	}

	ordered := make([]*domain.ScoreSnapshot, len(history))
	copy(ordered, history)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].TimestampMs < ordered[j].TimestampMs
	})

	var adjustments []domain.TrendAdjustment
	for _, cat := range domain.Categories() {
		score, present := current[cat]
		if !present {
			continue
		}

		latest, previous, ok := lastTwo(ordered, cat)
		if !ok {
			continue
		}

		delta := latest - previous
		if math.Abs(delta) <= cfg.Sensitivity {
			continue
		}

		applied := clamp(delta, -cfg.Bound, cfg.Bound)
		adjusted[cat] = clamp(score+applied, 0, 1)

		direction := "worsened"
		if delta < 0 {
			direction = "improved"
		}
		adjustments = append(adjustments, domain.TrendAdjustment{
			Category: cat,
			Delta:    applied,
			Explanation: fmt.Sprintf(
				"%s risk %s by %.2f across recent observations; applying %+.2f adjustment",
				cat, direction, math.Abs(delta), applied),
		})
	}

	return adjusted, adjustments
}

// lastTwo returns the two most recent observations of one category.
// Snapshots missing the category are skipped rather than treated as zero.
func lastTwo(ordered []*domain.ScoreSnapshot, cat domain.Category) (latest, previous float64, ok bool) {
	found := 0
	for i := len(ordered) - 1; i >= 0 && found < 2; i-- {
		v, present := ordered[i].Scores[cat]
		if !present {
			continue
		}
		if found == 0 {
			latest = v
		} else {
			previous = v
		}
		found++
	}
	return latest, previous, found == 2
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
