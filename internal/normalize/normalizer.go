// Package normalize maps raw per-category metrics into bounded risk
// contributions. All functions are pure: normalization has no side
// effects and no shared state.
package normalize

import (
	"math"
	"sort"

	"token-risk-engine/internal/domain"
)

// rawMetric pairs a schema spec with an optional raw value.
type rawMetric struct {
	spec    FeatureSpec
	numeric *float64
	boolean *bool
}

// Category normalizes all present metrics of one category.
// Returns the normalized features sorted by name (deterministic order)
// and the names of metrics dropped for being non-finite (NaN/Inf).
// A nil category input yields no features.
func Category(cat domain.Category, in *domain.RawInput) ([]domain.NormalizedFeature, []string) {
	metrics := collect(cat, in)
	if len(metrics) == 0 {
		return nil, nil
	}

	var (
		features []domain.NormalizedFeature
		dropped  []string
	)
	for _, m := range metrics {
		switch {
		case m.boolean != nil:
			features = append(features, normalizeBool(m.spec, *m.boolean))
		case m.numeric != nil:
			if math.IsNaN(*m.numeric) || math.IsInf(*m.numeric, 0) {
				dropped = append(dropped, m.spec.Name)
				continue
			}
			features = append(features, normalizeNumeric(m.spec, *m.numeric))
		}
	}

	sort.Slice(features, func(i, j int) bool {
		return features[i].Name < features[j].Name
	})
	sort.Strings(dropped)

	return features, dropped
}

// normalizeNumeric maps a finite raw value to a risk score in [0,1].
func normalizeNumeric(spec FeatureSpec, raw float64) domain.NormalizedFeature {
	var position float64 // 0 = low end of scale, 1 = high end

	switch {
	case spec.Range != nil:
		clamped := clamp(raw, spec.Range.Min, spec.Range.Max)
		position = (clamped - spec.Range.Min) / (spec.Range.Max - spec.Range.Min)
	case spec.SaturationK > 0:
		x := raw
		if x < 0 {
			x = 0
		}
		position = x / (x + spec.SaturationK)
	}

	score := position
	if spec.Direction == domain.HigherIsBetter {
		score = 1 - position
	}

	return domain.NormalizedFeature{
		Name:      spec.Name,
		RawValue:  raw,
		Score:     clamp(score, 0, 1),
		Direction: spec.Direction,
		Weight:    spec.Weight,
	}
}

// normalizeBool maps a boolean metric directly to {0,1} by direction.
func normalizeBool(spec FeatureSpec, value bool) domain.NormalizedFeature {
	raw := 0.0
	if value {
		raw = 1.0
	}

	risky := value == (spec.Direction == domain.HigherIsWorse)
	score := 0.0
	if risky {
		score = 1.0
	}

	return domain.NormalizedFeature{
		Name:      spec.Name,
		RawValue:  raw,
		Score:     score,
		Direction: spec.Direction,
		Weight:    spec.Weight,
	}
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

// collect pairs the typed optional fields of one category with their
// schema specs. Absent fields produce no entry.
func collect(cat domain.Category, in *domain.RawInput) []rawMetric {
	if in == nil {
		return nil
	}

	switch cat {
	case domain.CategoryLiquidity:
		m := in.Liquidity
		if m == nil {
			return nil
		}
		return []rawMetric{
			{spec: liquiditySchema["total_liquidity_usd"], numeric: m.TotalLiquidityUSD},
			{spec: liquiditySchema["locked_pct"], numeric: m.LockedPct},
			{spec: liquiditySchema["lock_active"], boolean: m.LockActive},
			{spec: liquiditySchema["pool_age_hours"], numeric: m.PoolAgeHours},
		}
	case domain.CategoryOwnership:
		m := in.Ownership
		if m == nil {
			return nil
		}
		return []rawMetric{
			{spec: ownershipSchema["creator_percentage"], numeric: m.CreatorPct},
			{spec: ownershipSchema["top10_percentage"], numeric: m.Top10Pct},
			{spec: ownershipSchema["holder_count"], numeric: m.HolderCount},
		}
	case domain.CategoryContract:
		m := in.Contract
		if m == nil {
			return nil
		}
		return []rawMetric{
			{spec: contractSchema["mint_authority_active"], boolean: m.MintAuthorityActive},
			{spec: contractSchema["freeze_authority_active"], boolean: m.FreezeAuthorityActive},
			{spec: contractSchema["metadata_mutable"], boolean: m.MetadataMutable},
			{spec: contractSchema["verified"], boolean: m.Verified},
		}
	case domain.CategoryTrading:
		m := in.Trading
		if m == nil {
			return nil
		}
		return []rawMetric{
			{spec: tradingSchema["volume_24h_usd"], numeric: m.Volume24hUSD},
			{spec: tradingSchema["unique_traders_24h"], numeric: m.UniqueTraders24h},
			{spec: tradingSchema["wash_trading_pct"], numeric: m.WashTradingPct},
			{spec: tradingSchema["volatility_pct"], numeric: m.VolatilityPct},
		}
	case domain.CategorySocial:
		m := in.Social
		if m == nil {
			return nil
		}
		return []rawMetric{
			{spec: socialSchema["twitter_followers"], numeric: m.TwitterFollowers},
			{spec: socialSchema["telegram_members"], numeric: m.TelegramMembers},
			{spec: socialSchema["website_active"], boolean: m.WebsiteActive},
			{spec: socialSchema["sentiment_score"], numeric: m.SentimentScore},
		}
	default:
		return nil
	}
}
