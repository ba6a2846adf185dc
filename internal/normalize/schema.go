package normalize

import "token-risk-engine/internal/domain"

// RangeScale maps a raw value linearly onto [Min,Max].
// Values outside the range are clamped, never rejected.
type RangeScale struct {
	Min float64
	Max float64
}

// FeatureSpec declares how one raw metric is normalized.
// Exactly one of Range / SaturationK / Boolean describes the scale:
//   - Range: linear position within [Min,Max]
//   - SaturationK > 0: monotonic curve x/(x+k) for unbounded metrics
//   - Boolean: direct {0,1} mapping by direction
type FeatureSpec struct {
	Name        string
	Direction   domain.Direction
	Weight      float64
	Range       *RangeScale
	SaturationK float64
	Boolean     bool
}

// Per-category feature schemas. Metric names match the JSON field
// names of domain.RawInput so explanations and API payloads agree.
var (
	liquiditySchema = map[string]FeatureSpec{
		"total_liquidity_usd": {Name: "total_liquidity_usd", Direction: domain.HigherIsBetter, Weight: 0.35, SaturationK: 50_000},
		"locked_pct":          {Name: "locked_pct", Direction: domain.HigherIsBetter, Weight: 0.25, Range: &RangeScale{Min: 0, Max: 100}},
		"lock_active":         {Name: "lock_active", Direction: domain.HigherIsBetter, Weight: 0.20, Boolean: true},
		"pool_age_hours":      {Name: "pool_age_hours", Direction: domain.HigherIsBetter, Weight: 0.20, SaturationK: 72},
	}

	ownershipSchema = map[string]FeatureSpec{
		"creator_percentage": {Name: "creator_percentage", Direction: domain.HigherIsWorse, Weight: 0.50, Range: &RangeScale{Min: 0, Max: 100}},
		"top10_percentage":   {Name: "top10_percentage", Direction: domain.HigherIsWorse, Weight: 0.30, Range: &RangeScale{Min: 0, Max: 100}},
		"holder_count":       {Name: "holder_count", Direction: domain.HigherIsBetter, Weight: 0.20, SaturationK: 500},
	}

	contractSchema = map[string]FeatureSpec{
		"mint_authority_active":   {Name: "mint_authority_active", Direction: domain.HigherIsWorse, Weight: 0.35, Boolean: true},
		"freeze_authority_active": {Name: "freeze_authority_active", Direction: domain.HigherIsWorse, Weight: 0.30, Boolean: true},
		"metadata_mutable":        {Name: "metadata_mutable", Direction: domain.HigherIsWorse, Weight: 0.15, Boolean: true},
		"verified":                {Name: "verified", Direction: domain.HigherIsBetter, Weight: 0.20, Boolean: true},
	}

	tradingSchema = map[string]FeatureSpec{
		"volume_24h_usd":     {Name: "volume_24h_usd", Direction: domain.HigherIsBetter, Weight: 0.30, SaturationK: 100_000},
		"unique_traders_24h": {Name: "unique_traders_24h", Direction: domain.HigherIsBetter, Weight: 0.25, SaturationK: 200},
		"wash_trading_pct":   {Name: "wash_trading_pct", Direction: domain.HigherIsWorse, Weight: 0.25, Range: &RangeScale{Min: 0, Max: 100}},
		"volatility_pct":     {Name: "volatility_pct", Direction: domain.HigherIsWorse, Weight: 0.20, Range: &RangeScale{Min: 0, Max: 150}},
	}

	socialSchema = map[string]FeatureSpec{
		"twitter_followers": {Name: "twitter_followers", Direction: domain.HigherIsBetter, Weight: 0.30, SaturationK: 10_000},
		"telegram_members":  {Name: "telegram_members", Direction: domain.HigherIsBetter, Weight: 0.25, SaturationK: 5_000},
		"website_active":    {Name: "website_active", Direction: domain.HigherIsBetter, Weight: 0.15, Boolean: true},
		"sentiment_score":   {Name: "sentiment_score", Direction: domain.HigherIsBetter, Weight: 0.30, Range: &RangeScale{Min: -1, Max: 1}},
	}

	schemas = map[domain.Category]map[string]FeatureSpec{
		domain.CategoryLiquidity: liquiditySchema,
		domain.CategoryOwnership: ownershipSchema,
		domain.CategoryContract:  contractSchema,
		domain.CategoryTrading:   tradingSchema,
		domain.CategorySocial:    socialSchema,
	}
)

// Schema returns the feature schema for a category.
// Returns nil for unknown categories.
func Schema(cat domain.Category) map[string]FeatureSpec {
	return schemas[cat]
}
