package normalize

import (
	"math"
	"testing"

	"token-risk-engine/internal/domain"
)

func f64(v float64) *float64 { return &v }
func b(v bool) *bool         { return &v }

func TestCategory_NilInput(t *testing.T) {
	features, dropped := Category(domain.CategoryLiquidity, nil)
	if features != nil || dropped != nil {
		t.Fatalf("expected no features for nil input, got %v / %v", features, dropped)
	}
}

func TestCategory_AbsentCategory(t *testing.T) {
	in := &domain.RawInput{Ownership: &domain.OwnershipMetrics{CreatorPct: f64(50)}}

	features, _ := Category(domain.CategoryLiquidity, in)
	if len(features) != 0 {
		t.Fatalf("expected no liquidity features, got %d", len(features))
	}
}

func TestCategory_MissingMetricOmitted(t *testing.T) {
	// Only creator_percentage set; the other ownership metrics must
	// produce no NormalizedFeature, not a defaulted one.
	in := &domain.RawInput{Ownership: &domain.OwnershipMetrics{CreatorPct: f64(95)}}

	features, dropped := Category(domain.CategoryOwnership, in)
	if len(dropped) != 0 {
		t.Fatalf("unexpected dropped metrics: %v", dropped)
	}
	if len(features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(features))
	}
	if features[0].Name != "creator_percentage" {
		t.Errorf("expected creator_percentage, got %s", features[0].Name)
	}
	if features[0].Score != 0.95 {
		t.Errorf("expected score 0.95, got %f", features[0].Score)
	}
}

func TestCategory_HigherIsBetterInverts(t *testing.T) {
	// locked_pct 100 is the safest value → score 0
	in := &domain.RawInput{Liquidity: &domain.LiquidityMetrics{LockedPct: f64(100)}}

	features, _ := Category(domain.CategoryLiquidity, in)
	if len(features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(features))
	}
	if features[0].Score != 0 {
		t.Errorf("expected score 0 for fully locked liquidity, got %f", features[0].Score)
	}
}

func TestCategory_BooleanMapping(t *testing.T) {
	in := &domain.RawInput{Contract: &domain.ContractMetrics{
		MintAuthorityActive: b(true),  // risky → 1
		Verified:            b(false), // unverified → 1
	}}

	features, _ := Category(domain.CategoryContract, in)
	if len(features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(features))
	}

	byName := map[string]domain.NormalizedFeature{}
	for _, f := range features {
		byName[f.Name] = f
	}
	if byName["mint_authority_active"].Score != 1.0 {
		t.Errorf("active mint authority should score 1.0, got %f", byName["mint_authority_active"].Score)
	}
	if byName["verified"].Score != 1.0 {
		t.Errorf("unverified contract should score 1.0, got %f", byName["verified"].Score)
	}
}

func TestCategory_OutOfRangeClamped(t *testing.T) {
	cases := []struct {
		name string
		raw  float64
		want float64
	}{
		{"above range", 250, 1.0},
		{"below range", -40, 0.0},
	}

	for _, tc := range cases {
		in := &domain.RawInput{Ownership: &domain.OwnershipMetrics{CreatorPct: f64(tc.raw)}}
		features, _ := Category(domain.CategoryOwnership, in)
		if len(features) != 1 {
			t.Fatalf("%s: expected 1 feature, got %d", tc.name, len(features))
		}
		if features[0].Score != tc.want {
			t.Errorf("%s: expected score %f, got %f", tc.name, tc.want, features[0].Score)
		}
		if features[0].RawValue != tc.raw {
			t.Errorf("%s: raw value must be preserved, got %f", tc.name, features[0].RawValue)
		}
	}
}

func TestCategory_SaturationCurve(t *testing.T) {
	// holder_count uses x/(x+500); 500 holders → position 0.5,
	// direction higher_is_better → score 0.5
	in := &domain.RawInput{Ownership: &domain.OwnershipMetrics{HolderCount: f64(500)}}

	features, _ := Category(domain.CategoryOwnership, in)
	if len(features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(features))
	}
	if math.Abs(features[0].Score-0.5) > 1e-9 {
		t.Errorf("expected score 0.5, got %f", features[0].Score)
	}

	// Negative raw values clamp to position 0 → max risk for
	// higher_is_better metrics
	in = &domain.RawInput{Ownership: &domain.OwnershipMetrics{HolderCount: f64(-10)}}
	features, _ = Category(domain.CategoryOwnership, in)
	if features[0].Score != 1.0 {
		t.Errorf("expected score 1.0 for negative count, got %f", features[0].Score)
	}
}

func TestCategory_NonFiniteDropped(t *testing.T) {
	in := &domain.RawInput{Ownership: &domain.OwnershipMetrics{
		CreatorPct:  f64(math.NaN()),
		Top10Pct:    f64(math.Inf(1)),
		HolderCount: f64(100),
	}}

	features, dropped := Category(domain.CategoryOwnership, in)
	if len(features) != 1 || features[0].Name != "holder_count" {
		t.Fatalf("expected only holder_count to survive, got %v", features)
	}
	if len(dropped) != 2 {
		t.Fatalf("expected 2 dropped metrics, got %v", dropped)
	}
	if dropped[0] != "creator_percentage" || dropped[1] != "top10_percentage" {
		t.Errorf("dropped list not sorted by name: %v", dropped)
	}
}

func TestCategory_ScoreAlwaysBounded(t *testing.T) {
	extremes := []float64{-1e12, -1, 0, 0.5, 1, 99.999, 1e12, math.MaxFloat64, -math.MaxFloat64}

	for _, v := range extremes {
		in := &domain.RawInput{
			Liquidity: &domain.LiquidityMetrics{TotalLiquidityUSD: f64(v), LockedPct: f64(v), PoolAgeHours: f64(v)},
			Ownership: &domain.OwnershipMetrics{CreatorPct: f64(v), Top10Pct: f64(v), HolderCount: f64(v)},
			Trading:   &domain.TradingMetrics{Volume24hUSD: f64(v), UniqueTraders24h: f64(v), WashTradingPct: f64(v), VolatilityPct: f64(v)},
			Social:    &domain.SocialMetrics{TwitterFollowers: f64(v), TelegramMembers: f64(v), SentimentScore: f64(v)},
		}
		for _, cat := range domain.Categories() {
			features, _ := Category(cat, in)
			for _, f := range features {
				if f.Score < 0 || f.Score > 1 || math.IsNaN(f.Score) {
					t.Errorf("cat=%s feature=%s raw=%g: score %f out of [0,1]", cat, f.Name, v, f.Score)
				}
			}
		}
	}
}

func TestCategory_DeterministicOrder(t *testing.T) {
	in := &domain.RawInput{Trading: &domain.TradingMetrics{
		Volume24hUSD:     f64(1000),
		UniqueTraders24h: f64(50),
		WashTradingPct:   f64(10),
		VolatilityPct:    f64(30),
	}}

	features, _ := Category(domain.CategoryTrading, in)
	for i := 1; i < len(features); i++ {
		if features[i-1].Name >= features[i].Name {
			t.Fatalf("features not sorted by name: %s before %s", features[i-1].Name, features[i].Name)
		}
	}
}
