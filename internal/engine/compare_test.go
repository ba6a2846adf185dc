package engine

import (
	"context"
	"testing"

	"token-risk-engine/internal/domain"
)

func TestCompare_RanksAscendingByComposite(t *testing.T) {
	e := newTestEngine(newTestClock(), nil)
	ctx := context.Background()

	safe := testMint(t, 0)
	risky := testMint(t, 1)

	if _, err := e.Classify(ctx, safe, ownershipOnlyInput(10), false); err != nil {
		t.Fatalf("Classify safe failed: %v", err)
	}
	if _, err := e.Classify(ctx, risky, ownershipOnlyInput(95), false); err != nil {
		t.Fatalf("Classify risky failed: %v", err)
	}

	result, err := e.Compare(ctx, []string{risky, safe})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	if len(result.Ranking) != 2 {
		t.Fatalf("expected 2 ranked tokens, got %d", len(result.Ranking))
	}
	if result.Ranking[0].TokenID != safe || result.Ranking[0].Rank != 1 {
		t.Errorf("safest token must rank first: %+v", result.Ranking)
	}
	if result.Ranking[1].TokenID != risky || result.Ranking[1].Rank != 2 {
		t.Errorf("riskiest token must rank last: %+v", result.Ranking)
	}

	ownership := result.CategoryRankings[domain.CategoryOwnership]
	if len(ownership) != 2 || ownership[0].TokenID != safe {
		t.Errorf("unexpected ownership ranking: %+v", ownership)
	}
}

func TestCompare_MissingTokenExcludedWithoutError(t *testing.T) {
	e := newTestEngine(newTestClock(), nil)
	ctx := context.Background()

	cached := testMint(t, 0)
	missing := testMint(t, 1)

	if _, err := e.Classify(ctx, cached, ownershipOnlyInput(50), false); err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	result, err := e.Compare(ctx, []string{missing, cached})
	if err != nil {
		t.Fatalf("Compare must not fail on missing ids: %v", err)
	}

	if len(result.Ranking) != 1 || result.Ranking[0].TokenID != cached {
		t.Errorf("expected ranking with only the cached token, got %+v", result.Ranking)
	}
	if len(result.Missing) != 1 || result.Missing[0] != missing {
		t.Errorf("expected missing note for %s, got %v", missing, result.Missing)
	}
}

func TestCompare_DeduplicatesInput(t *testing.T) {
	e := newTestEngine(newTestClock(), nil)
	ctx := context.Background()

	tok := testMint(t, 0)
	if _, err := e.Classify(ctx, tok, ownershipOnlyInput(50), false); err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	result, err := e.Compare(ctx, []string{tok, tok, tok})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(result.Ranking) != 1 {
		t.Errorf("duplicates must collapse to one entry, got %d", len(result.Ranking))
	}
}

func TestCompare_Empty(t *testing.T) {
	e := newTestEngine(newTestClock(), nil)

	result, err := e.Compare(context.Background(), nil)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(result.Ranking) != 0 || len(result.Missing) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestCompare_CategoryRankingSkipsAbsentCategories(t *testing.T) {
	e := newTestEngine(newTestClock(), nil)
	ctx := context.Background()

	withOwnership := testMint(t, 0)
	withTrading := testMint(t, 1)

	if _, err := e.Classify(ctx, withOwnership, ownershipOnlyInput(60), false); err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	tradingInput := &domain.RawInput{
		Trading: &domain.TradingMetrics{WashTradingPct: f64(40)},
	}
	if _, err := e.Classify(ctx, withTrading, tradingInput, false); err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	result, err := e.Compare(ctx, []string{withOwnership, withTrading})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	if entries := result.CategoryRankings[domain.CategoryOwnership]; len(entries) != 1 || entries[0].TokenID != withOwnership {
		t.Errorf("ownership ranking should contain only the ownership token: %+v", entries)
	}
	if entries := result.CategoryRankings[domain.CategoryTrading]; len(entries) != 1 || entries[0].TokenID != withTrading {
		t.Errorf("trading ranking should contain only the trading token: %+v", entries)
	}
	if _, present := result.CategoryRankings[domain.CategorySocial]; present {
		t.Error("social ranking should be absent entirely")
	}
}
