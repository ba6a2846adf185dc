package benchmark

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/storage/memory"
)

func newTestEngine() *Engine {
	return NewEngine(memory.NewBenchmarkStore())
}

func TestPercentile_EmptyCorpus(t *testing.T) {
	e := newTestEngine()

	result, err := e.Percentile(context.Background(), domain.CategoryTrading, 0.5)
	if err != nil {
		t.Fatalf("Percentile failed: %v", err)
	}
	if result.Available {
		t.Fatal("empty corpus must report insufficient benchmark data")
	}
}

func TestPercentile_KnownCorpus(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	if err := e.Ingest(ctx, domain.CategoryTrading, []float64{0.1, 0.2, 0.3, 0.4, 0.5}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	// 3 of 5 observations <= 0.3 → 60
	result, err := e.Percentile(ctx, domain.CategoryTrading, 0.3)
	if err != nil {
		t.Fatalf("Percentile failed: %v", err)
	}
	if !result.Available {
		t.Fatal("expected available result")
	}
	if math.Abs(result.Percentile-60) > 1e-9 {
		t.Errorf("expected percentile 60, got %f", result.Percentile)
	}
	if result.CorpusSize != 5 {
		t.Errorf("expected corpus size 5, got %d", result.CorpusSize)
	}
}

func TestPercentile_Extremes(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	if err := e.Ingest(ctx, domain.CategoryLiquidity, []float64{0.2, 0.4, 0.6, 0.8}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	// Score equal to the corpus maximum ranks at 100
	top, _ := e.Percentile(ctx, domain.CategoryLiquidity, 0.8)
	if top.Percentile != 100 {
		t.Errorf("expected 100 at corpus max, got %f", top.Percentile)
	}

	// Score below all observations ranks at 0, not negative or NaN
	bottom, _ := e.Percentile(ctx, domain.CategoryLiquidity, 0.1)
	if bottom.Percentile != 0 || math.IsNaN(bottom.Percentile) {
		t.Errorf("expected 0 below corpus, got %f", bottom.Percentile)
	}
}

func TestPercentile_Labels(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	// 100 observations 0.00..0.99
	scores := make([]float64, 100)
	for i := range scores {
		scores[i] = float64(i) / 100
	}
	if err := e.Ingest(ctx, domain.CategoryOwnership, scores); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	cases := []struct {
		score float64
		want  string
	}{
		{0.05, LabelSafer},   // percentile 6
		{0.50, LabelTypical}, // percentile 51
		{0.95, LabelRiskier}, // percentile 96
	}
	for _, tc := range cases {
		result, err := e.Percentile(ctx, domain.CategoryOwnership, tc.score)
		if err != nil {
			t.Fatalf("Percentile(%f) failed: %v", tc.score, err)
		}
		if result.Label != tc.want {
			t.Errorf("score %f: expected label %q, got %q (percentile %f)", tc.score, tc.want, result.Label, result.Percentile)
		}
	}
}

func TestIngest_Validation(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	err := e.Ingest(ctx, domain.Category("bogus"), []float64{0.5})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for unknown category, got %v", err)
	}

	err = e.Ingest(ctx, domain.CategoryTrading, []float64{math.NaN()})
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for NaN score, got %v", err)
	}
}

func TestIngestBatch_AllOrNothingValidation(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	batch := map[domain.Category][]float64{
		domain.CategoryTrading:   {0.1, 0.2},
		domain.Category("bogus"): {0.3},
	}
	if err := e.IngestBatch(ctx, batch); err == nil {
		t.Fatal("expected validation error for batch with unknown category")
	}

	// Nothing from the rejected batch may have landed
	result, err := e.Percentile(ctx, domain.CategoryTrading, 0.5)
	if err != nil {
		t.Fatalf("Percentile failed: %v", err)
	}
	if result.Available {
		t.Error("rejected batch must not mutate the corpus")
	}
}

func TestEngine_ConcurrentIngestAndQuery(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = e.IngestBatch(ctx, map[domain.Category][]float64{
				domain.CategoryTrading:   {float64(i) / 25},
				domain.CategoryLiquidity: {float64(i) / 25},
			})
		}(i)
		go func() {
			defer wg.Done()
			result, err := e.Percentile(ctx, domain.CategoryTrading, 0.5)
			if err != nil {
				t.Errorf("Percentile failed: %v", err)
			}
			if result.Available && (result.Percentile < 0 || result.Percentile > 100) {
				t.Errorf("percentile out of range: %f", result.Percentile)
			}
		}()
	}
	wg.Wait()
}
