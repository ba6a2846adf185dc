// Package benchmark maintains per-category distributions of
// historical scores and answers percentile-rank queries against them.
package benchmark

import (
	"context"
	"fmt"
	"math"
	"sync"

	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/storage"
)

// Relative-risk labels. Cutoffs are percentile bands, deliberately
// distinct from the absolute risk-level thresholds.
const (
	LabelSafer   = "safer than most peers"
	LabelTypical = "typical of peers"
	LabelRiskier = "riskier than most peers"

	saferCeiling = 25.0
	riskierFloor = 75.0
)

// ValidationError reports an invalid benchmark update.
type ValidationError struct {
	Category string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("benchmark validation: category %q: %s", e.Category, e.Reason)
}

// Result is the answer to one percentile query. When Available is
// false the corpus for the category is empty and Percentile/Label
// carry no meaning.
type Result struct {
	Available  bool
	Percentile float64 // 0-100
	Label      string
	CorpusSize int
}

// Engine answers percentile queries over an append-only corpus of
// historical category scores. Ingestion and queries are serialized by
// an engine-level lock so a query never observes a half-applied batch.
type Engine struct {
	mu    sync.RWMutex
	store storage.BenchmarkStore
}

// NewEngine creates a benchmark engine over the given store.
func NewEngine(store storage.BenchmarkStore) *Engine {
	return &Engine{store: store}
}

// Ingest appends observations for one category.
// Returns *ValidationError for unknown categories or non-finite scores.
func (e *Engine) Ingest(ctx context.Context, cat domain.Category, scores []float64) error {
	if err := validate(cat, scores); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.store.Append(ctx, cat, scores)
}

// IngestBatch appends observations for several categories in one
// atomic step: the whole batch is validated up front and applied under
// a single lock acquisition, so no percentile query can interleave.
func (e *Engine) IngestBatch(ctx context.Context, batch map[domain.Category][]float64) error {
	for cat, scores := range batch {
		if err := validate(cat, scores); err != nil {
			return err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, cat := range domain.Categories() {
		scores, ok := batch[cat]
		if !ok || len(scores) == 0 {
			continue
		}
		if err := e.store.Append(ctx, cat, scores); err != nil {
			return fmt.Errorf("append %s observations: %w", cat, err)
		}
	}
	return nil
}

// Percentile returns the rank of score within the category's corpus:
// the fraction of observations less than or equal to score, times 100.
// An empty corpus yields Result{Available: false}, never a fabricated
// percentile.
func (e *Engine) Percentile(ctx context.Context, cat domain.Category, score float64) (Result, error) {
	if !cat.Valid() {
		return Result{}, &ValidationError{Category: string(cat), Reason: "unknown category"}
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	observations, err := e.store.GetByCategory(ctx, cat)
	if err != nil {
		return Result{}, fmt.Errorf("load %s corpus: %w", cat, err)
	}
	if len(observations) == 0 {
		return Result{Available: false}, nil
	}

	atOrBelow := 0
	for _, o := range observations {
		if o <= score {
			atOrBelow++
		}
	}
	rank := float64(atOrBelow) / float64(len(observations)) * 100

	return Result{
		Available:  true,
		Percentile: rank,
		Label:      label(rank),
		CorpusSize: len(observations),
	}, nil
}

// CorpusSizes returns the observation count per category.
func (e *Engine) CorpusSizes(ctx context.Context) (map[domain.Category]int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.store.Counts(ctx)
}

func label(percentile float64) string {
	switch {
	case percentile <= saferCeiling:
		return LabelSafer
	case percentile < riskierFloor:
		return LabelTypical
	default:
		return LabelRiskier
	}
}

func validate(cat domain.Category, scores []float64) error {
	if !cat.Valid() {
		return &ValidationError{Category: string(cat), Reason: "unknown category"}
	}
	for _, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return &ValidationError{Category: string(cat), Reason: fmt.Sprintf("non-finite score %v", s)}
		}
	}
	return nil
}
