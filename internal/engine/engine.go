// Package engine coordinates the classification pipeline:
// normalization → category scoring → trend adjustment → composite
// aggregation → peer benchmarking, plus the classification cache and
// the per-token concurrency guard in front of it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"token-risk-engine/internal/benchmark"
	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/normalize"
	"token-risk-engine/internal/observability"
	"token-risk-engine/internal/scoring"
	"token-risk-engine/internal/storage"
	"token-risk-engine/internal/tokenid"
	"token-risk-engine/internal/trend"
)

// Errors surfaced to callers.
var (
	// ErrInvalidToken is returned for malformed token identities.
	ErrInvalidToken = tokenid.ErrInvalidToken

	// ErrInsufficientData is returned when zero categories are present
	// after normalization.
	ErrInsufficientData = scoring.ErrInsufficientData

	// ErrNotFound is returned by Get for tokens that were never classified.
	ErrNotFound = storage.ErrNotFound
)

// CategoryScorer scores one category from its normalized features.
// Pluggable so tests can instrument call counts; defaults to
// scoring.ScoreCategory.
type CategoryScorer func(cat domain.Category, features []domain.NormalizedFeature) (domain.CategoryScore, bool)

// Options for creating an Engine.
type Options struct {
	// Required stores
	Classifications storage.ClassificationStore
	History         storage.ScoreHistoryStore

	// Required benchmark engine
	Benchmarks *benchmark.Engine

	// CacheTTL bounds how long a cached classification is served
	// without recomputation. Zero uses the default of 5 minutes.
	CacheTTL time.Duration

	// Trend adjustment knobs. Zero value uses trend.DefaultConfig.
	Trend trend.Config

	// Optional Prometheus metrics. Nil disables instrumentation.
	Metrics *observability.Metrics

	// Scorer overrides the category scorer (tests only).
	Scorer CategoryScorer

	// Clock overrides time.Now for deterministic output.
	Clock func() time.Time

	Verbose bool
}

// DefaultCacheTTL is how long cached classifications stay fresh.
const DefaultCacheTTL = 5 * time.Minute

// Engine is the classification engine. It holds the only two pieces
// of process-wide mutable state — the classification cache and the
// benchmark corpus — behind their respective guards. Construct once
// per process and share by reference.
type Engine struct {
	classifications storage.ClassificationStore
	history         storage.ScoreHistoryStore
	benchmarks      *benchmark.Engine
	scoreCategory   CategoryScorer

	ttl      time.Duration
	trendCfg trend.Config
	metrics  *observability.Metrics
	now      func() time.Time
	verbose  bool

	// flight guarantees at most one in-flight computation per token.
	// Concurrent Classify calls for the same token wait for the
	// winner's result instead of duplicating work.
	flight singleflight.Group
}

// New creates a new Engine.
func New(opts Options) *Engine {
	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	trendCfg := opts.Trend
	if trendCfg == (trend.Config{}) {
		trendCfg = trend.DefaultConfig()
	}
	scorer := opts.Scorer
	if scorer == nil {
		scorer = scoring.ScoreCategory
	}
	now := opts.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &Engine{
		classifications: opts.Classifications,
		history:         opts.History,
		benchmarks:      opts.Benchmarks,
		scoreCategory:   scorer,
		ttl:             ttl,
		trendCfg:        trendCfg,
		metrics:         opts.Metrics,
		now:             now,
		verbose:         opts.Verbose,
	}
}

// Classify returns the classification for a token. When forceRefresh
// is false and a fresh cache entry exists it is served unchanged;
// otherwise a new classification is computed through the full pipeline
// and stored, replacing any prior entry.
func (e *Engine) Classify(ctx context.Context, tokenID string, input *domain.RawInput, forceRefresh bool) (*domain.Classification, error) {
	if err := tokenid.Validate(tokenID); err != nil {
		e.countError("invalid_token")
		return nil, err
	}

	if !forceRefresh {
		if cached := e.freshEntry(ctx, tokenID); cached != nil {
			if e.metrics != nil {
				e.metrics.CacheHits.Inc()
			}
			return cached, nil
		}
	}
	if e.metrics != nil {
		e.metrics.CacheMisses.Inc()
	}

	v, err, shared := e.flight.Do(tokenID, func() (any, error) {
		// Re-check freshness inside the guard: a waiter queued behind
		// a just-finished computation should not recompute.
		if !forceRefresh {
			if cached := e.freshEntry(ctx, tokenID); cached != nil {
				return cached, nil
			}
		}
		return e.compute(ctx, tokenID, input)
	})
	if shared && e.metrics != nil {
		e.metrics.InflightShared.Inc()
	}
	if err != nil {
		return nil, err
	}

	// Waiters share the winner's result; clone so each caller owns its copy.
	return v.(*domain.Classification).Clone(), nil
}

// Get returns the cached classification for a token, or ErrNotFound.
// It never triggers computation.
func (e *Engine) Get(ctx context.Context, tokenID string) (*domain.Classification, error) {
	if err := tokenid.Validate(tokenID); err != nil {
		return nil, err
	}
	return e.classifications.Get(ctx, tokenID)
}

// UpdateBenchmark ingests historical scores for each supplied category
// in a single atomic step. Returns *benchmark.ValidationError for
// unknown categories or non-finite scores.
func (e *Engine) UpdateBenchmark(ctx context.Context, batch map[domain.Category][]float64) error {
	if err := e.benchmarks.IngestBatch(ctx, batch); err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.BenchmarkIngests.Inc()
		if counts, err := e.benchmarks.CorpusSizes(ctx); err == nil {
			for cat, n := range counts {
				e.metrics.BenchmarkCorpus.WithLabelValues(string(cat)).Set(float64(n))
			}
		}
	}
	return nil
}

// freshEntry returns a cached classification if one exists within TTL.
func (e *Engine) freshEntry(ctx context.Context, tokenID string) *domain.Classification {
	cached, err := e.classifications.Get(ctx, tokenID)
	if err != nil {
		return nil
	}
	if e.now().Sub(cached.ComputedAt) > e.ttl {
		return nil
	}
	return cached
}

// compute runs the full pipeline for one token and stores the result.
func (e *Engine) compute(ctx context.Context, tokenID string, input *domain.RawInput) (*domain.Classification, error) {
	start := e.now()

	categoryScores := make(map[domain.Category]float64)
	importance := make(map[domain.Category][]domain.FeatureImportance)
	explanations := make(map[domain.Category][]string)

	for _, cat := range domain.Categories() {
		features, dropped := normalize.Category(cat, input)
		for _, name := range dropped {
			e.logf("token %s: dropped non-finite metric %s/%s", tokenID, cat, name)
		}

		cs, present := e.scoreCategory(cat, features)
		if !present {
			continue
		}
		categoryScores[cat] = cs.Score
		importance[cat] = cs.RankedFeatures
		explanations[cat] = cs.Explanations
	}

	if len(categoryScores) == 0 {
		e.countError("insufficient_data")
		return nil, ErrInsufficientData
	}

	history, err := e.history.GetByToken(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("load score history: %w", err)
	}
	adjusted, adjustments := trend.Adjust(e.trendCfg, categoryScores, history)

	// Record the pre-adjustment scores so the next classification sees
	// raw score movement, not compounded adjustments.
	snapshot := &domain.ScoreSnapshot{
		TokenID:     tokenID,
		TimestampMs: start.UnixMilli(),
		Scores:      categoryScores,
	}
	if err := e.history.Append(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("append score history: %w", err)
	}

	composite, level, err := scoring.Composite(adjusted)
	if err != nil {
		if errors.Is(err, scoring.ErrInsufficientData) {
			e.countError("insufficient_data")
		}
		return nil, err
	}

	peer, err := e.peerComparison(ctx, adjusted)
	if err != nil {
		return nil, err
	}

	c := &domain.Classification{
		TokenID:           tokenID,
		ComputedAt:        start,
		CompositeScore:    composite,
		RiskLevel:         level,
		CategoryScores:    adjusted,
		FeatureImportance: importance,
		Explanations:      explanations,
		TrendAdjustments:  adjustments,
		PeerComparison:    peer,
	}

	if err := e.classifications.Put(ctx, c); err != nil {
		return nil, fmt.Errorf("store classification: %w", err)
	}

	if e.metrics != nil {
		e.metrics.ClassificationsComputed.Inc()
		e.metrics.RiskLevelAssigned.WithLabelValues(string(level)).Inc()
		e.metrics.ClassifyDuration.Observe(time.Since(start).Seconds())
	}

	return c, nil
}

// peerComparison attaches percentile context for every present
// category. Categories with an empty benchmark corpus are omitted
// from both maps rather than given a fabricated percentile.
func (e *Engine) peerComparison(ctx context.Context, scores map[domain.Category]float64) (domain.PeerComparison, error) {
	peer := domain.PeerComparison{
		Percentiles:  make(map[domain.Category]float64),
		RelativeRisk: make(map[domain.Category]string),
	}

	for _, cat := range domain.Categories() {
		score, present := scores[cat]
		if !present {
			continue
		}
		result, err := e.benchmarks.Percentile(ctx, cat, score)
		if err != nil {
			return domain.PeerComparison{}, fmt.Errorf("percentile %s: %w", cat, err)
		}
		if e.metrics != nil {
			e.metrics.PercentileQueries.Inc()
		}
		if !result.Available {
			continue
		}
		peer.Percentiles[cat] = result.Percentile
		peer.RelativeRisk[cat] = result.Label
	}

	return peer, nil
}

func (e *Engine) countError(errorType string) {
	if e.metrics != nil {
		e.metrics.ClassificationErrors.WithLabelValues(errorType).Inc()
	}
}

func (e *Engine) logf(format string, args ...any) {
	if e.verbose {
		log.Printf("[engine] "+format, args...)
	}
}
