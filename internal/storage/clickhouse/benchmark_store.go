package clickhouse

import (
	"context"
	"fmt"
	"time"

	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/storage"
)

// BenchmarkStore implements storage.BenchmarkStore using ClickHouse.
// Observations are append-only; the MergeTree table never rewrites
// rows, which matches the corpus semantics exactly.
type BenchmarkStore struct {
	conn *Conn
}

// NewBenchmarkStore creates a new BenchmarkStore.
func NewBenchmarkStore(conn *Conn) *BenchmarkStore {
	return &BenchmarkStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BenchmarkStore = (*BenchmarkStore)(nil)

// Append adds observations for one category in a single batch.
func (s *BenchmarkStore) Append(ctx context.Context, cat domain.Category, scores []float64) error {
	if !cat.Valid() {
		return storage.ErrInvalidInput
	}
	if len(scores) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO benchmark_observations (category, score, ingested_at)
	`)
	if err != nil {
		return fmt.Errorf("prepare benchmark batch: %w", err)
	}

	now := time.Now().UTC()
	for _, score := range scores {
		if err := batch.Append(string(cat), score, now); err != nil {
			return fmt.Errorf("append benchmark row: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send benchmark batch: %w", err)
	}
	return nil
}

// GetByCategory retrieves all observations for a category, ordered by
// ingestion time.
func (s *BenchmarkStore) GetByCategory(ctx context.Context, cat domain.Category) ([]float64, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT score
		FROM benchmark_observations
		WHERE category = ?
		ORDER BY ingested_at ASC
	`, string(cat))
	if err != nil {
		return nil, fmt.Errorf("query benchmark observations: %w", err)
	}
	defer rows.Close()

	scores := []float64{}
	for rows.Next() {
		var score float64
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("scan benchmark row: %w", err)
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate benchmark rows: %w", err)
	}

	return scores, nil
}

// Counts returns the observation count per category. Categories with
// no observations are absent from the map.
func (s *BenchmarkStore) Counts(ctx context.Context) (map[domain.Category]int, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT category, count() AS n
		FROM benchmark_observations
		GROUP BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("query benchmark counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Category]int)
	for rows.Next() {
		var (
			category string
			n        uint64
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scan count row: %w", err)
		}
		counts[domain.Category(category)] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate count rows: %w", err)
	}

	return counts, nil
}
