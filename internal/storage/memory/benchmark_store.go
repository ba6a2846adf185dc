package memory

import (
	"context"
	"sync"

	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/storage"
)

// BenchmarkStore is an in-memory implementation of
// storage.BenchmarkStore. Observations are append-only.
type BenchmarkStore struct {
	mu   sync.RWMutex
	data map[domain.Category][]float64
}

// NewBenchmarkStore creates a new in-memory benchmark store.
func NewBenchmarkStore() *BenchmarkStore {
	return &BenchmarkStore{
		data: make(map[domain.Category][]float64),
	}
}

// Append adds observations for one category.
func (s *BenchmarkStore) Append(_ context.Context, cat domain.Category, scores []float64) error {
	if !cat.Valid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[cat] = append(s.data[cat], scores...)
	return nil
}

// GetByCategory retrieves all observations for a category.
func (s *BenchmarkStore) GetByCategory(_ context.Context, cat domain.Category) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]float64(nil), s.data[cat]...), nil
}

// Counts returns the observation count per category.
func (s *BenchmarkStore) Counts(_ context.Context) (map[domain.Category]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.Category]int, len(s.data))
	for cat, scores := range s.data {
		counts[cat] = len(scores)
	}
	return counts, nil
}

// Verify interface compliance at compile time.
var _ storage.BenchmarkStore = (*BenchmarkStore)(nil)
