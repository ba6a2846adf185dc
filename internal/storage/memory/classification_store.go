package memory

import (
	"context"
	"sort"
	"sync"

	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/storage"
)

// ClassificationStore is an in-memory implementation of
// storage.ClassificationStore.
type ClassificationStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Classification // keyed by token_id
}

// NewClassificationStore creates a new in-memory classification store.
func NewClassificationStore() *ClassificationStore {
	return &ClassificationStore{
		data: make(map[string]*domain.Classification),
	}
}

// Put stores a classification, replacing any existing entry.
func (s *ClassificationStore) Put(_ context.Context, c *domain.Classification) error {
	if c == nil || c.TokenID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to prevent external mutation
	s.data[c.TokenID] = c.Clone()
	return nil
}

// Get retrieves the latest classification. Returns ErrNotFound if none exists.
func (s *ClassificationStore) Get(_ context.Context, tokenID string) (*domain.Classification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.data[tokenID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return c.Clone(), nil
}

// TokenIDs returns all stored token ids, sorted ascending.
func (s *ClassificationStore) TokenIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Verify interface compliance at compile time.
var _ storage.ClassificationStore = (*ClassificationStore)(nil)
