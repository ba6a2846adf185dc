package memory

import (
	"context"
	"sort"
	"sync"

	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/storage"
)

// ScoreHistoryStore is an in-memory implementation of
// storage.ScoreHistoryStore.
type ScoreHistoryStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.ScoreSnapshot // keyed by token_id
}

// NewScoreHistoryStore creates a new in-memory score history store.
func NewScoreHistoryStore() *ScoreHistoryStore {
	return &ScoreHistoryStore{
		data: make(map[string][]*domain.ScoreSnapshot),
	}
}

// Append adds one snapshot.
func (s *ScoreHistoryStore) Append(_ context.Context, snap *domain.ScoreSnapshot) error {
	if snap == nil || snap.TokenID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[snap.TokenID] = append(s.data[snap.TokenID], copySnapshot(snap))
	return nil
}

// GetByToken retrieves all snapshots for a token, ordered by
// TimestampMs ascending.
func (s *ScoreHistoryStore) GetByToken(_ context.Context, tokenID string) ([]*domain.ScoreSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := s.data[tokenID]
	result := make([]*domain.ScoreSnapshot, 0, len(snaps))
	for _, snap := range snaps {
		result = append(result, copySnapshot(snap))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}

func copySnapshot(snap *domain.ScoreSnapshot) *domain.ScoreSnapshot {
	scores := make(map[domain.Category]float64, len(snap.Scores))
	for k, v := range snap.Scores {
		scores[k] = v
	}
	return &domain.ScoreSnapshot{
		TokenID:     snap.TokenID,
		TimestampMs: snap.TimestampMs,
		Scores:      scores,
	}
}

// Verify interface compliance at compile time.
var _ storage.ScoreHistoryStore = (*ScoreHistoryStore)(nil)
