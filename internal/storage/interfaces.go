package storage

import (
	"context"

	"token-risk-engine/internal/domain"
)

// ClassificationStore holds the latest classification per token.
// Writes replace any prior entry for the same token id.
type ClassificationStore interface {
	// Put stores a classification, replacing any existing entry for
	// the token. The store owns its copy of the record.
	Put(ctx context.Context, c *domain.Classification) error

	// Get retrieves the latest classification for a token.
	// Returns ErrNotFound if nothing has ever been stored.
	Get(ctx context.Context, tokenID string) (*domain.Classification, error)

	// TokenIDs returns all token ids with a stored classification,
	// sorted ascending.
	TokenIDs(ctx context.Context) ([]string, error)
}

// ScoreHistoryStore keeps append-only per-token category-score
// snapshots. The trend adjuster reads them ordered by time.
type ScoreHistoryStore interface {
	// Append adds one snapshot. Snapshots are never updated.
	Append(ctx context.Context, s *domain.ScoreSnapshot) error

	// GetByToken retrieves all snapshots for a token, ordered by
	// TimestampMs ascending. Returns an empty slice (not an error)
	// when the token has no history.
	GetByToken(ctx context.Context, tokenID string) ([]*domain.ScoreSnapshot, error)
}

// BenchmarkStore keeps the append-only per-category score
// observations backing percentile queries.
type BenchmarkStore interface {
	// Append adds observations for one category in a single call.
	Append(ctx context.Context, cat domain.Category, scores []float64) error

	// GetByCategory retrieves all observations for a category.
	// Returns an empty slice when the corpus is empty.
	GetByCategory(ctx context.Context, cat domain.Category) ([]float64, error)

	// Counts returns the observation count per category.
	Counts(ctx context.Context) (map[domain.Category]int, error)
}
