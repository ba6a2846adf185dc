package postgres

import (
	"context"
	"fmt"

	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/storage"
)

// ScoreHistoryStore implements storage.ScoreHistoryStore using
// PostgreSQL. One snapshot fans out to one row per category.
type ScoreHistoryStore struct {
	pool *Pool
}

// NewScoreHistoryStore creates a new ScoreHistoryStore.
func NewScoreHistoryStore(pool *Pool) *ScoreHistoryStore {
	return &ScoreHistoryStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ScoreHistoryStore = (*ScoreHistoryStore)(nil)

// Append adds one snapshot. Rows for the same (token, timestamp) are
// never updated; history is append-only.
func (s *ScoreHistoryStore) Append(ctx context.Context, snap *domain.ScoreSnapshot) error {
	if snap == nil || snap.TokenID == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin history append: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO score_history (token_id, timestamp_ms, category, score)
		VALUES ($1, $2, $3, $4)
	`
	for _, cat := range domain.Categories() {
		score, present := snap.Scores[cat]
		if !present {
			continue
		}
		if _, err := tx.Exec(ctx, query, snap.TokenID, snap.TimestampMs, string(cat), score); err != nil {
			return fmt.Errorf("insert history row: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit history append: %w", err)
	}
	return nil
}

// GetByToken retrieves all snapshots for a token, ordered by
// TimestampMs ascending.
func (s *ScoreHistoryStore) GetByToken(ctx context.Context, tokenID string) ([]*domain.ScoreSnapshot, error) {
	query := `
		SELECT timestamp_ms, category, score
		FROM score_history
		WHERE token_id = $1
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.pool.Query(ctx, query, tokenID)
	if err != nil {
		return nil, fmt.Errorf("get score history: %w", err)
	}
	defer rows.Close()

	var (
		result  []*domain.ScoreSnapshot
		current *domain.ScoreSnapshot
	)
	for rows.Next() {
		var (
			timestampMs int64
			category    string
			score       float64
		)
		if err := rows.Scan(&timestampMs, &category, &score); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}

		if current == nil || current.TimestampMs != timestampMs {
			current = &domain.ScoreSnapshot{
				TokenID:     tokenID,
				TimestampMs: timestampMs,
				Scores:      make(map[domain.Category]float64),
			}
			result = append(result, current)
		}
		current.Scores[domain.Category(category)] = score
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}

	if result == nil {
		return []*domain.ScoreSnapshot{}, nil
	}
	return result, nil
}
