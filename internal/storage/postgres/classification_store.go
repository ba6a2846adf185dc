package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/storage"
)

// ClassificationStore implements storage.ClassificationStore using
// PostgreSQL. The full classification is stored as a JSONB payload
// next to the columns downstream queries filter on.
type ClassificationStore struct {
	pool *Pool
}

// NewClassificationStore creates a new ClassificationStore.
func NewClassificationStore(pool *Pool) *ClassificationStore {
	return &ClassificationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ClassificationStore = (*ClassificationStore)(nil)

// Put stores a classification, replacing any existing entry for the token.
func (s *ClassificationStore) Put(ctx context.Context, c *domain.Classification) error {
	if c == nil || c.TokenID == "" {
		return storage.ErrInvalidInput
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal classification: %w", err)
	}

	query := `
		INSERT INTO classifications (token_id, computed_at, composite_score, risk_level, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (token_id) DO UPDATE SET
			computed_at = EXCLUDED.computed_at,
			composite_score = EXCLUDED.composite_score,
			risk_level = EXCLUDED.risk_level,
			payload = EXCLUDED.payload
	`

	_, err = s.pool.Exec(ctx, query,
		c.TokenID,
		c.ComputedAt,
		c.CompositeScore,
		string(c.RiskLevel),
		payload,
	)
	if err != nil {
		return fmt.Errorf("upsert classification: %w", err)
	}
	return nil
}

// Get retrieves the latest classification for a token.
// Returns ErrNotFound if nothing has ever been stored.
func (s *ClassificationStore) Get(ctx context.Context, tokenID string) (*domain.Classification, error) {
	query := `SELECT payload FROM classifications WHERE token_id = $1`

	var payload []byte
	err := s.pool.QueryRow(ctx, query, tokenID).Scan(&payload)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get classification: %w", err)
	}

	var c domain.Classification
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("unmarshal classification: %w", err)
	}
	return &c, nil
}

// TokenIDs returns all token ids with a stored classification, sorted ascending.
func (s *ClassificationStore) TokenIDs(ctx context.Context) ([]string, error) {
	query := `SELECT token_id FROM classifications ORDER BY token_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list token ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan token id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token ids: %w", err)
	}
	return ids, nil
}
