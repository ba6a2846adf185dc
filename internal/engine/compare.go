package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/storage"
)

// CompareEntry is one token's position in a ranking.
type CompareEntry struct {
	TokenID   string           `json:"token_id"`
	Score     float64          `json:"score"`
	RiskLevel domain.RiskLevel `json:"risk_level,omitempty"`
	Rank      int              `json:"rank"` // 1 = safest
}

// CompareResult ranks cached classifications. Ranking is ascending by
// composite score (lower = safer); ties are broken by token id so the
// order is stable across runs.
type CompareResult struct {
	Ranking          []CompareEntry                     `json:"ranking"`
	CategoryRankings map[domain.Category][]CompareEntry `json:"category_rankings"`

	// Missing lists requested ids with no cached classification, in
	// request order. Their absence is a note, not an error.
	Missing []string `json:"missing,omitempty"`
}

// Compare fetches the latest cached classification for each id and
// ranks them. It never computes classifications for missing ids.
func (e *Engine) Compare(ctx context.Context, tokenIDs []string) (*CompareResult, error) {
	if e.metrics != nil {
		e.metrics.CompareRequests.Inc()
	}

	seen := make(map[string]bool, len(tokenIDs))
	var classifications []*domain.Classification
	var missing []string

	for _, id := range tokenIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		c, err := e.classifications.Get(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				missing = append(missing, id)
				continue
			}
			return nil, fmt.Errorf("load classification %s: %w", id, err)
		}
		classifications = append(classifications, c)
	}

	result := &CompareResult{
		Ranking:          rankComposite(classifications),
		CategoryRankings: rankPerCategory(classifications),
		Missing:          missing,
	}
	return result, nil
}

func rankComposite(classifications []*domain.Classification) []CompareEntry {
	entries := make([]CompareEntry, 0, len(classifications))
	for _, c := range classifications {
		entries = append(entries, CompareEntry{
			TokenID:   c.TokenID,
			Score:     c.CompositeScore,
			RiskLevel: c.RiskLevel,
		})
	}
	sortEntries(entries)
	return entries
}

func rankPerCategory(classifications []*domain.Classification) map[domain.Category][]CompareEntry {
	rankings := make(map[domain.Category][]CompareEntry)

	for _, cat := range domain.Categories() {
		var entries []CompareEntry
		for _, c := range classifications {
			score, present := c.CategoryScores[cat]
			if !present {
				continue
			}
			entries = append(entries, CompareEntry{TokenID: c.TokenID, Score: score})
		}
		if len(entries) == 0 {
			continue
		}
		sortEntries(entries)
		rankings[cat] = entries
	}

	return rankings
}

// sortEntries orders ascending by score, ties by token id, and
// assigns 1-based ranks.
func sortEntries(entries []CompareEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score < entries[j].Score
		}
		return entries[i].TokenID < entries[j].TokenID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
