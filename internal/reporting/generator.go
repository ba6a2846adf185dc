package reporting

import (
	"context"
	"sort"
	"time"

	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/storage"
)

// Generator produces reports from stored classifications and the
// benchmark corpus.
type Generator struct {
	classifications storage.ClassificationStore
	benchmarks      storage.BenchmarkStore
	now             func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(classifications storage.ClassificationStore, benchmarks storage.BenchmarkStore) *Generator {
	return &Generator{
		classifications: classifications,
		benchmarks:      benchmarks,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete report over every stored classification.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	ids, err := g.classifications.TokenIDs(ctx)
	if err != nil {
		return nil, err
	}

	classifications := make([]*domain.Classification, 0, len(ids))
	for _, id := range ids {
		c, err := g.classifications.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		classifications = append(classifications, c)
	}

	counts, err := g.benchmarks.Counts(ctx)
	if err != nil {
		return nil, err
	}

	return &Report{
		GeneratedAt:       g.now(),
		TokenCount:        len(classifications),
		RiskLevelCounts:   riskLevelCounts(classifications),
		CorpusSizes:       corpusRows(counts),
		Ranking:           ranking(classifications),
		CategoryBreakdown: categoryBreakdown(classifications),
	}, nil
}

func riskLevelCounts(classifications []*domain.Classification) map[domain.RiskLevel]int {
	counts := make(map[domain.RiskLevel]int)
	for _, c := range classifications {
		counts[c.RiskLevel]++
	}
	return counts
}

func corpusRows(counts map[domain.Category]int) []CorpusRow {
	rows := make([]CorpusRow, 0, len(counts))
	for _, cat := range domain.Categories() {
		n, ok := counts[cat]
		if !ok {
			continue
		}
		rows = append(rows, CorpusRow{Category: cat, Observations: n})
	}
	return rows
}

// ranking orders tokens by composite score ascending, safest first.
// Ties break on token id for stable output.
func ranking(classifications []*domain.Classification) []RankingRow {
	sorted := append([]*domain.Classification(nil), classifications...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CompositeScore != sorted[j].CompositeScore {
			return sorted[i].CompositeScore < sorted[j].CompositeScore
		}
		return sorted[i].TokenID < sorted[j].TokenID
	})

	rows := make([]RankingRow, 0, len(sorted))
	for i, c := range sorted {
		rows = append(rows, RankingRow{
			Rank:           i + 1,
			TokenID:        c.TokenID,
			CompositeScore: c.CompositeScore,
			RiskLevel:      c.RiskLevel,
			TopConcern:     topConcern(c),
		})
	}
	return rows
}

// topConcern names the highest-importance feature of the token's
// worst-scoring category. Empty when the token has no scored features.
func topConcern(c *domain.Classification) string {
	var (
		worstCat   domain.Category
		worstScore = -1.0
	)
	for _, cat := range domain.Categories() {
		score, ok := c.CategoryScores[cat]
		if !ok {
			continue
		}
		if score > worstScore {
			worstScore = score
			worstCat = cat
		}
	}
	if worstScore < 0 {
		return ""
	}

	features := c.FeatureImportance[worstCat]
	if len(features) == 0 {
		return ""
	}
	return features[0].Name
}

func categoryBreakdown(classifications []*domain.Classification) []CategoryBreakdownRow {
	ranked := ranking(classifications)

	byID := make(map[string]*domain.Classification, len(classifications))
	for _, c := range classifications {
		byID[c.TokenID] = c
	}

	rows := make([]CategoryBreakdownRow, 0, len(ranked))
	for _, r := range ranked {
		c := byID[r.TokenID]
		scores := make(map[domain.Category]float64, len(c.CategoryScores))
		for cat, score := range c.CategoryScores {
			scores[cat] = score
		}
		rows = append(rows, CategoryBreakdownRow{TokenID: c.TokenID, Scores: scores})
	}
	return rows
}
