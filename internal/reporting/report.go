package reporting

import (
	"time"

	"token-risk-engine/internal/domain"
)

// Report summarizes the current state of the classification store and
// benchmark corpus.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	TokenCount  int

	// Risk level distribution across classified tokens.
	RiskLevelCounts map[domain.RiskLevel]int

	// Benchmark corpus sizes per category.
	CorpusSizes []CorpusRow

	// Ranking (sorted by composite score ascending, safest first).
	Ranking []RankingRow

	// CategoryBreakdown holds per-token category scores, one row per
	// token in ranking order.
	CategoryBreakdown []CategoryBreakdownRow
}

// CorpusRow is the benchmark observation count for one category.
type CorpusRow struct {
	Category     domain.Category
	Observations int
}

// RankingRow is one token in the composite ranking.
type RankingRow struct {
	Rank           int
	TokenID        string
	CompositeScore float64
	RiskLevel      domain.RiskLevel
	TopConcern     string // highest-importance feature of the worst category, if any
}

// CategoryBreakdownRow holds one token's category scores. Categories
// absent from the token's input are absent from the map.
type CategoryBreakdownRow struct {
	TokenID string
	Scores  map[domain.Category]float64
}
