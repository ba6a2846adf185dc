package reporting

import (
	"fmt"
	"strings"
	"time"

	"token-risk-engine/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Token Risk Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Classified tokens: %d\n\n", r.TokenCount))

	// Risk Level Distribution
	sb.WriteString("## Risk Level Distribution\n\n")
	if r.TokenCount > 0 {
		sb.WriteString("| Level | Tokens |\n")
		sb.WriteString("|-------|--------|\n")
		for _, level := range []domain.RiskLevel{domain.RiskLow, domain.RiskMedium, domain.RiskHigh, domain.RiskVeryHigh} {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", level, r.RiskLevelCounts[level]))
		}
	} else {
		sb.WriteString("No classified tokens.\n")
	}
	sb.WriteString("\n")

	// Benchmark Corpus
	sb.WriteString("## Benchmark Corpus\n\n")
	if len(r.CorpusSizes) > 0 {
		sb.WriteString("| Category | Observations |\n")
		sb.WriteString("|----------|-------------|\n")
		for _, row := range r.CorpusSizes {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", row.Category, row.Observations))
		}
	} else {
		sb.WriteString("Benchmark corpus is empty.\n")
	}
	sb.WriteString("\n")

	// Ranking
	sb.WriteString("## Ranking\n\n")
	if len(r.Ranking) > 0 {
		sb.WriteString("| Rank | Token | Composite | Level | Top Concern |\n")
		sb.WriteString("|------|-------|-----------|-------|-------------|\n")
		for _, row := range r.Ranking {
			concern := row.TopConcern
			if concern == "" {
				concern = "-"
			}
			sb.WriteString(fmt.Sprintf("| %d | %s | %.4f | %s | %s |\n",
				row.Rank, row.TokenID, row.CompositeScore, row.RiskLevel, concern))
		}
	} else {
		sb.WriteString("No tokens to rank.\n")
	}
	sb.WriteString("\n")

	// Category Breakdown
	sb.WriteString("## Category Breakdown\n\n")
	if len(r.CategoryBreakdown) > 0 {
		sb.WriteString("| Token |")
		for _, cat := range domain.Categories() {
			sb.WriteString(fmt.Sprintf(" %s |", cat))
		}
		sb.WriteString("\n|-------|")
		for range domain.Categories() {
			sb.WriteString("------|")
		}
		sb.WriteString("\n")
		for _, row := range r.CategoryBreakdown {
			sb.WriteString(fmt.Sprintf("| %s |", row.TokenID))
			for _, cat := range domain.Categories() {
				if score, ok := row.Scores[cat]; ok {
					sb.WriteString(fmt.Sprintf(" %.4f |", score))
				} else {
					sb.WriteString(" - |")
				}
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("No category scores available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
