package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders the ranking as CSV string.
func RenderCSV(ranking []RankingRow) string {
	var sb strings.Builder

	sb.WriteString("rank,token_id,composite_score,risk_level,top_concern\n")

	for _, row := range ranking {
		sb.WriteString(fmt.Sprintf("%d,%s,%.6f,%s,%s\n",
			row.Rank,
			row.TokenID,
			row.CompositeScore,
			row.RiskLevel,
			row.TopConcern,
		))
	}

	return sb.String()
}
