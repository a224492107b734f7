package reporting

import (
	"fmt"
	"strings"

	"bsc-token-sentinel/internal/domain"
)

// RenderHistoryCSV renders score history points as CSV string.
func RenderHistoryCSV(points []*domain.ScorePoint) string {
	var sb strings.Builder

	// Header
	sb.WriteString("token_address,generated_at,score,band,")
	sb.WriteString("ownership_impact,mint_blacklist_impact,liquidity_lock_impact,holder_impact,")
	sb.WriteString("dev_history_impact,tax_impact,market_impact\n")

	// Rows
	for _, p := range points {
		sb.WriteString(fmt.Sprintf("%s,%d,%.2f,%s,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f\n",
			p.TokenAddress,
			p.GeneratedAt,
			p.Score,
			p.Band,
			p.OwnershipImpact,
			p.MintBlacklistImpact,
			p.LiquidityLockImpact,
			p.HolderImpact,
			p.DevHistoryImpact,
			p.TaxImpact,
			p.MarketImpact,
		))
	}

	return sb.String()
}
