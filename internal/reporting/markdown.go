// Package reporting renders analysis reports for terminal and export use.
package reporting

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"bsc-token-sentinel/internal/domain"
)

// RenderMarkdown renders an analysis report as a Markdown document.
// generatedAt is a Unix timestamp in milliseconds.
func RenderMarkdown(r *domain.AnalysisReport, generatedAt int64) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Token Risk Report: %s\n\n", tokenTitle(r.Token)))
	sb.WriteString(fmt.Sprintf("Generated: %s\n", time.UnixMilli(generatedAt).UTC().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Chain: %s\n", r.Chain))
	sb.WriteString(fmt.Sprintf("Address: %s\n\n", r.Token.Address))

	sb.WriteString(fmt.Sprintf("**Score: %s / 100 (%s)**\n\n", formatFloat(r.Score), r.Band))

	// Risk Factors
	sb.WriteString("## Risk Factors\n\n")
	if len(r.Factors) > 0 {
		sb.WriteString("| Factor | Weight | Signal | Impact |\n")
		sb.WriteString("|--------|--------|--------|--------|\n")
		for _, f := range r.Factors {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %s | %.2f |\n",
				f.ID, f.Weight, signalString(f.Signal), f.Impact))
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("No factors available.\n\n")
	}

	// Evidence
	sb.WriteString("### Evidence\n\n")
	evidenceCount := 0
	for _, f := range r.Factors {
		for _, ev := range f.Evidence {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", f.ID, ev))
			evidenceCount++
		}
	}
	if evidenceCount == 0 {
		sb.WriteString("No evidence collected.\n")
	}
	sb.WriteString("\n")

	// Liquidity
	sb.WriteString("## Liquidity\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Pair | %s |\n", pairValue(r.Liquidity.Pair)))
	sb.WriteString(fmt.Sprintf("| DEX | %s |\n", stringValue(r.Liquidity.Dex)))
	sb.WriteString(fmt.Sprintf("| LP locked | %s |\n", pctValue(r.Liquidity.LPLockedPct)))
	sb.WriteString(fmt.Sprintf("| Locker | %s |\n", stringValue(r.Liquidity.Locker)))
	sb.WriteString(fmt.Sprintf("| Lock until | %s |\n", stringValue(r.Liquidity.LockUntil)))
	sb.WriteString("\n")

	// Supply
	sb.WriteString("## Supply\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total supply | %s |\n", stringValue(r.Supply.Total)))
	sb.WriteString(fmt.Sprintf("| Dead wallet | %s |\n", pctValue(r.Supply.DeadWalletPct)))
	sb.WriteString(fmt.Sprintf("| Top 10 holders | %s |\n", pctValue(r.Supply.Top10Pct)))
	sb.WriteString("\n")

	// Tax
	sb.WriteString("## Tax\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Buy tax | %s |\n", pctValue(r.Tax.Buy)))
	sb.WriteString(fmt.Sprintf("| Sell tax | %s |\n", pctValue(r.Tax.Sell)))
	sb.WriteString(fmt.Sprintf("| Honeypot indicators | %s |\n", yesNo(r.Tax.Honeypot)))
	sb.WriteString("\n")

	// Timestamps (only when at least one is known)
	if r.Timestamps.Deployed != nil || r.Timestamps.FirstLiquidity != nil {
		sb.WriteString("## Timestamps\n\n")
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Deployed | %s |\n", stringValue(r.Timestamps.Deployed)))
		sb.WriteString(fmt.Sprintf("| First liquidity | %s |\n", stringValue(r.Timestamps.FirstLiquidity)))
		sb.WriteString("\n")
	}

	// Developer links
	sb.WriteString("## Developer Links\n\n")
	if len(r.DevLinks) > 0 {
		for _, l := range r.DevLinks {
			sb.WriteString(fmt.Sprintf("- [%s](%s)\n", l.Label, l.URL))
		}
	} else {
		sb.WriteString("None found.\n")
	}
	sb.WriteString("\n")

	// Notes
	sb.WriteString("## Notes\n\n")
	if len(r.Explanations) > 0 {
		for _, e := range r.Explanations {
			sb.WriteString(fmt.Sprintf("- %s\n", e))
		}
	} else {
		sb.WriteString("No notes.\n")
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Report version %s\n", r.Version))

	return sb.String()
}

// tokenTitle builds the report title from symbol and name, falling back
// to the address when metadata is missing.
func tokenTitle(t domain.Token) string {
	switch {
	case t.Name != "" && t.Symbol != "":
		return fmt.Sprintf("%s (%s)", t.Name, t.Symbol)
	case t.Symbol != "":
		return t.Symbol
	case t.Name != "":
		return t.Name
	default:
		return t.Address
	}
}

// signalString renders a signal with an explicit sign for positive values.
func signalString(s int) string {
	if s > 0 {
		return fmt.Sprintf("+%d", s)
	}
	return strconv.Itoa(s)
}

// formatFloat renders a float without trailing zeros.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func stringValue(s *string) string {
	if s == nil {
		return "unknown"
	}
	return *s
}

func pctValue(v *float64) string {
	if v == nil {
		return "unknown"
	}
	return formatFloat(*v) + "%"
}

func pairValue(pair string) string {
	if pair == "" || pair == domain.ZeroAddress {
		return "none found"
	}
	return pair
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
