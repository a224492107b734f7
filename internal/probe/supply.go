package probe

import (
	"context"
	"math"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"bsc-token-sentinel/internal/bsc"
)

// Supplies of a million units and above are displayed with grouping.
const groupedDisplayMin = 1_000_000

var supplyPrinter = message.NewPrinter(language.English)

// SupplyStats describes a token's scaled total supply and burned share.
type SupplyStats struct {
	// TotalDisplay is the supply in whole tokens, comma grouped once it
	// reaches a million units.
	TotalDisplay string
	// DeadPct is the share of supply held by the dead address. Nil when
	// the total supply is not positive.
	DeadPct *float64
}

// SupplyReader reads ERC-20 supply figures from the chain.
type SupplyReader struct {
	chain bsc.RPCClient
}

// NewSupplyReader creates a supply reader over the given chain client.
func NewSupplyReader(chain bsc.RPCClient) *SupplyReader {
	return &SupplyReader{chain: chain}
}

// Read fetches decimals, total supply and the dead wallet balance and
// turns them into display-ready figures.
func (r *SupplyReader) Read(ctx context.Context, token common.Address) (SupplyStats, error) {
	if r.chain == nil {
		return SupplyStats{}, errChainUnavailable
	}
	decimals, err := r.chain.TokenDecimals(ctx, token)
	if err != nil {
		return SupplyStats{}, err
	}
	total, err := r.chain.TotalSupply(ctx, token)
	if err != nil {
		return SupplyStats{}, err
	}
	deadBal, err := r.chain.BalanceOf(ctx, token, bsc.DeadAddress)
	if err != nil {
		return SupplyStats{}, err
	}

	scale := math.Pow10(int(decimals))
	totalH := scaled(total, scale)
	deadH := scaled(deadBal, scale)

	stats := SupplyStats{TotalDisplay: formatSupply(totalH)}
	if totalH > 0 {
		pct := round4(deadH / totalH * 100)
		stats.DeadPct = &pct
	}
	return stats, nil
}

func scaled(raw *big.Int, scale float64) float64 {
	v, _ := new(big.Float).SetInt(raw).Float64()
	return v / scale
}

func formatSupply(v float64) string {
	if v >= groupedDisplayMin {
		return supplyPrinter.Sprintf("%.0f", v)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
