package probe

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"bsc-token-sentinel/internal/bsc"
	"bsc-token-sentinel/internal/bscscan"
)

const topHolderCount = 10

// HolderAnalyzer measures how much of the supply the largest wallets
// hold, combining the explorer holder list with the on-chain supply.
type HolderAnalyzer struct {
	chain    bsc.RPCClient
	explorer *bscscan.Client
}

// NewHolderAnalyzer creates a holder analyzer. Both clients are needed
// for a result; a missing one makes the concentration unknown.
func NewHolderAnalyzer(chain bsc.RPCClient, explorer *bscscan.Client) *HolderAnalyzer {
	return &HolderAnalyzer{chain: chain, explorer: explorer}
}

// TopTenPercent returns the share of raw supply held by the ten largest
// holders. Free explorer keys cannot always serve the holder list, so an
// error here is routine and maps to an unknown concentration.
func (a *HolderAnalyzer) TopTenPercent(ctx context.Context, token common.Address) (float64, error) {
	if a.explorer == nil {
		return 0, errExplorerUnavailable
	}
	holders, err := a.explorer.TokenHolders(ctx, token.Hex(), topHolderCount)
	if err != nil {
		return 0, err
	}
	if a.chain == nil {
		return 0, errChainUnavailable
	}
	total, err := a.chain.TotalSupply(ctx, token)
	if err != nil {
		return 0, err
	}
	if total.Sign() <= 0 {
		return 0, fmt.Errorf("total supply %s not positive", total)
	}

	sum := new(big.Int)
	for _, h := range holders {
		qty, err := parseQuantity(h.Quantity)
		if err != nil {
			return 0, err
		}
		sum.Add(sum, qty)
	}
	return round4(ratioPercent(sum, total)), nil
}

// parseQuantity reads a holder quantity as a raw integer. The explorer
// occasionally reports values with a decimal point; those are retried
// with the point stripped.
func parseQuantity(s string) (*big.Int, error) {
	if s == "" {
		s = "0"
	}
	if v, ok := new(big.Int).SetString(s, 10); ok {
		return v, nil
	}
	if v, ok := new(big.Int).SetString(strings.ReplaceAll(s, ".", ""), 10); ok {
		return v, nil
	}
	return nil, fmt.Errorf("holder quantity %q is not numeric", s)
}
