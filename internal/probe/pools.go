package probe

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"bsc-token-sentinel/internal/bsc"
)

// V3Pool identifies a PancakeSwap v3 pool together with the fee tier and
// quote asset it was found under.
type V3Pool struct {
	Address     string
	FeeTier     int64
	QuoteSymbol string
}

// PoolFinder locates PancakeSwap pools pairing a token with the known
// quote assets.
type PoolFinder struct {
	chain bsc.RPCClient
}

// NewPoolFinder creates a pool finder. A nil chain client reports every
// pool as not found.
func NewPoolFinder(chain bsc.RPCClient) *PoolFinder {
	return &PoolFinder{chain: chain}
}

// FindV2Pair asks the v2 factory for a pair against each quote asset in
// order and returns the first live pair, checksummed. Failed factory
// calls skip to the next quote.
func (f *PoolFinder) FindV2Pair(ctx context.Context, token common.Address) (string, bool) {
	if f.chain == nil {
		return "", false
	}
	for _, quote := range bsc.QuoteAssets {
		pair, err := f.chain.GetPair(ctx, bsc.PancakeV2Factory, token, quote.Address)
		if err != nil {
			continue
		}
		if pair != bsc.ZeroAddress {
			return pair.Hex(), true
		}
	}
	return "", false
}

// FindV3Pool asks the v3 factory across quote assets and fee tiers,
// quote-major, and returns the first live pool.
func (f *PoolFinder) FindV3Pool(ctx context.Context, token common.Address) (V3Pool, bool) {
	if f.chain == nil {
		return V3Pool{}, false
	}
	for _, quote := range bsc.QuoteAssets {
		for _, fee := range bsc.V3FeeTiers {
			pool, err := f.chain.GetPool(ctx, bsc.PancakeV3Factory, token, quote.Address, fee)
			if err != nil {
				continue
			}
			if pool != bsc.ZeroAddress {
				return V3Pool{Address: pool.Hex(), FeeTier: fee, QuoteSymbol: quote.Symbol}, true
			}
		}
	}
	return V3Pool{}, false
}
