package domain

// Pool protocol versions.
const (
	PoolVersionV2 = "v2"
	PoolVersionV3 = "v3"
)

// DEX display names attached to liquidity summaries.
const (
	DexPancakeV2 = "PancakeSwapV2"
	DexPancakeV3 = "PancakeSwapV3"
)

// PoolReference identifies a discovered trading pool.
// FeeTier and QuoteSymbol are set for v3 pools only.
type PoolReference struct {
	Address     string `json:"address"`
	Version     string `json:"version"`
	FeeTier     int64  `json:"fee_tier,omitempty"`
	QuoteSymbol string `json:"quote_symbol,omitempty"`
}
