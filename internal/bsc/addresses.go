package bsc

import "github.com/ethereum/go-ethereum/common"

// DefaultEndpoint is the public BSC JSON-RPC endpoint used when none is configured.
const DefaultEndpoint = "https://bsc-dataseed.binance.org/"

// Core BNB Smart Chain contract addresses.
var (
	ZeroAddress = common.HexToAddress("0x0000000000000000000000000000000000000000")
	DeadAddress = common.HexToAddress("0x000000000000000000000000000000000000dEaD")

	WBNB = common.HexToAddress("0xBB4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c")
	USDT = common.HexToAddress("0x55d398326f99059fF775485246999027B3197955")

	PancakeV2Factory = common.HexToAddress("0xCA143Ce32Fe78f1f7019d7d551a6402fC5350c73")
	PancakeV3Factory = common.HexToAddress("0x0BFbCF9fa4f9C56B0F40a671Ad40E0805A091865")
)

// QuoteAsset pairs a quote token address with its display symbol.
type QuoteAsset struct {
	Address common.Address
	Symbol  string
}

// QuoteAssets lists quote tokens tried during pool discovery, in priority order.
var QuoteAssets = []QuoteAsset{
	{Address: WBNB, Symbol: "WBNB"},
	{Address: USDT, Symbol: "USDT"},
}

// V3FeeTiers lists PancakeSwap v3 fee tiers in probe order.
var V3FeeTiers = []int64{100, 500, 2500, 10000}
