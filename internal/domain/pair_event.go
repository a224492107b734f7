package domain

// PairEvent is a parsed PancakeSwap v2 PairCreated log.
type PairEvent struct {
	Token0      string // checksummed token0 address
	Token1      string // checksummed token1 address
	Pair        string // checksummed pair address
	BlockNumber int64
	TxHash      string
}
