// Package discovery watches the PancakeSwap v2 factory for PairCreated
// events and hands newly listed pairs to a handler for analysis.
package discovery

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"bsc-token-sentinel/internal/bsc"
	"bsc-token-sentinel/internal/domain"
)

// PairCreatedTopic is the topic0 hash of the v2 factory's
// PairCreated(address indexed token0, address indexed token1, address pair, uint256) event.
var PairCreatedTopic = crypto.Keccak256Hash([]byte("PairCreated(address,address,address,uint256)")).Hex()

// ParsePairCreated decodes a PairCreated log into a PairEvent.
// token0 and token1 arrive as indexed topics; the pair address is the
// first word of the data payload.
func ParsePairCreated(ev bsc.LogEvent) (*domain.PairEvent, error) {
	if len(ev.Topics) != 3 {
		return nil, fmt.Errorf("pair created log: want 3 topics, got %d", len(ev.Topics))
	}
	if !strings.EqualFold(ev.Topics[0], PairCreatedTopic) {
		return nil, fmt.Errorf("pair created log: unexpected topic0 %s", ev.Topics[0])
	}

	data, err := hexutil.Decode(ev.Data)
	if err != nil {
		return nil, fmt.Errorf("pair created log: decode data: %w", err)
	}
	// data = abi.encode(pair address, allPairsLength)
	if len(data) < 32 {
		return nil, fmt.Errorf("pair created log: data too short: %d bytes", len(data))
	}

	return &domain.PairEvent{
		Token0:      common.HexToAddress(ev.Topics[1]).Hex(),
		Token1:      common.HexToAddress(ev.Topics[2]).Hex(),
		Pair:        common.BytesToAddress(data[:32]).Hex(),
		BlockNumber: ev.BlockNumber,
		TxHash:      ev.TxHash,
	}, nil
}

// BaseToken returns the side of a new pair worth analyzing: the token
// paired against a known quote asset (WBNB or USDT). ok is false when
// both sides are quote assets or neither is, since such pairs are not
// new token listings.
func BaseToken(ev domain.PairEvent) (string, bool) {
	quote0 := isQuoteAsset(ev.Token0)
	quote1 := isQuoteAsset(ev.Token1)

	switch {
	case quote0 && !quote1:
		return ev.Token1, true
	case quote1 && !quote0:
		return ev.Token0, true
	default:
		return "", false
	}
}

func isQuoteAsset(address string) bool {
	addr := common.HexToAddress(address)
	for _, q := range bsc.QuoteAssets {
		if addr == q.Address {
			return true
		}
	}
	return false
}
