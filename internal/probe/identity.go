package probe

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"bsc-token-sentinel/internal/bsc"
)

// Placeholder identity for tokens that do not answer metadata calls.
const (
	FallbackTokenName   = "Memecoin"
	FallbackTokenSymbol = "MEME"
)

// IdentityReader reads a token's ERC-20 name and symbol.
type IdentityReader struct {
	chain bsc.RPCClient
}

// NewIdentityReader creates an identity reader over the given chain
// client.
func NewIdentityReader(chain bsc.RPCClient) *IdentityReader {
	return &IdentityReader{chain: chain}
}

// Read returns the token's name and symbol. Each field independently
// falls back to its placeholder when the chain cannot answer.
func (r *IdentityReader) Read(ctx context.Context, token common.Address) (name, symbol string) {
	name, symbol = FallbackTokenName, FallbackTokenSymbol
	if r.chain == nil {
		return name, symbol
	}
	if n, err := r.chain.TokenName(ctx, token); err == nil && n != "" {
		name = n
	}
	if s, err := r.chain.TokenSymbol(ctx, token); err == nil && s != "" {
		symbol = s
	}
	return name, symbol
}
