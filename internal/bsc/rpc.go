package bsc

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RPCClient defines the read-only BSC JSON-RPC interface used by probes.
type RPCClient interface {
	// ChainID retrieves the chain identifier via eth_chainId.
	ChainID(ctx context.Context) (*big.Int, error)

	// BlockNumber retrieves the latest block number.
	BlockNumber(ctx context.Context) (int64, error)

	// TokenName reads the ERC-20 name of a contract.
	TokenName(ctx context.Context, token common.Address) (string, error)

	// TokenSymbol reads the ERC-20 symbol of a contract.
	TokenSymbol(ctx context.Context, token common.Address) (string, error)

	// TokenDecimals reads the ERC-20 decimals of a contract.
	TokenDecimals(ctx context.Context, token common.Address) (uint8, error)

	// TotalSupply reads the ERC-20 total supply in raw units.
	TotalSupply(ctx context.Context, token common.Address) (*big.Int, error)

	// BalanceOf reads an ERC-20 balance in raw units.
	BalanceOf(ctx context.Context, token, holder common.Address) (*big.Int, error)

	// ContractOwner calls an ownership accessor ("owner" or "getOwner").
	ContractOwner(ctx context.Context, token common.Address, accessor string) (common.Address, error)

	// GetPair queries a v2 factory for the pair of two tokens.
	// Returns the zero address when no pair exists.
	GetPair(ctx context.Context, factory, tokenA, tokenB common.Address) (common.Address, error)

	// GetPool queries a v3 factory for the pool of two tokens at a fee tier.
	// Returns the zero address when no pool exists.
	GetPool(ctx context.Context, factory, tokenA, tokenB common.Address, feeTier int64) (common.Address, error)
}

// Connect dials an endpoint and verifies it answers eth_chainId.
// A nil client with an error means the chain is unreachable; callers
// degrade to chain-unavailable behavior rather than failing hard.
func Connect(ctx context.Context, endpoint string, opts ...ClientOption) (*HTTPClient, error) {
	c := NewHTTPClient(endpoint, opts...)
	if _, err := c.ChainID(ctx); err != nil {
		return nil, fmt.Errorf("chain handshake: %w", err)
	}
	return c, nil
}
