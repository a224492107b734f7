// Package stub provides a scriptable chain client for tests.
package stub

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"bsc-token-sentinel/internal/bsc"
)

// ErrNoData is returned when a scripted value is missing, mimicking a
// reverted or unimplemented contract call.
var ErrNoData = errors.New("no data")

// RPCClient implements bsc.RPCClient for testing. Values are keyed by
// checksummed addresses; missing token data errors like a revert while
// missing pairs and pools return the zero address like a real factory.
type RPCClient struct {
	Chain     *big.Int
	Block     int64
	Names     map[string]string
	Symbols   map[string]string
	Decimals  map[string]uint8
	Supplies  map[string]*big.Int
	Balances  map[string]*big.Int // token|holder
	Owners    map[string]common.Address
	Pairs     map[string]common.Address // factory|tokenA|tokenB
	Pools     map[string]common.Address // factory|tokenA|tokenB|fee
	FailCalls map[string]error          // method name -> forced error
}

var _ bsc.RPCClient = (*RPCClient)(nil)

// NewRPCClient creates a new stub chain client reporting BSC mainnet.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Chain:     big.NewInt(56),
		Names:     make(map[string]string),
		Symbols:   make(map[string]string),
		Decimals:  make(map[string]uint8),
		Supplies:  make(map[string]*big.Int),
		Balances:  make(map[string]*big.Int),
		Owners:    make(map[string]common.Address),
		Pairs:     make(map[string]common.Address),
		Pools:     make(map[string]common.Address),
		FailCalls: make(map[string]error),
	}
}

func (c *RPCClient) fail(method string) error {
	if err, ok := c.FailCalls[method]; ok {
		return err
	}
	return nil
}

// ChainID returns the scripted chain id.
func (c *RPCClient) ChainID(_ context.Context) (*big.Int, error) {
	if err := c.fail("ChainID"); err != nil {
		return nil, err
	}
	return c.Chain, nil
}

// BlockNumber returns the scripted block height.
func (c *RPCClient) BlockNumber(_ context.Context) (int64, error) {
	if err := c.fail("BlockNumber"); err != nil {
		return 0, err
	}
	return c.Block, nil
}

// TokenName returns the scripted name for a token.
func (c *RPCClient) TokenName(_ context.Context, token common.Address) (string, error) {
	if err := c.fail("TokenName"); err != nil {
		return "", err
	}
	name, ok := c.Names[token.Hex()]
	if !ok {
		return "", ErrNoData
	}
	return name, nil
}

// TokenSymbol returns the scripted symbol for a token.
func (c *RPCClient) TokenSymbol(_ context.Context, token common.Address) (string, error) {
	if err := c.fail("TokenSymbol"); err != nil {
		return "", err
	}
	symbol, ok := c.Symbols[token.Hex()]
	if !ok {
		return "", ErrNoData
	}
	return symbol, nil
}

// TokenDecimals returns the scripted decimals for a token.
func (c *RPCClient) TokenDecimals(_ context.Context, token common.Address) (uint8, error) {
	if err := c.fail("TokenDecimals"); err != nil {
		return 0, err
	}
	decimals, ok := c.Decimals[token.Hex()]
	if !ok {
		return 0, ErrNoData
	}
	return decimals, nil
}

// TotalSupply returns the scripted total supply for a token.
func (c *RPCClient) TotalSupply(_ context.Context, token common.Address) (*big.Int, error) {
	if err := c.fail("TotalSupply"); err != nil {
		return nil, err
	}
	supply, ok := c.Supplies[token.Hex()]
	if !ok {
		return nil, ErrNoData
	}
	return new(big.Int).Set(supply), nil
}

// BalanceOf returns the scripted balance for a token holder.
// Unscripted holders read as zero, matching real ERC-20 behavior.
func (c *RPCClient) BalanceOf(_ context.Context, token, holder common.Address) (*big.Int, error) {
	if err := c.fail("BalanceOf"); err != nil {
		return nil, err
	}
	balance, ok := c.Balances[token.Hex()+"|"+holder.Hex()]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(balance), nil
}

// ContractOwner returns the scripted owner for a token.
func (c *RPCClient) ContractOwner(_ context.Context, token common.Address, accessor string) (common.Address, error) {
	if err := c.fail("ContractOwner"); err != nil {
		return common.Address{}, err
	}
	if accessor != "owner" && accessor != "getOwner" {
		return common.Address{}, fmt.Errorf("unknown accessor %q", accessor)
	}
	owner, ok := c.Owners[token.Hex()]
	if !ok {
		return common.Address{}, ErrNoData
	}
	return owner, nil
}

// GetPair returns the scripted pair or the zero address.
func (c *RPCClient) GetPair(_ context.Context, factory, tokenA, tokenB common.Address) (common.Address, error) {
	if err := c.fail("GetPair"); err != nil {
		return common.Address{}, err
	}
	pair, ok := c.Pairs[factory.Hex()+"|"+tokenA.Hex()+"|"+tokenB.Hex()]
	if !ok {
		return bsc.ZeroAddress, nil
	}
	return pair, nil
}

// GetPool returns the scripted pool or the zero address.
func (c *RPCClient) GetPool(_ context.Context, factory, tokenA, tokenB common.Address, feeTier int64) (common.Address, error) {
	if err := c.fail("GetPool"); err != nil {
		return common.Address{}, err
	}
	pool, ok := c.Pools[factory.Hex()+"|"+tokenA.Hex()+"|"+tokenB.Hex()+"|"+strconv.FormatInt(feeTier, 10)]
	if !ok {
		return bsc.ZeroAddress, nil
	}
	return pool, nil
}

// SetIdentity scripts a token's name and symbol.
func (c *RPCClient) SetIdentity(token common.Address, name, symbol string) {
	c.Names[token.Hex()] = name
	c.Symbols[token.Hex()] = symbol
}

// SetSupply scripts a token's decimals and total supply.
func (c *RPCClient) SetSupply(token common.Address, decimals uint8, total *big.Int) {
	c.Decimals[token.Hex()] = decimals
	c.Supplies[token.Hex()] = total
}

// SetBalance scripts one holder balance.
func (c *RPCClient) SetBalance(token, holder common.Address, balance *big.Int) {
	c.Balances[token.Hex()+"|"+holder.Hex()] = balance
}

// SetOwner scripts a token's owner.
func (c *RPCClient) SetOwner(token, owner common.Address) {
	c.Owners[token.Hex()] = owner
}

// SetPair scripts a v2 factory pair.
func (c *RPCClient) SetPair(factory, tokenA, tokenB, pair common.Address) {
	c.Pairs[factory.Hex()+"|"+tokenA.Hex()+"|"+tokenB.Hex()] = pair
}

// SetPool scripts a v3 factory pool.
func (c *RPCClient) SetPool(factory, tokenA, tokenB common.Address, feeTier int64, pool common.Address) {
	c.Pools[factory.Hex()+"|"+tokenA.Hex()+"|"+tokenB.Hex()+"|"+strconv.FormatInt(feeTier, 10)] = pool
}
