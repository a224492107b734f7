package bsc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Defaults keep calls short so a dead endpoint degrades an analysis
// instead of stalling it.
const (
	defaultTimeout    = 8 * time.Second
	defaultMaxRetries = 2
	defaultRetryDelay = 500 * time.Millisecond
	defaultMaxDelay   = 4 * time.Second
)

// HTTPClient talks JSON-RPC 2.0 to a BSC node over HTTP.
type HTTPClient struct {
	endpoint   string
	httpc      *http.Client
	maxRetries int
	retryDelay time.Duration
	maxDelay   time.Duration
	nextID     atomic.Uint64
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout overrides the per-request HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) { c.httpc.Timeout = d }
}

// WithMaxRetries sets how many times a failed call is reattempted.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) { c.maxRetries = n }
}

// WithRetryDelay sets the delay before the first reattempt. It doubles
// per attempt up to the configured maximum.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) { c.retryDelay = d }
}

// WithMaxDelay caps the backoff between reattempts.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) { c.maxDelay = d }
}

// WithHTTPClient swaps in a caller-owned http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) { c.httpc = client }
}

// NewHTTPClient returns a client for the given JSON-RPC endpoint.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:   endpoint,
		httpc:      &http.Client{Timeout: defaultTimeout},
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// retryable reports whether another attempt can help. Node-side errors
// such as reverted calls are terminal; transport and server failures
// are worth retrying.
func retryable(err error) bool {
	var rpcErr *rpcError
	return !errors.As(err, &rpcErr)
}

// call runs one JSON-RPC method with backoff and decodes the result
// into result when it is non-nil.
func (c *HTTPClient) call(ctx context.Context, method string, params []any, result any) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	delay := c.retryDelay
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			if delay *= 2; delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		raw, err := c.roundTrip(ctx, payload)
		if err == nil {
			if result == nil || raw == nil {
				return nil
			}
			if err := json.Unmarshal(raw, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err

		if attempt == c.maxRetries {
			break
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", method, c.maxRetries+1, lastErr)
}

// roundTrip sends one request and returns the envelope's raw result.
// An error object in the envelope comes back as *rpcError.
func (c *HTTPClient) roundTrip(ctx context.Context, payload []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, body)
	}

	var envelope rpcResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if envelope.Error != nil {
		return nil, envelope.Error
	}
	return envelope.Result, nil
}

// callContract performs eth_call against a contract at the latest block
// and returns the raw return data.
func (c *HTTPClient) callContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	params := []any{
		map[string]string{
			"to":   to.Hex(),
			"data": hexutil.Encode(data),
		},
		"latest",
	}

	var raw string
	if err := c.call(ctx, "eth_call", params, &raw); err != nil {
		return nil, err
	}
	out, err := hexutil.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode call result: %w", err)
	}
	return out, nil
}

// viewCall packs a view method against the ERC-20 fragment and runs it.
func (c *HTTPClient) viewCall(ctx context.Context, to common.Address, method string, args ...any) ([]byte, error) {
	data, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return c.callContract(ctx, to, data)
}

// unpack decodes the single return value of a view method.
func unpack[T any](source abi.ABI, method string, data []byte) (T, error) {
	var v T
	if err := source.UnpackIntoInterface(&v, method, data); err != nil {
		return v, fmt.Errorf("unpack %s: %w", method, err)
	}
	return v, nil
}

// ChainID retrieves the chain identifier via eth_chainId.
func (c *HTTPClient) ChainID(ctx context.Context) (*big.Int, error) {
	var raw string
	if err := c.call(ctx, "eth_chainId", nil, &raw); err != nil {
		return nil, err
	}
	id, err := hexutil.DecodeBig(raw)
	if err != nil {
		return nil, fmt.Errorf("decode chain id: %w", err)
	}
	return id, nil
}

// BlockNumber retrieves the latest block number.
func (c *HTTPClient) BlockNumber(ctx context.Context) (int64, error) {
	var raw string
	if err := c.call(ctx, "eth_blockNumber", nil, &raw); err != nil {
		return 0, err
	}
	n, err := hexutil.DecodeUint64(raw)
	if err != nil {
		return 0, fmt.Errorf("decode block number: %w", err)
	}
	return int64(n), nil
}

// TokenName reads the ERC-20 name of a contract.
func (c *HTTPClient) TokenName(ctx context.Context, token common.Address) (string, error) {
	out, err := c.viewCall(ctx, token, "name")
	if err != nil {
		return "", err
	}
	return unpack[string](erc20ABI, "name", out)
}

// TokenSymbol reads the ERC-20 symbol of a contract.
func (c *HTTPClient) TokenSymbol(ctx context.Context, token common.Address) (string, error) {
	out, err := c.viewCall(ctx, token, "symbol")
	if err != nil {
		return "", err
	}
	return unpack[string](erc20ABI, "symbol", out)
}

// TokenDecimals reads the ERC-20 decimals of a contract.
func (c *HTTPClient) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	out, err := c.viewCall(ctx, token, "decimals")
	if err != nil {
		return 0, err
	}
	return unpack[uint8](erc20ABI, "decimals", out)
}

// TotalSupply reads the ERC-20 total supply in raw units.
func (c *HTTPClient) TotalSupply(ctx context.Context, token common.Address) (*big.Int, error) {
	out, err := c.viewCall(ctx, token, "totalSupply")
	if err != nil {
		return nil, err
	}
	return unpack[*big.Int](erc20ABI, "totalSupply", out)
}

// BalanceOf reads an ERC-20 balance in raw units.
func (c *HTTPClient) BalanceOf(ctx context.Context, token, holder common.Address) (*big.Int, error) {
	out, err := c.viewCall(ctx, token, "balanceOf", holder)
	if err != nil {
		return nil, err
	}
	return unpack[*big.Int](erc20ABI, "balanceOf", out)
}

// ContractOwner calls an ownership accessor ("owner" or "getOwner").
func (c *HTTPClient) ContractOwner(ctx context.Context, token common.Address, accessor string) (common.Address, error) {
	out, err := c.viewCall(ctx, token, accessor)
	if err != nil {
		return common.Address{}, err
	}
	return unpack[common.Address](erc20ABI, accessor, out)
}

// GetPair queries a v2 factory for the pair of two tokens.
func (c *HTTPClient) GetPair(ctx context.Context, factory, tokenA, tokenB common.Address) (common.Address, error) {
	data, err := factoryV2ABI.Pack("getPair", tokenA, tokenB)
	if err != nil {
		return common.Address{}, fmt.Errorf("pack getPair: %w", err)
	}
	out, err := c.callContract(ctx, factory, data)
	if err != nil {
		return common.Address{}, err
	}
	return unpack[common.Address](factoryV2ABI, "getPair", out)
}

// GetPool queries a v3 factory for the pool of two tokens at a fee tier.
func (c *HTTPClient) GetPool(ctx context.Context, factory, tokenA, tokenB common.Address, feeTier int64) (common.Address, error) {
	data, err := factoryV3ABI.Pack("getPool", tokenA, tokenB, big.NewInt(feeTier))
	if err != nil {
		return common.Address{}, fmt.Errorf("pack getPool: %w", err)
	}
	out, err := c.callContract(ctx, factory, data)
	if err != nil {
		return common.Address{}, err
	}
	return unpack[common.Address](factoryV3ABI, "getPool", out)
}
