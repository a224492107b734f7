package bsc

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// callServer returns an httptest server that answers every eth_call with
// the given ABI-encoded payload and records the last request.
func callServer(t *testing.T, encoded []byte, lastReq *rpcRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if lastReq != nil {
			*lastReq = req
		}

		if req.Method != "eth_call" {
			t.Errorf("expected method eth_call, got %s", req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  hexutil.Encode(encoded),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func packOutputs(t *testing.T, method string, values ...interface{}) []byte {
	t.Helper()
	out, err := erc20ABI.Methods[method].Outputs.Pack(values...)
	if err != nil {
		t.Fatalf("pack %s outputs: %v", method, err)
	}
	return out
}

func TestHTTPClient_ChainID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "eth_chainId" {
			t.Errorf("expected method eth_chainId, got %s", req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  "0x38",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx := context.Background()

	id, err := client.ChainID(ctx)
	if err != nil {
		t.Fatalf("ChainID: %v", err)
	}

	if id.Int64() != 56 {
		t.Errorf("expected chain id 56, got %d", id.Int64())
	}
}

func TestConnect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  "0x38",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, err := Connect(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if client == nil {
		t.Fatal("expected client, got nil")
	}
}

func TestConnect_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from now on

	_, err := Connect(context.Background(), server.URL,
		WithMaxRetries(0),
		WithTimeout(500*time.Millisecond),
	)
	if err == nil {
		t.Fatal("expected error for unreachable endpoint")
	}
}

func TestHTTPClient_TotalSupply(t *testing.T) {
	supply, _ := new(big.Int).SetString("1000000000000000000000000000", 10)
	server := callServer(t, packOutputs(t, "totalSupply", supply), nil)
	defer server.Close()

	client := NewHTTPClient(server.URL)
	got, err := client.TotalSupply(context.Background(), WBNB)
	if err != nil {
		t.Fatalf("TotalSupply: %v", err)
	}

	if got.Cmp(supply) != 0 {
		t.Errorf("expected supply %s, got %s", supply, got)
	}
}

func TestHTTPClient_BalanceOf(t *testing.T) {
	balance := big.NewInt(123456789)
	var lastReq rpcRequest
	server := callServer(t, packOutputs(t, "balanceOf", balance), &lastReq)
	defer server.Close()

	client := NewHTTPClient(server.URL)
	got, err := client.BalanceOf(context.Background(), WBNB, DeadAddress)
	if err != nil {
		t.Fatalf("BalanceOf: %v", err)
	}

	if got.Cmp(balance) != 0 {
		t.Errorf("expected balance %s, got %s", balance, got)
	}

	callObj, ok := lastReq.Params[0].(map[string]interface{})
	if !ok {
		t.Fatalf("expected call object, got %T", lastReq.Params[0])
	}
	if callObj["to"] != WBNB.Hex() {
		t.Errorf("expected call to %s, got %v", WBNB.Hex(), callObj["to"])
	}
	// calldata carries the holder address
	data, _ := callObj["data"].(string)
	if !strings.Contains(strings.ToLower(data), strings.ToLower(DeadAddress.Hex()[2:])) {
		t.Errorf("expected calldata to contain holder address, got %s", data)
	}
}

func TestHTTPClient_TokenMetadata(t *testing.T) {
	server := callServer(t, packOutputs(t, "name", "Wrapped BNB"), nil)
	defer server.Close()

	client := NewHTTPClient(server.URL)
	name, err := client.TokenName(context.Background(), WBNB)
	if err != nil {
		t.Fatalf("TokenName: %v", err)
	}
	if name != "Wrapped BNB" {
		t.Errorf("expected Wrapped BNB, got %q", name)
	}
}

func TestHTTPClient_TokenDecimals(t *testing.T) {
	server := callServer(t, packOutputs(t, "decimals", uint8(18)), nil)
	defer server.Close()

	client := NewHTTPClient(server.URL)
	decimals, err := client.TokenDecimals(context.Background(), WBNB)
	if err != nil {
		t.Fatalf("TokenDecimals: %v", err)
	}
	if decimals != 18 {
		t.Errorf("expected 18 decimals, got %d", decimals)
	}
}

func TestHTTPClient_ContractOwner(t *testing.T) {
	owner := common.HexToAddress("0x00000000000000000000000000000000DeaDBeef")
	server := callServer(t, packOutputs(t, "owner", owner), nil)
	defer server.Close()

	client := NewHTTPClient(server.URL)

	got, err := client.ContractOwner(context.Background(), WBNB, "owner")
	if err != nil {
		t.Fatalf("ContractOwner(owner): %v", err)
	}
	if got != owner {
		t.Errorf("expected owner %s, got %s", owner.Hex(), got.Hex())
	}

	got, err = client.ContractOwner(context.Background(), WBNB, "getOwner")
	if err != nil {
		t.Fatalf("ContractOwner(getOwner): %v", err)
	}
	if got != owner {
		t.Errorf("expected owner %s, got %s", owner.Hex(), got.Hex())
	}
}

func TestHTTPClient_ContractOwner_UnknownAccessor(t *testing.T) {
	client := NewHTTPClient("http://127.0.0.1:0")

	_, err := client.ContractOwner(context.Background(), WBNB, "fetchOwner")
	if err == nil {
		t.Fatal("expected pack error for unknown accessor")
	}
}

func TestHTTPClient_GetPair(t *testing.T) {
	pair := common.HexToAddress("0x16b9a82891338f9bA80E2D6970FddA79D1eb0daE")
	encoded, err := factoryV2ABI.Methods["getPair"].Outputs.Pack(pair)
	if err != nil {
		t.Fatalf("pack getPair outputs: %v", err)
	}

	var lastReq rpcRequest
	server := callServer(t, encoded, &lastReq)
	defer server.Close()

	client := NewHTTPClient(server.URL)
	got, err := client.GetPair(context.Background(), PancakeV2Factory, WBNB, USDT)
	if err != nil {
		t.Fatalf("GetPair: %v", err)
	}

	if got != pair {
		t.Errorf("expected pair %s, got %s", pair.Hex(), got.Hex())
	}

	callObj := lastReq.Params[0].(map[string]interface{})
	if callObj["to"] != PancakeV2Factory.Hex() {
		t.Errorf("expected call to factory %s, got %v", PancakeV2Factory.Hex(), callObj["to"])
	}
}

func TestHTTPClient_GetPool(t *testing.T) {
	pool := common.HexToAddress("0x36696169C63e42cd08ce11f5deeBbCeBae652050")
	encoded, err := factoryV3ABI.Methods["getPool"].Outputs.Pack(pool)
	if err != nil {
		t.Fatalf("pack getPool outputs: %v", err)
	}

	var lastReq rpcRequest
	server := callServer(t, encoded, &lastReq)
	defer server.Close()

	client := NewHTTPClient(server.URL)
	got, err := client.GetPool(context.Background(), PancakeV3Factory, WBNB, USDT, 2500)
	if err != nil {
		t.Fatalf("GetPool: %v", err)
	}

	if got != pool {
		t.Errorf("expected pool %s, got %s", pool.Hex(), got.Hex())
	}

	// selector + three 32-byte words (tokenA, tokenB, fee)
	callObj := lastReq.Params[0].(map[string]interface{})
	data, _ := callObj["data"].(string)
	if len(data) != 2+2*(4+3*32) {
		t.Errorf("unexpected calldata length %d", len(data))
	}
}

func TestHTTPClient_EmptyCallResult(t *testing.T) {
	// Contracts without the method return empty data; unpack must fail
	// so callers degrade instead of reading zeros.
	server := callServer(t, nil, nil)
	defer server.Close()

	client := NewHTTPClient(server.URL)
	_, err := client.TotalSupply(context.Background(), WBNB)
	if err == nil {
		t.Fatal("expected unpack error for empty call result")
	}
}

func TestHTTPClient_Retry(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := attempts.Add(1)
		if count < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  "0x38",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(10*time.Millisecond),
	)

	id, err := client.ChainID(context.Background())
	if err != nil {
		t.Fatalf("ChainID: %v", err)
	}

	if id.Int64() != 56 {
		t.Errorf("expected chain id 56, got %d", id.Int64())
	}

	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_RPCError(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error": map[string]interface{}{
				"code":    -32000,
				"message": "execution reverted",
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	_, err := client.TotalSupply(context.Background(), WBNB)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	rpcErr, ok := err.(*rpcError)
	if !ok {
		t.Fatalf("expected rpcError, got %T", err)
	}
	if rpcErr.Code != -32000 {
		t.Errorf("expected code -32000, got %d", rpcErr.Code)
	}

	// RPC errors are terminal, no retries
	if attempts.Load() != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts.Load())
	}
}

func TestHTTPClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := client.ChainID(ctx)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
