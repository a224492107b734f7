package probe

import (
	"context"
	"testing"

	"bsc-token-sentinel/internal/bsc/stub"
)

func TestIdentityReader_Read(t *testing.T) {
	chain := stub.NewRPCClient()
	chain.SetIdentity(testToken, "Wrapped BNB", "WBNB")

	name, symbol := NewIdentityReader(chain).Read(context.Background(), testToken)
	if name != "Wrapped BNB" {
		t.Errorf("expected name Wrapped BNB, got %s", name)
	}
	if symbol != "WBNB" {
		t.Errorf("expected symbol WBNB, got %s", symbol)
	}
}

func TestIdentityReader_Fallbacks(t *testing.T) {
	name, symbol := NewIdentityReader(nil).Read(context.Background(), testToken)
	if name != FallbackTokenName {
		t.Errorf("expected fallback name, got %s", name)
	}
	if symbol != FallbackTokenSymbol {
		t.Errorf("expected fallback symbol, got %s", symbol)
	}
}

func TestIdentityReader_PartialFallback(t *testing.T) {
	chain := stub.NewRPCClient()
	chain.Symbols[testToken.Hex()] = "ABC"

	name, symbol := NewIdentityReader(chain).Read(context.Background(), testToken)
	if name != FallbackTokenName {
		t.Errorf("expected fallback name, got %s", name)
	}
	if symbol != "ABC" {
		t.Errorf("expected symbol ABC, got %s", symbol)
	}
}
