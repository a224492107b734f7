package probe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"bsc-token-sentinel/internal/bsc"
	"bsc-token-sentinel/internal/bsc/stub"
	"bsc-token-sentinel/internal/bscscan"
)

const ownableABI = `[
	{"type":"function","name":"owner"},
	{"type":"function","name":"transfer"},
	{"type":"function","name":"balanceOf"}
]`

func explorerServing(t *testing.T, status string, result interface{}) *bscscan.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{"status": status, "message": "OK", "result": result}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return bscscan.NewClient("testkey", bscscan.WithBaseURL(server.URL))
}

func TestInterfaceScanner_OwnershipRenounced(t *testing.T) {
	chain := stub.NewRPCClient()
	chain.SetOwner(testToken, bsc.ZeroAddress)
	scanner := NewInterfaceScanner(chain, explorerServing(t, "1", ownableABI))

	report := scanner.Scan(context.Background(), testToken)
	if report.Ownership.Signal != 1 {
		t.Errorf("expected signal +1, got %d", report.Ownership.Signal)
	}
	want := "Ownership renounced (owner=0x0000000000000000000000000000000000000000)"
	if len(report.Ownership.Evidence) != 1 || report.Ownership.Evidence[0] != want {
		t.Errorf("unexpected evidence %v", report.Ownership.Evidence)
	}
}

func TestInterfaceScanner_OwnerSet(t *testing.T) {
	owner := common.HexToAddress("0x71b5759d73262fbb223956913ecf4ecc51057641")
	chain := stub.NewRPCClient()
	chain.SetOwner(testToken, owner)
	scanner := NewInterfaceScanner(chain, explorerServing(t, "1", ownableABI))

	report := scanner.Scan(context.Background(), testToken)
	if report.Ownership.Signal != -1 {
		t.Errorf("expected signal -1, got %d", report.Ownership.Signal)
	}
	want := "Owner set: " + owner.Hex()
	if len(report.Ownership.Evidence) != 1 || report.Ownership.Evidence[0] != want {
		t.Errorf("expected evidence %q, got %v", want, report.Ownership.Evidence)
	}
}

func TestInterfaceScanner_GetOwnerFallback(t *testing.T) {
	abi := `[{"type":"function","name":"getOwner"},{"type":"function","name":"transfer"}]`
	owner := common.HexToAddress("0x71b5759d73262fbb223956913ecf4ecc51057641")
	chain := stub.NewRPCClient()
	chain.SetOwner(testToken, owner)
	scanner := NewInterfaceScanner(chain, explorerServing(t, "1", abi))

	report := scanner.Scan(context.Background(), testToken)
	if report.Ownership.Signal != -1 {
		t.Errorf("expected getOwner to resolve, got signal %d", report.Ownership.Signal)
	}
}

func TestInterfaceScanner_NoOwnerAccessor(t *testing.T) {
	abi := `[{"type":"function","name":"transfer"}]`
	chain := stub.NewRPCClient()
	chain.SetOwner(testToken, common.HexToAddress("0x71b5759d73262fbb223956913ecf4ecc51057641"))
	scanner := NewInterfaceScanner(chain, explorerServing(t, "1", abi))

	// The owner is never read when the ABI declares no accessor.
	report := scanner.Scan(context.Background(), testToken)
	if report.Ownership.Signal != 0 {
		t.Errorf("expected signal 0, got %d", report.Ownership.Signal)
	}
	want := "Owner unknown (ABI/owner() not available)"
	if len(report.Ownership.Evidence) != 1 || report.Ownership.Evidence[0] != want {
		t.Errorf("unexpected evidence %v", report.Ownership.Evidence)
	}
}

func TestInterfaceScanner_SuspiciousFunctions(t *testing.T) {
	abi := `[
		{"type":"function","name":"setSellFee"},
		{"type":"function","name":"mint"},
		{"type":"function","name":"transfer"}
	]`
	scanner := NewInterfaceScanner(stub.NewRPCClient(), explorerServing(t, "1", abi))

	report := scanner.Scan(context.Background(), testToken)
	if report.MintBlacklist.Signal != -1 {
		t.Errorf("expected mint/blacklist signal -1, got %d", report.MintBlacklist.Signal)
	}
	wantMB := []string{"Suspicious fn: setSellFee()", "Suspicious fn: mint()"}
	if !reflect.DeepEqual(report.MintBlacklist.Evidence, wantMB) {
		t.Errorf("expected evidence %v, got %v", wantMB, report.MintBlacklist.Evidence)
	}

	if report.TaxHoneypot.Signal != -1 {
		t.Errorf("expected tax signal -1, got %d", report.TaxHoneypot.Signal)
	}
	wantTH := []string{"Fee/tax fn: setSellFee()"}
	if !reflect.DeepEqual(report.TaxHoneypot.Evidence, wantTH) {
		t.Errorf("expected evidence %v, got %v", wantTH, report.TaxHoneypot.Evidence)
	}
}

func TestInterfaceScanner_KeywordOverlap(t *testing.T) {
	abi := `[{"type":"function","name":"setFees"}]`
	scanner := NewInterfaceScanner(stub.NewRPCClient(), explorerServing(t, "1", abi))

	// setFees matches both the setFee and setFees keywords and is
	// reported once per match.
	report := scanner.Scan(context.Background(), testToken)
	want := []string{"Suspicious fn: setFees()", "Suspicious fn: setFees()"}
	if !reflect.DeepEqual(report.MintBlacklist.Evidence, want) {
		t.Errorf("expected evidence %v, got %v", want, report.MintBlacklist.Evidence)
	}
	if len(report.TaxHoneypot.Evidence) != 1 || report.TaxHoneypot.Evidence[0] != "Fee/tax fn: setFees()" {
		t.Errorf("unexpected tax evidence %v", report.TaxHoneypot.Evidence)
	}
}

func TestInterfaceScanner_CleanABI(t *testing.T) {
	abi := `[
		{"type":"function","name":"transfer"},
		{"type":"function","name":"balanceOf"},
		{"type":"function","name":"approve"}
	]`
	scanner := NewInterfaceScanner(stub.NewRPCClient(), explorerServing(t, "1", abi))

	report := scanner.Scan(context.Background(), testToken)
	if report.MintBlacklist.Signal != 0 || report.TaxHoneypot.Signal != 0 {
		t.Errorf("expected neutral signals, got %d and %d",
			report.MintBlacklist.Signal, report.TaxHoneypot.Signal)
	}
	if report.MintBlacklist.Evidence[0] != "No obvious mint/blacklist functions detected" {
		t.Errorf("unexpected evidence %v", report.MintBlacklist.Evidence)
	}
	if report.TaxHoneypot.Evidence[0] != "No obvious tax/honeypot functions detected" {
		t.Errorf("unexpected evidence %v", report.TaxHoneypot.Evidence)
	}
}

func TestInterfaceScanner_NoExplorerKey(t *testing.T) {
	scanner := NewInterfaceScanner(stub.NewRPCClient(), bscscan.NewClient(""))

	report := scanner.Scan(context.Background(), testToken)
	for _, finding := range []Finding{report.Ownership, report.MintBlacklist, report.TaxHoneypot} {
		if finding.Signal != 0 {
			t.Errorf("expected neutral signal, got %d", finding.Signal)
		}
	}
	if report.MintBlacklist.Evidence[0] != "ABI unavailable" {
		t.Errorf("unexpected evidence %v", report.MintBlacklist.Evidence)
	}
	if report.Ownership.Evidence[0] != "Owner unknown (ABI/owner() not available)" {
		t.Errorf("unexpected evidence %v", report.Ownership.Evidence)
	}
}

func TestInterfaceScanner_UnverifiedContract(t *testing.T) {
	scanner := NewInterfaceScanner(stub.NewRPCClient(),
		explorerServing(t, "0", "Contract source code not verified"))

	report := scanner.Scan(context.Background(), testToken)
	if report.MintBlacklist.Evidence[0] != "ABI unavailable" {
		t.Errorf("unexpected evidence %v", report.MintBlacklist.Evidence)
	}
}

func TestInterfaceScanner_MalformedABI(t *testing.T) {
	scanner := NewInterfaceScanner(stub.NewRPCClient(),
		explorerServing(t, "1", `{"not":"a list"}`))

	report := scanner.Scan(context.Background(), testToken)
	if report.MintBlacklist.Evidence[0] != "ABI parse error" {
		t.Errorf("unexpected evidence %v", report.MintBlacklist.Evidence)
	}
	if report.TaxHoneypot.Evidence[0] != "ABI parse error" {
		t.Errorf("unexpected evidence %v", report.TaxHoneypot.Evidence)
	}
	if report.Ownership.Evidence[0] != "Owner unknown (ABI/owner() not available)" {
		t.Errorf("unexpected evidence %v", report.Ownership.Evidence)
	}
}

func TestInterfaceScanner_NoChain(t *testing.T) {
	scanner := NewInterfaceScanner(nil, explorerServing(t, "1", ownableABI))

	// Function scans need only the ABI; ownership needs the chain too.
	report := scanner.Scan(context.Background(), testToken)
	if report.MintBlacklist.Evidence[0] != "No obvious mint/blacklist functions detected" {
		t.Errorf("unexpected evidence %v", report.MintBlacklist.Evidence)
	}
	if report.Ownership.Evidence[0] != "Owner unknown (ABI/owner() not available)" {
		t.Errorf("unexpected evidence %v", report.Ownership.Evidence)
	}
}
