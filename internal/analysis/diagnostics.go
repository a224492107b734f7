package analysis

import "context"

// Explorer ABI availability states.
const (
	abiStatusOK      = "ok"
	abiStatusMissing = "missing_or_rate_limited"
)

// ExplorerDiagnostic reports whether the BscScan integration can serve
// contract ABIs, using one known contract as the canary.
type ExplorerDiagnostic struct {
	KeyPresent       bool   `json:"key_present"`
	ABIStatus        string `json:"abi_status"`
	ABIFunctionCount int    `json:"abi_function_count"`
}

// Diagnose fetches the ABI of the given contract through the explorer
// and summarizes the outcome. Unverified contracts, rate limits, and
// malformed payloads all report the missing status.
func (a *Analyzer) Diagnose(ctx context.Context, address string) ExplorerDiagnostic {
	diag := ExplorerDiagnostic{ABIStatus: abiStatusMissing}
	if a.explorer == nil {
		return diag
	}
	diag.KeyPresent = a.explorer.HasKey()

	abi, err := a.explorer.ContractABI(ctx, address)
	if err != nil {
		a.log("explorer diagnostic for %s: %v", address, err)
		return diag
	}
	diag.ABIStatus = abiStatusOK
	diag.ABIFunctionCount = abi.EntryCount()
	return diag
}
