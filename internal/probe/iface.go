package probe

import (
	"context"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"bsc-token-sentinel/internal/bsc"
	"bsc-token-sentinel/internal/bscscan"
)

// Function name fragments that show up in mint, blacklist and trading
// restriction mechanics. Matched case-insensitively as substrings, so a
// name can flag under more than one keyword.
var suspiciousFunctionKeywords = []string{
	"blacklist", "whitelist", "isBlacklisted", "setBlacklist",
	"setTax", "setFee", "setFees", "setBuyFee", "setSellFee",
	"setMaxTx", "maxTx", "setMaxWallet", "enableTrading",
	"addLiquidity", "removeLimits", "excludeFromFee",
	"mint", "setBalance",
}

// Fragments marking adjustable fee machinery, the usual honeypot lever.
var feeFunctionFragments = []string{"buyfee", "sellfee", "tax", "fees"}

var ownerAccessors = []string{"owner", "getOwner"}

const (
	evidenceABIUnavailable = "ABI unavailable"
	evidenceABIParseError  = "ABI parse error"
	evidenceOwnerUnknown   = "Owner unknown (ABI/owner() not available)"
	evidenceRenounced      = "Ownership renounced (owner=0x0000000000000000000000000000000000000000)"
	evidenceNoMintFlags    = "No obvious mint/blacklist functions detected"
	evidenceNoFeeFlags     = "No obvious tax/honeypot functions detected"
)

// InterfaceReport carries the factor findings derived from a contract's
// verified interface.
type InterfaceReport struct {
	Ownership     Finding
	MintBlacklist Finding
	TaxHoneypot   Finding
}

// InterfaceScanner inspects a contract's verified ABI for ownership
// state and risky function declarations.
type InterfaceScanner struct {
	chain    bsc.RPCClient
	explorer *bscscan.Client
}

// NewInterfaceScanner creates a scanner. Either client may be nil; the
// corresponding findings degrade to their unknown form.
func NewInterfaceScanner(chain bsc.RPCClient, explorer *bscscan.Client) *InterfaceScanner {
	return &InterfaceScanner{chain: chain, explorer: explorer}
}

// Scan fetches the verified ABI once and derives every interface-based
// finding from it. The report is always complete: an unavailable ABI
// leaves ownership unknown, a malformed one is called out as such.
func (s *InterfaceScanner) Scan(ctx context.Context, token common.Address) InterfaceReport {
	if s.explorer == nil {
		return degradedReport(evidenceABIUnavailable)
	}
	abi, err := s.explorer.ContractABI(ctx, token.Hex())
	if err != nil {
		if errors.Is(err, bscscan.ErrMalformedABI) {
			return degradedReport(evidenceABIParseError)
		}
		return degradedReport(evidenceABIUnavailable)
	}

	names := abi.FunctionNames()
	return InterfaceReport{
		Ownership:     s.ownershipFinding(ctx, token, abi),
		MintBlacklist: mintBlacklistFinding(names),
		TaxHoneypot:   taxFinding(names),
	}
}

func degradedReport(reason string) InterfaceReport {
	return InterfaceReport{
		Ownership:     Finding{Evidence: []string{evidenceOwnerUnknown}},
		MintBlacklist: Finding{Evidence: []string{reason}},
		TaxHoneypot:   Finding{Evidence: []string{reason}},
	}
}

// ownershipFinding calls the first owner accessor the ABI declares.
// A zero owner means ownership was renounced. Accessors that revert
// fall through to the next one.
func (s *InterfaceScanner) ownershipFinding(ctx context.Context, token common.Address, abi *bscscan.ContractABI) Finding {
	if s.chain == nil {
		return Finding{Evidence: []string{evidenceOwnerUnknown}}
	}
	for _, accessor := range ownerAccessors {
		if !abi.HasFunction(accessor) {
			continue
		}
		owner, err := s.chain.ContractOwner(ctx, token, accessor)
		if err != nil {
			continue
		}
		if owner == bsc.ZeroAddress {
			return Finding{Signal: 1, Evidence: []string{evidenceRenounced}}
		}
		return Finding{Signal: -1, Evidence: []string{"Owner set: " + owner.Hex()}}
	}
	return Finding{Evidence: []string{evidenceOwnerUnknown}}
}

func mintBlacklistFinding(names []string) Finding {
	var evidence []string
	signal := 0
	for _, kw := range suspiciousFunctionKeywords {
		lkw := strings.ToLower(kw)
		for _, name := range names {
			if strings.Contains(strings.ToLower(name), lkw) {
				evidence = append(evidence, "Suspicious fn: "+name+"()")
				signal = -1
			}
		}
	}
	if len(evidence) == 0 {
		evidence = []string{evidenceNoMintFlags}
	}
	return Finding{Signal: signal, Evidence: evidence}
}

func taxFinding(names []string) Finding {
	var evidence []string
	signal := 0
	for _, name := range names {
		lname := strings.ToLower(name)
		for _, frag := range feeFunctionFragments {
			if strings.Contains(lname, frag) {
				evidence = append(evidence, "Fee/tax fn: "+name+"()")
				signal = -1
				break
			}
		}
	}
	if len(evidence) == 0 {
		evidence = []string{evidenceNoFeeFlags}
	}
	return Finding{Signal: signal, Evidence: evidence}
}
