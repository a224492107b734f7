// Package analysis runs the token risk pipeline: it fans out on-chain and
// explorer probes for one BEP-20 contract, weighs the findings, and
// assembles the final scored report.
package analysis

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"bsc-token-sentinel/internal/bsc"
	"bsc-token-sentinel/internal/bscscan"
	"bsc-token-sentinel/internal/domain"
	"bsc-token-sentinel/internal/probe"
	"bsc-token-sentinel/internal/scoring"
)

// Options configures the Analyzer.
type Options struct {
	// Chain is the BSC JSON-RPC client. A nil chain degrades every
	// on-chain probe to its unknown result.
	Chain bsc.RPCClient

	// Explorer is the BscScan API client. A nil or keyless client
	// degrades ABI and holder probes to their unknown results.
	Explorer *bscscan.Client

	// Verbose enables progress logging.
	Verbose bool
}

// Analyzer produces risk reports for token addresses.
type Analyzer struct {
	chain    bsc.RPCClient
	explorer *bscscan.Client
	verbose  bool

	pools    *probe.PoolFinder
	iface    *probe.InterfaceScanner
	supply   *probe.SupplyReader
	holders  *probe.HolderAnalyzer
	locks    *probe.LockChecker
	identity *probe.IdentityReader
}

// New creates an Analyzer with the given options.
func New(opts Options) *Analyzer {
	return &Analyzer{
		chain:    opts.Chain,
		explorer: opts.Explorer,
		verbose:  opts.Verbose,
		pools:    probe.NewPoolFinder(opts.Chain),
		iface:    probe.NewInterfaceScanner(opts.Chain, opts.Explorer),
		supply:   probe.NewSupplyReader(opts.Chain),
		holders:  probe.NewHolderAnalyzer(opts.Chain, opts.Explorer),
		locks:    probe.NewLockChecker(opts.Chain),
		identity: probe.NewIdentityReader(opts.Chain),
	}
}

// Analyze probes one token address and assembles its risk report.
// A malformed address is the only failure; probes that cannot answer
// leave their factors at the neutral baseline, so a valid address
// always yields a complete report.
func (a *Analyzer) Analyze(ctx context.Context, address string) (*domain.AnalysisReport, error) {
	if !domain.ValidAddress(address) {
		return nil, fmt.Errorf("analyze %q: %w", address, domain.ErrInvalidAddress)
	}
	token := common.HexToAddress(address)
	a.log("analyzing %s", address)

	var (
		v2Pair  string
		hasV2   bool
		v3Pool  probe.V3Pool
		hasV3   bool
		lock    probe.LockStatus
		hasLock bool

		contract probe.InterfaceReport

		supplyStats probe.SupplyStats
		supplyErr   error

		topTenPct float64
		topTenErr error

		name, symbol string
	)

	var wg sync.WaitGroup
	wg.Add(5)
	go func() {
		defer wg.Done()
		v2Pair, hasV2 = a.pools.FindV2Pair(ctx, token)
		v3Pool, hasV3 = a.pools.FindV3Pool(ctx, token)
		if hasV2 {
			lock, hasLock = a.locks.Check(ctx, common.HexToAddress(v2Pair))
		}
	}()
	go func() {
		defer wg.Done()
		contract = a.iface.Scan(ctx, token)
	}()
	go func() {
		defer wg.Done()
		supplyStats, supplyErr = a.supply.Read(ctx, token)
	}()
	go func() {
		defer wg.Done()
		topTenPct, topTenErr = a.holders.TopTenPercent(ctx, token)
	}()
	go func() {
		defer wg.Done()
		name, symbol = a.identity.Read(ctx, token)
	}()
	wg.Wait()

	a.log("probes done for %s: v2=%v v3=%v abi_signal=%d", address, hasV2, hasV3, contract.MintBlacklist.Signal)

	factors := scoring.NewBaselineFactorSet()
	factors.SetSignal(domain.FactorOwnership, contract.Ownership.Signal, contract.Ownership.Evidence...)
	factors.SetSignal(domain.FactorMintBlacklist, contract.MintBlacklist.Signal, contract.MintBlacklist.Evidence...)
	factors.SetSignal(domain.FactorTaxHoneypot, contract.TaxHoneypot.Signal, contract.TaxHoneypot.Evidence...)

	if topTenErr == nil {
		factors.SetSignal(domain.FactorHolderConcentration, holderSignal(topTenPct),
			fmt.Sprintf("Top10 holders = %s%%", formatPct(topTenPct)))
	}

	switch {
	case hasV2 && hasV3:
		factors.RaiseSignal(domain.FactorMarketIntegrity, 1, v2PairEvidence(v2Pair), v3PoolEvidence(v3Pool))
	case hasV2:
		factors.RaiseSignal(domain.FactorMarketIntegrity, 1, v2PairEvidence(v2Pair))
	case hasV3:
		factors.RaiseSignal(domain.FactorMarketIntegrity, 1, v3PoolEvidence(v3Pool))
	}

	// The v2 pair is the primary venue; v3-only tokens have no LP lock
	// data because the lockers hold v2 LP tokens.
	liquidity := domain.Liquidity{Pair: domain.ZeroAddress}
	switch {
	case hasV2:
		dex := domain.DexPancakeV2
		liquidity.Pair = v2Pair
		liquidity.Dex = &dex
		if hasLock {
			lockedPct := lock.LockedPct
			locker := lock.Locker
			liquidity.LPLockedPct = &lockedPct
			liquidity.Locker = &locker
			factors.SetEvidence(domain.FactorLiquidityLock,
				fmt.Sprintf("LP locked: %s%% (%s)", formatPct(lockedPct), locker))
		}
	case hasV3:
		dex := domain.DexPancakeV3
		liquidity.Pair = v3Pool.Address
		liquidity.Dex = &dex
	}

	supply := domain.Supply{}
	if supplyErr == nil {
		total := supplyStats.TotalDisplay
		supply.Total = &total
		supply.DeadWalletPct = supplyStats.DeadPct
	}
	if topTenErr == nil {
		pct := topTenPct
		supply.Top10Pct = &pct
	}

	score := factors.Score()
	band := scoring.BandForScore(score)
	a.log("scored %s: %.2f (%s)", address, score, band)

	return &domain.AnalysisReport{
		Chain: domain.ChainBSC,
		Token: domain.Token{
			Address: address,
			Symbol:  symbol,
			Name:    name,
		},
		Score:     score,
		Band:      band,
		Factors:   factors.Factors(),
		Liquidity: liquidity,
		Supply:    supply,
		Tax: domain.Tax{
			Honeypot: contract.TaxHoneypot.Signal == -1,
		},
		DevLinks:     []domain.DevLink{},
		Timestamps:   domain.Timestamps{},
		Explanations: scoring.Explanations(),
		Version:      domain.ReportVersion,
	}, nil
}

func (a *Analyzer) log(format string, args ...interface{}) {
	if a.verbose {
		log.Printf("[analyzer] "+format, args...)
	}
}

// holderSignal grades top-10 holder concentration: above 50% of supply
// is a risk, above 25% is inconclusive, anything lower is healthy.
func holderSignal(topTenPct float64) int {
	switch {
	case topTenPct > 50:
		return -1
	case topTenPct > 25:
		return 0
	default:
		return 1
	}
}

// formatPct renders a percentage without trailing zeros.
func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func v2PairEvidence(pair string) string {
	return fmt.Sprintf("Pancake v2 pair found: %s", pair)
}

func v3PoolEvidence(pool probe.V3Pool) string {
	return fmt.Sprintf("Pancake v3 pool found: %s (fee %.2f%%, %s)",
		pool.Address, float64(pool.FeeTier)/100, pool.QuoteSymbol)
}
