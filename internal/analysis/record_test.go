package analysis

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"bsc-token-sentinel/internal/domain"
	"bsc-token-sentinel/internal/idhash"
)

func TestRecord(t *testing.T) {
	addr := common.HexToAddress("0xfeedfacefeedfacefeedfacefeedfacefeedface")
	report := &domain.AnalysisReport{
		Chain: domain.ChainBSC,
		Token: domain.Token{Address: addr.Hex()},
		Score: 64.5,
		Band:  domain.BandCaution,
	}
	const generatedAt = int64(1756100000000)

	rec := Record(report, generatedAt)

	if want := strings.ToLower(addr.Hex()); rec.TokenAddress != want {
		t.Errorf("TokenAddress = %q, want %q", rec.TokenAddress, want)
	}
	if want := idhash.ComputeAnalysisID(domain.ChainBSC, rec.TokenAddress, generatedAt); rec.AnalysisID != want {
		t.Errorf("AnalysisID = %q, want %q", rec.AnalysisID, want)
	}
	if len(rec.AnalysisID) != 64 {
		t.Errorf("AnalysisID length = %d, want 64", len(rec.AnalysisID))
	}
	if rec.ShortCode == "" || rec.ShortCode == rec.AnalysisID {
		t.Errorf("ShortCode = %q, want a distinct non-empty code", rec.ShortCode)
	}
	if rec.Chain != domain.ChainBSC {
		t.Errorf("Chain = %q, want %q", rec.Chain, domain.ChainBSC)
	}
	if rec.Score != 64.5 || rec.Band != domain.BandCaution {
		t.Errorf("Score/Band = %v/%q, want 64.5/%q", rec.Score, rec.Band, domain.BandCaution)
	}
	if rec.Report != report {
		t.Error("Report pointer not retained")
	}
	if rec.GeneratedAt != generatedAt || rec.CreatedAt != generatedAt {
		t.Errorf("timestamps = %d/%d, want %d", rec.GeneratedAt, rec.CreatedAt, generatedAt)
	}

	if again := Record(report, generatedAt); again.AnalysisID != rec.AnalysisID {
		t.Error("same report and timestamp produced different ids")
	}
	if later := Record(report, generatedAt+1); later.AnalysisID == rec.AnalysisID {
		t.Error("different timestamps produced the same id")
	}
}

func TestScorePoint(t *testing.T) {
	report := &domain.AnalysisReport{
		Factors: []domain.Factor{
			{ID: domain.FactorOwnership, Impact: 2.5},
			{ID: domain.FactorMintBlacklist, Impact: -2},
			{ID: domain.FactorLiquidityLock, Impact: 0},
			{ID: domain.FactorHolderConcentration, Impact: 1.5},
			{ID: domain.FactorDevHistory, Impact: 0},
			{ID: domain.FactorTaxHoneypot, Impact: -0.5},
			{ID: domain.FactorMarketIntegrity, Impact: 0.5},
		},
	}
	rec := domain.AnalysisRecord{
		TokenAddress: "0xfeedfacefeedfacefeedfacefeedfacefeedface",
		GeneratedAt:  1756100000000,
		Score:        62.0,
		Band:         domain.BandCaution,
		Report:       report,
	}

	p := ScorePoint(rec)

	if p.TokenAddress != rec.TokenAddress || p.GeneratedAt != rec.GeneratedAt {
		t.Errorf("identity fields = %q/%d", p.TokenAddress, p.GeneratedAt)
	}
	if p.Score != 62.0 || p.Band != "caution" {
		t.Errorf("Score/Band = %v/%q", p.Score, p.Band)
	}
	if p.OwnershipImpact != 2.5 || p.MintBlacklistImpact != -2 || p.HolderImpact != 1.5 {
		t.Errorf("impacts = %v/%v/%v", p.OwnershipImpact, p.MintBlacklistImpact, p.HolderImpact)
	}
	if p.TaxImpact != -0.5 || p.MarketImpact != 0.5 {
		t.Errorf("impacts = %v/%v", p.TaxImpact, p.MarketImpact)
	}
	if p.LiquidityLockImpact != 0 || p.DevHistoryImpact != 0 {
		t.Errorf("impacts = %v/%v, want zero", p.LiquidityLockImpact, p.DevHistoryImpact)
	}
}

func TestScorePoint_NilReport(t *testing.T) {
	p := ScorePoint(domain.AnalysisRecord{TokenAddress: "0xfeed", Score: 60})
	if p.Score != 60 || p.TokenAddress != "0xfeed" {
		t.Errorf("summary fields = %v/%q", p.Score, p.TokenAddress)
	}
	if p.OwnershipImpact != 0 || p.MarketImpact != 0 {
		t.Errorf("impacts = %v/%v, want zero", p.OwnershipImpact, p.MarketImpact)
	}
}
