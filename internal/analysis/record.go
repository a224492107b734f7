package analysis

import (
	"bsc-token-sentinel/internal/domain"
	"bsc-token-sentinel/internal/idhash"
)

// Record wraps a report in a persistable analysis record. The token
// address is normalized to lowercase so identical runs hash identically.
func Record(report *domain.AnalysisReport, generatedAt int64) domain.AnalysisRecord {
	tokenAddr := domain.NormalizeAddress(report.Token.Address)
	return domain.AnalysisRecord{
		AnalysisID:   idhash.ComputeAnalysisID(report.Chain, tokenAddr, generatedAt),
		ShortCode:    idhash.ShortCode(report.Chain, tokenAddr, generatedAt),
		Chain:        report.Chain,
		TokenAddress: tokenAddr,
		Score:        report.Score,
		Band:         report.Band,
		Report:       report,
		GeneratedAt:  generatedAt,
		CreatedAt:    generatedAt,
	}
}

// ScorePoint flattens a record into one score history row.
func ScorePoint(rec domain.AnalysisRecord) domain.ScorePoint {
	p := domain.ScorePoint{
		TokenAddress: rec.TokenAddress,
		GeneratedAt:  rec.GeneratedAt,
		Score:        rec.Score,
		Band:         string(rec.Band),
	}
	if rec.Report == nil {
		return p
	}
	for _, f := range rec.Report.Factors {
		switch f.ID {
		case domain.FactorOwnership:
			p.OwnershipImpact = f.Impact
		case domain.FactorMintBlacklist:
			p.MintBlacklistImpact = f.Impact
		case domain.FactorLiquidityLock:
			p.LiquidityLockImpact = f.Impact
		case domain.FactorHolderConcentration:
			p.HolderImpact = f.Impact
		case domain.FactorDevHistory:
			p.DevHistoryImpact = f.Impact
		case domain.FactorTaxHoneypot:
			p.TaxImpact = f.Impact
		case domain.FactorMarketIntegrity:
			p.MarketImpact = f.Impact
		}
	}
	return p
}
