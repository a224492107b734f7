package domain

// FactorID identifies one weighted risk factor in a report.
type FactorID string

const (
	FactorOwnership           FactorID = "ownership"
	FactorMintBlacklist       FactorID = "mint_blacklist"
	FactorLiquidityLock       FactorID = "liquidity_lock"
	FactorHolderConcentration FactorID = "holder_concentration"
	FactorDevHistory          FactorID = "dev_history"
	FactorTaxHoneypot         FactorID = "tax_honeypot"
	FactorMarketIntegrity     FactorID = "market_integrity"
)

// String returns the string representation of FactorID.
func (f FactorID) String() string {
	return string(f)
}

// Factor is one weighted, evidence-backed risk signal.
// Signal is -1 (risk), 0 (unknown), or +1 (healthy); impact is
// weight * signal * 10 rounded to two decimals.
type Factor struct {
	ID       FactorID `json:"id"`
	Weight   float64  `json:"weight"`
	Signal   int      `json:"signal"`
	Evidence []string `json:"evidence"`
	Impact   float64  `json:"impact"`
}
