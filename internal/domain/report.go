package domain

// ReportVersion is the wire format version stamped on every report.
const ReportVersion = "0.1"

// Chain identifiers.
const (
	ChainBSC = "bsc"
)

// Token identifies the analyzed contract.
type Token struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
}

// Liquidity summarizes the primary trading pool and any LP lock found.
// Pair is the zero address when no pool exists.
type Liquidity struct {
	Pair        string   `json:"pair"`
	Dex         *string  `json:"dex"`
	LPLockedPct *float64 `json:"lp_locked_pct"`
	Locker      *string  `json:"locker"`
	LockUntil   *string  `json:"lock_until"`
}

// Supply summarizes token supply, burn share, and holder concentration.
type Supply struct {
	Total         *string  `json:"total"`
	DeadWalletPct *float64 `json:"dead_wallet_pct"`
	Top10Pct      *float64 `json:"top10_pct"`
}

// Tax reports trading taxes when known. Honeypot is true when the
// contract declares fee/tax setters.
type Tax struct {
	Buy      *float64 `json:"buy"`
	Sell     *float64 `json:"sell"`
	Honeypot bool     `json:"honeypot"`
}

// Timestamps carries deployment and first-liquidity times when known.
type Timestamps struct {
	Deployed       *string `json:"deployed"`
	FirstLiquidity *string `json:"first_liquidity"`
}

// DevLink points at an external resource tied to the deployer.
// Reserved; no source populates these yet.
type DevLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// AnalysisReport is the full risk assessment for one token address.
type AnalysisReport struct {
	Chain        string     `json:"chain"`
	Token        Token      `json:"token"`
	Score        float64    `json:"score"`
	Band         Band       `json:"band"`
	Factors      []Factor   `json:"factors"`
	Liquidity    Liquidity  `json:"liquidity"`
	Supply       Supply     `json:"supply"`
	Tax          Tax        `json:"tax"`
	DevLinks     []DevLink  `json:"dev_links"`
	Timestamps   Timestamps `json:"timestamps"`
	Explanations []string   `json:"explanations"`
	Version      string     `json:"version"`
}
