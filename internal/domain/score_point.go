package domain

// ScorePoint is one entry in a token's score time series.
// Corresponds to score_history table in ClickHouse.
type ScorePoint struct {
	TokenAddress string  // lowercase token address
	GeneratedAt  int64   // Unix timestamp in milliseconds
	Score        float64 // 0-100
	Band         string  // band at generation time

	// Per-factor impacts at generation time.
	OwnershipImpact     float64
	MintBlacklistImpact float64
	LiquidityLockImpact float64
	HolderImpact        float64
	DevHistoryImpact    float64
	TaxImpact           float64
	MarketImpact        float64
}
