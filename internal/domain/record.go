package domain

// AnalysisRecord is a persisted analysis run.
// Corresponds to analyses table in PostgreSQL; the full report is
// stored as JSONB alongside the indexed summary columns.
type AnalysisRecord struct {
	AnalysisID   string          // PRIMARY KEY, deterministic hash
	ShortCode    string          // base58 share code, unique
	Chain        string          // "bsc"
	TokenAddress string          // lowercase token address
	Score        float64         // 0-100
	Band         Band            // band at generation time
	Report       *AnalysisReport // full report document
	GeneratedAt  int64           // Unix timestamp in milliseconds
	CreatedAt    int64           // record creation timestamp (ms)
}
