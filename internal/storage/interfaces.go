package storage

import (
	"context"

	"bsc-token-sentinel/internal/domain"
)

// AnalysisStore provides access to analyses storage.
type AnalysisStore interface {
	// Insert adds a new analysis. Returns ErrDuplicateKey if analysis_id
	// or short_code exists.
	Insert(ctx context.Context, rec *domain.AnalysisRecord) error

	// GetByID retrieves an analysis by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, analysisID string) (*domain.AnalysisRecord, error)

	// GetByShortCode retrieves an analysis by its share code. Returns ErrNotFound if not exists.
	GetByShortCode(ctx context.Context, shortCode string) (*domain.AnalysisRecord, error)

	// LatestForToken retrieves the most recent analysis for a token address.
	// Returns ErrNotFound if the token was never analyzed.
	LatestForToken(ctx context.Context, tokenAddress string) (*domain.AnalysisRecord, error)

	// ListRecent retrieves up to limit analyses, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.AnalysisRecord, error)

	// Count returns the total number of stored analyses.
	Count(ctx context.Context) (int64, error)
}

// ScoreHistoryStore provides access to score_history storage.
type ScoreHistoryStore interface {
	// InsertBulk adds multiple points. Fails entire batch on duplicate
	// (token_address, generated_at).
	InsertBulk(ctx context.Context, points []*domain.ScorePoint) error

	// GetByToken retrieves all points for a token, ordered by generated_at ASC.
	GetByToken(ctx context.Context, tokenAddress string) ([]*domain.ScorePoint, error)

	// GetByTimeRange retrieves points for a token within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, tokenAddress string, start, end int64) ([]*domain.ScorePoint, error)
}
