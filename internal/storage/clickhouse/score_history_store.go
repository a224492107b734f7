package clickhouse

import (
	"context"
	"fmt"

	"bsc-token-sentinel/internal/domain"
	"bsc-token-sentinel/internal/storage"
)

// ScoreHistoryStore implements storage.ScoreHistoryStore using ClickHouse.
// Each row is one scoring run for a token, keyed by
// (token_address, generated_at).
type ScoreHistoryStore struct {
	conn *Conn
}

// NewScoreHistoryStore creates a new ScoreHistoryStore.
func NewScoreHistoryStore(conn *Conn) *ScoreHistoryStore {
	return &ScoreHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ScoreHistoryStore = (*ScoreHistoryStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate
// (token_address, generated_at).
func (s *ScoreHistoryStore) InsertBulk(ctx context.Context, points []*domain.ScorePoint) error {
	if len(points) == 0 {
		return nil
	}
	for _, p := range points {
		if p == nil || p.TokenAddress == "" {
			return storage.ErrInvalidInput
		}
	}

	// Check for intra-batch duplicates
	type key struct {
		tokenAddress string
		generatedAt  int64
	}
	seen := make(map[key]struct{})
	for _, p := range points {
		k := key{p.TokenAddress, p.GeneratedAt}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, p := range points {
		exists, err := s.exists(ctx, p.TokenAddress, p.GeneratedAt)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO score_history (
			token_address, generated_at, score, band,
			ownership_impact, mint_blacklist_impact, liquidity_lock_impact,
			holder_impact, dev_history_impact, tax_impact, market_impact
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.TokenAddress, uint64(p.GeneratedAt), p.Score, p.Band,
			p.OwnershipImpact, p.MintBlacklistImpact, p.LiquidityLockImpact,
			p.HolderImpact, p.DevHistoryImpact, p.TaxImpact, p.MarketImpact,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByToken retrieves all points for a token, ordered by generated_at ASC.
func (s *ScoreHistoryStore) GetByToken(ctx context.Context, tokenAddress string) ([]*domain.ScorePoint, error) {
	query := `
		SELECT token_address, generated_at, score, band,
		       ownership_impact, mint_blacklist_impact, liquidity_lock_impact,
		       holder_impact, dev_history_impact, tax_impact, market_impact
		FROM score_history
		WHERE token_address = ?
		ORDER BY generated_at ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("query by token: %w", err)
	}
	defer rows.Close()

	return scanScorePoints(rows)
}

// GetByTimeRange retrieves points for a token within [start, end] (inclusive).
func (s *ScoreHistoryStore) GetByTimeRange(ctx context.Context, tokenAddress string, start, end int64) ([]*domain.ScorePoint, error) {
	query := `
		SELECT token_address, generated_at, score, band,
		       ownership_impact, mint_blacklist_impact, liquidity_lock_impact,
		       holder_impact, dev_history_impact, tax_impact, market_impact
		FROM score_history
		WHERE token_address = ? AND generated_at >= ? AND generated_at <= ?
		ORDER BY generated_at ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenAddress, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanScorePoints(rows)
}

// exists checks if a point with the given key exists.
func (s *ScoreHistoryStore) exists(ctx context.Context, tokenAddress string, generatedAt int64) (bool, error) {
	query := `
		SELECT count(*) FROM score_history
		WHERE token_address = ? AND generated_at = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, tokenAddress, uint64(generatedAt)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanScorePoints scans multiple rows into a slice.
func scanScorePoints(rows chRows) ([]*domain.ScorePoint, error) {
	var points []*domain.ScorePoint

	for rows.Next() {
		var p domain.ScorePoint
		var generatedAt uint64

		err := rows.Scan(
			&p.TokenAddress, &generatedAt, &p.Score, &p.Band,
			&p.OwnershipImpact, &p.MintBlacklistImpact, &p.LiquidityLockImpact,
			&p.HolderImpact, &p.DevHistoryImpact, &p.TaxImpact, &p.MarketImpact,
		)
		if err != nil {
			return nil, fmt.Errorf("scan score history row: %w", err)
		}

		p.GeneratedAt = int64(generatedAt)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate score history rows: %w", err)
	}

	return points, nil
}
