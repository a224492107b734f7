package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bsc-token-sentinel/internal/domain"
	"bsc-token-sentinel/internal/storage"
)

// AnalysisStore implements storage.AnalysisStore using PostgreSQL.
// The full report document is stored as JSONB next to the indexed
// summary columns.
type AnalysisStore struct {
	pool *Pool
}

// NewAnalysisStore creates a new AnalysisStore.
func NewAnalysisStore(pool *Pool) *AnalysisStore {
	return &AnalysisStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AnalysisStore = (*AnalysisStore)(nil)

// Insert adds a new analysis. Returns ErrDuplicateKey if analysis_id
// or short_code exists.
func (s *AnalysisStore) Insert(ctx context.Context, rec *domain.AnalysisRecord) error {
	if rec == nil || rec.AnalysisID == "" || rec.ShortCode == "" {
		return storage.ErrInvalidInput
	}

	reportJSON, err := json.Marshal(rec.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	query := `
		INSERT INTO analyses (
			analysis_id, short_code, chain, token_address, score, band, report, generated_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.pool.Exec(ctx, query,
		rec.AnalysisID,
		rec.ShortCode,
		rec.Chain,
		rec.TokenAddress,
		rec.Score,
		string(rec.Band),
		reportJSON,
		rec.GeneratedAt,
		rec.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// GetByID retrieves an analysis by its ID. Returns ErrNotFound if not exists.
func (s *AnalysisStore) GetByID(ctx context.Context, analysisID string) (*domain.AnalysisRecord, error) {
	query := `
		SELECT analysis_id, short_code, chain, token_address, score, band, report, generated_at, created_at
		FROM analyses
		WHERE analysis_id = $1
	`

	row := s.pool.QueryRow(ctx, query, analysisID)
	rec, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get analysis by id: %w", err)
	}
	return rec, nil
}

// GetByShortCode retrieves an analysis by its share code. Returns ErrNotFound if not exists.
func (s *AnalysisStore) GetByShortCode(ctx context.Context, shortCode string) (*domain.AnalysisRecord, error) {
	query := `
		SELECT analysis_id, short_code, chain, token_address, score, band, report, generated_at, created_at
		FROM analyses
		WHERE short_code = $1
	`

	row := s.pool.QueryRow(ctx, query, shortCode)
	rec, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get analysis by short code: %w", err)
	}
	return rec, nil
}

// LatestForToken retrieves the most recent analysis for a token address.
func (s *AnalysisStore) LatestForToken(ctx context.Context, tokenAddress string) (*domain.AnalysisRecord, error) {
	query := `
		SELECT analysis_id, short_code, chain, token_address, score, band, report, generated_at, created_at
		FROM analyses
		WHERE token_address = $1
		ORDER BY generated_at DESC, analysis_id ASC
		LIMIT 1
	`

	row := s.pool.QueryRow(ctx, query, tokenAddress)
	rec, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest analysis for token: %w", err)
	}
	return rec, nil
}

// ListRecent retrieves up to limit analyses, newest first.
func (s *AnalysisStore) ListRecent(ctx context.Context, limit int) ([]*domain.AnalysisRecord, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT analysis_id, short_code, chain, token_address, score, band, report, generated_at, created_at
		FROM analyses
		ORDER BY generated_at DESC, analysis_id ASC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent analyses: %w", err)
	}
	defer rows.Close()

	return scanAnalyses(rows)
}

// Count returns the total number of stored analyses.
func (s *AnalysisStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM analyses`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count analyses: %w", err)
	}
	return count, nil
}

// scanAnalysis scans a single row into an AnalysisRecord.
func scanAnalysis(row pgx.Row) (*domain.AnalysisRecord, error) {
	var rec domain.AnalysisRecord
	var bandStr string
	var reportJSON []byte

	err := row.Scan(
		&rec.AnalysisID,
		&rec.ShortCode,
		&rec.Chain,
		&rec.TokenAddress,
		&rec.Score,
		&bandStr,
		&reportJSON,
		&rec.GeneratedAt,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Band = domain.Band(bandStr)
	if err := json.Unmarshal(reportJSON, &rec.Report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &rec, nil
}

// scanAnalyses scans multiple rows into a slice of AnalysisRecord.
func scanAnalyses(rows pgx.Rows) ([]*domain.AnalysisRecord, error) {
	var records []*domain.AnalysisRecord

	for rows.Next() {
		var rec domain.AnalysisRecord
		var bandStr string
		var reportJSON []byte

		err := rows.Scan(
			&rec.AnalysisID,
			&rec.ShortCode,
			&rec.Chain,
			&rec.TokenAddress,
			&rec.Score,
			&bandStr,
			&reportJSON,
			&rec.GeneratedAt,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan analysis row: %w", err)
		}

		rec.Band = domain.Band(bandStr)
		if err := json.Unmarshal(reportJSON, &rec.Report); err != nil {
			return nil, fmt.Errorf("unmarshal report: %w", err)
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analysis rows: %w", err)
	}

	return records, nil
}
