package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bsc-token-sentinel/internal/domain"
	"bsc-token-sentinel/internal/storage"
)

// WatchCursorStore is a PostgreSQL implementation of storage.WatchCursorStore.
// One row per watcher holds its last fully processed block.
type WatchCursorStore struct {
	pool *Pool
}

// NewWatchCursorStore creates a new PostgreSQL watch cursor store.
func NewWatchCursorStore(pool *Pool) *WatchCursorStore {
	return &WatchCursorStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WatchCursorStore = (*WatchCursorStore)(nil)

// Get retrieves a watcher's cursor. Returns ErrNotFound if the watcher
// has never saved one.
func (s *WatchCursorStore) Get(ctx context.Context, watcherID string) (*domain.WatchCursor, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT watcher_id, last_block, updated_at
		FROM watch_cursors
		WHERE watcher_id = $1
	`, watcherID)

	var cursor domain.WatchCursor
	err := row.Scan(&cursor.WatcherID, &cursor.LastBlock, &cursor.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get watch cursor: %w", err)
	}

	return &cursor, nil
}

// Save inserts or updates a watcher's cursor.
// Uses upsert to handle initial insert and subsequent updates.
func (s *WatchCursorStore) Save(ctx context.Context, cursor *domain.WatchCursor) error {
	if cursor == nil || cursor.WatcherID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO watch_cursors (watcher_id, last_block, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (watcher_id) DO UPDATE
		SET last_block = EXCLUDED.last_block,
		    updated_at = EXCLUDED.updated_at
	`, cursor.WatcherID, cursor.LastBlock, cursor.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save watch cursor: %w", err)
	}

	return nil
}
