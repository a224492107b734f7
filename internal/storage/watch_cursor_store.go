package storage

import (
	"context"

	"bsc-token-sentinel/internal/domain"
)

// WatchCursorStore provides persistence for watcher resume positions.
// This enables resumption after restarts without rescanning processed blocks.
type WatchCursorStore interface {
	// Get returns the cursor for a watcher. Returns ErrNotFound if none was saved.
	Get(ctx context.Context, watcherID string) (*domain.WatchCursor, error)

	// Save upserts the cursor for a watcher.
	Save(ctx context.Context, cursor *domain.WatchCursor) error
}
