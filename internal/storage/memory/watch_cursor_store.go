package memory

import (
	"context"
	"sync"

	"bsc-token-sentinel/internal/domain"
	"bsc-token-sentinel/internal/storage"
)

// WatchCursorStore is an in-memory implementation of storage.WatchCursorStore.
type WatchCursorStore struct {
	mu   sync.RWMutex
	data map[string]*domain.WatchCursor // keyed by watcher_id
}

// NewWatchCursorStore creates a new in-memory watch cursor store.
func NewWatchCursorStore() *WatchCursorStore {
	return &WatchCursorStore{
		data: make(map[string]*domain.WatchCursor),
	}
}

// Get retrieves a watcher's cursor. Returns ErrNotFound if the watcher
// has never saved one.
func (s *WatchCursorStore) Get(_ context.Context, watcherID string) (*domain.WatchCursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cursor, exists := s.data[watcherID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cursorCopy := *cursor
	return &cursorCopy, nil
}

// Save inserts or updates a watcher's cursor.
func (s *WatchCursorStore) Save(_ context.Context, cursor *domain.WatchCursor) error {
	if cursor == nil || cursor.WatcherID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to prevent external mutation
	cursorCopy := *cursor
	s.data[cursor.WatcherID] = &cursorCopy
	return nil
}

// Verify interface compliance at compile time.
var _ storage.WatchCursorStore = (*WatchCursorStore)(nil)
