package domain

// WatchCursor is a watcher's resume position.
// Corresponds to watch_cursors table in PostgreSQL.
type WatchCursor struct {
	WatcherID string // PRIMARY KEY, watcher name
	LastBlock int64  // last fully processed block number
	UpdatedAt int64  // Unix timestamp in milliseconds
}
