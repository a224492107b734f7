package discovery

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"bsc-token-sentinel/internal/bsc"
	"bsc-token-sentinel/internal/domain"
	"bsc-token-sentinel/internal/storage"
)

// DefaultWatcherID names the cursor row for the v2 factory watcher.
const DefaultWatcherID = "pancake-v2-pairs"

// defaultSeenLimit caps the in-memory pair dedupe cache.
const defaultSeenLimit = 10000

// Handler receives each newly created pair exactly once per session.
type Handler func(ctx context.Context, ev domain.PairEvent) error

// WatcherOptions contains configuration for creating a Watcher.
type WatcherOptions struct {
	WS        bsc.WSClient
	Handler   Handler
	Cursors   storage.WatchCursorStore // optional; nil disables resumption
	WatcherID string                   // defaults to DefaultWatcherID
	SeenLimit int                      // defaults to defaultSeenLimit
	Logger    *log.Logger
}

// Watcher subscribes to PairCreated logs on the v2 factory and invokes
// the handler for each new pair, persisting its block cursor as it goes.
type Watcher struct {
	ws        bsc.WSClient
	handler   Handler
	cursors   storage.WatchCursorStore
	watcherID string
	seenLimit int
	logger    *log.Logger

	seen      map[string]bool
	seenOrder []string
	lastSaved int64

	eventsReceived atomic.Int64
	parseErrors    atomic.Int64
	duplicates     atomic.Int64
	pairsHandled   atomic.Int64
	handlerErrors  atomic.Int64
}

// WatcherStats is a snapshot of watcher counters.
type WatcherStats struct {
	EventsReceived int64
	ParseErrors    int64
	Duplicates     int64
	PairsHandled   int64
	HandlerErrors  int64
}

// NewWatcher creates a new pair watcher.
func NewWatcher(opts WatcherOptions) *Watcher {
	watcherID := opts.WatcherID
	if watcherID == "" {
		watcherID = DefaultWatcherID
	}

	seenLimit := opts.SeenLimit
	if seenLimit <= 0 {
		seenLimit = defaultSeenLimit
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Watcher{
		ws:        opts.WS,
		handler:   opts.Handler,
		cursors:   opts.Cursors,
		watcherID: watcherID,
		seenLimit: seenLimit,
		logger:    logger,
		seen:      make(map[string]bool),
	}
}

// Run subscribes to the factory and processes pair events until the
// context is cancelled or the subscription channel closes.
func (w *Watcher) Run(ctx context.Context) error {
	resumeBlock, err := w.loadCursor(ctx)
	if err != nil {
		return err
	}
	if resumeBlock > 0 {
		w.logger.Printf("Resuming after block %d", resumeBlock)
	}

	filter := bsc.LogFilter{
		Addresses: []string{bsc.PancakeV2Factory.Hex()},
		Topics:    [][]string{{PairCreatedTopic}},
	}

	events, err := w.ws.SubscribeLogs(ctx, filter)
	if err != nil {
		return err
	}
	w.logger.Printf("Subscribed to PairCreated on %s", bsc.PancakeV2Factory.Hex())

	for {
		select {
		case <-ctx.Done():
			w.logger.Println("Watcher stopping...")
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				w.logger.Println("Pair event channel closed")
				return errors.New("pair event channel closed")
			}
			w.processEvent(ctx, ev, resumeBlock)
		}
	}
}

// loadCursor returns the last fully processed block, or 0 when the
// watcher has no saved position.
func (w *Watcher) loadCursor(ctx context.Context) (int64, error) {
	if w.cursors == nil {
		return 0, nil
	}

	cursor, err := w.cursors.Get(ctx, w.watcherID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return cursor.LastBlock, nil
}

func (w *Watcher) processEvent(ctx context.Context, ev bsc.LogEvent, resumeBlock int64) {
	w.eventsReceived.Add(1)

	// Reorged-out logs arrive with removed=true; drop them
	if ev.Removed {
		return
	}

	// Blocks below the cursor were processed in a previous session
	if resumeBlock > 0 && ev.BlockNumber < resumeBlock {
		return
	}

	pe, err := ParsePairCreated(ev)
	if err != nil {
		w.parseErrors.Add(1)
		w.logger.Printf("Error parsing pair event: %v", err)
		return
	}

	if w.seen[pe.Pair] {
		w.duplicates.Add(1)
		return
	}
	w.markSeen(pe.Pair)

	if w.handler != nil {
		if err := w.handler(ctx, *pe); err != nil {
			w.handlerErrors.Add(1)
			w.logger.Printf("Error handling pair %s: %v", pe.Pair, err)
		} else {
			w.pairsHandled.Add(1)
			w.logger.Printf("Pair discovered: %s (token0=%s token1=%s block=%d)",
				pe.Pair, pe.Token0, pe.Token1, pe.BlockNumber)
		}
	} else {
		w.pairsHandled.Add(1)
	}

	w.saveCursor(ctx, pe.BlockNumber)
}

// markSeen records a pair address, evicting the oldest entry when the
// cache is full.
func (w *Watcher) markSeen(pair string) {
	if len(w.seenOrder) >= w.seenLimit {
		oldest := w.seenOrder[0]
		w.seenOrder = w.seenOrder[1:]
		delete(w.seen, oldest)
	}
	w.seen[pair] = true
	w.seenOrder = append(w.seenOrder, pair)
}

// saveCursor advances the persisted cursor; cursor failures are logged
// but never stop the watch loop.
func (w *Watcher) saveCursor(ctx context.Context, block int64) {
	if w.cursors == nil || block <= w.lastSaved {
		return
	}

	err := w.cursors.Save(ctx, &domain.WatchCursor{
		WatcherID: w.watcherID,
		LastBlock: block,
		UpdatedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		w.logger.Printf("Error saving cursor at block %d: %v", block, err)
		return
	}
	w.lastSaved = block
}

// Stats returns a snapshot of the watcher counters.
func (w *Watcher) Stats() WatcherStats {
	return WatcherStats{
		EventsReceived: w.eventsReceived.Load(),
		ParseErrors:    w.parseErrors.Load(),
		Duplicates:     w.duplicates.Load(),
		PairsHandled:   w.pairsHandled.Load(),
		HandlerErrors:  w.handlerErrors.Load(),
	}
}
