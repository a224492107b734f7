// Package main provides the pair watcher daemon: it subscribes to
// PairCreated events on the PancakeSwap v2 factory, analyzes the listed
// token of every new pair, and stores the resulting reports.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bsc-token-sentinel/internal/analysis"
	"bsc-token-sentinel/internal/bsc"
	"bsc-token-sentinel/internal/bscscan"
	"bsc-token-sentinel/internal/discovery"
	"bsc-token-sentinel/internal/domain"
	"bsc-token-sentinel/internal/observability"
	"bsc-token-sentinel/internal/storage"
	chstore "bsc-token-sentinel/internal/storage/clickhouse"
	"bsc-token-sentinel/internal/storage/memory"
	"bsc-token-sentinel/internal/storage/migrations"
	pgstore "bsc-token-sentinel/internal/storage/postgres"
)

// statsInterval spaces the periodic watcher stats log lines.
const statsInterval = 1 * time.Minute

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("BSC_WS_URL"), "BSC WebSocket endpoint")
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("BSC_RPC_URL"), "BSC JSON-RPC endpoint")
	bscscanKey := flag.String("bscscan-api-key", os.Getenv("BSCSCAN_API_KEY"), "BscScan API key (empty degrades explorer probes)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of databases")
	analysisTimeout := flag.Duration("analysis-timeout", 60*time.Second, "Per-pair analysis timeout")
	metricsAddr := flag.String("metrics-addr", ":9091", "Prometheus metrics HTTP address (empty to disable)")
	verbose := flag.Bool("verbose", false, "Log analysis progress")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[watch] ", log.LstdFlags|log.Lshortfile)

	if *wsEndpoint == "" {
		logger.Fatal("--ws-endpoint is required")
	}
	if *rpcEndpoint == "" {
		*rpcEndpoint = bsc.DefaultEndpoint
	}
	if (*postgresDSN == "") != (*clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn must be set together (or use --use-memory)")
	}

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to signal main goroutine completion
	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err := runWatch(ctx, logger, watchConfig{
		wsEndpoint:      *wsEndpoint,
		rpcEndpoint:     *rpcEndpoint,
		bscscanKey:      *bscscanKey,
		postgresDSN:     *postgresDSN,
		clickhouseDSN:   *clickhouseDSN,
		useMemory:       *useMemory,
		analysisTimeout: *analysisTimeout,
		verbose:         *verbose,
	})

	// Signal completion to shutdown handler
	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// watchConfig carries the resolved flag values into runWatch.
type watchConfig struct {
	wsEndpoint      string
	rpcEndpoint     string
	bscscanKey      string
	postgresDSN     string
	clickhouseDSN   string
	useMemory       bool
	analysisTimeout time.Duration
	verbose         bool
}

// watchStores bundles storage implementations with their metric labels.
type watchStores struct {
	analyses   storage.AnalysisStore
	history    storage.ScoreHistoryStore
	cursors    storage.WatchCursorStore
	analysesDB string
	historyDB  string
}

// runWatch runs the watcher loop until the context is canceled.
func runWatch(ctx context.Context, logger *log.Logger, cfg watchConfig) error {
	st, cleanup, err := createStores(ctx, cfg.postgresDSN, cfg.clickhouseDSN, cfg.useMemory, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ws, err := bsc.NewWSClient(ctx, cfg.wsEndpoint, nil)
	if err != nil {
		return fmt.Errorf("create websocket client: %w", err)
	}
	defer ws.Close()

	analyzer := analysis.New(analysis.Options{
		Chain:    bsc.NewHTTPClient(cfg.rpcEndpoint),
		Explorer: bscscan.NewClient(cfg.bscscanKey),
		Verbose:  cfg.verbose,
	})
	if cfg.bscscanKey == "" {
		logger.Println("BSCSCAN_API_KEY not set; explorer-backed factors degrade to unknown")
	}

	handler := func(ctx context.Context, ev domain.PairEvent) error {
		observability.RecordPairEvent()

		token, ok := discovery.BaseToken(ev)
		if !ok {
			logger.Printf("Skipping pair %s: no listed token side", ev.Pair)
			return nil
		}

		actx, cancel := context.WithTimeout(ctx, cfg.analysisTimeout)
		defer cancel()

		start := time.Now()
		report, err := analyzer.Analyze(actx, token)
		if err != nil {
			observability.RecordAnalysisError()
			return fmt.Errorf("analyze %s: %w", token, err)
		}
		observability.RecordAnalysis(string(report.Band), time.Since(start).Seconds())

		rec := analysis.Record(report, time.Now().UnixMilli())
		persist(ctx, logger, st, &rec)

		logger.Printf("Analyzed %s: score=%.1f band=%s code=%s", token, rec.Score, rec.Band, rec.ShortCode)
		return nil
	}

	watcher := discovery.NewWatcher(discovery.WatcherOptions{
		WS:      ws,
		Handler: handler,
		Cursors: st.cursors,
		Logger:  logger,
	})

	// Log watcher stats periodically
	go func() {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := watcher.Stats()
				logger.Printf("Stats: events=%d pairs=%d duplicates=%d parse_errors=%d handler_errors=%d",
					stats.EventsReceived, stats.PairsHandled, stats.Duplicates,
					stats.ParseErrors, stats.HandlerErrors)
			}
		}
	}()

	logger.Println("Starting pair watcher...")
	return watcher.Run(ctx)
}

// persist writes the record and its history point. Failures are logged
// and never stop the watch loop.
func persist(ctx context.Context, logger *log.Logger, st *watchStores, rec *domain.AnalysisRecord) {
	start := time.Now()
	err := st.analyses.Insert(ctx, rec)
	observability.RecordDBQuery(st.analysesDB, "insert_analysis", time.Since(start).Seconds(), err)
	if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		logger.Printf("Persist analysis %s: %v", rec.AnalysisID, err)
	}

	point := analysis.ScorePoint(*rec)
	start = time.Now()
	err = st.history.InsertBulk(ctx, []*domain.ScorePoint{&point})
	observability.RecordDBQuery(st.historyDB, "insert_score_point", time.Since(start).Seconds(), err)
	if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		logger.Printf("Persist score point for %s: %v", rec.TokenAddress, err)
	}
}

// createStores creates the analysis, history, and cursor stores. With no
// DSNs configured the watcher still runs, keeping everything in memory.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool, logger *log.Logger) (*watchStores, func(), error) {
	if useMemory || postgresDSN == "" {
		if !useMemory {
			logger.Println("No database configured; storing reports in memory")
		}
		st := &watchStores{
			analyses:   memory.NewAnalysisStore(),
			history:    memory.NewScoreHistoryStore(),
			cursors:    memory.NewWatchCursorStore(),
			analysesDB: "memory",
			historyDB:  "memory",
		}
		return st, func() {}, nil
	}

	// PostgreSQL (analyses, cursors)
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	// ClickHouse (score history); migrations bootstrap the database
	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate clickhouse: %w", err)
	}

	st := &watchStores{
		analyses:   pgstore.NewAnalysisStore(pool),
		history:    chstore.NewScoreHistoryStore(chConn),
		cursors:    pgstore.NewWatchCursorStore(pool),
		analysesDB: "postgres",
		historyDB:  "clickhouse",
	}
	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return st, cleanup, nil
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
