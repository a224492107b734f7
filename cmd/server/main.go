// Package main provides the token risk HTTP service:
// - Analysis (on demand): POST /analyze runs the probe pipeline
// - Retrieval: stored reports by analysis id, short code, or token
// - Diagnostics: /debug/bscscan, /status, /metrics
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"bsc-token-sentinel/internal/analysis"
	"bsc-token-sentinel/internal/bsc"
	"bsc-token-sentinel/internal/bscscan"
	"bsc-token-sentinel/internal/domain"
	"bsc-token-sentinel/internal/observability"
	"bsc-token-sentinel/internal/reporting"
	"bsc-token-sentinel/internal/storage"
	chstore "bsc-token-sentinel/internal/storage/clickhouse"
	"bsc-token-sentinel/internal/storage/memory"
	"bsc-token-sentinel/internal/storage/migrations"
	pgstore "bsc-token-sentinel/internal/storage/postgres"
)

// defaultRecentLimit caps GET /analyses when no limit is given.
const defaultRecentLimit = 20

// Server wires the analyzer and stores behind the HTTP API.
type Server struct {
	analyzer *analysis.Analyzer
	stores   *stores
	logger   *log.Logger

	// State
	mu             sync.Mutex
	startedAt      time.Time
	analysesServed int
	analysisErrors int
}

// stores bundles storage implementations with their metric labels.
type stores struct {
	analyses   storage.AnalysisStore
	history    storage.ScoreHistoryStore
	analysesDB string
	historyDB  string
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	addr := flag.String("addr", ":8000", "HTTP listen address")
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("BSC_RPC_URL"), "BSC JSON-RPC endpoint")
	bscscanKey := flag.String("bscscan-api-key", os.Getenv("BSCSCAN_API_KEY"), "BscScan API key (empty degrades explorer probes)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of databases")
	verbose := flag.Bool("verbose", false, "Log analysis progress")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if *rpcEndpoint == "" {
		*rpcEndpoint = bsc.DefaultEndpoint
	}
	if (*postgresDSN == "") != (*clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn must be set together (or use --use-memory)")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Create stores
	st, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	if *bscscanKey == "" {
		logger.Println("BSCSCAN_API_KEY not set; explorer-backed factors degrade to unknown")
	}

	// Create server
	server := &Server{
		analyzer: analysis.New(analysis.Options{
			Chain:    bsc.NewHTTPClient(*rpcEndpoint),
			Explorer: bscscan.NewClient(*bscscanKey),
			Verbose:  *verbose,
		}),
		stores:    st,
		logger:    logger,
		startedAt: time.Now(),
	}

	httpSrv := &http.Server{Addr: *addr, Handler: server.routes()}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		go func() {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancelShutdown()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				logger.Printf("HTTP shutdown error: %v", err)
			}
		}()

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

	logger.Printf("Listening on %s (rpc: %s, storage: %s)", *addr, *rpcEndpoint, st.analysesDB)
	err = httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	done <- err
	cancel()

	if err != nil {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates the analysis and history stores. With no DSNs
// configured the server still runs, keeping reports in memory.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool, logger *log.Logger) (*stores, func(), error) {
	if useMemory || postgresDSN == "" {
		if !useMemory {
			logger.Println("No database configured; storing reports in memory")
		}
		st := &stores{
			analyses:   memory.NewAnalysisStore(),
			history:    memory.NewScoreHistoryStore(),
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

	st := &stores{
		analyses:   pgstore.NewAnalysisStore(pool),
		history:    chstore.NewScoreHistoryStore(chConn),
		analysesDB: "postgres",
		historyDB:  "clickhouse",
	}
	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return st, cleanup, nil
}

// routes builds the HTTP mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.instrument("/health", s.handleHealth))
	mux.HandleFunc("POST /analyze", s.instrument("/analyze", s.handleAnalyze))
	mux.HandleFunc("GET /debug/bscscan", s.instrument("/debug/bscscan", s.handleDebugBscscan))
	mux.HandleFunc("GET /status", s.instrument("/status", s.handleStatus))
	mux.Handle("GET /metrics", observability.Handler())

	mux.HandleFunc("GET /analyses", s.instrument("/analyses", s.handleListRecent))
	mux.HandleFunc("GET /analyses/{id}", s.instrument("/analyses/{id}", s.handleGetByID))
	mux.HandleFunc("GET /analyses/code/{code}", s.instrument("/analyses/code/{code}", s.handleGetByShortCode))
	mux.HandleFunc("GET /tokens/{address}/latest", s.instrument("/tokens/{address}/latest", s.handleLatestForToken))
	mux.HandleFunc("GET /tokens/{address}/history", s.instrument("/tokens/{address}/history", s.handleHistory))

	return mux
}

// instrument records request metrics per route.
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next(sw, r)
		observability.RecordHTTPRequest(route, sw.code, time.Since(start).Seconds())
	}
}

// statusWriter captures the response code for metrics.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// analyzeRequest is the POST /analyze body.
type analyzeRequest struct {
	Chain   string `json:"chain"`
	Address string `json:"address"`
}

// analyzeResponse is the report with persistence identifiers attached.
type analyzeResponse struct {
	*domain.AnalysisReport
	AnalysisID string `json:"analysis_id,omitempty"`
	ShortCode  string `json:"short_code,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.ToLower(req.Chain) != domain.ChainBSC {
		writeError(w, http.StatusBadRequest, "MVP supports only 'bsc' chain")
		return
	}

	start := time.Now()
	report, err := s.analyzer.Analyze(r.Context(), req.Address)
	if err != nil {
		s.countError()
		observability.RecordAnalysisError()
		if errors.Is(err, domain.ErrInvalidAddress) {
			writeError(w, http.StatusBadRequest, "Invalid BSC address")
			return
		}
		writeError(w, http.StatusInternalServerError, "Analysis failed")
		return
	}
	observability.RecordAnalysis(string(report.Band), time.Since(start).Seconds())
	s.countServed()

	rec := analysis.Record(report, time.Now().UnixMilli())
	s.persist(r.Context(), &rec)

	writeJSON(w, http.StatusOK, analyzeResponse{
		AnalysisReport: report,
		AnalysisID:     rec.AnalysisID,
		ShortCode:      rec.ShortCode,
	})
}

// persist writes the record and its history point. Failures are logged
// and never affect the response.
func (s *Server) persist(ctx context.Context, rec *domain.AnalysisRecord) {
	start := time.Now()
	err := s.stores.analyses.Insert(ctx, rec)
	observability.RecordDBQuery(s.stores.analysesDB, "insert_analysis", time.Since(start).Seconds(), err)
	if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		s.logger.Printf("Persist analysis %s: %v", rec.AnalysisID, err)
	}

	point := analysis.ScorePoint(*rec)
	start = time.Now()
	err = s.stores.history.InsertBulk(ctx, []*domain.ScorePoint{&point})
	observability.RecordDBQuery(s.stores.historyDB, "insert_score_point", time.Since(start).Seconds(), err)
	if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		s.logger.Printf("Persist score point for %s: %v", rec.TokenAddress, err)
	}
}

func (s *Server) handleDebugBscscan(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		writeError(w, http.StatusBadRequest, "address query parameter is required")
		return
	}
	writeJSON(w, http.StatusOK, s.analyzer.Diagnose(r.Context(), address))
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status         string `json:"status"`
	Uptime         string `json:"uptime"`
	AnalysesServed int    `json:"analyses_served"`
	AnalysisErrors int    `json:"analysis_errors"`
	StoredAnalyses int64  `json:"stored_analyses"`
	Storage        string `json:"storage"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:         "running",
		Uptime:         time.Since(s.startedAt).String(),
		AnalysesServed: s.analysesServed,
		AnalysisErrors: s.analysisErrors,
		Storage:        s.stores.analysesDB,
	}
	s.mu.Unlock()

	if count, err := s.stores.analyses.Count(r.Context()); err == nil {
		resp.StoredAnalyses = count
	}

	writeJSON(w, http.StatusOK, resp)
}

// recordResponse is a stored analysis as served over HTTP.
type recordResponse struct {
	AnalysisID   string                 `json:"analysis_id"`
	ShortCode    string                 `json:"short_code"`
	Chain        string                 `json:"chain"`
	TokenAddress string                 `json:"token_address"`
	Score        float64                `json:"score"`
	Band         domain.Band            `json:"band"`
	Report       *domain.AnalysisReport `json:"report"`
	GeneratedAt  int64                  `json:"generated_at"`
	CreatedAt    int64                  `json:"created_at"`
}

func toRecordResponse(rec *domain.AnalysisRecord) recordResponse {
	return recordResponse{
		AnalysisID:   rec.AnalysisID,
		ShortCode:    rec.ShortCode,
		Chain:        rec.Chain,
		TokenAddress: rec.TokenAddress,
		Score:        rec.Score,
		Band:         rec.Band,
		Report:       rec.Report,
		GeneratedAt:  rec.GeneratedAt,
		CreatedAt:    rec.CreatedAt,
	}
}

// respondRecord serves one stored analysis, mapping ErrNotFound to 404.
func (s *Server) respondRecord(w http.ResponseWriter, load func() (*domain.AnalysisRecord, error)) {
	rec, err := load()
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Analysis not found")
		return
	}
	if err != nil {
		s.logger.Printf("Load analysis: %v", err)
		writeError(w, http.StatusInternalServerError, "Storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (s *Server) handleGetByID(w http.ResponseWriter, r *http.Request) {
	s.respondRecord(w, func() (*domain.AnalysisRecord, error) {
		return s.stores.analyses.GetByID(r.Context(), r.PathValue("id"))
	})
}

func (s *Server) handleGetByShortCode(w http.ResponseWriter, r *http.Request) {
	s.respondRecord(w, func() (*domain.AnalysisRecord, error) {
		return s.stores.analyses.GetByShortCode(r.Context(), r.PathValue("code"))
	})
}

func (s *Server) handleLatestForToken(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if !domain.ValidAddress(address) {
		writeError(w, http.StatusBadRequest, "Invalid BSC address")
		return
	}
	s.respondRecord(w, func() (*domain.AnalysisRecord, error) {
		return s.stores.analyses.LatestForToken(r.Context(), domain.NormalizeAddress(address))
	})
}

func (s *Server) handleListRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	recs, err := s.stores.analyses.ListRecent(r.Context(), limit)
	if err != nil {
		s.logger.Printf("List analyses: %v", err)
		writeError(w, http.StatusInternalServerError, "Storage unavailable")
		return
	}

	out := make([]recordResponse, len(recs))
	for i, rec := range recs {
		out[i] = toRecordResponse(rec)
	}
	writeJSON(w, http.StatusOK, out)
}

// pointResponse is one score history row as served over HTTP.
type pointResponse struct {
	TokenAddress        string  `json:"token_address"`
	GeneratedAt         int64   `json:"generated_at"`
	Score               float64 `json:"score"`
	Band                string  `json:"band"`
	OwnershipImpact     float64 `json:"ownership_impact"`
	MintBlacklistImpact float64 `json:"mint_blacklist_impact"`
	LiquidityLockImpact float64 `json:"liquidity_lock_impact"`
	HolderImpact        float64 `json:"holder_impact"`
	DevHistoryImpact    float64 `json:"dev_history_impact"`
	TaxImpact           float64 `json:"tax_impact"`
	MarketImpact        float64 `json:"market_impact"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if !domain.ValidAddress(address) {
		writeError(w, http.StatusBadRequest, "Invalid BSC address")
		return
	}
	token := domain.NormalizeAddress(address)

	q := r.URL.Query()
	start, err := parseMillis(q.Get("start"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be a millisecond timestamp")
		return
	}
	end, err := parseMillis(q.Get("end"), time.Now().UnixMilli())
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be a millisecond timestamp")
		return
	}

	var points []*domain.ScorePoint
	queryStart := time.Now()
	if q.Get("start") == "" && q.Get("end") == "" {
		points, err = s.stores.history.GetByToken(r.Context(), token)
	} else {
		points, err = s.stores.history.GetByTimeRange(r.Context(), token, start, end)
	}
	observability.RecordDBQuery(s.stores.historyDB, "get_history", time.Since(queryStart).Seconds(), err)
	if err != nil {
		s.logger.Printf("Load history for %s: %v", token, err)
		writeError(w, http.StatusInternalServerError, "Storage unavailable")
		return
	}

	if q.Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(reporting.RenderHistoryCSV(points)))
		return
	}

	out := make([]pointResponse, len(points))
	for i, p := range points {
		out[i] = pointResponse{
			TokenAddress:        p.TokenAddress,
			GeneratedAt:         p.GeneratedAt,
			Score:               p.Score,
			Band:                p.Band,
			OwnershipImpact:     p.OwnershipImpact,
			MintBlacklistImpact: p.MintBlacklistImpact,
			LiquidityLockImpact: p.LiquidityLockImpact,
			HolderImpact:        p.HolderImpact,
			DevHistoryImpact:    p.DevHistoryImpact,
			TaxImpact:           p.TaxImpact,
			MarketImpact:        p.MarketImpact,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) countServed() {
	s.mu.Lock()
	s.analysesServed++
	s.mu.Unlock()
}

func (s *Server) countError() {
	s.mu.Lock()
	s.analysisErrors++
	s.mu.Unlock()
}

// parseMillis parses an optional millisecond timestamp query value.
func parseMillis(raw string, fallback int64) (int64, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
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
