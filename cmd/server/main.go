// Package main provides the classification service:
// - JSON API: classify, lookup, compare, benchmark ingestion
// - WebSocket stream of freshly computed classifications
// - Prometheus metrics and health endpoints
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
	"strings"
	"syscall"
	"time"

	"token-risk-engine/internal/benchmark"
	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/engine"
	"token-risk-engine/internal/observability"
	"token-risk-engine/internal/storage"
	chstore "token-risk-engine/internal/storage/clickhouse"
	"token-risk-engine/internal/storage/memory"
	"token-risk-engine/internal/storage/migrations"
	pgstore "token-risk-engine/internal/storage/postgres"
	"token-risk-engine/internal/stream"
	"token-risk-engine/internal/trend"
)

// allStores holds all storage implementations.
type allStores struct {
	classifications storage.ClassificationStore
	history         storage.ScoreHistoryStore
	benchmarks      storage.BenchmarkStore
}

// Server holds the engine and its HTTP surface.
type Server struct {
	engine *engine.Engine
	hub    *stream.Hub
	logger *log.Logger
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", ":8080", "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	cacheTTL := flag.Duration("cache-ttl", engine.DefaultCacheTTL, "Classification cache TTL")
	trendSensitivity := flag.Float64("trend-sensitivity", trend.DefaultConfig().Sensitivity, "Minimum score delta that triggers trend adjustment")
	trendBound := flag.Float64("trend-bound", trend.DefaultConfig().Bound, "Maximum absolute trend adjustment")
	verbose := flag.Bool("verbose", false, "Verbose engine logging")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	metrics := observability.NewMetrics("token_risk")

	eng := engine.New(engine.Options{
		Classifications: stores.classifications,
		History:         stores.history,
		Benchmarks:      benchmark.NewEngine(stores.benchmarks),
		CacheTTL:        *cacheTTL,
		Trend:           trend.Config{Sensitivity: *trendSensitivity, Bound: *trendBound},
		Metrics:         metrics,
		Verbose:         *verbose,
	})

	hub := stream.NewHub(nil, metrics)
	defer hub.Close()

	server := &Server{engine: eng, hub: hub, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/classify", server.handleClassify)
	mux.HandleFunc("/classification/", server.handleGet)
	mux.HandleFunc("/compare", server.handleCompare)
	mux.HandleFunc("/benchmark", server.handleBenchmark)
	mux.Handle("/ws", hub)
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	httpServer := &http.Server{
		Addr:         *listenAddr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
	}()

	logger.Printf("Listening on %s", *listenAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates all required stores, running migrations first in
// database mode.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			classifications: memory.NewClassificationStore(),
			history:         memory.NewScoreHistoryStore(),
			benchmarks:      memory.NewBenchmarkStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
	}

	stores := &allStores{
		classifications: pgstore.NewClassificationStore(pool),
		history:         pgstore.NewScoreHistoryStore(pool),
		benchmarks:      chstore.NewBenchmarkStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// ClassifyRequest is the JSON body for POST /classify.
type ClassifyRequest struct {
	TokenID      string           `json:"token_id"`
	Input        *domain.RawInput `json:"input"`
	ForceRefresh bool             `json:"force_refresh,omitempty"`
}

// handleClassify computes (or serves from cache) one classification and
// broadcasts fresh results to stream subscribers.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	c, err := s.engine.Classify(r.Context(), req.TokenID, req.Input, req.ForceRefresh)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.hub.Broadcast(c)
	writeJSON(w, http.StatusOK, c)
}

// handleGet serves GET /classification/{token}. It never computes.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tokenID := strings.TrimPrefix(r.URL.Path, "/classification/")
	if tokenID == "" || strings.Contains(tokenID, "/") {
		http.Error(w, "missing token id", http.StatusBadRequest)
		return
	}

	c, err := s.engine.Get(r.Context(), tokenID)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CompareRequest is the JSON body for POST /compare.
type CompareRequest struct {
	TokenIDs []string `json:"token_ids"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.engine.Compare(r.Context(), req.TokenIDs)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// BenchmarkRequest is the JSON body for POST /benchmark. Scores are
// grouped by category name.
type BenchmarkRequest struct {
	Observations map[domain.Category][]float64 `json:"observations"`
}

func (s *Server) handleBenchmark(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req BenchmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.engine.UpdateBenchmark(r.Context(), req.Observations); err != nil {
		var verr *benchmark.ValidationError
		if errors.As(err, &verr) {
			http.Error(w, verr.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Printf("benchmark ingest failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeEngineError maps engine errors to HTTP status codes.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidToken):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, engine.ErrInsufficientData):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, engine.ErrNotFound):
		http.Error(w, "classification not found", http.StatusNotFound)
	default:
		s.logger.Printf("request failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
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

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
