// Package server provides the HTTP server that wires all services together.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/bus"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/classify"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/composer"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/config"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/conversation"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/engine"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/evaluation"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/metrics"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/logger"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/middleware"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/provider"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/qdrant"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/retrieval"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/sqltool"
)

// Server is the main HTTP server that wires all services together.
type Server struct {
	cfg        Config
	appCfg     config.Config
	log        *logger.Logger
	httpServer *http.Server

	// Services
	bus     bus.Bus
	metrics *metrics.Metrics
	qdrant  *qdrant.Client
	ollama  *provider.Ollama
	statsDB *sql.DB
	conv    *conversation.Manager
	engine  *engine.Engine
	checker *HealthChecker

	// Handlers
	handler       *Handler
	convHandler   *ConversationHandler
	evalHandler   *evaluation.Handler
	healthHandler *HealthHandler

	// ready flips to true once the startup dependency check passes.
	ready  atomic.Bool
	stopCh chan struct{}

	mu      sync.RWMutex
	started bool
}

// Config configures the server.
type Config struct {
	// Host is the address to bind to.
	Host string

	// Port is the HTTP port.
	Port int

	// Version is the application version.
	Version string

	// ReadTimeout is the HTTP read timeout.
	ReadTimeout time.Duration

	// WriteTimeout is the HTTP write timeout.
	WriteTimeout time.Duration

	// ShutdownTimeout is the graceful shutdown timeout.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sensible server defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		Version:         "dev",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// New creates a new server with all dependencies.
func New(cfg Config, appCfg config.Config, log *logger.Logger) (*Server, error) {
	if cfg.Port == 0 {
		cfg = DefaultConfig()
	}

	s := &Server{
		cfg:    cfg,
		appCfg: appCfg,
		log:    log,
	}

	// Initialize metrics
	persistence := "memory"
	if appCfg.Metrics.HistoryEnabled && appCfg.Metrics.RedisURL != "" {
		persistence = "redis"
	}
	s.metrics = metrics.NewWithConfig(persistence, appCfg.Metrics.RedisURL)

	// Initialize event bus, instrumented so publish counts and latencies
	// land in the metrics registry
	eventBus, err := bus.NewBus(appCfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}
	s.bus = bus.NewInstrumentedBus(eventBus, s.metrics)

	subscriber := metrics.NewEventSubscriber(s.metrics, s.bus)
	if err := subscriber.SubscribeToEvents(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to subscribe metrics to events: %w", err)
	}

	// Initialize Qdrant client
	qdrantCfg := qdrant.DefaultClientConfig()

	// Parse Qdrant URL to extract host and port
	if appCfg.Qdrant.URL != "" {
		host, port, err := parseQdrantURL(appCfg.Qdrant.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
		}
		qdrantCfg.Host = host
		qdrantCfg.Port = port
	}
	if appCfg.Qdrant.APIKey != "" {
		qdrantCfg.APIKey = appCfg.Qdrant.APIKey
	}
	if appCfg.Qdrant.CollectionPrefix != "" {
		qdrantCfg.CollectionPrefix = appCfg.Qdrant.CollectionPrefix
	}

	qc, err := qdrant.NewClient(qdrantCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}
	s.qdrant = qc

	// Initialize Ollama provider with a caching embedder in front
	s.ollama = provider.NewOllama(appCfg.Ollama, log)
	s.ollama.SetMetrics(s.metrics)
	embedder := provider.NewCachedEmbedder(s.ollama, appCfg.Ollama.EmbedModel, appCfg.Ollama.CacheSize)
	embedder.SetMetrics(s.metrics)

	// Open the read-only stats database
	statsDB, err := sqltool.OpenDatabase(appCfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats database: %w", err)
	}
	s.statsDB = statsDB

	sqlTool := sqltool.New(statsDB, s.ollama, log, sqltool.Config{
		MaxRows: appCfg.SQLTool.MaxRows,
		Timeout: appCfg.SQLTool.Timeout,
	})

	// Initialize conversation storage
	convRepo, err := conversation.NewRepository(appCfg.Conversation)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation repository: %w", err)
	}
	s.conv = conversation.NewManager(convRepo)

	// Initialize retrieval engine
	retriever := retrieval.NewEngine(embedder, qc, log, retrieval.Config{
		PrefetchMultiplier: appCfg.Retrieval.PrefetchMultiplier,
		MinK:               appCfg.Retrieval.MinK,
		MaxK:               appCfg.Retrieval.MaxK,
		MinChunkChars:      appCfg.Retrieval.MinChunkChars,
	})

	// Assemble the answer engine
	s.engine = engine.New(engine.Deps{
		Classifier:    classify.New(log),
		Conversations: s.conv,
		SQL:           sqlTool,
		Retriever:     retriever,
		Composer:      composer.NewComposer(s.ollama, log, composer.DefaultConfig()),
		Bus:           s.bus,
		Log:           log,
	})

	// Initialize handlers
	s.handler = NewHandler(s.engine, log)
	s.convHandler = NewConversationHandler(s.conv, s.bus, log)
	s.evalHandler = evaluation.NewHandler(evaluation.NewEvaluator(s.engine, evaluation.DefaultDepth), log)
	s.checker = NewHealthChecker(qc, statsDB, s.ollama, convRepo)
	s.healthHandler = NewHealthHandler(s.checker, cfg.Version, &s.ready)

	return s, nil
}

// parseQdrantURL extracts host and port from a Qdrant URL.
// Example: http://localhost:6333 -> localhost, 6334 (gRPC port)
func parseQdrantURL(rawURL string) (string, int, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", 0, err
	}

	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}

	// Get port from URL, default to 6333 (HTTP)
	portStr := u.Port()
	httpPort := 6333
	if portStr != "" {
		httpPort, err = strconv.Atoi(portStr)
		if err != nil {
			return "", 0, fmt.Errorf("invalid port: %s", portStr)
		}
	}

	// Qdrant gRPC port is typically HTTP port + 1
	grpcPort := httpPort + 1

	return host, grpcPort, nil
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("server already started")
	}
	s.started = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	// Setup routes and middleware
	handler := s.setupRoutes()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	// Flip the readiness gate once the dependencies answer
	go s.waitForReady()

	s.log.Info("Starting HTTP server", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// waitForReady polls the dependency checks until they pass, then marks the
// server ready. /readyz returns 503 until that happens.
func (s *Server) waitForReady() {
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		status := s.checker.Check(ctx)
		cancel()

		if status.Status != "unhealthy" {
			s.ready.Store(true)
			s.log.Info("Server ready", "status", status.Status)
			return
		}

		s.log.Warn("Dependencies not ready, retrying", "status", status.Status)

		select {
		case <-s.stopCh:
			return
		case <-time.After(5 * time.Second):
		}
	}
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.log.Info("Shutting down server...")
	s.ready.Store(false)
	close(s.stopCh)

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("HTTP shutdown error", "error", err)
	}

	// Close services. The bus drains in-flight events before the stores go.
	if s.bus != nil {
		s.bus.Close()
	}
	if s.qdrant != nil {
		s.qdrant.Close()
	}
	if s.statsDB != nil {
		s.statsDB.Close()
	}
	if s.metrics != nil {
		s.metrics.Close()
	}

	s.started = false
	s.log.Info("Server stopped")

	return nil
}

// setupRoutes configures all HTTP routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Answer and search endpoints
	s.handler.RegisterRoutes(mux)

	// Conversation endpoints
	s.convHandler.RegisterRoutes(mux)

	// Evaluation endpoint
	s.evalHandler.RegisterRoutes(mux)

	// Health endpoints
	s.healthHandler.RegisterRoutes(mux)

	// Metrics endpoints
	if s.appCfg.Metrics.Enabled {
		path := s.appCfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, s.metrics.Handler())

		collector := metrics.NewCollector(s.metrics, s.statsDB, s.qdrant, retrieval.DefaultCollection)
		mux.Handle("GET /v1/stats", collector.Handler())
		mux.Handle("POST /v1/metrics/query", s.metrics.QueryHandler())
		mux.Handle("GET /v1/metrics/presets", metrics.PresetsHandler())
	}

	// Middleware chain, innermost first: recovery catches handler panics,
	// then rate limiting, CORS, logging, request IDs, and HTTP metrics.
	var handler http.Handler = mux
	handler = RecoveryMiddleware(s.log, handler)
	if s.appCfg.Security.RateLimit > 0 {
		burst := s.appCfg.Security.RateBurst
		if burst <= 0 {
			burst = s.appCfg.Security.RateLimit
		}
		rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(s.appCfg.Security.RateLimit),
			Burst:             burst,
			CleanupInterval:   time.Minute,
		})
		handler = rl.Middleware(handler)
	}
	handler = CORSMiddleware(s.appCfg.Security.CORSOrigins, handler)
	handler = LoggingMiddleware(s.log, handler)
	handler = RequestIDMiddleware(handler)
	handler = metrics.HTTPMiddleware(s.metrics, handler)

	return handler
}

// Ready reports whether the startup dependency check has passed.
func (s *Server) Ready() bool {
	return s.ready.Load()
}
