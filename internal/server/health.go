package server

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/conversation"
)

// pinger is anything that answers a liveness probe.
type pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker aggregates component health probes.
type HealthChecker struct {
	qdrant  pinger
	statsDB *sql.DB
	ollama  pinger
	conv    conversation.Repository
}

// qdrantPinger adapts the Qdrant client's HealthCheck to the pinger shape.
type qdrantPinger struct {
	check func(ctx context.Context) error
}

func (p qdrantPinger) Ping(ctx context.Context) error {
	return p.check(ctx)
}

// QdrantChecker is the health surface of the vector index client.
type QdrantChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewHealthChecker creates a new health checker. Nil components report
// unhealthy, except the conversation repository which may legitimately have
// no probe.
func NewHealthChecker(qc QdrantChecker, statsDB *sql.DB, ollama pinger, conv conversation.Repository) *HealthChecker {
	h := &HealthChecker{
		statsDB: statsDB,
		ollama:  ollama,
		conv:    conv,
	}
	if qc != nil {
		h.qdrant = qdrantPinger{check: qc.HealthCheck}
	}
	return h
}

// HealthStatus represents the overall health status.
type HealthStatus struct {
	Status     string               `json:"status"` // healthy, degraded, unhealthy
	Timestamp  time.Time            `json:"timestamp"`
	Version    string               `json:"version,omitempty"`
	Uptime     string               `json:"uptime,omitempty"`
	Components map[string]Component `json:"components"`
}

// Component represents a component's health.
type Component struct {
	Status  string `json:"status"` // healthy, degraded, unhealthy
	Message string `json:"message,omitempty"`
	Latency int64  `json:"latency_ms,omitempty"`
}

// Check performs a full health check.
//
// Qdrant and Ollama are hard dependencies: without them neither retrieval
// nor generation works. The stats database and conversation store only
// degrade service, vector answers still flow without them.
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "healthy",
		Timestamp:  time.Now(),
		Components: make(map[string]Component),
	}

	qdrantHealth := probe(ctx, h.qdrant, "Qdrant client not configured")
	status.Components["qdrant"] = qdrantHealth
	if qdrantHealth.Status == "unhealthy" {
		status.Status = "unhealthy"
	}

	ollamaHealth := probe(ctx, h.ollama, "Ollama provider not configured")
	status.Components["ollama"] = ollamaHealth
	if ollamaHealth.Status == "unhealthy" {
		status.Status = "unhealthy"
	}

	dbHealth := h.checkStatsDB(ctx)
	status.Components["stats_db"] = dbHealth
	if dbHealth.Status != "healthy" && status.Status == "healthy" {
		status.Status = "degraded"
	}

	convHealth := h.checkConversations(ctx)
	status.Components["conversations"] = convHealth
	if convHealth.Status != "healthy" && status.Status == "healthy" {
		status.Status = "degraded"
	}

	return status
}

// probe runs a single ping and times it.
func probe(ctx context.Context, p pinger, missingMsg string) Component {
	if p == nil {
		return Component{
			Status:  "unhealthy",
			Message: missingMsg,
		}
	}

	start := time.Now()
	err := p.Ping(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return Component{
			Status:  "unhealthy",
			Message: err.Error(),
			Latency: latency,
		}
	}

	return Component{
		Status:  "healthy",
		Message: "connected",
		Latency: latency,
	}
}

// checkStatsDB checks stats database connectivity.
func (h *HealthChecker) checkStatsDB(ctx context.Context) Component {
	if h.statsDB == nil {
		return Component{
			Status:  "unhealthy",
			Message: "stats database not configured",
		}
	}

	start := time.Now()
	err := h.statsDB.PingContext(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return Component{
			Status:  "unhealthy",
			Message: err.Error(),
			Latency: latency,
		}
	}

	return Component{
		Status:  "healthy",
		Message: "connected",
		Latency: latency,
	}
}

// checkConversations checks the conversation store. The in-memory
// repository has no probe and counts as healthy.
func (h *HealthChecker) checkConversations(ctx context.Context) Component {
	if h.conv == nil {
		return Component{
			Status:  "unhealthy",
			Message: "conversation repository not configured",
		}
	}

	p, ok := h.conv.(pinger)
	if !ok {
		return Component{
			Status:  "healthy",
			Message: "in-memory",
		}
	}

	return probe(ctx, p, "")
}

// HealthHandler handles health check HTTP requests.
type HealthHandler struct {
	checker   *HealthChecker
	ready     *atomic.Bool
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler. The ready gate may be nil,
// in which case /readyz goes straight to the live check.
func NewHealthHandler(checker *HealthChecker, version string, ready *atomic.Bool) *HealthHandler {
	return &HealthHandler{
		checker:   checker,
		ready:     ready,
		startTime: time.Now(),
		version:   version,
	}
}

// HandleHealth handles GET /healthz (simple liveness check).
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// HandleReady handles GET /readyz. It returns 503 until the startup
// dependency check has passed, then runs a live check on each call.
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil && !h.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "starting",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.checker.Check(ctx)
	status.Version = h.version
	status.Uptime = time.Since(h.startTime).Round(time.Second).String()

	if status.Status == "unhealthy" {
		writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}

	// Degraded still serves traffic
	writeJSON(w, http.StatusOK, status)
}

// HandleVersion handles GET /v1/version.
func (h *HealthHandler) HandleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":    h.version,
		"uptime":     time.Since(h.startTime).Round(time.Second).String(),
		"go_version": runtime.Version(),
	})
}

// HandleDetailedHealth handles GET /v1/health (detailed health).
func (h *HealthHandler) HandleDetailedHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := h.checker.Check(ctx)
	status.Version = h.version
	status.Uptime = time.Since(h.startTime).Round(time.Second).String()

	if status.Status == "unhealthy" {
		writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// RegisterRoutes registers health routes with the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.HandleFunc("GET /readyz", h.HandleReady)
	mux.HandleFunc("GET /v1/version", h.HandleVersion)
	mux.HandleFunc("GET /v1/health", h.HandleDetailedHealth)
}
