package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/bus"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/conversation"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/engine"
	apperrors "github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/errors"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/logger"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/retrieval"
)

func TestParseQdrantURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{
			name:     "localhost with port",
			url:      "http://localhost:6333",
			wantHost: "localhost",
			wantPort: 6334,
		},
		{
			name:     "remote host without port",
			url:      "https://qdrant.example.com",
			wantHost: "qdrant.example.com",
			wantPort: 6334,
		},
		{
			name:     "custom port",
			url:      "http://10.0.0.5:7000",
			wantHost: "10.0.0.5",
			wantPort: 7001,
		},
		{
			name:     "empty url defaults to localhost",
			url:      "",
			wantHost: "localhost",
			wantPort: 6334,
		},
		{
			name:    "invalid url",
			url:     "://missing-scheme",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := parseQdrantURL(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseQdrantURL(%q) error: %v", tt.url, err)
			}
			if host != tt.wantHost {
				t.Errorf("host = %q, want %q", host, tt.wantHost)
			}
			if port != tt.wantPort {
				t.Errorf("port = %d, want %d", port, tt.wantPort)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want 0.0.0.0", cfg.Host)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.ShutdownTimeout <= 0 {
		t.Error("ShutdownTimeout should be positive")
	}
}

// fakeAnswerService scripts the engine surface for handler tests.
type fakeAnswerService struct {
	answer  *engine.HybridAnswer
	results []retrieval.SearchResult
	err     error

	lastAnswerReq engine.AnswerRequest
	lastQuery     string
	lastK         int
	lastFilters   map[string]string
}

func (f *fakeAnswerService) Answer(ctx context.Context, req engine.AnswerRequest) (*engine.HybridAnswer, error) {
	f.lastAnswerReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

func (f *fakeAnswerService) Search(ctx context.Context, query string, k int, filters map[string]string) ([]retrieval.SearchResult, error) {
	f.lastQuery = query
	f.lastK = k
	f.lastFilters = filters
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func newTestMux(svc AnswerService) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandler(svc, logger.Default()).RegisterRoutes(mux)
	return mux
}

func TestHandleAnswer(t *testing.T) {
	svc := &fakeAnswerService{
		answer: &engine.HybridAnswer{
			Text:                "Shai Gilgeous-Alexander led with 2485 points.",
			RoutingDecision:     "SQL_ONLY",
			RoutingActuallyUsed: "sql",
			GeneratedSQL:        "SELECT name FROM players LIMIT 1",
		},
	}
	mux := newTestMux(svc)

	body := `{"query": "Who scored the most points this season?", "k": 5}`
	req := httptest.NewRequest("POST", "/v1/answer", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	var got engine.HybridAnswer
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Text != svc.answer.Text {
		t.Errorf("Text = %q, want %q", got.Text, svc.answer.Text)
	}
	if got.RoutingDecision != "SQL_ONLY" {
		t.Errorf("RoutingDecision = %q, want SQL_ONLY", got.RoutingDecision)
	}
	if svc.lastAnswerReq.Query != "Who scored the most points this season?" {
		t.Errorf("forwarded query = %q", svc.lastAnswerReq.Query)
	}
	if svc.lastAnswerReq.K != 5 {
		t.Errorf("forwarded k = %d, want 5", svc.lastAnswerReq.K)
	}
}

func TestHandleAnswer_InvalidJSON(t *testing.T) {
	mux := newTestMux(&fakeAnswerService{})

	req := httptest.NewRequest("POST", "/v1/answer", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var resp apperrors.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if resp.Code != apperrors.CodeValidation {
		t.Errorf("code = %q, want %q", resp.Code, apperrors.CodeValidation)
	}
}

func TestHandleAnswer_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "validation",
			err:        apperrors.ValidationError("query is required"),
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeValidation,
		},
		{
			name:       "archived conversation",
			err:        apperrors.ConversationArchivedError("conv-1"),
			wantStatus: http.StatusConflict,
			wantCode:   apperrors.CodeConversationArchived,
		},
		{
			name:       "index unavailable",
			err:        apperrors.IndexUnavailableError("collection missing", nil),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   apperrors.CodeIndexUnavailable,
		},
		{
			name:       "generation failure",
			err:        apperrors.GenerationError("model gone", nil),
			wantStatus: http.StatusBadGateway,
			wantCode:   apperrors.CodeGeneration,
		},
		{
			name:       "plain error is sanitized",
			err:        fmt.Errorf("secret internal detail"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperrors.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestMux(&fakeAnswerService{err: tt.err})

			req := httptest.NewRequest("POST", "/v1/answer", strings.NewReader(`{"query": "hello"}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			var resp apperrors.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decoding error response: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
			if tt.name == "plain error is sanitized" && strings.Contains(resp.Error, "secret") {
				t.Errorf("internal detail leaked to client: %q", resp.Error)
			}
		})
	}
}

func TestHandleSearch(t *testing.T) {
	svc := &fakeAnswerService{
		results: []retrieval.SearchResult{
			{BaseScore: 90, BoostedScore: 94},
			{BaseScore: 80, BoostedScore: 82},
		},
	}
	mux := newTestMux(svc)

	body := `{"query": "defense wins championships", "k": 10, "filters": {"data_type": "discussion"}}`
	req := httptest.NewRequest("POST", "/v1/search", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	var resp SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Count != 2 || len(resp.Results) != 2 {
		t.Errorf("count = %d, results = %d, want 2", resp.Count, len(resp.Results))
	}
	if svc.lastQuery != "defense wins championships" {
		t.Errorf("forwarded query = %q", svc.lastQuery)
	}
	if svc.lastK != 10 {
		t.Errorf("forwarded k = %d, want 10", svc.lastK)
	}
	if svc.lastFilters["data_type"] != "discussion" {
		t.Errorf("forwarded filters = %v", svc.lastFilters)
	}
}

func TestHandleSearch_EmptyResults(t *testing.T) {
	mux := newTestMux(&fakeAnswerService{})

	req := httptest.NewRequest("POST", "/v1/search", strings.NewReader(`{"query": "nothing"}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"results":[]`) {
		t.Errorf("empty results should encode as [], got: %s", w.Body.String())
	}
}

func newConversationMux(t *testing.T) (*http.ServeMux, *conversation.Manager, *bus.MemoryBus) {
	t.Helper()
	mgr := conversation.NewManager(conversation.NewMemoryRepository())
	memBus := bus.NewMemoryBus()
	mux := http.NewServeMux()
	NewConversationHandler(mgr, memBus, logger.Default()).RegisterRoutes(mux)
	return mux, mgr, memBus
}

func appendTurns(t *testing.T, mgr *conversation.Manager, id string, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		err := mgr.Append(context.Background(), conversation.Turn{
			ConversationID: id,
			TurnNumber:     i,
			Query:          fmt.Sprintf("question %d", i),
			AnswerText:     fmt.Sprintf("answer %d", i),
		})
		if err != nil {
			t.Fatalf("appending turn %d: %v", i, err)
		}
	}
}

func TestConversationHandler_Get(t *testing.T) {
	mux, mgr, _ := newConversationMux(t)
	appendTurns(t, mgr, "conv-1", 2)

	req := httptest.NewRequest("GET", "/v1/conversations/conv-1", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	var resp ConversationResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.ConversationID != "conv-1" {
		t.Errorf("conversation_id = %q", resp.ConversationID)
	}
	if resp.State != conversation.StateActive {
		t.Errorf("state = %q, want active", resp.State)
	}
	if len(resp.Turns) != 2 {
		t.Fatalf("turns = %d, want 2", len(resp.Turns))
	}
	if resp.Turns[0].TurnNumber != 1 || resp.Turns[1].TurnNumber != 2 {
		t.Errorf("turns out of order: %+v", resp.Turns)
	}
}

func TestConversationHandler_GetUnknown(t *testing.T) {
	mux, _, _ := newConversationMux(t)

	req := httptest.NewRequest("GET", "/v1/conversations/ghost", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestConversationHandler_GetBadID(t *testing.T) {
	mux, _, _ := newConversationMux(t)

	req := httptest.NewRequest("GET", "/v1/conversations/-bad%20id!", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body: %s", w.Code, w.Body.String())
	}
}

func TestConversationHandler_Archive(t *testing.T) {
	mux, mgr, memBus := newConversationMux(t)
	appendTurns(t, mgr, "conv-1", 1)

	var archived atomic.Int64
	err := memBus.Subscribe(context.Background(), bus.TopicConversationArchived, func(ctx context.Context, e bus.Event) error {
		archived.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}

	req := httptest.NewRequest("POST", "/v1/conversations/conv-1/archive", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"state":"archived"`) {
		t.Errorf("body should report archived state: %s", w.Body.String())
	}

	state, err := mgr.State(context.Background(), "conv-1")
	if err != nil {
		t.Fatalf("reading state: %v", err)
	}
	if state != conversation.StateArchived {
		t.Errorf("state = %q, want archived", state)
	}

	// Reads still work after archiving
	getReq := httptest.NewRequest("GET", "/v1/conversations/conv-1", nil)
	getW := httptest.NewRecorder()
	mux.ServeHTTP(getW, getReq)
	if getW.Code != http.StatusOK {
		t.Fatalf("get after archive status = %d, want 200", getW.Code)
	}
	if !strings.Contains(getW.Body.String(), `"state":"archived"`) {
		t.Errorf("get body should report archived state: %s", getW.Body.String())
	}

	// Archiving again is idempotent
	again := httptest.NewRecorder()
	mux.ServeHTTP(again, httptest.NewRequest("POST", "/v1/conversations/conv-1/archive", nil))
	if again.Code != http.StatusOK {
		t.Fatalf("second archive status = %d, want 200", again.Code)
	}

	if err := memBus.Close(); err != nil {
		t.Fatalf("closing bus: %v", err)
	}
	if got := archived.Load(); got != 2 {
		t.Errorf("archive events = %d, want 2", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated X-Request-ID header")
	}

	// An incoming ID is echoed back unchanged
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "abc123")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc123" {
		t.Errorf("X-Request-ID = %q, want abc123", got)
	}
}

func TestGenerateRequestID(t *testing.T) {
	a := GenerateRequestID()
	b := GenerateRequestID()

	if len(a) != 8 {
		t.Errorf("request ID length = %d, want 8", len(a))
	}
	if a == b {
		t.Errorf("consecutive request IDs should differ, both %q", a)
	}
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("wildcard allows any origin", func(t *testing.T) {
		handler := CORSMiddleware("*", next)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Allow-Origin = %q, want *", got)
		}
	})

	t.Run("allowlisted origin is echoed", func(t *testing.T) {
		handler := CORSMiddleware("https://app.example.com, https://other.example.com", next)
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Origin", "https://app.example.com")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
			t.Errorf("Allow-Origin = %q, want echoed origin", got)
		}
	})

	t.Run("unknown origin gets no header", func(t *testing.T) {
		handler := CORSMiddleware("https://app.example.com", next)
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, want empty", got)
		}
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		called := false
		handler := CORSMiddleware("*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/v1/answer", nil))
		if w.Code != http.StatusOK {
			t.Errorf("preflight status = %d, want 200", w.Code)
		}
		if called {
			t.Error("preflight should not reach the handler")
		}
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(logger.Default(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/v1/answer", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	var resp apperrors.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if resp.Code != apperrors.CodeInternal {
		t.Errorf("code = %q, want %q", resp.Code, apperrors.CodeInternal)
	}
	if strings.Contains(resp.Error, "boom") {
		t.Errorf("panic detail leaked to client: %q", resp.Error)
	}
}

// fakePinger scripts a component probe.
type fakePinger struct {
	err error
}

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

// fakeQdrant scripts the index health check.
type fakeQdrant struct {
	err error
}

func (f fakeQdrant) HealthCheck(ctx context.Context) error { return f.err }

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestHealthChecker_Aggregation(t *testing.T) {
	repo := conversation.NewMemoryRepository()

	t.Run("all healthy", func(t *testing.T) {
		checker := NewHealthChecker(fakeQdrant{}, openTestDB(t), fakePinger{}, repo)
		status := checker.Check(context.Background())

		if status.Status != "healthy" {
			t.Errorf("status = %q, want healthy", status.Status)
		}
		if len(status.Components) != 4 {
			t.Errorf("components = %d, want 4", len(status.Components))
		}
		if status.Components["conversations"].Message != "in-memory" {
			t.Errorf("conversations message = %q, want in-memory", status.Components["conversations"].Message)
		}
	})

	t.Run("qdrant down is unhealthy", func(t *testing.T) {
		checker := NewHealthChecker(fakeQdrant{err: fmt.Errorf("connection refused")}, openTestDB(t), fakePinger{}, repo)
		status := checker.Check(context.Background())

		if status.Status != "unhealthy" {
			t.Errorf("status = %q, want unhealthy", status.Status)
		}
		if status.Components["qdrant"].Status != "unhealthy" {
			t.Errorf("qdrant component = %q, want unhealthy", status.Components["qdrant"].Status)
		}
	})

	t.Run("ollama down is unhealthy", func(t *testing.T) {
		checker := NewHealthChecker(fakeQdrant{}, openTestDB(t), fakePinger{err: fmt.Errorf("model not loaded")}, repo)
		status := checker.Check(context.Background())

		if status.Status != "unhealthy" {
			t.Errorf("status = %q, want unhealthy", status.Status)
		}
	})

	t.Run("missing stats db only degrades", func(t *testing.T) {
		checker := NewHealthChecker(fakeQdrant{}, nil, fakePinger{}, repo)
		status := checker.Check(context.Background())

		if status.Status != "degraded" {
			t.Errorf("status = %q, want degraded", status.Status)
		}
		if status.Components["stats_db"].Status != "unhealthy" {
			t.Errorf("stats_db component = %q, want unhealthy", status.Components["stats_db"].Status)
		}
	})
}

func TestHealthHandler_Healthz(t *testing.T) {
	h := NewHealthHandler(NewHealthChecker(nil, nil, nil, nil), "test", nil)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestHealthHandler_ReadyGate(t *testing.T) {
	repo := conversation.NewMemoryRepository()
	checker := NewHealthChecker(fakeQdrant{}, openTestDB(t), fakePinger{}, repo)

	var ready atomic.Bool
	h := NewHealthHandler(checker, "test", &ready)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Before the gate flips, /readyz refuses without probing anything
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status before ready = %d, want 503", w.Code)
	}
	if !strings.Contains(w.Body.String(), "starting") {
		t.Errorf("body = %s, want starting", w.Body.String())
	}

	ready.Store(true)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status after ready = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	var status HealthStatus
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if status.Status != "healthy" {
		t.Errorf("status = %q, want healthy", status.Status)
	}
	if status.Version != "test" {
		t.Errorf("version = %q, want test", status.Version)
	}
}

func TestHealthHandler_Version(t *testing.T) {
	h := NewHealthHandler(NewHealthChecker(nil, nil, nil, nil), "1.2.3", nil)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/v1/version", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"version":"1.2.3"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestHealthHandler_DetailedUnhealthy(t *testing.T) {
	h := NewHealthHandler(NewHealthChecker(nil, nil, nil, nil), "test", nil)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/v1/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}

	var status HealthStatus
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if status.Status != "unhealthy" {
		t.Errorf("status = %q, want unhealthy", status.Status)
	}
}
