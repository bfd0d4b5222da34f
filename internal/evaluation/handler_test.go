package evaluation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/errors"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/logger"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/retrieval"
)

func newTestHandler(searcher Searcher) *Handler {
	return NewHandler(NewEvaluator(searcher, 0), logger.New("error", "text"))
}

func postRun(h *Handler, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/v1/evaluation/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleRun(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]retrieval.SearchResult{
		"who won the cup": chunkResults("c1", "c2"),
	}}
	h := newTestHandler(searcher)

	body := `{"queries":[{"id":"cup","query":"who won the cup","relevant":{"c1":3}}],"ks":[1]}`
	rec := postRun(h, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var report Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(report.Results) != 1 {
		t.Fatalf("results = %d, want 1", len(report.Results))
	}
	if report.Results[0].QueryID != "cup" {
		t.Errorf("QueryID = %q", report.Results[0].QueryID)
	}
	if report.Results[0].MRR != 1.0 {
		t.Errorf("MRR = %v, want 1", report.Results[0].MRR)
	}
	if report.Summary == nil || report.Summary.QueryCount != 1 {
		t.Errorf("summary = %+v", report.Summary)
	}
}

func TestHandleRunDefaultCutoffs(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]retrieval.SearchResult{
		"standings": chunkResults("c1"),
	}}
	h := newTestHandler(searcher)

	rec := postRun(h, `{"queries":[{"query":"standings","relevant":{"c1":2}}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var report Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if report.Results[0].QueryID != "q1" {
		t.Errorf("positional ID = %q, want q1", report.Results[0].QueryID)
	}
	for _, k := range DefaultKs {
		if _, ok := report.Results[0].NDCG[k]; !ok {
			t.Errorf("NDCG missing cutoff %d", k)
		}
	}
}

func TestHandleRunNoQueries(t *testing.T) {
	h := newTestHandler(&fakeSearcher{})

	rec := postRun(h, `{"queries":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), apperrors.CodeValidation) {
		t.Errorf("body %s missing validation code", rec.Body.String())
	}
}

func TestHandleRunBadJSON(t *testing.T) {
	h := newTestHandler(&fakeSearcher{})

	rec := postRun(h, `{`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleRunInvalidQuery(t *testing.T) {
	h := newTestHandler(&fakeSearcher{})

	rec := postRun(h, `{"queries":[{"query":"x","relevant":{"c1":-2}}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "query 1") {
		t.Errorf("body %s should name the offending query", rec.Body.String())
	}
}

func TestHandleRunSearchError(t *testing.T) {
	searcher := &fakeSearcher{err: apperrors.IndexUnavailableError("qdrant down", nil)}
	h := newTestHandler(searcher)

	rec := postRun(h, `{"queries":[{"query":"standings","relevant":{"c1":1}}]}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), apperrors.CodeIndexUnavailable) {
		t.Errorf("body %s missing index code", rec.Body.String())
	}
}

func TestHandleRunMethodNotAllowed(t *testing.T) {
	h := newTestHandler(&fakeSearcher{})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	req := httptest.NewRequest(http.MethodGet, "/v1/evaluation/run", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
