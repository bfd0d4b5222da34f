package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/engine"
	apperrors "github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/errors"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/logger"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/security"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/retrieval"
)

// AnswerService is the engine surface the HTTP handlers consume.
type AnswerService interface {
	Answer(ctx context.Context, req engine.AnswerRequest) (*engine.HybridAnswer, error)
	Search(ctx context.Context, query string, k int, filters map[string]string) ([]retrieval.SearchResult, error)
}

// Handler provides HTTP handlers for answer and search operations.
type Handler struct {
	svc AnswerService
	log *logger.Logger
}

// NewHandler creates a new answer handler.
func NewHandler(svc AnswerService, log *logger.Logger) *Handler {
	return &Handler{
		svc: svc,
		log: log,
	}
}

// SearchRequest is the JSON request body for raw corpus search.
type SearchRequest struct {
	Query   string            `json:"query"`
	K       int               `json:"k,omitempty"`
	Filters map[string]string `json:"filters,omitempty"`
}

// SearchResponse is the JSON response body for raw corpus search.
type SearchResponse struct {
	Results []retrieval.SearchResult `json:"results"`
	Count   int                      `json:"count"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// HandleAnswer handles POST /v1/answer.
func (h *Handler) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, security.MaxRequestSize)

	var req engine.AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, apperrors.ValidationError("invalid request body: "+err.Error()))
		return
	}

	answer, err := h.svc.Answer(r.Context(), req)
	if err != nil {
		if apperrors.IsValidation(err) {
			h.log.Warn("Rejected answer request", "error", err.Error())
		} else {
			h.log.Error("Answer request failed", "error", err.Error())
		}
		apperrors.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

// HandleSearch handles POST /v1/search.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, security.MaxRequestSize)

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, apperrors.ValidationError("invalid request body: "+err.Error()))
		return
	}

	results, err := h.svc.Search(r.Context(), req.Query, req.K, req.Filters)
	if err != nil {
		if apperrors.IsValidation(err) {
			h.log.Warn("Rejected search request", "error", err.Error())
		} else {
			h.log.Error("Search request failed", "error", err.Error())
		}
		apperrors.WriteError(w, err)
		return
	}

	if results == nil {
		results = []retrieval.SearchResult{}
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Results: results,
		Count:   len(results),
	})
}

// RegisterRoutes registers answer routes with the given mux.
// Note: This uses Go 1.22+ ServeMux patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/answer", h.HandleAnswer)
	mux.HandleFunc("POST /v1/search", h.HandleSearch)
}
