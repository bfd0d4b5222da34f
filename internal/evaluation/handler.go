package evaluation

import (
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/errors"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/logger"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/security"
)

// Handler exposes evaluation runs over HTTP. Judgments ride inline
// with each request, so runs are stateless and repeatable.
type Handler struct {
	evaluator *Evaluator
	log       *logger.Logger
}

// NewHandler creates an evaluation handler.
func NewHandler(e *Evaluator, log *logger.Logger) *Handler {
	return &Handler{
		evaluator: e,
		log:       log,
	}
}

// RegisterRoutes registers evaluation routes with the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/evaluation/run", h.handleRun)
}

// RunRequest is the JSON request body for an evaluation run.
type RunRequest struct {
	Queries []JudgedQuery `json:"queries"`
	Ks      []int         `json:"ks,omitempty"`
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, security.MaxRequestSize)

	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, apperrors.ValidationError("invalid request body: "+err.Error()))
		return
	}

	if len(req.Queries) == 0 {
		apperrors.WriteError(w, apperrors.ValidationError("at least one judged query is required"))
		return
	}
	for i, q := range req.Queries {
		if err := validateQuery(q); err != nil {
			apperrors.WriteError(w, apperrors.ValidationError(fmt.Sprintf("query %d: %v", i+1, err)))
			return
		}
	}
	fillIDs(req.Queries)

	report, err := h.evaluator.Evaluate(r.Context(), req.Queries, req.Ks)
	if err != nil {
		h.log.Error("Evaluation run failed", "error", err.Error())
		apperrors.WriteError(w, err)
		return
	}

	h.log.Info("Evaluation run complete",
		"queries", len(req.Queries),
		"mean_mrr", report.Summary.MeanMRR)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(report)
}
