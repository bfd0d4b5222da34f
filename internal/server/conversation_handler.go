package server

import (
	"context"
	"net/http"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/bus"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/conversation"
	apperrors "github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/errors"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/logger"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/security"
)

// ConversationHandler handles conversation lifecycle HTTP requests.
type ConversationHandler struct {
	conv *conversation.Manager
	bus  bus.Bus
	log  *logger.Logger
}

// NewConversationHandler creates a new conversation handler. The bus may be
// nil, which disables archive events.
func NewConversationHandler(conv *conversation.Manager, eventBus bus.Bus, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		conv: conv,
		bus:  eventBus,
		log:  log,
	}
}

// ConversationResponse is the JSON body for a conversation read.
type ConversationResponse struct {
	ConversationID string              `json:"conversation_id"`
	State          conversation.State  `json:"state"`
	Turns          []conversation.Turn `json:"turns"`
}

// RegisterRoutes registers conversation routes with the given mux.
func (h *ConversationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/conversations/{id}", h.HandleGet)
	mux.HandleFunc("POST /v1/conversations/{id}/archive", h.HandleArchive)
}

// HandleGet handles GET /v1/conversations/{id}.
func (h *ConversationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := security.ValidateConversationID(id); err != nil {
		apperrors.WriteError(w, apperrors.ValidationError(err.Error()))
		return
	}

	state, err := h.conv.State(r.Context(), id)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	turns, err := h.conv.Turns(r.Context(), id)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	// Unknown conversations look active with zero turns. Report them as
	// missing rather than inventing an empty conversation.
	if len(turns) == 0 && state == conversation.StateActive {
		apperrors.WriteError(w, apperrors.NotFoundError("conversation"))
		return
	}

	if turns == nil {
		turns = []conversation.Turn{}
	}

	writeJSON(w, http.StatusOK, ConversationResponse{
		ConversationID: id,
		State:          state,
		Turns:          turns,
	})
}

// HandleArchive handles POST /v1/conversations/{id}/archive. Archiving is
// idempotent and terminal.
func (h *ConversationHandler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := security.ValidateConversationID(id); err != nil {
		apperrors.WriteError(w, apperrors.ValidationError(err.Error()))
		return
	}

	if err := h.conv.Archive(r.Context(), id); err != nil {
		apperrors.WriteError(w, err)
		return
	}

	h.publishArchived(r.Context(), id)

	writeJSON(w, http.StatusOK, map[string]string{
		"conversation_id": id,
		"state":           string(conversation.StateArchived),
	})
}

func (h *ConversationHandler) publishArchived(ctx context.Context, id string) {
	if h.bus == nil {
		return
	}
	event := bus.NewEvent(bus.TopicConversationArchived, id, map[string]interface{}{
		"conversation_id": id,
	})
	if err := h.bus.Publish(ctx, bus.TopicConversationArchived, event); err != nil {
		h.log.Warn("event publish failed", "topic", bus.TopicConversationArchived, "error", err.Error())
	}
}
