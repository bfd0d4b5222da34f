package conversation

import (
	"context"
	"time"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/errors"
)

// Manager coordinates turn windows and the archive lifecycle on top of a
// Repository.
type Manager struct {
	repo Repository
}

// NewManager creates a manager backed by the given repository.
func NewManager(repo Repository) *Manager {
	return &Manager{repo: repo}
}

// BuildContext returns at most ContextWindow turns strictly before
// turnNumber, in chronological order. A turn with TurnNumber >= turnNumber
// is never included.
func (m *Manager) BuildContext(ctx context.Context, conversationID string, turnNumber int) ([]Turn, error) {
	return m.repo.TurnsBefore(ctx, conversationID, turnNumber, ContextWindow)
}

// LastEntity returns the entity recorded by the most recent turn that
// carries one, scanning the last ContextWindow turns. Empty when none.
func (m *Manager) LastEntity(ctx context.Context, conversationID string) (string, error) {
	turns, err := m.repo.TurnsBefore(ctx, conversationID, 0, ContextWindow)
	if err != nil {
		return "", err
	}
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Entity != "" {
			return turns[i].Entity, nil
		}
	}
	return "", nil
}

// Append stores a completed turn. Archived conversations reject appends.
func (m *Manager) Append(ctx context.Context, turn Turn) error {
	if turn.ConversationID == "" {
		return errors.ValidationError("conversation id is required")
	}
	if turn.TurnNumber < 1 {
		return errors.ValidationError("turn number must be positive")
	}

	state, err := m.repo.State(ctx, turn.ConversationID)
	if err != nil {
		return err
	}
	if state == StateArchived {
		return errors.ConversationArchivedError(turn.ConversationID)
	}

	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	return m.repo.AppendTurn(ctx, turn)
}

// Archive marks the conversation archived. Idempotent and terminal.
func (m *Manager) Archive(ctx context.Context, conversationID string) error {
	return m.repo.Archive(ctx, conversationID)
}

// State reports whether the conversation is active or archived.
func (m *Manager) State(ctx context.Context, conversationID string) (State, error) {
	return m.repo.State(ctx, conversationID)
}

// NextTurnNumber returns the turn number the next append should use.
func (m *Manager) NextTurnNumber(ctx context.Context, conversationID string) (int, error) {
	last, ok, err := m.repo.LastTurn(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 1, nil
	}
	return last.TurnNumber + 1, nil
}

// Turns returns every turn of the conversation in chronological order.
func (m *Manager) Turns(ctx context.Context, conversationID string) ([]Turn, error) {
	return m.repo.TurnsBefore(ctx, conversationID, 0, 0)
}
