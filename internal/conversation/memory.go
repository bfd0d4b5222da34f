package conversation

import (
	"context"
	"sync"
)

// MemoryRepository is an in-process Repository. It is the default backend
// and the one used in tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	turns    map[string][]Turn
	archived map[string]bool
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		turns:    make(map[string][]Turn),
		archived: make(map[string]bool),
	}
}

// AppendTurn stores a completed turn.
func (r *MemoryRepository) AppendTurn(ctx context.Context, turn Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns[turn.ConversationID] = append(r.turns[turn.ConversationID], turn)
	return nil
}

// TurnsBefore returns turns with TurnNumber < beforeTurn in chronological
// order, keeping only the most recent limit turns when limit > 0.
func (r *MemoryRepository) TurnsBefore(ctx context.Context, conversationID string, beforeTurn, limit int) ([]Turn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.turns[conversationID]
	eligible := make([]Turn, 0, len(stored))
	for _, t := range stored {
		if beforeTurn > 0 && t.TurnNumber >= beforeTurn {
			continue
		}
		eligible = append(eligible, t)
	}
	if limit > 0 && len(eligible) > limit {
		eligible = eligible[len(eligible)-limit:]
	}
	return eligible, nil
}

// LastTurn returns the most recent turn and whether one exists.
func (r *MemoryRepository) LastTurn(ctx context.Context, conversationID string) (Turn, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.turns[conversationID]
	if len(stored) == 0 {
		return Turn{}, false, nil
	}
	return stored[len(stored)-1], true, nil
}

// State reports whether the conversation is archived.
func (r *MemoryRepository) State(ctx context.Context, conversationID string) (State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.archived[conversationID] {
		return StateArchived, nil
	}
	return StateActive, nil
}

// Archive marks the conversation archived. Idempotent.
func (r *MemoryRepository) Archive(ctx context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archived[conversationID] = true
	return nil
}
