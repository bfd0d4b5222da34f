// Package conversation tracks multi-turn dialogue state: the turns of each
// conversation, the sliding context window handed to the answer pipeline, and
// the archive lifecycle.
package conversation

import (
	"context"
	"time"
)

// ContextWindow is the maximum number of prior turns included in the context
// handed to classification and answer composition.
const ContextWindow = 5

// State is the lifecycle state of a conversation.
type State string

const (
	StateActive   State = "active"
	StateArchived State = "archived"
)

// Turn is one completed question/answer exchange. Turns are immutable once
// appended.
type Turn struct {
	ConversationID string    `json:"conversation_id"`
	TurnNumber     int       `json:"turn_number"`
	Query          string    `json:"query"`
	AnswerText     string    `json:"answer_text"`
	SourcesUsed    []string  `json:"sources_used,omitempty"`
	GeneratedSQL   string    `json:"generated_sql,omitempty"`
	RoutingLabel   string    `json:"routing_label,omitempty"`
	Entity         string    `json:"entity,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Repository persists turns and archive flags. Implementations store what
// they are given; lifecycle rules (archived conversations reject appends)
// live in Manager.
//
// Turn numbers are assigned by the caller and must be monotonically
// increasing per conversation. Serializing appends to one conversation is
// the caller's responsibility.
type Repository interface {
	// AppendTurn stores a completed turn.
	AppendTurn(ctx context.Context, turn Turn) error

	// TurnsBefore returns turns with TurnNumber < beforeTurn in
	// chronological order. beforeTurn <= 0 means no upper bound. When
	// limit > 0 only the most recent limit turns are returned.
	TurnsBefore(ctx context.Context, conversationID string, beforeTurn, limit int) ([]Turn, error)

	// LastTurn returns the most recent turn and whether one exists.
	LastTurn(ctx context.Context, conversationID string) (Turn, bool, error)

	// State reports whether the conversation is active or archived.
	// Unknown conversations are active.
	State(ctx context.Context, conversationID string) (State, error)

	// Archive marks the conversation archived. Idempotent.
	Archive(ctx context.Context, conversationID string) error
}
