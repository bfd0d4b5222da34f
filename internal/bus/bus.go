// Package bus provides the event bus the answer pipeline publishes on.
// Events are notifications: nothing in the pipeline waits on a reply.
package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for event bus implementations.
type Bus interface {
	// Publish publishes an event to a topic.
	Publish(ctx context.Context, topic string, event Event) error

	// Subscribe subscribes to events on a topic.
	Subscribe(ctx context.Context, topic string, handler Handler) error

	// Close closes the bus and releases resources.
	Close() error
}

// Event represents a bus event.
type Event struct {
	// ID is the unique event identifier.
	ID string `json:"id"`

	// Type is the event type, usually the topic it is published on.
	Type string `json:"type"`

	// Source is the service that generated the event.
	Source string `json:"source"`

	// Timestamp is when the event was created, in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`

	// CorrelationID links every event emitted for one request.
	CorrelationID string `json:"correlation_id,omitempty"`

	// Payload contains the event data.
	Payload any `json:"payload"`
}

// NewEvent creates an event with a fresh ID and the given correlation ID.
func NewEvent(eventType, correlationID string, payload any) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        "sports-see",
		Timestamp:     time.Now().UnixMilli(),
		CorrelationID: correlationID,
		Payload:       payload,
	}
}

// Topics published by the answer pipeline.
const (
	// TopicQueryReceived fires when a validated request enters the engine.
	TopicQueryReceived = "query.received"

	// TopicQueryAnswered fires when an answer leaves the engine.
	TopicQueryAnswered = "query.answered"

	// TopicRoutingDecided fires after classification.
	TopicRoutingDecided = "routing.decided"

	// TopicSQLExecuted fires after the SQL leg ran, success or not.
	TopicSQLExecuted = "sql.executed"

	// TopicRetrievalPerformed fires after the vector leg ran.
	TopicRetrievalPerformed = "retrieval.performed"

	// TopicTurnAppended fires when a turn is stored.
	TopicTurnAppended = "turn.appended"

	// TopicConversationArchived fires when a conversation is archived.
	TopicConversationArchived = "conversation.archived"

	// TopicIngestBatch fires per ingested document batch.
	TopicIngestBatch = "ingest.batch"
)
