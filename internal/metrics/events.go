package metrics

import (
	"context"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/bus"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/errors"
)

// EventSubscriber subscribes to the event bus and updates metrics. Wiring it
// makes the bus the single source of pipeline counters, so instances reading
// the same Kafka topics aggregate identically.
type EventSubscriber struct {
	metrics *Metrics
	bus     bus.Bus
}

// NewEventSubscriber creates a new event subscriber.
func NewEventSubscriber(metrics *Metrics, eventBus bus.Bus) *EventSubscriber {
	return &EventSubscriber{
		metrics: metrics,
		bus:     eventBus,
	}
}

// SubscribeToEvents subscribes to all pipeline topics.
func (es *EventSubscriber) SubscribeToEvents(ctx context.Context) error {
	if err := es.bus.Subscribe(ctx, bus.TopicQueryAnswered, es.handleQueryAnswered); err != nil {
		return err
	}
	if err := es.bus.Subscribe(ctx, bus.TopicRoutingDecided, es.handleRoutingDecided); err != nil {
		return err
	}
	if err := es.bus.Subscribe(ctx, bus.TopicSQLExecuted, es.handleSQLExecuted); err != nil {
		return err
	}
	if err := es.bus.Subscribe(ctx, bus.TopicRetrievalPerformed, es.handleRetrievalPerformed); err != nil {
		return err
	}
	if err := es.bus.Subscribe(ctx, bus.TopicTurnAppended, es.handleTurnAppended); err != nil {
		return err
	}
	if err := es.bus.Subscribe(ctx, bus.TopicConversationArchived, es.handleConversationArchived); err != nil {
		return err
	}
	if err := es.bus.Subscribe(ctx, bus.TopicIngestBatch, es.handleIngestBatch); err != nil {
		return err
	}
	return nil
}

// Event handlers

func (es *EventSubscriber) handleQueryAnswered(ctx context.Context, event bus.Event) error {
	payload, ok := payloadMap(event)
	if !ok {
		return nil
	}

	latency := payloadInt64(payload, "latency_ms")
	actual := payloadString(payload, "routing_actually_used")

	var err error
	if errType := payloadString(payload, "error_type"); errType != "" {
		err = errors.New(errType, "answer failed")
	}

	es.metrics.RecordAnswer(actual, latency, err)

	if payloadBool(payload, "fallback") {
		es.metrics.RecordSQLFallback()
	}
	if payloadBool(payload, "regenerated") {
		es.metrics.RecordRegeneration()
	}
	return nil
}

func (es *EventSubscriber) handleRoutingDecided(ctx context.Context, event bus.Event) error {
	payload, ok := payloadMap(event)
	if !ok {
		return nil
	}
	es.metrics.RecordRoutingDecision(payloadString(payload, "route"))
	return nil
}

func (es *EventSubscriber) handleSQLExecuted(ctx context.Context, event bus.Event) error {
	payload, ok := payloadMap(event)
	if !ok {
		return nil
	}

	var err error
	if msg := payloadString(payload, "error"); msg != "" {
		err = errors.New(errors.CodeSQLExecution, msg)
	}

	es.metrics.RecordSQL(payloadInt64(payload, "latency_ms"), payloadBool(payload, "repaired"), err)
	return nil
}

func (es *EventSubscriber) handleRetrievalPerformed(ctx context.Context, event bus.Event) error {
	payload, ok := payloadMap(event)
	if !ok {
		return nil
	}

	var err error
	if msg := payloadString(payload, "error"); msg != "" {
		err = errors.New(errors.CodeIndexUnavailable, msg)
	}

	es.metrics.RecordRetrieval(
		payloadInt64(payload, "latency_ms"),
		int(payloadInt64(payload, "result_count")),
		err,
	)
	return nil
}

func (es *EventSubscriber) handleTurnAppended(ctx context.Context, event bus.Event) error {
	es.metrics.RecordTurnAppended()
	return nil
}

func (es *EventSubscriber) handleConversationArchived(ctx context.Context, event bus.Event) error {
	es.metrics.RecordConversationArchived()
	return nil
}

func (es *EventSubscriber) handleIngestBatch(ctx context.Context, event bus.Event) error {
	payload, ok := payloadMap(event)
	if !ok {
		return nil
	}

	var err error
	if msg := payloadString(payload, "error"); msg != "" {
		err = errors.New(errors.CodeInternal, msg)
	}

	es.metrics.RecordIngest(
		int(payloadInt64(payload, "posts")),
		int(payloadInt64(payload, "chunks")),
		payloadInt64(payload, "latency_ms"),
		err,
	)
	return nil
}

// Payload helpers. In-process events keep their Go types; events that went
// through Kafka come back JSON-decoded, so numbers arrive as float64.

func payloadMap(event bus.Event) (map[string]interface{}, bool) {
	payload, ok := event.Payload.(map[string]interface{})
	return payload, ok
}

func payloadInt64(payload map[string]interface{}, key string) int64 {
	switch v := payload[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func payloadString(payload map[string]interface{}, key string) string {
	if s, ok := payload[key].(string); ok {
		return s
	}
	return ""
}

func payloadBool(payload map[string]interface{}, key string) bool {
	if b, ok := payload[key].(bool); ok {
		return b
	}
	return false
}
