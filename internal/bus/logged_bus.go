package bus

import (
	"context"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/logger"
)

// LoggedBus wraps another Bus implementation and journals all events to disk.
type LoggedBus struct {
	inner       Bus
	eventLogger *EventLogger
	log         *logger.Logger
}

// NewLoggedBus creates a new logged bus that wraps an inner bus.
// Events are journaled before being published to the inner bus.
func NewLoggedBus(inner Bus, eventLogger *EventLogger, log *logger.Logger) *LoggedBus {
	if log == nil {
		log = logger.Default()
	}
	return &LoggedBus{
		inner:       inner,
		eventLogger: eventLogger,
		log:         log,
	}
}

// Publish journals the event and then delegates to the inner bus.
// Journal failures are logged, never surfaced to the publisher.
func (b *LoggedBus) Publish(ctx context.Context, topic string, event Event) error {
	if err := b.eventLogger.Log(topic, event); err != nil {
		b.log.Warn("Failed to journal event",
			"topic", topic,
			"error", err.Error(),
		)
	}

	return b.inner.Publish(ctx, topic, event)
}

// Subscribe delegates to the inner bus.
func (b *LoggedBus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	return b.inner.Subscribe(ctx, topic, handler)
}

// Close closes both the event logger and the inner bus.
func (b *LoggedBus) Close() error {
	if err := b.eventLogger.Close(); err != nil {
		b.log.Warn("Failed to close event logger",
			"error", err.Error(),
		)
	}

	return b.inner.Close()
}
