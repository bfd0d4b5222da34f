package bus

import (
	"fmt"
	"strings"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/config"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/errors"
)

// NewBus creates a new Bus instance based on the configuration.
// When an event log path is configured, the bus is wrapped so every
// published event is journaled to disk.
func NewBus(cfg config.BusConfig) (Bus, error) {
	inner, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.EventLogPath == "" {
		return inner, nil
	}

	eventLogger, err := NewEventLogger(cfg.EventLogPath, true)
	if err != nil {
		inner.Close()
		return nil, errors.Wrap(errors.CodeInternal, "failed to create event logger", err)
	}

	return NewLoggedBus(inner, eventLogger, nil), nil
}

func newBackend(cfg config.BusConfig) (Bus, error) {
	switch strings.ToLower(cfg.Type) {
	case "memory", "":
		return NewMemoryBus(), nil

	case "kafka":
		brokers := ParseKafkaBrokers(cfg.KafkaBrokers)
		if len(brokers) == 0 {
			return nil, errors.New(errors.CodeValidation, "kafka brokers not configured")
		}

		consumerGroup := cfg.KafkaGroup
		if consumerGroup == "" {
			consumerGroup = "sports-see"
		}

		kb, err := NewKafkaBus(KafkaConfig{
			Brokers:       brokers,
			ConsumerGroup: consumerGroup,
			ClientID:      "sports-see-bus",
		})
		if err != nil {
			return nil, err
		}
		return kb, nil

	default:
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown bus type: %s", cfg.Type))
	}
}
