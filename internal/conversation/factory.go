package conversation

import (
	"fmt"
	"strings"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/config"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/errors"
)

// NewRepository creates a Repository based on the configuration.
func NewRepository(cfg config.ConversationConfig) (Repository, error) {
	switch strings.ToLower(cfg.Backend) {
	case "memory", "":
		return NewMemoryRepository(), nil

	case "redis":
		if cfg.RedisURL == "" {
			return nil, errors.New(errors.CodeValidation, "conversation redis URL not configured")
		}
		repo, err := NewRedisRepository(cfg.RedisURL, cfg.TTL)
		if err != nil {
			return nil, err
		}
		return repo, nil

	default:
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown conversation backend: %s", cfg.Backend))
	}
}
