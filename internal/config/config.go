// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Host string `envconfig:"SPORTSSEE_HOST" yaml:"host"`
	Port int    `envconfig:"SPORTSSEE_PORT" yaml:"port"`

	// Qdrant configuration
	Qdrant QdrantConfig `yaml:"qdrant"`

	// Ollama provider configuration
	Ollama OllamaConfig `yaml:"ollama"`

	// Stats database configuration
	Database DatabaseConfig `yaml:"database"`

	// Conversation store configuration
	Conversation ConversationConfig `yaml:"conversation"`

	// Retrieval configuration
	Retrieval RetrievalConfig `yaml:"retrieval"`

	// SQL tool configuration
	SQLTool SQLToolConfig `yaml:"sql_tool"`

	// Bus configuration
	Bus BusConfig `yaml:"bus"`

	// Metrics configuration
	Metrics MetricsConfig `yaml:"metrics"`

	// Logging configuration
	Log LogConfig `yaml:"log"`

	// Security configuration
	Security SecurityConfig `yaml:"security"`
}

// QdrantConfig holds Qdrant connection settings.
type QdrantConfig struct {
	URL              string `envconfig:"QDRANT_URL" yaml:"url"`
	APIKey           string `envconfig:"QDRANT_API_KEY" yaml:"api_key"`
	CollectionPrefix string `envconfig:"QDRANT_COLLECTION_PREFIX" yaml:"collection_prefix"`
	VectorDim        int    `envconfig:"QDRANT_VECTOR_DIM" yaml:"vector_dim"`
}

// OllamaConfig holds settings for the embedding and generation providers.
type OllamaConfig struct {
	URL            string        `envconfig:"SPORTSSEE_OLLAMA_URL" yaml:"url"`
	EmbedModel     string        `envconfig:"SPORTSSEE_EMBED_MODEL" yaml:"embed_model"`
	GenerateModel  string        `envconfig:"SPORTSSEE_GENERATE_MODEL" yaml:"generate_model"`
	Timeout        time.Duration `envconfig:"SPORTSSEE_OLLAMA_TIMEOUT" yaml:"timeout"`
	MaxRetries     int           `envconfig:"SPORTSSEE_OLLAMA_MAX_RETRIES" yaml:"max_retries"`
	RetryBaseDelay time.Duration `envconfig:"SPORTSSEE_OLLAMA_RETRY_BASE_DELAY" yaml:"retry_base_delay"`
	CacheSize      int           `envconfig:"SPORTSSEE_EMBED_CACHE_SIZE" yaml:"cache_size"`
}

// DatabaseConfig holds the read-only stats database settings.
type DatabaseConfig struct {
	Path         string        `envconfig:"SPORTSSEE_DB_PATH" yaml:"path"`
	QueryTimeout time.Duration `envconfig:"SPORTSSEE_DB_QUERY_TIMEOUT" yaml:"query_timeout"`
}

// ConversationConfig holds conversation repository settings.
type ConversationConfig struct {
	Backend  string        `envconfig:"SPORTSSEE_CONVERSATION_BACKEND" yaml:"backend"`
	RedisURL string        `envconfig:"SPORTSSEE_CONVERSATION_REDIS_URL" yaml:"redis_url"`
	TTL      time.Duration `envconfig:"SPORTSSEE_CONVERSATION_TTL" yaml:"ttl"` // 0 = no expiry
}

// RetrievalConfig holds retrieval engine settings.
type RetrievalConfig struct {
	PrefetchMultiplier int `envconfig:"SPORTSSEE_PREFETCH_MULTIPLIER" yaml:"prefetch_multiplier"`
	MinK               int `envconfig:"SPORTSSEE_MIN_K" yaml:"min_k"`
	MaxK               int `envconfig:"SPORTSSEE_MAX_K" yaml:"max_k"`
	MinChunkChars      int `envconfig:"SPORTSSEE_MIN_CHUNK_CHARS" yaml:"min_chunk_chars"`
}

// SQLToolConfig holds SQL generation and execution settings.
type SQLToolConfig struct {
	MaxRows int           `envconfig:"SPORTSSEE_SQL_MAX_ROWS" yaml:"max_rows"`
	Timeout time.Duration `envconfig:"SPORTSSEE_SQL_TIMEOUT" yaml:"timeout"`
}

// BusConfig holds event bus settings.
type BusConfig struct {
	Type         string `envconfig:"SPORTSSEE_BUS_TYPE" yaml:"type"`
	KafkaBrokers string `envconfig:"SPORTSSEE_KAFKA_BROKERS" yaml:"kafka_brokers"`
	KafkaGroup   string `envconfig:"SPORTSSEE_KAFKA_GROUP" yaml:"kafka_group"`
	// EventLogPath, when set, journals every published event to a JSONL file.
	EventLogPath string `envconfig:"SPORTSSEE_BUS_EVENT_LOG" yaml:"event_log_path"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	Enabled        bool   `envconfig:"SPORTSSEE_METRICS_ENABLED" yaml:"enabled"`
	Path           string `envconfig:"SPORTSSEE_METRICS_PATH" yaml:"path"`
	HistoryEnabled bool   `envconfig:"SPORTSSEE_METRICS_HISTORY_ENABLED" yaml:"history_enabled"`
	RedisURL       string `envconfig:"SPORTSSEE_METRICS_REDIS_URL" yaml:"redis_url"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"SPORTSSEE_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"SPORTSSEE_LOG_FORMAT" yaml:"format"`
}

// SecurityConfig holds security settings.
type SecurityConfig struct {
	RateLimit   int    `envconfig:"SPORTSSEE_RATE_LIMIT" yaml:"rate_limit"` // 0 = disabled
	RateBurst   int    `envconfig:"SPORTSSEE_RATE_BURST" yaml:"rate_burst"`
	CORSOrigins string `envconfig:"SPORTSSEE_CORS_ORIGINS" yaml:"cors_origins"`
}

// Load loads configuration from environment variables and optional config file.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Host = "0.0.0.0"
	cfg.Port = 8080

	cfg.Qdrant = QdrantConfig{
		URL:              "http://localhost:6333",
		CollectionPrefix: "sportssee_",
		VectorDim:        768,
	}

	cfg.Ollama = OllamaConfig{
		URL:            "http://localhost:11434",
		EmbedModel:     "nomic-embed-text",
		GenerateModel:  "llama3.2",
		Timeout:        60 * time.Second,
		MaxRetries:     3,
		RetryBaseDelay: 200 * time.Millisecond,
		CacheSize:      2048,
	}

	cfg.Database = DatabaseConfig{
		Path:         "./data/sports_stats.db",
		QueryTimeout: 10 * time.Second,
	}

	cfg.Conversation = ConversationConfig{
		Backend:  "memory",
		RedisURL: "redis://localhost:6379",
		TTL:      0,
	}

	cfg.Retrieval = RetrievalConfig{
		PrefetchMultiplier: 3,
		MinK:               3,
		MaxK:               15,
		MinChunkChars:      40,
	}

	cfg.SQLTool = SQLToolConfig{
		MaxRows: 100,
		Timeout: 10 * time.Second,
	}

	cfg.Bus = BusConfig{
		Type: "memory",
	}

	cfg.Metrics = MetricsConfig{
		Enabled:        true,
		Path:           "/metrics",
		HistoryEnabled: false,
		RedisURL:       "redis://localhost:6379",
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}

	cfg.Security = SecurityConfig{
		RateLimit:   0,
		RateBurst:   20,
		CORSOrigins: "*",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	// Qdrant validation
	if c.Qdrant.VectorDim < 1 {
		errs = append(errs, "vector_dim must be positive")
	}

	// Provider validation
	if c.Ollama.URL == "" {
		errs = append(errs, "ollama url required")
	}

	if c.Ollama.MaxRetries < 0 {
		errs = append(errs, "max_retries must not be negative")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database path required")
	}

	// Conversation validation
	validBackends := map[string]bool{"memory": true, "redis": true}
	if !validBackends[c.Conversation.Backend] {
		errs = append(errs, fmt.Sprintf("invalid conversation backend: %s (must be memory or redis)", c.Conversation.Backend))
	}

	// Retrieval validation
	if c.Retrieval.PrefetchMultiplier < 1 {
		errs = append(errs, "prefetch_multiplier must be positive")
	}

	if c.Retrieval.MinK < 1 {
		errs = append(errs, "min_k must be positive")
	}

	if c.Retrieval.MaxK < c.Retrieval.MinK {
		errs = append(errs, "max_k must be at least min_k")
	}

	// SQL tool validation
	if c.SQLTool.MaxRows < 1 {
		errs = append(errs, "sql max_rows must be positive")
	}

	// Bus validation
	validBusTypes := map[string]bool{"memory": true, "kafka": true}
	if !validBusTypes[c.Bus.Type] {
		errs = append(errs, fmt.Sprintf("invalid bus type: %s (must be memory or kafka)", c.Bus.Type))
	}

	if c.Bus.Type == "kafka" && c.Bus.KafkaBrokers == "" {
		errs = append(errs, "kafka_brokers required when bus type is kafka")
	}

	// Log validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Address returns the server address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Log.Level == "debug"
}
