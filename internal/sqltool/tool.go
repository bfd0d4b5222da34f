// Package sqltool turns natural-language stat questions into guarded
// SQLite SELECT statements and executes them on a read-only handle.
package sqltool

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/errors"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/logger"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/provider"
)

// SQLExecutionResult is the outcome of one generate-and-execute cycle.
// Failures travel inside the value; the tool never raises them from Run.
type SQLExecutionResult struct {
	GeneratedSQL string    `json:"generated_sql"`
	Executed     bool      `json:"executed"`
	Repaired     bool      `json:"repaired,omitempty"`
	Result       ResultSet `json:"result"`
	Err          string    `json:"error,omitempty"`
}

// Config configures the SQL tool.
type Config struct {
	// MaxRows caps how many rows one query may return.
	MaxRows int

	// Timeout bounds a single statement execution.
	Timeout time.Duration
}

// DefaultConfig returns sensible SQL tool defaults.
func DefaultConfig() Config {
	return Config{
		MaxRows: 100,
		Timeout: 10 * time.Second,
	}
}

// Tool generates, validates and executes SELECT statements over the
// fixed stats schema.
type Tool struct {
	db  *sql.DB
	gen provider.TextGenerationProvider
	log *logger.Logger
	cfg Config
}

// New creates a SQL tool on an existing database handle.
func New(db *sql.DB, gen provider.TextGenerationProvider, log *logger.Logger, cfg Config) *Tool {
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = DefaultConfig().MaxRows
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Tool{db: db, gen: gen, log: log, cfg: cfg}
}

// OpenDatabase opens the stats database read-only: mode=ro on the DSN
// and query_only set on every pooled connection.
func OpenDatabase(path string) (*sql.DB, error) {
	dsn := "file:" + path + "?mode=ro&_pragma=query_only(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.InternalError("opening stats database", err)
	}
	return db, nil
}

// Generate asks the model for SQL answering the question. Markdown
// fences are stripped; an empty completion is an error.
func (t *Tool) Generate(ctx context.Context, question string) (string, error) {
	return t.generate(ctx, sqlPrompt(question))
}

func (t *Tool) generate(ctx context.Context, prompt string) (string, error) {
	raw, err := t.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	query := stripFences(raw)
	if query == "" {
		return "", errors.SQLGenerationError("model returned no sql", nil)
	}
	return query, nil
}

// Run is the full cycle: generate, validate, auto-correct, execute. A
// failed attempt gets exactly one repair pass with the failure fed back
// to the model; whatever the repair produces is the answer.
func (t *Tool) Run(ctx context.Context, question string) SQLExecutionResult {
	query, err := t.Generate(ctx, question)
	if err != nil {
		return SQLExecutionResult{Err: err.Error()}
	}

	result := t.checkAndExecute(ctx, query)
	if result.Executed {
		return result
	}

	t.log.Debug("sql attempt failed, repairing",
		"sql", result.GeneratedSQL,
		"error", result.Err)

	repaired, err := t.generate(ctx, repairPrompt(question, result.GeneratedSQL, result.Err))
	if err != nil {
		return result
	}
	second := t.checkAndExecute(ctx, repaired)
	second.Repaired = true
	return second
}

func (t *Tool) checkAndExecute(ctx context.Context, query string) SQLExecutionResult {
	if err := Validate(query); err != nil {
		return SQLExecutionResult{GeneratedSQL: query, Err: err.Error()}
	}
	return t.Execute(ctx, AutoCorrect(query))
}
