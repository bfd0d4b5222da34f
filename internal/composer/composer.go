// Package composer merges SQL and vector evidence into a single answer. It
// enforces the per-route evidence policies, runs the integration check on
// hybrid answers, and owns the one corrective regeneration a failed check is
// allowed.
package composer

import (
	"context"
	"strings"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/classify"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/conversation"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/errors"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/logger"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/provider"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/retrieval"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/sqltool"
)

// NoInformationAnswer is returned when no leg produced usable evidence. It
// is composed without a generator call.
const NoInformationAnswer = "I could not find any information to answer that question. " +
	"Try asking about a specific player, team, or season, or rephrase the question."

// Labels for the route an answer actually drew on. They diverge from the
// routing decision only through the documented fallback chain.
const (
	RoutingSQL     = "sql"
	RoutingVector  = "vector"
	RoutingHybrid  = "hybrid"
	RoutingUnknown = "unknown"
)

// sqlSource labels the stats database in source attributions.
const sqlSource = "stats database"

// Input carries the evidence gathered for one request.
type Input struct {
	Query          string
	Route          classify.QueryType
	Context        []conversation.Turn
	SQL            *sqltool.SQLExecutionResult
	Vector         []retrieval.SearchResult
	IncludeSources bool
}

// Draft is a composed answer plus what it was built from.
type Draft struct {
	Text                string             `json:"text"`
	SourcesUsed         []string           `json:"sources_used,omitempty"`
	RoutingActuallyUsed string             `json:"routing_actually_used"`
	Integration         *IntegrationReport `json:"integration,omitempty"`
	Regenerated         bool               `json:"regenerated,omitempty"`

	// FallbackToVector asks the caller to re-enter with a vector retrieval
	// of the same query. Set only for SQL_ONLY inputs without usable rows.
	FallbackToVector bool `json:"-"`
}

// Config holds prompt rendering caps.
type Config struct {
	// MaxTableRows caps the SQL rows shown to the model.
	MaxTableRows int

	// MaxSnippetChars caps each discussion snippet shown to the model.
	MaxSnippetChars int
}

// DefaultConfig returns the default composer configuration.
func DefaultConfig() Config {
	return Config{
		MaxTableRows:    20,
		MaxSnippetChars: 400,
	}
}

// Composer builds answers from routed evidence.
type Composer struct {
	gen provider.TextGenerationProvider
	log *logger.Logger
	cfg Config
}

// NewComposer creates a composer. Zero config fields fall back to defaults.
func NewComposer(gen provider.TextGenerationProvider, log *logger.Logger, cfg Config) *Composer {
	def := DefaultConfig()
	if cfg.MaxTableRows <= 0 {
		cfg.MaxTableRows = def.MaxTableRows
	}
	if cfg.MaxSnippetChars <= 0 {
		cfg.MaxSnippetChars = def.MaxSnippetChars
	}
	return &Composer{gen: gen, log: log, cfg: cfg}
}

// Compose applies the route's evidence policy and produces a draft answer.
// Evidence shortfalls degrade into the draft; only generation failures are
// returned as errors.
func (c *Composer) Compose(ctx context.Context, in Input) (Draft, error) {
	switch in.Route {
	case classify.SQLOnly:
		return c.composeSQLOnly(ctx, in)
	case classify.Hybrid:
		return c.composeHybrid(ctx, in)
	default:
		return c.composeVectorOnly(ctx, in)
	}
}

func (c *Composer) composeSQLOnly(ctx context.Context, in Input) (Draft, error) {
	if !usableSQL(in.SQL) {
		c.log.Debug("sql leg unusable, requesting vector fallback", "query", in.Query)
		return Draft{RoutingActuallyUsed: RoutingUnknown, FallbackToVector: true}, nil
	}

	text, err := c.generate(ctx, answerPrompt(in, c.cfg, true, false))
	if err != nil {
		return Draft{}, err
	}
	return Draft{
		Text:                text,
		SourcesUsed:         c.sources(in, true, false),
		RoutingActuallyUsed: RoutingSQL,
	}, nil
}

func (c *Composer) composeVectorOnly(ctx context.Context, in Input) (Draft, error) {
	if len(in.Vector) == 0 {
		return Draft{Text: NoInformationAnswer, RoutingActuallyUsed: RoutingUnknown}, nil
	}

	text, err := c.generate(ctx, answerPrompt(in, c.cfg, false, true))
	if err != nil {
		return Draft{}, err
	}
	return Draft{
		Text:                text,
		SourcesUsed:         c.sources(in, false, true),
		RoutingActuallyUsed: RoutingVector,
	}, nil
}

func (c *Composer) composeHybrid(ctx context.Context, in Input) (Draft, error) {
	hasSQL := usableSQL(in.SQL)
	hasVector := len(in.Vector) > 0

	// A failed leg degrades the route instead of failing the request.
	switch {
	case !hasSQL && !hasVector:
		return Draft{Text: NoInformationAnswer, RoutingActuallyUsed: RoutingUnknown}, nil
	case !hasVector:
		text, err := c.generate(ctx, answerPrompt(in, c.cfg, true, false))
		if err != nil {
			return Draft{}, err
		}
		return Draft{Text: text, SourcesUsed: c.sources(in, true, false), RoutingActuallyUsed: RoutingSQL}, nil
	case !hasSQL:
		text, err := c.generate(ctx, answerPrompt(in, c.cfg, false, true))
		if err != nil {
			return Draft{}, err
		}
		return Draft{Text: text, SourcesUsed: c.sources(in, false, true), RoutingActuallyUsed: RoutingVector}, nil
	}

	text, err := c.generate(ctx, answerPrompt(in, c.cfg, true, true))
	if err != nil {
		return Draft{}, err
	}

	report := CheckIntegration(text, in.SQL, in.Vector)
	draft := Draft{
		Text:                text,
		SourcesUsed:         c.sources(in, true, true),
		RoutingActuallyUsed: RoutingHybrid,
		Integration:         &report,
	}
	if report.Passed() {
		return draft, nil
	}

	c.log.Debug("integration check failed, regenerating once",
		"query", in.Query,
		"failed", strings.Join(report.FailedCriteria(), ","))

	second, err := c.generate(ctx, correctivePrompt(in, c.cfg, text, report))
	if err != nil {
		// The first draft stands when the corrective pass cannot run.
		c.log.Warn("corrective regeneration failed, keeping first draft", "error", err)
		return draft, nil
	}

	// The second attempt is accepted regardless of its own check.
	recheck := CheckIntegration(second, in.SQL, in.Vector)
	draft.Text = second
	draft.Integration = &recheck
	draft.Regenerated = true
	return draft, nil
}

// usableSQL reports whether the SQL leg produced rows worth answering from.
func usableSQL(res *sqltool.SQLExecutionResult) bool {
	return res != nil && res.Executed && len(res.Result.Rows) > 0
}

func (c *Composer) generate(ctx context.Context, prompt string) (string, error) {
	text, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		if errors.IsRateLimited(err) || errors.IsTimeout(err) {
			return "", err
		}
		return "", errors.GenerationError("answer generation failed", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.GenerationError("model returned an empty answer", nil)
	}
	return text, nil
}

func (c *Composer) sources(in Input, usedSQL, usedVector bool) []string {
	if !in.IncludeSources {
		return nil
	}
	var out []string
	if usedSQL {
		out = append(out, sqlSource)
	}
	if usedVector {
		seen := make(map[string]bool)
		for _, r := range in.Vector {
			s := r.Metadata.Source
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
