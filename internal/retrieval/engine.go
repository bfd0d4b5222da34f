// Package retrieval implements dense vector retrieval over the discussion
// corpus. A query is expanded with domain synonyms, sized by its category and
// shape, over-fetched from the index, then quality-filtered and re-ranked
// with community metadata boosts.
package retrieval

import (
	"context"
	"strings"
	"time"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/classify"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/errors"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/logger"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/retry"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/qdrant"
)

const opVectorSearch = "vector_search"

// DefaultCollection is the discussion corpus collection name (without
// prefix).
const DefaultCollection = "chunks"

// Embedder turns query text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index runs dense similarity search over an indexed collection.
type Index interface {
	DenseSearch(ctx context.Context, collection string, req qdrant.SearchRequest) ([]qdrant.SearchResult, error)
}

// Config configures the retrieval engine.
type Config struct {
	// Collection is the corpus collection to search.
	Collection string

	// PrefetchMultiplier controls over-fetch before quality filtering.
	PrefetchMultiplier int

	// MinK is the floor for the target result count.
	MinK int

	// MaxK is the ceiling for the target result count.
	MaxK int

	// MinChunkChars is the minimum trimmed chunk length kept.
	MinChunkChars int
}

// DefaultConfig returns sensible retrieval defaults.
func DefaultConfig() Config {
	return Config{
		Collection:         DefaultCollection,
		PrefetchMultiplier: DefaultPrefetchMultiplier,
		MinK:               DefaultMinK,
		MaxK:               DefaultMaxK,
		MinChunkChars:      DefaultMinChunkChars,
	}
}

// Engine retrieves and ranks discussion chunks for a query.
type Engine struct {
	embedder Embedder
	index    Index
	log      *logger.Logger
	cfg      Config
	policy   retry.Policy
}

// NewEngine creates a retrieval engine. Zero config fields fall back to
// defaults.
func NewEngine(embedder Embedder, index Index, log *logger.Logger, cfg Config) *Engine {
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.PrefetchMultiplier <= 0 {
		cfg.PrefetchMultiplier = DefaultPrefetchMultiplier
	}
	if cfg.MinK <= 0 {
		cfg.MinK = DefaultMinK
	}
	if cfg.MaxK <= 0 {
		cfg.MaxK = DefaultMaxK
	}
	if cfg.MinChunkChars <= 0 {
		cfg.MinChunkChars = DefaultMinChunkChars
	}
	return &Engine{
		embedder: embedder,
		index:    index,
		log:      log,
		cfg:      cfg,
		policy:   retry.DefaultPolicy(),
	}
}

// Search runs the retrieval pipeline for one query. Identical requests
// against an unchanged index produce identical responses apart from
// timings.
func (e *Engine) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, errors.ValidationError("query is required")
	}

	category := req.Category
	if category == "" {
		category = classify.CategorySimple
	}

	normalized := classify.Normalize(query)
	tokens := classify.Tokenize(normalized)
	expanded := classify.ExpandQuery(normalized, tokens, expansionLimit(category))

	targetK := e.targetK(req.K, category, len(tokens), classify.ClauseCount(normalized))

	embedStart := time.Now()
	vector, err := e.embedder.Embed(ctx, expanded)
	if err != nil {
		return nil, err
	}
	embedTime := time.Since(embedStart)

	fetchLimit := targetK * e.cfg.PrefetchMultiplier

	retrievalStart := time.Now()
	hits, err := e.denseSearch(ctx, vector, fetchLimit, req.Filters)
	if err != nil {
		return nil, err
	}

	relaxed := false
	if len(hits) == 0 && len(req.Filters) > 0 {
		e.log.Debug("metadata filter produced no candidates, retrying unfiltered",
			"filters", len(req.Filters))
		hits, err = e.denseSearch(ctx, vector, fetchLimit, nil)
		if err != nil {
			return nil, err
		}
		relaxed = true
	}
	retrievalTime := time.Since(retrievalStart)

	rankStart := time.Now()
	kept := qualityFilter(hits, e.cfg.MinChunkChars)
	results := rank(kept, targetK)
	rankTime := time.Since(rankStart)

	resp := &Response{
		Results:       results,
		TargetK:       targetK,
		ExpandedQuery: expanded,
		FilterRelaxed: relaxed,
		Metadata: Metadata{
			EmbedTimeMs:     embedTime.Milliseconds(),
			RetrievalTimeMs: retrievalTime.Milliseconds(),
			RankTimeMs:      rankTime.Milliseconds(),
			TotalTimeMs:     time.Since(start).Milliseconds(),
			Prefetched:      len(hits),
			Dropped:         len(hits) - len(kept),
		},
	}

	e.log.Debug("retrieval complete",
		"category", string(category),
		"target_k", targetK,
		"prefetched", len(hits),
		"returned", len(results),
		"filter_relaxed", relaxed,
		"total_ms", resp.Metadata.TotalTimeMs)

	return resp, nil
}

// targetK resolves the result count. An explicit K wins but still
// clamps; otherwise the larger of the complexity and category estimates
// is clamped into [MinK, MaxK].
func (e *Engine) targetK(explicit int, category classify.Category, tokenCount, clauses int) int {
	if explicit > 0 {
		return clampK(explicit, e.cfg.MinK, e.cfg.MaxK)
	}
	k := complexityK(tokenCount, clauses)
	if rk := recallK(category); rk > k {
		k = rk
	}
	return clampK(k, e.cfg.MinK, e.cfg.MaxK)
}

// denseSearch queries the index under the retry policy. Timeouts pass
// through typed; any other failure reports the index as unavailable.
func (e *Engine) denseSearch(ctx context.Context, vector []float32, limit int, filters map[string]string) ([]qdrant.SearchResult, error) {
	var hits []qdrant.SearchResult
	err := e.policy.Do(ctx, opVectorSearch, func(ctx context.Context) error {
		var searchErr error
		hits, searchErr = e.index.DenseSearch(ctx, e.cfg.Collection, qdrant.SearchRequest{
			Vector:      vector,
			Limit:       uint64(limit),
			Filter:      filters,
			WithPayload: true,
		})
		if searchErr != nil {
			return retry.Transient(searchErr)
		}
		return nil
	})
	if err != nil {
		if errors.IsTimeout(err) {
			return nil, err
		}
		return nil, errors.IndexUnavailableError("vector search failed", err)
	}
	return hits, nil
}
