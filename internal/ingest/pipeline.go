// Package ingest loads discussion corpora into the vector index:
// JSONL posts are chunked, embedded in parallel batches, and upserted
// as Qdrant points carrying the metadata that retrieval ranks on.
package ingest

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/bus"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/errors"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/logger"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/qdrant"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/retrieval"
)

// Embedder produces dense vectors for chunk batches.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Index is the vector store the pipeline writes to. *qdrant.Client
// implements it.
type Index interface {
	CreateCollection(ctx context.Context, cfg qdrant.CollectionConfig) error
	UpsertPointsBatch(ctx context.Context, collection string, points []qdrant.Point, batchSize int) error
}

// Config configures the ingest pipeline.
type Config struct {
	// Collection is the target collection name (without prefix).
	Collection string

	// VectorDim is the embedding dimension, used when the collection
	// has to be created.
	VectorDim int

	// EmbedBatchSize is the number of posts embedded per batch.
	EmbedBatchSize int

	// UpsertBatchSize is the number of points per Qdrant upsert call.
	UpsertBatchSize int

	// Workers is the number of parallel embed workers.
	Workers int

	// ChunkChars and ChunkOverlap size the post chunker.
	ChunkChars   int
	ChunkOverlap int
}

// DefaultConfig returns sensible ingest defaults.
func DefaultConfig() Config {
	return Config{
		Collection:      retrieval.DefaultCollection,
		VectorDim:       768,
		EmbedBatchSize:  32,
		UpsertBatchSize: 100,
		Workers:         4,
		ChunkChars:      DefaultChunkChars,
		ChunkOverlap:    DefaultChunkOverlap,
	}
}

// Pipeline drives a corpus into the index.
type Pipeline struct {
	cfg      Config
	embedder Embedder
	index    Index
	bus      bus.Bus
	chunker  *Chunker
	log      *logger.Logger
}

// NewPipeline creates an ingest pipeline. eventBus may be nil, which
// disables batch events. Zero config fields fall back to defaults.
func NewPipeline(cfg Config, embedder Embedder, index Index, log *logger.Logger, eventBus bus.Bus) *Pipeline {
	def := DefaultConfig()
	if cfg.Collection == "" {
		cfg.Collection = def.Collection
	}
	if cfg.VectorDim <= 0 {
		cfg.VectorDim = def.VectorDim
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = def.EmbedBatchSize
	}
	if cfg.UpsertBatchSize <= 0 {
		cfg.UpsertBatchSize = def.UpsertBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}

	return &Pipeline{
		cfg:      cfg,
		embedder: embedder,
		index:    index,
		bus:      eventBus,
		chunker:  NewChunker(cfg.ChunkChars, cfg.ChunkOverlap),
		log:      log,
	}
}

// Result summarizes one ingest run.
type Result struct {
	// Posts is the number of valid posts that entered the pipeline.
	Posts int `json:"posts"`

	// Skipped is the number of posts dropped by validation.
	Skipped int `json:"skipped"`

	// Chunks is the number of points upserted.
	Chunks int `json:"chunks"`

	// Batches is the number of embed batches.
	Batches int `json:"batches"`

	// Duration is the wall time of the run.
	Duration time.Duration `json:"duration"`
}

// IngestFile loads a JSONL corpus file and runs it through the
// pipeline.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*Result, error) {
	posts, err := LoadCorpus(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, "corpus load failed", err)
	}
	return p.Run(ctx, posts)
}

// Run ingests posts: validate, chunk, embed in parallel batches, and
// upsert into the collection. A failed batch fails the run; the result
// still reports the counts of batches that finished.
func (p *Pipeline) Run(ctx context.Context, posts []Post) (*Result, error) {
	start := time.Now()
	result := &Result{}

	if len(posts) == 0 {
		return result, nil
	}

	valid := make([]Post, 0, len(posts))
	for i, post := range posts {
		if err := ValidatePost(post); err != nil {
			result.Skipped++
			p.log.Warn("Skipping post", "post", i+1, "error", err.Error())
			continue
		}
		valid = append(valid, normalizePost(post))
	}
	result.Posts = len(valid)
	if len(valid) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	// Creating an existing collection is a no-op, so the first run
	// bootstraps the index and later runs pass straight through.
	collectionCfg := qdrant.DefaultCollectionConfig(p.cfg.Collection, p.cfg.VectorDim)
	if err := p.index.CreateCollection(ctx, collectionCfg); err != nil {
		return result, errors.IndexUnavailableError("collection setup failed", err)
	}

	batches := splitPosts(valid, p.cfg.EmbedBatchSize)
	result.Batches = len(batches)

	runID := uuid.NewString()
	chunkCounts := make([]int, len(batches))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i, batch := range batches {
		g.Go(func() error {
			n, err := p.runBatch(gctx, runID, batch)
			if err != nil {
				return err
			}
			chunkCounts[i] = n
			p.log.Info("Ingest batch complete",
				"batch", done.Add(1),
				"batches", len(batches),
				"posts", len(batch),
				"chunks", n,
			)
			return nil
		})
	}
	runErr := g.Wait()

	for _, n := range chunkCounts {
		result.Chunks += n
	}
	result.Duration = time.Since(start)

	if runErr != nil {
		return result, runErr
	}

	p.log.Info("Ingest complete",
		"collection", p.cfg.Collection,
		"posts", result.Posts,
		"skipped", result.Skipped,
		"chunks", result.Chunks,
		"batches", result.Batches,
		"duration", result.Duration,
	)
	return result, nil
}

// runBatch chunks, embeds, and upserts one group of posts. An
// ingest.batch event is published either way; failed batches report
// zero counts so only completed work is counted.
func (p *Pipeline) runBatch(ctx context.Context, runID string, posts []Post) (int, error) {
	start := time.Now()

	var texts []string
	var owners []Post
	for _, post := range posts {
		for _, chunk := range p.chunker.Split(post.Text) {
			texts = append(texts, chunk)
			owners = append(owners, post)
		}
	}
	if len(texts) == 0 {
		return 0, nil
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		wrapped := errors.InternalError("embedding generation failed", err)
		p.publishBatch(ctx, runID, 0, 0, time.Since(start), wrapped)
		return 0, wrapped
	}
	if len(vectors) != len(texts) {
		mismatch := errors.New(errors.CodeInternal,
			fmt.Sprintf("embedder returned %d vectors for %d chunks", len(vectors), len(texts)))
		p.publishBatch(ctx, runID, 0, 0, time.Since(start), mismatch)
		return 0, mismatch
	}

	now := time.Now().UTC()
	points := make([]qdrant.Point, len(texts))
	for i, text := range texts {
		post := owners[i]
		points[i] = qdrant.Point{
			ID:     PointID(post.Source, text),
			Vector: vectors[i],
			Payload: qdrant.ChunkPayload{
				Text:       text,
				Source:     post.Source,
				DataType:   post.DataType,
				Upvotes:    post.Upvotes,
				Engagement: post.Engagement,
				IsOfficial: post.IsOfficial,
				IngestedAt: now,
			},
		}
	}

	if err := p.index.UpsertPointsBatch(ctx, p.cfg.Collection, points, p.cfg.UpsertBatchSize); err != nil {
		wrapped := errors.IndexUnavailableError("qdrant upsert failed", err)
		p.publishBatch(ctx, runID, 0, 0, time.Since(start), wrapped)
		return 0, wrapped
	}

	p.publishBatch(ctx, runID, len(posts), len(points), time.Since(start), nil)
	return len(points), nil
}

func (p *Pipeline) publishBatch(ctx context.Context, runID string, posts, chunks int, latency time.Duration, batchErr error) {
	if p.bus == nil {
		return
	}
	payload := map[string]interface{}{
		"collection": p.cfg.Collection,
		"posts":      posts,
		"chunks":     chunks,
		"latency_ms": latency.Milliseconds(),
	}
	if batchErr != nil {
		payload["error"] = batchErr.Error()
	}
	event := bus.NewEvent(bus.TopicIngestBatch, runID, payload)
	if err := p.bus.Publish(ctx, bus.TopicIngestBatch, event); err != nil {
		p.log.Warn("event publish failed", "topic", bus.TopicIngestBatch, "error", err.Error())
	}
}

// splitPosts groups posts into batches of at most size.
func splitPosts(posts []Post, size int) [][]Post {
	if size <= 0 {
		size = 1
	}
	var batches [][]Post
	for i := 0; i < len(posts); i += size {
		end := i + size
		if end > len(posts) {
			end = len(posts)
		}
		batches = append(batches, posts[i:end])
	}
	return batches
}
