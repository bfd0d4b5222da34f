package provider

import (
	"context"
	"sync"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/hash"
)

// CacheMetrics is the interface for recording cache metrics.
// This allows the cache to be decoupled from the metrics package.
type CacheMetrics interface {
	RecordCacheHit(cacheType string)
	RecordCacheMiss(cacheType string)
	UpdateCacheSize(cacheType string, size int)
}

// EmbeddingCache caches embeddings keyed by model and text hash.
type EmbeddingCache struct {
	mu      sync.RWMutex
	cache   map[string][]float32
	maxSize int
	order   []string // LRU order
	metrics CacheMetrics
}

// NewEmbeddingCache creates a new embedding cache.
func NewEmbeddingCache(maxSize int) *EmbeddingCache {
	if maxSize <= 0 {
		maxSize = 2048
	}

	return &EmbeddingCache{
		cache:   make(map[string][]float32),
		maxSize: maxSize,
		order:   make([]string, 0, maxSize),
	}
}

// SetMetrics sets the metrics recorder for this cache.
// This allows metrics to be injected after creation.
func (c *EmbeddingCache) SetMetrics(metrics CacheMetrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = metrics
}

// Get retrieves an embedding from cache.
func (c *EmbeddingCache) Get(model, text string) ([]float32, bool) {
	key := hash.CacheKey(model, text)

	c.mu.RLock()
	emb, ok := c.cache[key]
	c.mu.RUnlock()

	if ok {
		if c.metrics != nil {
			c.metrics.RecordCacheHit("embed")
		}

		c.mu.Lock()
		c.moveToEnd(key)
		c.mu.Unlock()

		// Return a copy to prevent external mutation
		embCopy := make([]float32, len(emb))
		copy(embCopy, emb)
		return embCopy, true
	}

	if c.metrics != nil {
		c.metrics.RecordCacheMiss("embed")
	}

	return nil, false
}

// Set stores an embedding in cache.
func (c *EmbeddingCache) Set(model, text string, embedding []float32) {
	key := hash.CacheKey(model, text)

	// Copy embedding to avoid external mutations
	embCopy := make([]float32, len(embedding))
	copy(embCopy, embedding)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.cache[key]; exists {
		c.cache[key] = embCopy
		c.moveToEnd(key)
		return
	}

	// Evict if at capacity
	for len(c.cache) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.cache, oldest)
	}

	c.cache[key] = embCopy
	c.order = append(c.order, key)

	if c.metrics != nil {
		c.metrics.UpdateCacheSize("embed", len(c.cache))
	}
}

// moveToEnd moves a key to the end of the LRU order (must hold lock).
func (c *EmbeddingCache) moveToEnd(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, key)
			return
		}
	}
}

// Size returns the current cache size.
func (c *EmbeddingCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Clear clears the cache.
func (c *EmbeddingCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string][]float32)
	c.order = make([]string, 0, c.maxSize)

	if c.metrics != nil {
		c.metrics.UpdateCacheSize("embed", 0)
	}
}

// Stats returns cache statistics.
func (c *EmbeddingCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return CacheStats{
		Size:    len(c.cache),
		MaxSize: c.maxSize,
	}
}

// CacheStats holds cache statistics.
type CacheStats struct {
	Size    int `json:"size"`
	MaxSize int `json:"max_size"`
}

// CachedEmbedder wraps an EmbeddingProvider with an LRU cache. Repeated
// queries and re-ingested chunks skip the backend entirely.
type CachedEmbedder struct {
	inner EmbeddingProvider
	model string
	cache *EmbeddingCache
}

// NewCachedEmbedder creates a caching wrapper around inner. The model name
// is part of the cache key so a model switch never serves stale vectors.
func NewCachedEmbedder(inner EmbeddingProvider, model string, size int) *CachedEmbedder {
	return &CachedEmbedder{
		inner: inner,
		model: model,
		cache: NewEmbeddingCache(size),
	}
}

// SetMetrics wires a metrics recorder into the underlying cache.
func (e *CachedEmbedder) SetMetrics(metrics CacheMetrics) {
	e.cache.SetMetrics(metrics)
}

// Stats returns the underlying cache statistics.
func (e *CachedEmbedder) Stats() CacheStats {
	return e.cache.Stats()
}

// Embed returns the cached embedding or fetches and caches it.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if emb, ok := e.cache.Get(e.model, text); ok {
		return emb, nil
	}

	emb, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	e.cache.Set(e.model, text, emb)
	return emb, nil
}

// EmbedBatch embeds texts, fetching only the cache misses from the backend.
func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	uncached := make([]int, 0)
	uncachedTexts := make([]string, 0)

	for i, text := range texts {
		if emb, ok := e.cache.Get(e.model, text); ok {
			results[i] = emb
		} else {
			uncached = append(uncached, i)
			uncachedTexts = append(uncachedTexts, text)
		}
	}

	if len(uncachedTexts) > 0 {
		embeddings, err := e.inner.EmbedBatch(ctx, uncachedTexts)
		if err != nil {
			return nil, err
		}

		for i, idx := range uncached {
			results[idx] = embeddings[i]
			e.cache.Set(e.model, uncachedTexts[i], embeddings[i])
		}
	}

	return results, nil
}
