package metrics

import (
	"runtime"
	"sync"
	"time"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/errors"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/logger"
)

// Metrics holds all application metrics.
type Metrics struct {
	// Answer pipeline metrics
	AnswerRequests   *Counter
	AnswerLatency    *Histogram
	AnswerErrors     *CounterVec // labels: error_type
	RoutingDecisions *CounterVec // labels: route (sql, vector, hybrid)
	RoutingActual    *CounterVec // labels: route (sql, vector, hybrid, unknown)
	SQLFallbacks     *Counter    // SQL_ONLY answers that fell back to retrieval
	Regenerations    *Counter    // corrective second drafts after a failed integration check

	// SQL tool metrics
	SQLExecutions *Counter
	SQLLatency    *Histogram
	SQLRepairs    *Counter
	SQLErrors     *CounterVec // labels: error_type

	// Retrieval metrics
	RetrievalRequests *Counter
	RetrievalLatency  *Histogram
	RetrievalResults  *Histogram
	RetrievalErrors   *CounterVec // labels: error_type

	// Generation (LLM) metrics
	GenerationRequests *Counter
	GenerationLatency  *Histogram
	GenerationErrors   *CounterVec // labels: error_type
	ProviderRetries    *Counter

	// Embedding metrics
	EmbedRequests  *Counter
	EmbedLatency   *Histogram
	EmbedBatchSize *Histogram

	// Ingest metrics
	IngestedPosts  *Counter
	IngestedChunks *Counter
	IngestLatency  *Histogram
	IngestErrors   *CounterVec // labels: error_type

	// Conversation metrics
	TurnsAppended         *Counter
	ConversationsArchived *Counter

	// System metrics
	GoroutineCount *Gauge
	MemoryUsage    *Gauge // in bytes
	Uptime         *Counter

	// Cache metrics
	CacheHits   *CounterVec // labels: type (embed)
	CacheMisses *CounterVec // labels: type (embed)
	CacheSize   *GaugeVec   // labels: type (embed)

	// Bus metrics
	BusEventsPublished *CounterVec   // labels: topic
	BusEventLatency    *HistogramVec // labels: topic
	BusErrors          *CounterVec   // labels: topic

	// HTTP metrics
	HTTPRequests         *CounterVec   // labels: method, path, status
	HTTPDuration         *HistogramVec // labels: method, path
	HTTPRequestsInFlight *Gauge
	HTTPRequestSize      *HistogramVec // labels: method, path

	// Time-series data for charts
	TimeSeries *TimeSeriesData

	// Redis storage (optional)
	redisStorage *RedisStorage

	startTime time.Time
	mu        sync.RWMutex
}

// New creates a new metrics instance with all metrics initialized.
// Uses in-memory storage only.
func New() *Metrics {
	return NewWithConfig("memory", "")
}

// NewWithRedis creates a new metrics instance with Redis persistence.
// Falls back to in-memory if Redis connection fails.
func NewWithRedis(redisURL string) *Metrics {
	return NewWithConfig("redis", redisURL)
}

// NewWithConfig creates a new metrics instance with specified persistence.
// persistence: "memory" or "redis"
// redisURL: Redis URL (only used if persistence = "redis")
func NewWithConfig(persistence, redisURL string) *Metrics {
	var redisStorage *RedisStorage
	var timeSeries *TimeSeriesData

	if persistence == "redis" && redisURL != "" {
		storage, err := NewRedisStorage(redisURL)
		if err != nil {
			logger.Default().Warn("metrics history falling back to in-memory", "error", err.Error())
		} else {
			redisStorage = storage
			timeSeries = NewTimeSeriesDataWithRedis(redisStorage)
		}
	}

	if timeSeries == nil {
		timeSeries = NewTimeSeriesData()
	}

	m := &Metrics{
		// Answer pipeline metrics
		AnswerRequests: NewCounter(
			"sportssee_answer_requests_total",
			"Total number of answer requests",
			nil,
		),
		AnswerLatency: NewHistogram(
			"sportssee_answer_latency_ms",
			"End-to-end answer latency in milliseconds",
			[]float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		),
		AnswerErrors: NewCounterVec(
			"sportssee_answer_errors_total",
			"Total number of answer errors",
			[]string{"error_type"},
		),
		RoutingDecisions: NewCounterVec(
			"sportssee_routing_decisions_total",
			"Routing decisions by the query classifier",
			[]string{"route"},
		),
		RoutingActual: NewCounterVec(
			"sportssee_routing_actual_total",
			"Routes actually used after fallbacks and degradation",
			[]string{"route"},
		),
		SQLFallbacks: NewCounter(
			"sportssee_sql_fallbacks_total",
			"SQL-routed answers that fell back to vector retrieval",
			nil,
		),
		Regenerations: NewCounter(
			"sportssee_regenerations_total",
			"Corrective regenerations after a failed integration check",
			nil,
		),

		// SQL tool metrics
		SQLExecutions: NewCounter(
			"sportssee_sql_executions_total",
			"Total number of SQL statements executed",
			nil,
		),
		SQLLatency: NewHistogram(
			"sportssee_sql_latency_ms",
			"SQL generation plus execution latency in milliseconds",
			[]float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		),
		SQLRepairs: NewCounter(
			"sportssee_sql_repairs_total",
			"SQL statements regenerated after a failed first attempt",
			nil,
		),
		SQLErrors: NewCounterVec(
			"sportssee_sql_errors_total",
			"Total number of SQL tool errors",
			[]string{"error_type"},
		),

		// Retrieval metrics
		RetrievalRequests: NewCounter(
			"sportssee_retrieval_requests_total",
			"Total number of vector retrieval requests",
			nil,
		),
		RetrievalLatency: NewHistogram(
			"sportssee_retrieval_latency_ms",
			"Vector retrieval latency in milliseconds",
			[]float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		),
		RetrievalResults: NewHistogram(
			"sportssee_retrieval_results",
			"Number of results per retrieval",
			[]float64{1, 3, 5, 8, 10, 15},
		),
		RetrievalErrors: NewCounterVec(
			"sportssee_retrieval_errors_total",
			"Total number of retrieval errors",
			[]string{"error_type"},
		),

		// Generation metrics
		GenerationRequests: NewCounter(
			"sportssee_generation_requests_total",
			"Total number of text generation requests",
			nil,
		),
		GenerationLatency: NewHistogram(
			"sportssee_generation_latency_ms",
			"Text generation latency in milliseconds",
			[]float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		),
		GenerationErrors: NewCounterVec(
			"sportssee_generation_errors_total",
			"Total number of generation errors",
			[]string{"error_type"},
		),
		ProviderRetries: NewCounter(
			"sportssee_provider_retries_total",
			"Provider calls retried after transient failures",
			nil,
		),

		// Embedding metrics
		EmbedRequests: NewCounter(
			"sportssee_embed_requests_total",
			"Total number of embedding requests",
			nil,
		),
		EmbedLatency: NewHistogram(
			"sportssee_embed_latency_ms",
			"Embedding generation latency in milliseconds",
			[]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		),
		EmbedBatchSize: NewHistogram(
			"sportssee_embed_batch_size",
			"Number of texts in embedding batch",
			[]float64{1, 5, 10, 20, 32, 50, 64, 100, 128},
		),

		// Ingest metrics
		IngestedPosts: NewCounter(
			"sportssee_ingested_posts_total",
			"Total number of discussion posts ingested",
			nil,
		),
		IngestedChunks: NewCounter(
			"sportssee_ingested_chunks_total",
			"Total number of chunks upserted to the vector index",
			nil,
		),
		IngestLatency: NewHistogram(
			"sportssee_ingest_latency_ms",
			"Ingest latency in milliseconds per batch",
			[]float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		),
		IngestErrors: NewCounterVec(
			"sportssee_ingest_errors_total",
			"Total number of ingest errors",
			[]string{"error_type"},
		),

		// Conversation metrics
		TurnsAppended: NewCounter(
			"sportssee_turns_appended_total",
			"Total number of conversation turns appended",
			nil,
		),
		ConversationsArchived: NewCounter(
			"sportssee_conversations_archived_total",
			"Total number of conversations archived",
			nil,
		),

		// System metrics
		GoroutineCount: NewGauge(
			"sportssee_goroutines",
			"Number of goroutines",
			nil,
		),
		MemoryUsage: NewGauge(
			"sportssee_memory_bytes",
			"Memory usage in bytes",
			nil,
		),
		Uptime: NewCounter(
			"sportssee_uptime_seconds",
			"Application uptime in seconds",
			nil,
		),

		// Cache metrics
		CacheHits: NewCounterVec(
			"sportssee_cache_hits_total",
			"Total number of cache hits",
			[]string{"type"},
		),
		CacheMisses: NewCounterVec(
			"sportssee_cache_misses_total",
			"Total number of cache misses",
			[]string{"type"},
		),
		CacheSize: NewGaugeVec(
			"sportssee_cache_size",
			"Current cache size",
			[]string{"type"},
		),

		// Bus metrics
		BusEventsPublished: NewCounterVec(
			"sportssee_bus_events_published_total",
			"Total number of events published to the bus",
			[]string{"topic"},
		),
		BusEventLatency: NewHistogramVec(
			"sportssee_bus_event_latency_seconds",
			"Event bus publish latency in seconds",
			[]string{"topic"},
			[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		),
		BusErrors: NewCounterVec(
			"sportssee_bus_errors_total",
			"Total number of event bus errors",
			[]string{"topic"},
		),

		// HTTP metrics
		HTTPRequests: NewCounterVec(
			"sportssee_http_requests_total",
			"Total number of HTTP requests",
			[]string{"method", "path", "status"},
		),
		HTTPDuration: NewHistogramVec(
			"sportssee_http_request_duration_seconds",
			"HTTP request duration in seconds",
			[]string{"method", "path"},
			[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		),
		HTTPRequestsInFlight: NewGauge(
			"sportssee_http_requests_in_flight",
			"Number of HTTP requests currently being processed",
			nil,
		),
		HTTPRequestSize: NewHistogramVec(
			"sportssee_http_request_size_bytes",
			"HTTP request size in bytes",
			[]string{"method", "path"},
			[]float64{100, 1000, 10000, 100000, 1000000, 10000000},
		),

		TimeSeries: timeSeries,

		redisStorage: redisStorage,

		startTime: time.Now(),
	}

	// Start background collector for system metrics
	go m.collectSystemMetrics()

	return m
}

// collectSystemMetrics periodically collects system metrics.
func (m *Metrics) collectSystemMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.GoroutineCount.Set(float64(runtime.NumGoroutine()))

		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)
		m.MemoryUsage.Set(float64(memStats.Alloc))

		m.Uptime.Add(15)
	}
}

// RecordAnswer records metrics for a completed answer request.
// actual is the route actually used (sql, vector, hybrid, unknown).
func (m *Metrics) RecordAnswer(actual string, latencyMs int64, err error) {
	m.AnswerRequests.Inc()
	m.AnswerLatency.Observe(float64(latencyMs))

	if actual != "" {
		m.RoutingActual.WithLabels(actual).Inc()
	}

	if m.TimeSeries != nil {
		m.TimeSeries.RecordAnswer(float64(latencyMs))
	}

	if err != nil {
		m.AnswerErrors.WithLabels(errorType(err)).Inc()
	}
}

// RecordRoutingDecision records the classifier's routing decision.
func (m *Metrics) RecordRoutingDecision(route string) {
	if route != "" {
		m.RoutingDecisions.WithLabels(route).Inc()
	}
}

// RecordSQLFallback records a SQL-routed answer that fell back to retrieval.
func (m *Metrics) RecordSQLFallback() {
	m.SQLFallbacks.Inc()
}

// RecordRegeneration records a corrective regeneration of a hybrid draft.
func (m *Metrics) RecordRegeneration() {
	m.Regenerations.Inc()
}

// RecordSQL records SQL tool metrics. repaired reports whether the statement
// came from the single repair retry.
func (m *Metrics) RecordSQL(latencyMs int64, repaired bool, err error) {
	m.SQLExecutions.Inc()
	m.SQLLatency.Observe(float64(latencyMs))

	if repaired {
		m.SQLRepairs.Inc()
	}

	if err != nil {
		m.SQLErrors.WithLabels(errorType(err)).Inc()
	}
}

// RecordRetrieval records vector retrieval metrics.
func (m *Metrics) RecordRetrieval(latencyMs int64, resultCount int, err error) {
	m.RetrievalRequests.Inc()
	m.RetrievalLatency.Observe(float64(latencyMs))
	m.RetrievalResults.Observe(float64(resultCount))

	if err != nil {
		m.RetrievalErrors.WithLabels(errorType(err)).Inc()
	}
}

// RecordGeneration records text generation metrics.
func (m *Metrics) RecordGeneration(latencyMs int64, err error) {
	m.GenerationRequests.Inc()
	m.GenerationLatency.Observe(float64(latencyMs))

	if err != nil {
		m.GenerationErrors.WithLabels(errorType(err)).Inc()
	}
}

// RecordProviderRetry records a retried provider call.
func (m *Metrics) RecordProviderRetry() {
	m.ProviderRetries.Inc()
}

// RecordEmbed records embedding generation metrics.
func (m *Metrics) RecordEmbed(batchSize int, latencyMs int64) {
	m.EmbedRequests.Inc()
	m.EmbedLatency.Observe(float64(latencyMs))
	m.EmbedBatchSize.Observe(float64(batchSize))
}

// RecordIngest records ingest metrics for one batch.
func (m *Metrics) RecordIngest(postCount, chunkCount int, latencyMs int64, err error) {
	m.IngestedPosts.Add(int64(postCount))
	m.IngestedChunks.Add(int64(chunkCount))
	m.IngestLatency.Observe(float64(latencyMs))

	if m.TimeSeries != nil {
		m.TimeSeries.RecordIngest(postCount)
	}

	if err != nil {
		m.IngestErrors.WithLabels(errorType(err)).Inc()
	}
}

// RecordTurnAppended records an appended conversation turn.
func (m *Metrics) RecordTurnAppended() {
	m.TurnsAppended.Inc()
}

// RecordConversationArchived records an archived conversation.
func (m *Metrics) RecordConversationArchived() {
	m.ConversationsArchived.Inc()
}

// RecordBusPublish records event bus publish metrics.
func (m *Metrics) RecordBusPublish(topic string, latencyMs int64, err error) {
	m.BusEventsPublished.WithLabels(topic).Inc()

	// Seconds per Prometheus convention
	latencySeconds := float64(latencyMs) / 1000.0
	m.BusEventLatency.WithLabels(topic).Observe(latencySeconds)

	if err != nil {
		m.BusErrors.WithLabels(topic).Inc()
	}
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit(cacheType string) {
	m.CacheHits.WithLabels(cacheType).Inc()
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss(cacheType string) {
	m.CacheMisses.WithLabels(cacheType).Inc()
}

// UpdateCacheSize updates the cache size.
func (m *Metrics) UpdateCacheSize(cacheType string, size int) {
	m.CacheSize.WithLabels(cacheType).Set(float64(size))
}

// RecordHTTP records HTTP request metrics.
// This is called by the HTTP middleware.
func (m *Metrics) RecordHTTP(method, path string, status int, durationSeconds float64, sizeBytes int64) {
	// Normalize path to reduce cardinality
	normalizedPath := normalizePath(path)

	m.HTTPRequests.WithLabels(method, normalizedPath, statusCode(status)).Inc()
	m.HTTPDuration.WithLabels(method, normalizedPath).Observe(durationSeconds)

	if sizeBytes > 0 {
		m.HTTPRequestSize.WithLabels(method, normalizedPath).Observe(float64(sizeBytes))
	}
}

// errorType extracts the taxonomy code from an error for metric labels.
func errorType(err error) string {
	if err == nil {
		return "unknown"
	}
	if code := errors.Code(err); code != "" {
		return code
	}
	return "generic"
}

// Reset resets all metrics to zero (useful for testing).
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AnswerRequests.Reset()
	m.SQLFallbacks.Reset()
	m.Regenerations.Reset()
	m.SQLExecutions.Reset()
	m.SQLRepairs.Reset()
	m.RetrievalRequests.Reset()
	m.GenerationRequests.Reset()
	m.ProviderRetries.Reset()
	m.EmbedRequests.Reset()
	m.IngestedPosts.Reset()
	m.IngestedChunks.Reset()
	m.TurnsAppended.Reset()
	m.ConversationsArchived.Reset()
	m.Uptime.Reset()

	m.GoroutineCount.Set(0)
	m.MemoryUsage.Set(0)

	m.startTime = time.Now()
}

// Close closes the metrics instance and releases resources.
// Must be called when shutting down if Redis is used.
func (m *Metrics) Close() error {
	if m.redisStorage != nil {
		return m.redisStorage.Close()
	}
	return nil
}

// IsRedisPersisted returns true if metrics are persisted to Redis.
func (m *Metrics) IsRedisPersisted() bool {
	return m.redisStorage != nil
}
