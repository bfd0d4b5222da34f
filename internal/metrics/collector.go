package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/qdrant"
)

// Collector gathers current statistics from the stats database and the
// vector index alongside the in-process counters.
type Collector struct {
	metrics    *Metrics
	statsDB    *sql.DB
	qdrant     *qdrant.Client
	collection string
}

// NewCollector creates a new metrics collector. statsDB and qdrant may be
// nil; their sections are skipped.
func NewCollector(metrics *Metrics, statsDB *sql.DB, qdrantClient *qdrant.Client, collection string) *Collector {
	return &Collector{
		metrics:    metrics,
		statsDB:    statsDB,
		qdrant:     qdrantClient,
		collection: collection,
	}
}

// Collect gathers current statistics from all services.
func (c *Collector) Collect(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	if c.statsDB != nil {
		if players, err := c.countRows(ctx, "players"); err == nil {
			stats["players_total"] = players
		}
		if seasons, err := c.countRows(ctx, "player_stats"); err == nil {
			stats["player_stat_rows_total"] = seasons
		}
	}

	if c.qdrant != nil {
		if info, err := c.qdrant.GetCollectionInfo(ctx, c.collection); err == nil {
			stats["index_points"] = info.PointsCount
			stats["index_segments"] = info.SegmentsCount
			stats["index_status"] = info.Status
		}
	}

	// System metrics
	stats["goroutines"] = c.metrics.GoroutineCount.Value()
	stats["memory_bytes"] = c.metrics.MemoryUsage.Value()
	stats["uptime_seconds"] = c.metrics.Uptime.Value()

	// Answer pipeline metrics
	stats["answer_requests_total"] = c.metrics.AnswerRequests.Value()
	stats["answer_latency_count"] = c.metrics.AnswerLatency.Count()
	stats["answer_latency_sum_ms"] = c.metrics.AnswerLatency.Sum()
	stats["sql_fallbacks_total"] = c.metrics.SQLFallbacks.Value()
	stats["regenerations_total"] = c.metrics.Regenerations.Value()

	// SQL metrics
	stats["sql_executions_total"] = c.metrics.SQLExecutions.Value()
	stats["sql_repairs_total"] = c.metrics.SQLRepairs.Value()
	stats["sql_latency_count"] = c.metrics.SQLLatency.Count()
	stats["sql_latency_sum_ms"] = c.metrics.SQLLatency.Sum()

	// Retrieval metrics
	stats["retrieval_requests_total"] = c.metrics.RetrievalRequests.Value()
	stats["retrieval_latency_count"] = c.metrics.RetrievalLatency.Count()
	stats["retrieval_latency_sum_ms"] = c.metrics.RetrievalLatency.Sum()

	// Generation metrics
	stats["generation_requests_total"] = c.metrics.GenerationRequests.Value()
	stats["generation_latency_count"] = c.metrics.GenerationLatency.Count()
	stats["generation_latency_sum_ms"] = c.metrics.GenerationLatency.Sum()
	stats["provider_retries_total"] = c.metrics.ProviderRetries.Value()

	// Embedding metrics
	stats["embed_requests_total"] = c.metrics.EmbedRequests.Value()
	stats["embed_latency_count"] = c.metrics.EmbedLatency.Count()
	stats["embed_latency_sum_ms"] = c.metrics.EmbedLatency.Sum()

	// Ingest metrics
	stats["ingested_posts_total"] = c.metrics.IngestedPosts.Value()
	stats["ingested_chunks_total"] = c.metrics.IngestedChunks.Value()

	// Conversation metrics
	stats["turns_appended_total"] = c.metrics.TurnsAppended.Value()
	stats["conversations_archived_total"] = c.metrics.ConversationsArchived.Value()

	return stats, nil
}

// Handler serves the collected statistics as a JSON document.
func (c *Collector) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stats, err := c.Collect(r.Context())
		if err != nil {
			http.Error(w, "Failed to collect stats", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats)
	})
}

func (c *Collector) countRows(ctx context.Context, table string) (int64, error) {
	var count int64
	// Table names come from the fixed schema, never user input.
	err := c.statsDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting %s rows: %w", table, err)
	}
	return count, nil
}

// Summary returns a human-readable summary of current metrics.
func (c *Collector) Summary(ctx context.Context) string {
	stats, err := c.Collect(ctx)
	if err != nil {
		return "Error collecting metrics"
	}

	summary := "Sports-See Metrics Summary\n"
	summary += "==========================\n\n"

	if players, ok := stats["players_total"].(int64); ok {
		summary += "Players: " + toString(players) + "\n"
	}

	if points, ok := stats["index_points"].(uint64); ok {
		summary += "Index Points: " + toString(int64(points)) + "\n"
	}

	if answers, ok := stats["answer_requests_total"].(int64); ok {
		summary += "Answer Requests: " + toString(answers) + "\n"
	}

	if fallbacks, ok := stats["sql_fallbacks_total"].(int64); ok {
		summary += "SQL Fallbacks: " + toString(fallbacks) + "\n"
	}

	if sqlExecs, ok := stats["sql_executions_total"].(int64); ok {
		summary += "SQL Executions: " + toString(sqlExecs) + "\n"
	}

	if retrievals, ok := stats["retrieval_requests_total"].(int64); ok {
		summary += "Retrieval Requests: " + toString(retrievals) + "\n"
	}

	if posts, ok := stats["ingested_posts_total"].(int64); ok {
		summary += "Ingested Posts: " + toString(posts) + "\n"
	}

	if turns, ok := stats["turns_appended_total"].(int64); ok {
		summary += "Turns Appended: " + toString(turns) + "\n"
	}

	if goroutines, ok := stats["goroutines"].(float64); ok {
		summary += "Goroutines: " + toString(int(goroutines)) + "\n"
	}

	if memBytes, ok := stats["memory_bytes"].(float64); ok {
		summary += "Memory Usage: " + formatBytes(int64(memBytes)) + "\n"
	}

	if uptime, ok := stats["uptime_seconds"].(int64); ok {
		summary += "Uptime: " + formatDuration(uptime) + "\n"
	}

	return summary
}

// Helper functions

func toString(v interface{}) string {
	switch val := v.(type) {
	case int:
		return formatInt(int64(val))
	case int64:
		return formatInt(val)
	case float64:
		return formatInt(int64(val))
	default:
		return "0"
	}
}

func formatInt(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatDuration(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds < 3600 {
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
