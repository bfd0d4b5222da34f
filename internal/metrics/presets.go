package metrics

import (
	"time"
)

// MetricPreset defines a predefined metric query for dashboards.
type MetricPreset struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Metrics     []string `json:"metrics"`
	ChartType   string   `json:"chart_type"` // line, bar, gauge, table, pie
	Filters     []string `json:"filters"`    // available filter options
	TimeRange   string   `json:"time_range"` // default time range
}

// DefaultPresets returns the default metric presets for dashboards.
var DefaultPresets = []MetricPreset{
	{
		ID:          "answer_overview",
		Name:        "Answer Overview",
		Description: "Overall answer pipeline performance",
		Metrics: []string{
			"sportssee_answer_requests_total",
			"sportssee_answer_latency_ms",
			"sportssee_answer_errors_total",
		},
		ChartType: "line",
		Filters:   []string{"time_range"},
		TimeRange: "1h",
	},
	{
		ID:          "routing_breakdown",
		Name:        "Routing Breakdown",
		Description: "Decided versus actually-used routes",
		Metrics: []string{
			"sportssee_routing_decisions_total",
			"sportssee_routing_actual_total",
			"sportssee_sql_fallbacks_total",
		},
		ChartType: "pie",
		Filters:   []string{"time_range", "route"},
		TimeRange: "1h",
	},
	{
		ID:          "answer_latency",
		Name:        "Answer Latency Distribution",
		Description: "Histogram of end-to-end answer latency",
		Metrics: []string{
			"sportssee_answer_latency_ms_bucket",
			"sportssee_answer_latency_ms_sum",
			"sportssee_answer_latency_ms_count",
		},
		ChartType: "bar",
		Filters:   []string{"time_range", "percentile"},
		TimeRange: "1h",
	},
	{
		ID:          "sql_tool",
		Name:        "SQL Tool",
		Description: "SQL generation, repair rate, and latency",
		Metrics: []string{
			"sportssee_sql_executions_total",
			"sportssee_sql_repairs_total",
			"sportssee_sql_latency_ms",
			"sportssee_sql_errors_total",
		},
		ChartType: "line",
		Filters:   []string{"time_range", "error_type"},
		TimeRange: "1h",
	},
	{
		ID:          "retrieval",
		Name:        "Vector Retrieval",
		Description: "Retrieval request rate, latency, and result counts",
		Metrics: []string{
			"sportssee_retrieval_requests_total",
			"sportssee_retrieval_latency_ms",
			"sportssee_retrieval_results",
		},
		ChartType: "line",
		Filters:   []string{"time_range"},
		TimeRange: "1h",
	},
	{
		ID:          "generation",
		Name:        "Generation",
		Description: "LLM request rate, latency, retries, and regenerations",
		Metrics: []string{
			"sportssee_generation_requests_total",
			"sportssee_generation_latency_ms",
			"sportssee_provider_retries_total",
			"sportssee_regenerations_total",
		},
		ChartType: "line",
		Filters:   []string{"time_range"},
		TimeRange: "1h",
	},
	{
		ID:          "ingest_status",
		Name:        "Ingest Status",
		Description: "Corpus ingestion throughput",
		Metrics: []string{
			"sportssee_ingested_posts_total",
			"sportssee_ingested_chunks_total",
			"sportssee_ingest_latency_ms",
			"sportssee_ingest_errors_total",
		},
		ChartType: "table",
		Filters:   []string{"time_range"},
		TimeRange: "all",
	},
	{
		ID:          "conversations",
		Name:        "Conversations",
		Description: "Turn and archive activity",
		Metrics: []string{
			"sportssee_turns_appended_total",
			"sportssee_conversations_archived_total",
		},
		ChartType: "line",
		Filters:   []string{"time_range"},
		TimeRange: "6h",
	},
	{
		ID:          "system_health",
		Name:        "System Health",
		Description: "System resource usage",
		Metrics: []string{
			"sportssee_goroutines",
			"sportssee_memory_bytes",
			"sportssee_http_requests_in_flight",
		},
		ChartType: "line",
		Filters:   []string{"time_range"},
		TimeRange: "1h",
	},
	{
		ID:          "error_rates",
		Name:        "Error Rates",
		Description: "Error counts by type across the pipeline",
		Metrics: []string{
			"sportssee_answer_errors_total",
			"sportssee_sql_errors_total",
			"sportssee_retrieval_errors_total",
			"sportssee_generation_errors_total",
		},
		ChartType: "bar",
		Filters:   []string{"time_range", "error_type"},
		TimeRange: "1h",
	},
	{
		ID:          "uptime_status",
		Name:        "Uptime & Availability",
		Description: "Uptime and request success rates",
		Metrics: []string{
			"sportssee_uptime_seconds",
			"sportssee_answer_requests_total",
			"sportssee_answer_errors_total",
		},
		ChartType: "table",
		Filters:   []string{},
		TimeRange: "all",
	},
}

// GetPreset returns a preset by ID.
func GetPreset(id string) *MetricPreset {
	for i := range DefaultPresets {
		if DefaultPresets[i].ID == id {
			return &DefaultPresets[i]
		}
	}
	return nil
}

// GetPresetsByCategory returns presets grouped by category.
func GetPresetsByCategory() map[string][]MetricPreset {
	categories := map[string][]MetricPreset{
		"answering": {
			DefaultPresets[0], // answer_overview
			DefaultPresets[2], // answer_latency
		},
		"routing": {
			DefaultPresets[1], // routing_breakdown
		},
		"sql": {
			DefaultPresets[3], // sql_tool
		},
		"retrieval": {
			DefaultPresets[4], // retrieval
		},
		"generation": {
			DefaultPresets[5], // generation
		},
		"ingest": {
			DefaultPresets[6], // ingest_status
		},
		"conversations": {
			DefaultPresets[7], // conversations
		},
		"system": {
			DefaultPresets[8],  // system_health
			DefaultPresets[10], // uptime_status
		},
		"errors": {
			DefaultPresets[9], // error_rates
		},
	}
	return categories
}

// GetAllPresets returns all available presets.
func GetAllPresets() []MetricPreset {
	return DefaultPresets
}

// MetricQuery represents a query for specific metrics.
type MetricQuery struct {
	PresetID    string            `json:"preset_id,omitempty"`
	Metrics     []string          `json:"metrics"`
	TimeRange   string            `json:"time_range"`  // 5m, 15m, 1h, 6h, 24h, 7d, 30d, all
	Filters     map[string]string `json:"filters"`     // e.g., {"route": "hybrid", "error_type": "TIMEOUT"}
	Aggregation string            `json:"aggregation"` // sum, avg, min, max, p50, p95, p99
	GroupBy     []string          `json:"group_by"`    // e.g., ["route", "error_type"]
}

// MetricQueryResult represents the result of a metric query.
type MetricQueryResult struct {
	Query     MetricQuery            `json:"query"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Series    []MetricSeries         `json:"series,omitempty"`
	Summary   map[string]float64     `json:"summary,omitempty"`
}

// MetricSeries represents a time series of metric values.
type MetricSeries struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels"`
	Points []MetricPoint     `json:"points"`
}

// MetricPoint represents a single data point in a time series.
type MetricPoint struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// ExecuteQuery executes a metric query over current counter values.
// Historical series come from the TimeSeries buckets.
func (m *Metrics) ExecuteQuery(query MetricQuery) (*MetricQueryResult, error) {
	result := &MetricQueryResult{
		Query:     query,
		Timestamp: time.Now().Unix(),
		Data:      make(map[string]interface{}),
		Summary:   make(map[string]float64),
	}

	if query.PresetID != "" {
		preset := GetPreset(query.PresetID)
		if preset != nil {
			query.Metrics = preset.Metrics
		}
	}

	for _, metricName := range query.Metrics {
		if v := m.getCurrentValue(metricName); v != nil {
			result.Data[metricName] = v
		}
	}

	result.Series = m.historySeries(query.Metrics)

	return result, nil
}

// historySeries maps requested metric names onto the tracked time-series.
func (m *Metrics) historySeries(names []string) []MetricSeries {
	if m.TimeSeries == nil {
		return nil
	}

	var series []MetricSeries
	for _, name := range names {
		var history *MetricHistory
		switch name {
		case "sportssee_answer_requests_total":
			history = m.TimeSeries.AnswerRate
		case "sportssee_answer_latency_ms":
			history = m.TimeSeries.AnswerLatency
		case "sportssee_ingested_posts_total":
			history = m.TimeSeries.IngestRate
		default:
			continue
		}

		points := history.GetHistoryWithCurrent()
		s := MetricSeries{
			Name:   name,
			Labels: map[string]string{},
			Points: make([]MetricPoint, 0, len(points)),
		}
		for _, dp := range points {
			s.Points = append(s.Points, MetricPoint{
				Timestamp: dp.Timestamp.Unix(),
				Value:     dp.Value,
			})
		}
		series = append(series, s)
	}
	return series
}

// getCurrentValue gets the current value of a metric by name.
func (m *Metrics) getCurrentValue(name string) interface{} {
	switch name {
	case "sportssee_answer_requests_total":
		return m.AnswerRequests.Value()
	case "sportssee_sql_fallbacks_total":
		return m.SQLFallbacks.Value()
	case "sportssee_regenerations_total":
		return m.Regenerations.Value()
	case "sportssee_sql_executions_total":
		return m.SQLExecutions.Value()
	case "sportssee_sql_repairs_total":
		return m.SQLRepairs.Value()
	case "sportssee_retrieval_requests_total":
		return m.RetrievalRequests.Value()
	case "sportssee_generation_requests_total":
		return m.GenerationRequests.Value()
	case "sportssee_provider_retries_total":
		return m.ProviderRetries.Value()
	case "sportssee_embed_requests_total":
		return m.EmbedRequests.Value()
	case "sportssee_ingested_posts_total":
		return m.IngestedPosts.Value()
	case "sportssee_ingested_chunks_total":
		return m.IngestedChunks.Value()
	case "sportssee_turns_appended_total":
		return m.TurnsAppended.Value()
	case "sportssee_conversations_archived_total":
		return m.ConversationsArchived.Value()
	case "sportssee_goroutines":
		return m.GoroutineCount.Value()
	case "sportssee_memory_bytes":
		return m.MemoryUsage.Value()
	case "sportssee_http_requests_in_flight":
		return m.HTTPRequestsInFlight.Value()
	case "sportssee_uptime_seconds":
		return m.Uptime.Value()
	default:
		return nil
	}
}
