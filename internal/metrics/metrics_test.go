package metrics

import (
	"strings"
	"testing"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/errors"
)

func TestCounter(t *testing.T) {
	c := NewCounter("test_counter", "A test counter", nil)

	if c.Value() != 0 {
		t.Errorf("expected initial value 0, got %d", c.Value())
	}

	c.Inc()
	if c.Value() != 1 {
		t.Errorf("expected value 1 after Inc(), got %d", c.Value())
	}

	c.Add(5)
	if c.Value() != 6 {
		t.Errorf("expected value 6 after Add(5), got %d", c.Value())
	}

	// Counters can't decrease
	c.Add(-10)
	if c.Value() != 6 {
		t.Errorf("expected value 6 after Add(-10), got %d", c.Value())
	}

	c.Reset()
	if c.Value() != 0 {
		t.Errorf("expected value 0 after Reset(), got %d", c.Value())
	}
}

func TestGauge(t *testing.T) {
	g := NewGauge("test_gauge", "A test gauge", nil)

	if g.Value() != 0 {
		t.Errorf("expected initial value 0, got %f", g.Value())
	}

	g.Set(42.5)
	if g.Value() != 42 { // Note: we store as int64, so precision is lost
		t.Errorf("expected value 42, got %f", g.Value())
	}

	g.Inc()
	if g.Value() != 43 {
		t.Errorf("expected value 43 after Inc(), got %f", g.Value())
	}

	g.Dec()
	if g.Value() != 42 {
		t.Errorf("expected value 42 after Dec(), got %f", g.Value())
	}

	g.Add(-10)
	if g.Value() != 32 {
		t.Errorf("expected value 32 after Add(-10), got %f", g.Value())
	}
}

func TestHistogram(t *testing.T) {
	buckets := []float64{1, 5, 10, 50, 100}
	h := NewHistogram("test_histogram", "A test histogram", buckets)

	if h.Count() != 0 {
		t.Errorf("expected initial count 0, got %d", h.Count())
	}

	h.Observe(2.5)
	h.Observe(7.0)
	h.Observe(150.0)

	if h.Count() != 3 {
		t.Errorf("expected count 3, got %d", h.Count())
	}

	expectedSum := 2.5 + 7.0 + 150.0
	// Allow small precision error since we store as int64
	if diff := h.Sum() - expectedSum; diff > 1.0 || diff < -1.0 {
		t.Errorf("expected sum %f, got %f (diff: %f)", expectedSum, h.Sum(), diff)
	}

	counts := h.BucketCounts()
	// Cumulative buckets: 2.5 -> le=5, 7.0 -> le=10, 150.0 -> +Inf
	wantCounts := []int64{0, 1, 2, 2, 2, 3}
	if len(counts) != len(wantCounts) {
		t.Fatalf("expected %d buckets, got %d", len(wantCounts), len(counts))
	}
	for i, want := range wantCounts {
		if counts[i] != want {
			t.Errorf("bucket[%d] = %d, want %d (all: %v)", i, counts[i], want, counts)
		}
	}
}

func TestGaugeVec(t *testing.T) {
	gv := NewGaugeVec("test_gauge_vec", "A test gauge vector", []string{"type", "source"})

	g1 := gv.WithLabels("embed", "reddit")
	g1.Set(100)

	g2 := gv.WithLabels("embed", "espn")
	g2.Set(500)

	g3 := gv.WithLabels("generate", "reddit")
	g3.Set(50)

	gauges := gv.GetAll()
	if len(gauges) != 3 {
		t.Errorf("expected 3 gauges, got %d", len(gauges))
	}

	// Same labels must return the same gauge
	g1Again := gv.WithLabels("embed", "reddit")
	if g1 != g1Again {
		t.Error("expected to get same gauge instance for same labels")
	}
}

func TestCounterVec(t *testing.T) {
	cv := NewCounterVec("test_counter_vec", "A test counter vector", []string{"error_type"})

	c1 := cv.WithLabels("TIMEOUT")
	c1.Inc()
	c1.Inc()

	c2 := cv.WithLabels("RATE_LIMITED")
	c2.Inc()

	counters := cv.GetAll()
	if len(counters) != 2 {
		t.Errorf("expected 2 counters, got %d", len(counters))
	}

	if c1.Value() != 2 {
		t.Errorf("expected TIMEOUT counter value 2, got %d", c1.Value())
	}

	if c2.Value() != 1 {
		t.Errorf("expected RATE_LIMITED counter value 1, got %d", c2.Value())
	}
}

func TestMetricsRecording(t *testing.T) {
	m := New()

	m.RecordAnswer("hybrid", 120, nil)
	if m.AnswerRequests.Value() != 1 {
		t.Errorf("expected 1 answer request, got %d", m.AnswerRequests.Value())
	}
	hybridActual := m.RoutingActual.WithLabels("hybrid")
	if hybridActual.Value() != 1 {
		t.Errorf("expected 1 hybrid actual route, got %d", hybridActual.Value())
	}

	m.RecordRoutingDecision("sql")
	if m.RoutingDecisions.WithLabels("sql").Value() != 1 {
		t.Errorf("expected 1 sql routing decision, got %d", m.RoutingDecisions.WithLabels("sql").Value())
	}

	m.RecordSQL(40, true, nil)
	if m.SQLExecutions.Value() != 1 {
		t.Errorf("expected 1 sql execution, got %d", m.SQLExecutions.Value())
	}
	if m.SQLRepairs.Value() != 1 {
		t.Errorf("expected 1 sql repair, got %d", m.SQLRepairs.Value())
	}

	m.RecordRetrieval(30, 8, nil)
	if m.RetrievalRequests.Value() != 1 {
		t.Errorf("expected 1 retrieval request, got %d", m.RetrievalRequests.Value())
	}

	m.RecordGeneration(900, nil)
	if m.GenerationRequests.Value() != 1 {
		t.Errorf("expected 1 generation request, got %d", m.GenerationRequests.Value())
	}

	m.RecordEmbed(32, 25)
	if m.EmbedRequests.Value() != 1 {
		t.Errorf("expected 1 embed request, got %d", m.EmbedRequests.Value())
	}

	m.RecordIngest(10, 10, 250, nil)
	if m.IngestedPosts.Value() != 10 {
		t.Errorf("expected 10 ingested posts, got %d", m.IngestedPosts.Value())
	}
	if m.IngestedChunks.Value() != 10 {
		t.Errorf("expected 10 ingested chunks, got %d", m.IngestedChunks.Value())
	}

	m.RecordSQLFallback()
	if m.SQLFallbacks.Value() != 1 {
		t.Errorf("expected 1 sql fallback, got %d", m.SQLFallbacks.Value())
	}

	m.RecordRegeneration()
	if m.Regenerations.Value() != 1 {
		t.Errorf("expected 1 regeneration, got %d", m.Regenerations.Value())
	}

	m.RecordTurnAppended()
	if m.TurnsAppended.Value() != 1 {
		t.Errorf("expected 1 turn appended, got %d", m.TurnsAppended.Value())
	}

	m.RecordConversationArchived()
	if m.ConversationsArchived.Value() != 1 {
		t.Errorf("expected 1 conversation archived, got %d", m.ConversationsArchived.Value())
	}
}

func TestErrorTypeLabels(t *testing.T) {
	m := New()

	m.RecordAnswer("unknown", 50, errors.TimeoutError("generation"))
	m.RecordAnswer("sql", 50, errors.GenerationError("empty completion", nil))

	if got := m.AnswerErrors.WithLabels(errors.CodeTimeout).Value(); got != 1 {
		t.Errorf("expected 1 TIMEOUT answer error, got %d", got)
	}
	if got := m.AnswerErrors.WithLabels(errors.CodeGeneration).Value(); got != 1 {
		t.Errorf("expected 1 GENERATION_ERROR answer error, got %d", got)
	}

	// Non-taxonomy errors get the generic label
	m.RecordRetrieval(10, 0, errGeneric{})
	if got := m.RetrievalErrors.WithLabels("generic").Value(); got != 1 {
		t.Errorf("expected 1 generic retrieval error, got %d", got)
	}
}

type errGeneric struct{}

func (errGeneric) Error() string { return "something broke" }

func TestPrometheusFormat(t *testing.T) {
	m := New()

	m.RecordAnswer("hybrid", 120, nil)
	m.RecordSQL(40, false, nil)
	m.RecordIngest(5, 5, 100, nil)
	m.RecordRoutingDecision("hybrid")

	output := m.PrometheusFormat()

	requiredStrings := []string{
		"# HELP sportssee_answer_requests_total",
		"# TYPE sportssee_answer_requests_total counter",
		"sportssee_answer_requests_total 1",
		"# HELP sportssee_sql_executions_total",
		"sportssee_sql_executions_total 1",
		"sportssee_ingested_posts_total 5",
		"# TYPE sportssee_routing_decisions_total counter",
		"sportssee_routing_decisions_total{route=\"hybrid\"} 1",
		"sportssee_routing_actual_total{route=\"hybrid\"} 1",
	}

	for _, s := range requiredStrings {
		if !strings.Contains(output, s) {
			t.Errorf("expected Prometheus output to contain %q", s)
		}
	}
}

func TestPresets(t *testing.T) {
	presets := GetAllPresets()
	if len(presets) == 0 {
		t.Error("expected at least one preset")
	}

	preset := GetPreset("answer_overview")
	if preset == nil {
		t.Fatal("expected to find answer_overview preset")
	}
	if preset.Name != "Answer Overview" {
		t.Errorf("expected preset name 'Answer Overview', got %s", preset.Name)
	}

	categories := GetPresetsByCategory()
	if len(categories) == 0 {
		t.Error("expected at least one category")
	}

	answerPresets := categories["answering"]
	if len(answerPresets) == 0 {
		t.Error("expected at least one answering preset")
	}
}

func TestMetricQuery(t *testing.T) {
	m := New()

	m.RecordAnswer("sql", 50, nil)
	m.RecordSQLFallback()

	query := MetricQuery{
		Metrics:   []string{"sportssee_answer_requests_total", "sportssee_sql_fallbacks_total"},
		TimeRange: "1h",
	}

	result, err := m.ExecuteQuery(query)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if result.Data["sportssee_answer_requests_total"] != int64(1) {
		t.Errorf("expected 1 answer request, got %v", result.Data["sportssee_answer_requests_total"])
	}

	if result.Data["sportssee_sql_fallbacks_total"] != int64(1) {
		t.Errorf("expected 1 sql fallback, got %v", result.Data["sportssee_sql_fallbacks_total"])
	}
}

func TestLabelsToKey(t *testing.T) {
	tests := []struct {
		name   string
		labels map[string]string
		want   string
	}{
		{
			name:   "empty",
			labels: map[string]string{},
			want:   "",
		},
		{
			name:   "single label",
			labels: map[string]string{"route": "hybrid"},
			want:   "route=hybrid",
		},
		{
			name:   "multiple labels",
			labels: map[string]string{"route": "hybrid", "error_type": "TIMEOUT"},
			want:   "error_type=TIMEOUT,route=hybrid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := labelsToKey(tt.labels)
			if got != tt.want {
				t.Errorf("labelsToKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func BenchmarkCounterInc(b *testing.B) {
	c := NewCounter("bench_counter", "Benchmark counter", nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Inc()
	}
}

func BenchmarkHistogramObserve(b *testing.B) {
	h := NewHistogram("bench_histogram", "Benchmark histogram", nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.Observe(float64(i % 1000))
	}
}

func BenchmarkPrometheusFormat(b *testing.B) {
	m := New()
	m.RecordAnswer("hybrid", 120, nil)
	m.RecordSQL(40, false, nil)
	m.RecordRetrieval(30, 8, nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.PrometheusFormat()
	}
}
