package metrics

import (
	"encoding/json"
	"net/http"
)

// Handler returns an HTTP handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only allow GET requests
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Set content type
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		// Write metrics
		metrics := m.PrometheusFormat()
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(metrics))
	})
}

// ServeHTTP implements http.Handler interface.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.Handler().ServeHTTP(w, r)
}

// QueryHandler serves metric queries: current values by name plus the
// tracked history series, selected directly or through a preset ID.
func (m *Metrics) QueryHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var query MetricQuery
		if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
			http.Error(w, "Invalid query body", http.StatusBadRequest)
			return
		}

		result, err := m.ExecuteQuery(query)
		if err != nil {
			http.Error(w, "Query failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	})
}

// PresetsHandler lists the predefined metric queries.
func PresetsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(GetAllPresets())
	})
}
