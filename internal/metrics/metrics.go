package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Turn metrics
	TurnsTotal          *prometheus.CounterVec
	TurnDurationSeconds *prometheus.HistogramVec

	// Tool metrics
	ToolRequestsTotal   *prometheus.CounterVec
	ToolDurationSeconds *prometheus.HistogramVec

	// Similarity search metrics
	SimilaritySearchesTotal  *prometheus.CounterVec
	SimilarityPassagesBelow  prometheus.Counter
	SimilarityDurationSecond prometheus.Histogram

	// Memory metrics
	MemoryEvictionsTotal prometheus.Counter
	MemorySessionsActive prometheus.Gauge

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		TurnsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_turns_total",
				Help: "Total number of chat turns by intent category and outcome",
			},
			[]string{"category", "status"}, // status: delivered, errored
		),

		TurnDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "advisor_turn_duration_seconds",
				Help:    "Chat turn duration in seconds by intent category",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"category"},
		),

		ToolRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_tool_requests_total",
				Help: "Total number of tool executions by tool and status",
			},
			[]string{"tool", "status"}, // status: success, error, timeout, not_found
		),

		ToolDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "advisor_tool_duration_seconds",
				Help:    "Tool execution duration in seconds by tool",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"tool"},
		),

		SimilaritySearchesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_similarity_searches_total",
				Help: "Total number of similarity-search calls by backend and status",
			},
			[]string{"backend", "status"}, // backend: bm25, vector, hybrid
		),

		SimilarityPassagesBelow: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "advisor_similarity_below_threshold_total",
				Help: "Searches where every passage scored below the minimum threshold",
			},
		),

		SimilarityDurationSecond: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "advisor_similarity_duration_seconds",
				Help:    "Similarity search duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
		),

		MemoryEvictionsTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "advisor_memory_evictions_total",
				Help: "Conversation memory entries evicted by the sliding window",
			},
		),

		MemorySessionsActive: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "advisor_memory_sessions_active",
				Help: "Number of student sessions with conversation memory",
			},
		),

		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_ratelimit_dropped_total",
				Help: "Requests dropped by rate limiting",
			},
			[]string{"scope"}, // scope: student, global
		),

		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_http_errors_total",
				Help: "HTTP error responses by endpoint and status code",
			},
			[]string{"endpoint", "code"},
		),
	}

	return m
}
