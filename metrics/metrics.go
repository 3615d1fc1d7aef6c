// Package metrics provides Prometheus metrics for the wikiread MCP server.
// It tracks tool calls, wiki API round-trips, parsed content sizes and errors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const (
	Namespace = "wikiread"
)

var (
	// RequestsTotal counts total MCP tool calls by tool name and status
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "requests_total",
		Help:      "Total number of MCP tool calls",
	}, []string{"tool", "status"})

	// RequestDuration measures request latency distribution
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "request_duration_seconds",
		Help:      "Request latency distribution by tool",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"tool"})

	// RequestInFlight tracks currently executing requests
	RequestInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "requests_in_flight",
		Help:      "Number of requests currently being processed",
	}, []string{"tool"})

	// PanicsRecovered counts recovered panics
	PanicsRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "panics_recovered_total",
		Help:      "Number of panics recovered in tool handlers",
	}, []string{"tool"})

	// WikiAPILatency measures wiki round-trip latency by operation
	WikiAPILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "wiki_api_latency_seconds",
		Help:      "Wiki API call latency by operation",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	// WikiAPIRequestsTotal counts wiki API requests
	WikiAPIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "wiki_api_requests_total",
		Help:      "Total wiki API requests by operation and status",
	}, []string{"operation", "status"})

	// WikiAPIErrors counts wiki API failures by error kind
	WikiAPIErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "wiki_api_errors_total",
		Help:      "Wiki API errors by operation and error kind",
	}, []string{"operation", "kind"})

	// ContentSize tracks fetched body sizes
	ContentSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "content_size_bytes",
		Help:      "Content size distribution in bytes",
		Buckets:   []float64{100, 1000, 10000, 50000, 100000, 250000, 500000, 1000000},
	}, []string{"operation"})

	// SearchHits tracks how many hits a search page returned
	SearchHits = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "search_hits",
		Help:      "Number of hits per search response page",
		Buckets:   []float64{0, 1, 5, 10, 20, 50, 100, 500},
	})
)

// RecordRequest records a completed request with its duration and status
func RecordRequest(tool string, duration float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	RequestsTotal.WithLabelValues(tool, status).Inc()
	RequestDuration.WithLabelValues(tool).Observe(duration)
}

// RecordAPICall records a wiki API call. errorKind is empty on success.
func RecordAPICall(operation string, duration float64, success bool, errorKind string) {
	status := "success"
	if !success {
		status = "error"
	}
	WikiAPIRequestsTotal.WithLabelValues(operation, status).Inc()
	WikiAPILatency.WithLabelValues(operation).Observe(duration)
	if errorKind != "" {
		WikiAPIErrors.WithLabelValues(operation, errorKind).Inc()
	}
}

// RecordContentSize records the size of a fetched body
func RecordContentSize(operation string, size int) {
	ContentSize.WithLabelValues(operation).Observe(float64(size))
}

// RecordSearchHits records the hit count of one search page
func RecordSearchHits(n int) {
	SearchHits.Observe(float64(n))
}
