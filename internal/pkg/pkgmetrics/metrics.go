package pkgmetrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "csv_analyzer"

//nolint:gochecknoglobals // collectors are process wide
var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, matched route and status code.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and matched route.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"method", "route"})

	chartsRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "charts_rendered_total",
		Help:      "Charts written to disk by chart kind.",
	}, []string{"kind"})

	chartFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chart_failures_total",
		Help:      "Per-column chart renders that failed and were skipped.",
	}, []string{"kind"})

	llmRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_requests_total",
		Help:      "Chat completion calls by outcome.",
	}, []string{"outcome"})

	llmDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "llm_request_duration_seconds",
		Help:      "Chat completion call latency.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~50s
	})

	datasetsStored = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "datasets_stored",
		Help:      "Datasets currently held in memory.",
	})

	panicsRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_panics_recovered_total",
		Help:      "Handler panics turned into 500 responses, by matched route.",
	}, []string{"route"})

	datasetsEvicted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "datasets_evicted_total",
		Help:      "Datasets removed from memory by reason.",
	}, []string{"reason"})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTP records one served request.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ChartRendered counts a chart written to disk.
func ChartRendered(kind string) {
	chartsRendered.WithLabelValues(kind).Inc()
}

// ChartFailed counts a chart render that was skipped after an error.
func ChartFailed(kind string) {
	chartFailures.WithLabelValues(kind).Inc()
}

// LLMRequest records a chat completion call; outcome is "ok" or a failure class.
func LLMRequest(outcome string, elapsed time.Duration) {
	llmRequests.WithLabelValues(outcome).Inc()
	llmDuration.Observe(elapsed.Seconds())
}

// DatasetStored adjusts the stored datasets gauge by delta.
func DatasetStored(delta int) {
	datasetsStored.Add(float64(delta))
}

// DatasetEvicted counts an eviction with the given reason ("retention", "delete", "rollback").
func DatasetEvicted(reason string) {
	datasetsEvicted.WithLabelValues(reason).Inc()
}

// PanicRecovered counts a handler panic on route.
func PanicRecovered(route string) {
	panicsRecovered.WithLabelValues(route).Inc()
}
