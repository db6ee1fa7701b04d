package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reflections"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	enrichmentRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "runs_total",
			Help:      "Enrichment pipeline runs by outcome.",
		},
		[]string{"outcome"},
	)

	enrichmentDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "run_duration_seconds",
			Help:      "Duration of enrichment pipeline runs.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~50s
		},
	)

	enrichmentInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "inflight_runs",
			Help:      "Enrichment runs currently executing.",
		},
	)

	entriesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "entries",
			Name:      "created_total",
			Help:      "Diary entries created.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		enrichmentRuns,
		enrichmentDuration,
		enrichmentInFlight,
		entriesCreated,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RequestStarted increments the in-flight gauge and returns a func that
// records the finished request.
func RequestStarted() func(method, route, status string) {
	start := time.Now()
	httpInFlight.Inc()
	return func(method, route, status string) {
		httpInFlight.Dec()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(method, route, status).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Enrichment outcomes.
const (
	OutcomeSucceeded   = "succeeded"
	OutcomeParseFailed = "parse_failed"
	OutcomeFailed      = "failed"
)

// EnrichmentStarted marks a pipeline run and returns its completion recorder.
func EnrichmentStarted() func(outcome string) {
	start := time.Now()
	enrichmentInFlight.Inc()
	return func(outcome string) {
		enrichmentInFlight.Dec()
		enrichmentRuns.WithLabelValues(outcome).Inc()
		enrichmentDuration.Observe(time.Since(start).Seconds())
	}
}

// EntryCreated counts a successful entry insert.
func EntryCreated() {
	entriesCreated.Inc()
}
