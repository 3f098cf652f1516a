// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cycle outcomes.
const (
	CycleOK      = "ok"
	CycleSkipped = "skipped"
)

// Metrics holds all Prometheus metrics of the poller. Each instance owns a
// private registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	// Cycle metrics
	CyclesTotal         *prometheus.CounterVec
	CycleDuration       prometheus.Histogram
	LastSuccessfulCycle prometheus.Gauge
	FetchRetries        prometheus.Counter
	TokensProcessed     prometheus.Counter
	TokensSkipped       *prometheus.CounterVec
	DuplicatesInBatch   prometheus.Counter

	// Decision metrics
	GemsDetected   prometheus.Counter
	Decisions      *prometheus.CounterVec
	ScoreHistogram prometheus.Histogram

	// Collaborator errors
	NotifierErrors *prometheus.CounterVec
	StoreErrors    *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "gemwatch"
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		// Cycle metrics
		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "cycles_total",
			Help:      "Total number of poll cycles by outcome",
		}, []string{"status"}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of one poll cycle",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		LastSuccessfulCycle: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "last_successful_cycle_timestamp_seconds",
			Help:      "Unix time of the last cycle that processed a batch",
		}),
		FetchRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "fetch_retries_total",
			Help:      "Total number of retried batch fetches",
		}),
		TokensProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "tokens_processed_total",
			Help:      "Total number of tokens scored",
		}),
		TokensSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "tokens_skipped_total",
			Help:      "Total number of tokens skipped by reason",
		}, []string{"reason"}),
		DuplicatesInBatch: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "batch_duplicates_total",
			Help:      "Total number of repeated addresses dropped within a batch",
		}),

		// Decision metrics
		GemsDetected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "gems_detected_total",
			Help:      "Total number of tokens at or above the score threshold",
		}),
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "decisions_total",
			Help:      "Total number of notification decisions by reason",
		}, []string{"reason"}),
		ScoreHistogram: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "gem_score",
			Help:      "Distribution of gem scores",
			Buckets:   prometheus.LinearBuckets(0, 1, 12),
		}),

		// Collaborator errors
		NotifierErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "errors_total",
			Help:      "Total number of failed deliveries by target",
		}, []string{"target"}),
		StoreErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "errors_total",
			Help:      "Total number of store failures by operation",
		}, []string{"operation"}),
	}
}

// Registry returns the registry the metrics live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// NewServer serves Handler at /metrics on addr.
func (m *Metrics) NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ObserveCycle records the outcome and duration of one cycle.
func (m *Metrics) ObserveCycle(status string, started, finished time.Time) {
	m.CyclesTotal.WithLabelValues(status).Inc()
	m.CycleDuration.Observe(finished.Sub(started).Seconds())
	if status == CycleOK {
		m.LastSuccessfulCycle.Set(float64(finished.Unix()))
	}
}
