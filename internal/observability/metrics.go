// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Classification metrics
	ClassificationsComputed prometheus.Counter
	ClassificationErrors    *prometheus.CounterVec
	ClassifyDuration        prometheus.Histogram
	RiskLevelAssigned       *prometheus.CounterVec

	// Cache metrics
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	InflightShared prometheus.Counter

	// Benchmark metrics
	BenchmarkIngests  prometheus.Counter
	BenchmarkCorpus   *prometheus.GaugeVec
	PercentileQueries prometheus.Counter
	CompareRequests   prometheus.Counter

	// Stream metrics
	StreamSubscribers prometheus.Gauge
	StreamBroadcasts  prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "token_risk_engine"
	}

	return &Metrics{
		ClassificationsComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "classifications_computed_total",
			Help:      "Total number of classifications computed (cache misses and forced refreshes)",
		}),
		ClassificationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "classification_errors_total",
			Help:      "Total number of classification failures by type",
		}, []string{"error_type"}),
		ClassifyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "classify_duration_seconds",
			Help:      "Classification computation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		RiskLevelAssigned: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "risk_level_assigned_total",
			Help:      "Total number of classifications by assigned risk level",
		}, []string{"risk_level"}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of classify calls served from cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of classify calls requiring computation",
		}),
		InflightShared: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "inflight_shared_total",
			Help:      "Total number of classify calls that waited on an in-flight computation",
		}),

		BenchmarkIngests: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "benchmark",
			Name:      "ingests_total",
			Help:      "Total number of benchmark ingestion batches applied",
		}),
		BenchmarkCorpus: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "benchmark",
			Name:      "corpus_size",
			Help:      "Current benchmark corpus size by category",
		}, []string{"category"}),
		PercentileQueries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "benchmark",
			Name:      "percentile_queries_total",
			Help:      "Total number of percentile queries answered",
		}),
		CompareRequests: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "compare_requests_total",
			Help:      "Total number of compare requests served",
		}),

		StreamSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "subscribers",
			Help:      "Current number of websocket subscribers",
		}),
		StreamBroadcasts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "broadcasts_total",
			Help:      "Total number of classifications broadcast to subscribers",
		}),
	}
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
