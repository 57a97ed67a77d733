package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "report_builder"

// Metrics holds the Prometheus counters, histograms, and gauges for the report builder.
type Metrics struct {
	BuildRequests      *prometheus.CounterVec // labels: outcome={started,ignored,invalid}
	Generations        *prometheus.CounterVec // labels: outcome={ready,failed}
	StaleResults       prometheus.Counter
	Invalidations      prometheus.Counter
	GenerationDuration prometheus.Histogram
	SessionsActive     prometheus.Gauge

	// Report backend metrics.
	ReportCache       *prometheus.CounterVec // labels: result={hit,miss}
	ReportAPIDuration prometheus.Histogram

	// Event publishing metrics.
	EventsPublished prometheus.Counter
	EventsDropped   prometheus.Counter
	PublishErrors   prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.BuildRequests,
		m.Generations,
		m.StaleResults,
		m.Invalidations,
		m.GenerationDuration,
		m.SessionsActive,
		m.ReportCache,
		m.ReportAPIDuration,
		m.EventsPublished,
		m.EventsDropped,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		BuildRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "build_requests_total",
			Help:      "Report build requests by outcome.",
		}, []string{"outcome"}),
		Generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Completed report generations by outcome.",
		}, []string{"outcome"}),
		StaleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_results_total",
			Help:      "Generation results discarded because a newer request superseded them.",
		}),
		Invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalidations_total",
			Help:      "Links or failures reset to idle by a filter change.",
		}),
		GenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Time from build request to applied result, including the minimum display floor.",
			Buckets:   []float64{0.1, 0.5, 1, 1.5, 2, 5, 10, 30},
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of open report sessions.",
		}),
		ReportCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_total",
			Help:      "Report link cache lookups by result.",
		}, []string{"result"}),
		ReportAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_api_duration_seconds",
			Help:      "Report backend request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Report events written to the events topic.",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Report events dropped because the publish buffer was full.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed event batch writes.",
		}),
	}
}
