// Package metrics provides Prometheus metrics collection for hopgate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values for resolution metrics.
const (
	OutcomeMatched   = "matched"
	OutcomeDefault   = "default"
	OutcomeUnmatched = "unmatched"
	OutcomeError     = "error"
)

// Status label values for delegate metrics.
const (
	DelegateOK      = "ok"
	DelegateError   = "error"
	DelegateTimeout = "timeout"
)

// Collector holds all Prometheus metrics for hopgate.
type Collector struct {
	// Resolution metrics
	ResolutionsTotal *prometheus.CounterVec
	ResolveDuration  prometheus.Histogram

	// Delegate metrics
	DelegateInvocations *prometheus.CounterVec
	DelegateDuration    prometheus.Histogram

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
	RoutesActive       prometheus.Gauge

	// Hit log metrics
	HitsRecorded   prometheus.Counter
	HitFlushErrors prometheus.Counter
}

// New creates a new metrics collector registered on the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		ResolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hopgate",
				Name:      "resolutions_total",
				Help:      "Total number of query resolutions by outcome",
			},
			[]string{"outcome"},
		),
		ResolveDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "hopgate",
				Name:      "resolve_duration_seconds",
				Help:      "Query resolution duration in seconds, including delegate time",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 2.5, 5, 10},
			},
		),
		DelegateInvocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hopgate",
				Name:      "delegate_invocations_total",
				Help:      "Total number of delegate program invocations by status",
			},
			[]string{"status"},
		),
		DelegateDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "hopgate",
				Name:      "delegate_duration_seconds",
				Help:      "Delegate program wall-clock duration in seconds",
				Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "hopgate",
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "hopgate",
				Name:      "config_reload_errors_total",
				Help:      "Total number of rejected config reloads",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "hopgate",
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
		RoutesActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "hopgate",
				Name:      "routes_active",
				Help:      "Number of distinct keywords in the active route table",
			},
		),
		HitsRecorded: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "hopgate",
				Name:      "hits_recorded_total",
				Help:      "Total number of resolution hits buffered for the hit log",
			},
		),
		HitFlushErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "hopgate",
				Name:      "hit_flush_errors_total",
				Help:      "Total number of failed hit log flushes",
			},
		),
	}
}
