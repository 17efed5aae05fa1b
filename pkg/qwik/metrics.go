package qwik

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the scheduler's Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "qwik").
	Namespace string

	// Subsystem is the metrics subsystem (default: "scheduler").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for flush duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the scheduler metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the flush duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "qwik",
		Subsystem: "scheduler",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the scheduler's Prometheus collectors. A nil *Metrics is
// valid everywhere and records nothing.
type Metrics struct {
	choresScheduled *prometheus.CounterVec
	choresCoalesced *prometheus.CounterVec
	choresExecuted  *prometheus.CounterVec
	flushDuration   prometheus.Histogram
	taskRetries     prometheus.Counter
}

// NewMetrics creates and registers the scheduler metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	cfg := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	factory := promauto.With(cfg.Registry)

	return &Metrics{
		choresScheduled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "chores_scheduled_total",
			Help:        "Chores enqueued, by kind.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"kind"}),
		choresCoalesced: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "chores_coalesced_total",
			Help:        "Chores that replaced a pending chore for the same key instead of enqueuing.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"kind"}),
		choresExecuted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "chores_executed_total",
			Help:        "Chores executed, by kind.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"kind"}),
		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Time spent draining the chore queue to a fixed point.",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}),
		taskRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "task_retries_total",
			Help:        "Task runs re-enqueued after suspending on an unsettled value.",
			ConstLabels: cfg.ConstLabels,
		}),
	}
}

func (m *Metrics) choreScheduled(kind ChoreKind) {
	if m == nil {
		return
	}
	m.choresScheduled.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) choreCoalesced(kind ChoreKind) {
	if m == nil {
		return
	}
	m.choresCoalesced.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) choreExecuted(kind ChoreKind) {
	if m == nil {
		return
	}
	m.choresExecuted.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) flushObserved(d time.Duration) {
	if m == nil {
		return
	}
	m.flushDuration.Observe(d.Seconds())
}

func (m *Metrics) taskRetried() {
	if m == nil {
		return
	}
	m.taskRetries.Inc()
}
