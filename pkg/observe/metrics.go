package observe

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/reactor/pkg/reactive"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "reactor").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for pass duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
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

// WithBuckets sets the pass duration histogram buckets.
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
		Namespace: "reactor",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a reactive.Observer that records propagation work as
// Prometheus metrics. One Metrics value may observe many runtimes.
type Metrics struct {
	passesTotal    prometheus.Counter
	passDuration   prometheus.Histogram
	dirtySetSize   prometheus.Histogram
	evaluations    *prometheus.CounterVec
	skipped        *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	budgetExceeded prometheus.Counter
}

// NewMetrics creates the observer and registers its metrics.
// It panics if the metrics are already registered on the registry, as
// promauto does.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	m := observe.NewMetrics(observe.WithRegistry(reg))
//	rt := reactive.New(reactive.WithObserver(m))
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		passesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "passes_total",
			Help:        "Total number of propagation passes",
			ConstLabels: config.ConstLabels,
		}),

		passDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_duration_seconds",
			Help:        "Propagation pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		dirtySetSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dirty_set_size",
			Help:        "Number of memos and effects scheduled per pass",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(1, 4, 8), // 1 to 16384
		}),

		evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "evaluations_total",
			Help:        "Total memo and effect evaluations",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "changed"}),

		skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "skipped_total",
			Help:        "Scheduled nodes that did not run, by reason",
			ConstLabels: config.ConstLabels,
		}, []string{"reason"}),

		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Total memo and effect failures by type",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "error_type"}),

		budgetExceeded: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "budget_exceeded_total",
			Help:        "Flushes or passes stopped by the propagation budget",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Observe implements reactive.Observer.
func (m *Metrics) Observe(e reactive.Event) {
	switch e.Kind {
	case reactive.EventPassStart:
		m.passesTotal.Inc()
		m.dirtySetSize.Observe(float64(e.DirtySize))
	case reactive.EventPassEnd:
		m.passDuration.Observe(e.Duration.Seconds())
	case reactive.EventEvaluate:
		changed := "false"
		if e.Changed || e.Node.Kind == reactive.KindEffect {
			changed = "true"
		}
		m.evaluations.WithLabelValues(e.Node.Kind.String(), changed).Inc()
	case reactive.EventSkip:
		m.skipped.WithLabelValues(e.Reason).Inc()
	case reactive.EventError:
		m.errorsTotal.WithLabelValues(e.Node.Kind.String(), categorizeError(e.Err)).Inc()
	case reactive.EventBudget:
		m.budgetExceeded.Inc()
	}
}

// categorizeError returns a category for the error type.
// This prevents high-cardinality labels from error messages.
func categorizeError(err error) string {
	var pe *reactive.PanicError
	switch {
	case err == nil:
		return "unknown"
	case errors.Is(err, reactive.ErrCyclicDependency):
		return "cycle"
	case errors.Is(err, reactive.ErrStaleHandle):
		return "stale_handle"
	case errors.Is(err, reactive.ErrBudgetExceeded):
		return "budget"
	case errors.As(err, &pe):
		return "panic"
	default:
		return "error"
	}
}
