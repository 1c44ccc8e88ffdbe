package form

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus collectors of a form.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "regform").
	Namespace string

	// Subsystem is the metrics subsystem (default: "form").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for async validation and submit
	// durations. Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures MetricsConfig.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
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
		Namespace: "regform",
		Subsystem: "form",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors for validation and submission.
// A nil *Metrics records nothing.
type Metrics struct {
	syncValidations *prometheus.CounterVec
	asyncStarted    *prometheus.CounterVec
	asyncResults    *prometheus.CounterVec
	asyncDuration   *prometheus.HistogramVec
	debounceResets  *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	submitIgnored   *prometheus.CounterVec
	submitDuration  prometheus.Histogram
}

// NewMetrics creates and registers the form collectors.
// Registering twice against the same registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		syncValidations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sync_validations_total",
			Help:        "Synchronous field validations by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"field", "result"}),

		asyncStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "async_validations_started_total",
			Help:        "Asynchronous validations dispatched after the debounce delay",
			ConstLabels: config.ConstLabels,
		}, []string{"field"}),

		asyncResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "async_validation_results_total",
			Help:        "Asynchronous validation results (valid, invalid, stale, canceled)",
			ConstLabels: config.ConstLabels,
		}, []string{"field", "result"}),

		asyncDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "async_validation_duration_seconds",
			Help:        "Asynchronous validation duration in seconds",
			Buckets:     config.Buckets,
			ConstLabels: config.ConstLabels,
		}, []string{"field"}),

		debounceResets: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "debounce_resets_total",
			Help:        "Pending debounce timers cancelled by a newer change",
			ConstLabels: config.ConstLabels,
		}, []string{"field"}),

		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "submissions_total",
			Help:        "Submit actions run, by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		submitIgnored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "submits_ignored_total",
			Help:        "Submit requests ignored, by reason",
			ConstLabels: config.ConstLabels,
		}, []string{"reason"}),

		submitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "submit_duration_seconds",
			Help:        "Submit action duration in seconds",
			Buckets:     config.Buckets,
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) recordSync(field string, valid bool) {
	if m == nil {
		return
	}
	m.syncValidations.WithLabelValues(field, validLabel(valid)).Inc()
}

func (m *Metrics) recordAsyncStart(field string) {
	if m == nil {
		return
	}
	m.asyncStarted.WithLabelValues(field).Inc()
}

func (m *Metrics) recordAsyncResult(field, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.asyncResults.WithLabelValues(field, result).Inc()
	m.asyncDuration.WithLabelValues(field).Observe(d.Seconds())
}

func (m *Metrics) recordDebounceReset(field string) {
	if m == nil {
		return
	}
	m.debounceResets.WithLabelValues(field).Inc()
}

func (m *Metrics) recordSubmit(err error, d time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.submissions.WithLabelValues(result).Inc()
	m.submitDuration.Observe(d.Seconds())
}

func (m *Metrics) recordSubmitIgnored(reason string) {
	if m == nil {
		return
	}
	m.submitIgnored.WithLabelValues(reason).Inc()
}

func validLabel(valid bool) string {
	if valid {
		return "valid"
	}
	return "invalid"
}
