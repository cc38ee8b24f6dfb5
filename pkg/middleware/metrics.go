package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/remastered-go/remastered/pkg/fetch"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "remastered").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// Mode is the value of the mode label (default: "production").
	Mode string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
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

// WithMode sets the mode label value.
func WithMode(mode string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Mode = mode
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
		Namespace: "remastered",
		Mode:      "production",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the render metrics of one pipeline.
type Metrics struct {
	mode string

	rendersTotal   *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	renderErrors   *prometheus.CounterVec
	exportsTotal   *prometheus.CounterVec
}

// NewMetrics registers the render metrics with the configured registry.
// Registering twice with the same registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		mode: config.Mode,

		rendersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of rendered requests",
			ConstLabels: config.ConstLabels,
		}, []string{"mode", "status"}),

		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Render duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"mode"}),

		renderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_errors_total",
			Help:        "Total number of renders answered with a server error",
			ConstLabels: config.ConstLabels,
		}, []string{"mode"}),

		exportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "static_exports_total",
			Help:        "Static export lookups by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),
	}
}

// Middleware returns the metrics middleware.
func (m *Metrics) Middleware() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *fetch.Request) *fetch.Response {
			start := time.Now()
			resp := next.Serve(ctx, req)
			m.renderDuration.WithLabelValues(m.mode).Observe(time.Since(start).Seconds())

			status := 0
			if resp != nil {
				status = resp.Status
			}
			if status >= 500 || resp == nil {
				m.renderErrors.WithLabelValues(m.mode).Inc()
			}
			m.rendersTotal.WithLabelValues(m.mode, strconv.Itoa(status)).Inc()
			return resp
		})
	}
}

// RecordExport counts one static export lookup. result is one of hit,
// miss, corrupt or skipped.
func (m *Metrics) RecordExport(result string) {
	if m != nil {
		m.exportsTotal.WithLabelValues(result).Inc()
	}
}

// Prometheus creates a metrics middleware with its own metric set.
func Prometheus(opts ...MetricsOption) Middleware {
	return NewMetrics(opts...).Middleware()
}
