// Package metrics exposes Prometheus metrics for the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Labels: method, path, status. Path is the route template, not the raw
	// URL, to keep cardinality bounded.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)
)

// RecordHTTPMetrics updates the duration histogram and request counter.
func RecordHTTPMetrics(method, path string, status int, duration time.Duration) {
	statusStr := strconv.Itoa(status)
	httpRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration.Seconds())
	httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
}

// IncrementInFlight increments the in-flight requests gauge.
func IncrementInFlight() { httpRequestsInFlight.Inc() }

// DecrementInFlight decrements the in-flight requests gauge.
func DecrementInFlight() { httpRequestsInFlight.Dec() }

// Registry is the central place to register collectors and expose them over
// HTTP. HTTP and Go runtime metrics are registered by default.
type Registry struct {
	registry *prometheus.Registry
}

// NewRegistry creates a registry with the default collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(httpRequestDuration)
	reg.MustRegister(httpRequestsTotal)
	reg.MustRegister(httpRequestsInFlight)
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return &Registry{registry: reg}
}

// MustRegister registers custom collectors, panicking on conflict.
func (r *Registry) MustRegister(collectors ...prometheus.Collector) {
	r.registry.MustRegister(collectors...)
}

// Handler returns the Prometheus exposition handler, mounted on the
// management endpoints at /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
