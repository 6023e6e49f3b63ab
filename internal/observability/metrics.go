// Package observability holds the console's Prometheus collectors.
//
// Labels stay bounded: routes are chi route patterns or backend path
// templates, never raw URLs.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records page traffic and backend calls on its own registry
type Metrics struct {
	registry *prometheus.Registry

	pageRequests *prometheus.CounterVec
	pageLatency  *prometheus.HistogramVec
	inflight     prometheus.Gauge

	backendCalls   *prometheus.CounterVec
	backendLatency *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pageRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_http_requests_total",
				Help: "Total number of console HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		pageLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_http_request_duration_seconds",
				Help:    "Duration of console HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		inflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "console_http_requests_inflight",
				Help: "Current number of in-flight console requests.",
			},
		),
		backendCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_backend_requests_total",
				Help: "Total number of requests sent to the automation backend.",
			},
			[]string{"method", "route", "status"},
		),
		backendLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_backend_request_duration_seconds",
				Help:    "Duration of automation backend requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	m.registry.MustRegister(
		m.pageRequests, m.pageLatency, m.inflight,
		m.backendCalls, m.backendLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveBackendCall records one backend request. Status "0" means the
// request never got a response.
func (m *Metrics) ObserveBackendCall(method, route string, status int, elapsed time.Duration) {
	m.backendCalls.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.backendLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Middleware instruments console requests. Unmatched requests are labelled
// "unmatched".
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.inflight.Inc()
		defer m.inflight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.pageRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.pageLatency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
