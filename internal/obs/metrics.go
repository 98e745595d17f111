package obs

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neexbeast/hotel-lister/internal/hotelbeds"
)

// Upstream call outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds every collector the service exports. All of them live on
// Registry rather than the global default registry.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec
	UpstreamRetriesTotal    *prometheus.CounterVec

	ViewsEmittedTotal *prometheus.CounterVec

	Registry *prometheus.Registry
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latencies",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		UpstreamRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hotelbeds_requests_total",
				Help: "Calls to the Hotelbeds APIs by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		UpstreamRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hotelbeds_request_duration_seconds",
				Help:    "Latency of Hotelbeds calls including retries",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"op"},
		),
		UpstreamRetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hotelbeds_retries_total",
				Help: "Retried Hotelbeds attempts",
			},
			[]string{"op"},
		),
		ViewsEmittedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hotel_views_emitted_total",
				Help: "Hotel views returned to clients by flow",
			},
			[]string{"flow"},
		),
		Registry: reg,
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.UpstreamRequestsTotal,
		m.UpstreamRequestDuration,
		m.UpstreamRetriesTotal,
		m.ViewsEmittedTotal,
	)

	return m
}

// ObserveUpstream records one completed Hotelbeds call. A failure is labelled
// with its error kind when the error carries one.
func (m *Metrics) ObserveUpstream(op string, d time.Duration, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
		if he := hotelbeds.AsError(err); he != nil {
			outcome = he.Kind.String()
		}
	}
	m.UpstreamRequestsTotal.WithLabelValues(op, outcome).Inc()
	m.UpstreamRequestDuration.WithLabelValues(op).Observe(d.Seconds())
}

// IncUpstreamRetry counts one retried Hotelbeds attempt.
func (m *Metrics) IncUpstreamRetry(op string) {
	m.UpstreamRetriesTotal.WithLabelValues(op).Inc()
}

// AddViews counts hotel views returned by a flow.
func (m *Metrics) AddViews(flow string, n int) {
	m.ViewsEmittedTotal.WithLabelValues(flow).Add(float64(n))
}

// ObserveHTTPRequest records one served HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, route, status string, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
