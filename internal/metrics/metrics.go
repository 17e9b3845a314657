package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records HTTP traffic, backend calls and user-facing notices.
type Metrics struct {
	gatherer prometheus.Gatherer

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	backendCalls    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	notices         *prometheus.CounterVec
}

// New registers the storefront metrics on reg. A nil registry yields a
// no-op Metrics.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests handled, by route and status.",
	}, []string{"method", "route", "status"})
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	backendCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backend_calls_total",
		Help: "Calls made to the commerce backend, by endpoint and status.",
	}, []string{"endpoint", "status"})
	backendDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backend_call_duration_seconds",
		Help:    "Duration of commerce backend calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	notices := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "view_notices_total",
		Help: "Notices shown to users, by screen and kind.",
	}, []string{"screen", "kind"})

	reg.MustRegister(
		requests, requestDuration, backendCalls, backendDuration, notices,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{
		gatherer:        reg,
		requests:        requests,
		requestDuration: requestDuration,
		backendCalls:    backendCalls,
		backendDuration: backendDuration,
		notices:         notices,
	}
}

// ObserveRequest records one handled HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	route = normalizeLabel(route)
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveBackendCall records one backend call. Status 0 means the call
// failed before a response arrived.
func (m *Metrics) ObserveBackendCall(endpoint string, status int, duration time.Duration) {
	if m == nil || m.backendCalls == nil {
		return
	}
	endpoint = normalizeLabel(endpoint)
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.backendCalls.WithLabelValues(endpoint, code).Inc()
	m.backendDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// IncNotice counts a notice of the given kind on a screen.
func (m *Metrics) IncNotice(screen, kind string) {
	if m == nil || m.notices == nil {
		return
	}
	m.notices.WithLabelValues(normalizeLabel(screen), normalizeLabel(kind)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
