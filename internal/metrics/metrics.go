// Package metrics exposes Prometheus collectors for the HTTP surface and
// the marketplace lifecycle.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec

	transitions     *prometheus.CounterVec
	quotesAccepted  prometheus.Counter
	quotesExpired   prometheus.Counter
	bookingConflict prometheus.Counter
	eventsPublished *prometheus.CounterVec
}

// New registers every collector on a fresh registry together with the Go
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fixer", Name: "http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fixer", Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fixer", Name: "status_transitions_total",
			Help: "Applied lifecycle transitions by entity and target status.",
		}, []string{"entity", "to"}),
		quotesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fixer", Name: "quotes_accepted_total",
			Help: "Quotes accepted by customers.",
		}),
		quotesExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fixer", Name: "quotes_expired_total",
			Help: "Pending quotes moved to expired by the sweeper.",
		}),
		bookingConflict: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fixer", Name: "booking_conflicts_total",
			Help: "Booking attempts rejected because the provider was busy.",
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fixer", Name: "events_published_total",
			Help: "Domain events handed to the broker, by queue and result.",
		}, []string{"queue", "result"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency, m.transitions, m.quotesAccepted, m.quotesExpired,
		m.bookingConflict, m.eventsPublished,
	)
	return m
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Middleware records request counts and latency keyed by the route
// pattern, not the raw path, so ids do not explode cardinality.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.requests.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
			m.latency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// Transition counts an applied status change.  A nil receiver is a no-op
// so services can run without metrics.
func (m *Metrics) Transition(entity, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(entity, to).Inc()
}

func (m *Metrics) QuoteAccepted() {
	if m == nil {
		return
	}
	m.quotesAccepted.Inc()
}

func (m *Metrics) QuotesExpired(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.quotesExpired.Add(float64(n))
}

func (m *Metrics) BookingConflict() {
	if m == nil {
		return
	}
	m.bookingConflict.Inc()
}

// EventPublished records a publish attempt.
func (m *Metrics) EventPublished(queue string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.eventsPublished.WithLabelValues(queue, result).Inc()
}
