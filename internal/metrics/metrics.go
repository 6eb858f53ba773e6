// Package metrics holds the Prometheus collectors for the HTTP surface and
// the booking core.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "farmgear"

type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	httpInFlight     prometheus.Gauge
	ordersCreated    prometheus.Counter
	orderTransitions *prometheus.CounterVec
	settlements      *prometheus.CounterVec
	callbacks        *prometheus.CounterVec
	staleExpired     prometheus.Counter
}

// New builds a Metrics with its own registry, including process and Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		httpInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests being served",
			},
		),
		ordersCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_created_total",
				Help:      "Orders created",
			},
		),
		orderTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "order_transitions_total",
				Help:      "Committed order status transitions by target status",
			},
			[]string{"to"},
		),
		settlements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payment_settlements_total",
				Help:      "Payments settled, by path",
			},
			[]string{"source"},
		),
		callbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payment_callbacks_total",
				Help:      "Gateway callbacks received, by outcome",
			},
			[]string{"result"},
		),
		staleExpired: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stale_orders_expired_total",
				Help:      "Pending orders rejected because their start date passed",
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.httpInFlight,
		m.ordersCreated,
		m.orderTransitions,
		m.settlements,
		m.callbacks,
		m.staleExpired,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// The Observe helpers are no-ops on a nil *Metrics so callers need not care
// whether metrics are wired.

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) RequestStarted() {
	if m != nil {
		m.httpInFlight.Inc()
	}
}

func (m *Metrics) RequestFinished() {
	if m != nil {
		m.httpInFlight.Dec()
	}
}

func (m *Metrics) OrderCreated() {
	if m != nil {
		m.ordersCreated.Inc()
	}
}

func (m *Metrics) OrderTransitioned(to string) {
	if m != nil {
		m.orderTransitions.WithLabelValues(to).Inc()
	}
}

func (m *Metrics) OrderTransitionedN(to string, n int) {
	if m != nil && n > 0 {
		m.orderTransitions.WithLabelValues(to).Add(float64(n))
	}
}

func (m *Metrics) PaymentSettled(source string) {
	if m != nil {
		m.settlements.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) CallbackHandled(result string) {
	if m != nil {
		m.callbacks.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) StaleOrdersExpired(n int) {
	if m != nil && n > 0 {
		m.staleExpired.Add(float64(n))
	}
}
