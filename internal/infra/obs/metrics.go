package obs

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	handlersupport "rentnow/internal/app/handlers/support"
)

const namespace = "rentnow"

// Metrics backs handler outcomes and HTTP traffic with a private Prometheus registry.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
	availabilityChecks  *prometheus.CounterVec
	bookingCreates      *prometheus.CounterVec
	bookingTransitions  *prometheus.CounterVec
	paymentsRecorded    *prometheus.CounterVec
	outboxPublished     *prometheus.CounterVec
	paymentEventsIngest *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry:            prometheus.NewRegistry(),
		httpRequests:        counter("http_requests_total", "HTTP requests by route, method and status.", "route", "method", "status"),
		availabilityChecks:  counter("availability_checks_total", "Availability checks by result.", "result"),
		bookingCreates:      counter("booking_create_total", "Booking create attempts by outcome.", "outcome"),
		bookingTransitions:  counter("booking_transitions_total", "Booking status transitions.", "from", "to"),
		paymentsRecorded:    counter("payments_recorded_total", "Payment status updates applied.", "status"),
		outboxPublished:     counter("outbox_published_total", "Outbox records handed to the broker, by result.", "result"),
		paymentEventsIngest: counter("payment_events_consumed_total", "Payment provider events consumed, by result.", "result"),
	}
	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.availabilityChecks, m.bookingCreates,
		m.bookingTransitions, m.paymentsRecorded, m.outboxPublished, m.paymentEventsIngest,
	)
	return m
}

func counter(name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help}, labels)
}

// RegisterDB exports connection pool stats for db.
func (m *Metrics) RegisterDB(db *sql.DB, name string) error {
	return m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// HTTP records per-route counters. Unmatched routes share one label.
func (m *Metrics) HTTP() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) AvailabilityChecked(conflict bool) {
	result := "available"
	if conflict {
		result = "conflict"
	}
	m.availabilityChecks.WithLabelValues(result).Inc()
}

func (m *Metrics) BookingCreated(outcome string) {
	m.bookingCreates.WithLabelValues(outcome).Inc()
}

func (m *Metrics) BookingTransition(from, to string) {
	if from == to {
		return
	}
	m.bookingTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) PaymentRecorded(status string) {
	m.paymentsRecorded.WithLabelValues(status).Inc()
}

func (m *Metrics) OutboxPublished(ok bool) {
	m.outboxPublished.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) PaymentEventConsumed(outcome string) {
	m.paymentEventsIngest.WithLabelValues(outcome).Inc()
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

var _ handlersupport.Metrics = (*Metrics)(nil)
