package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes billing-domain instruments.
type Metrics struct {
	chargesGenerated  *prometheus.CounterVec
	paymentsVerified  *prometheus.CounterVec
	paymentsReverted  prometheus.Counter
	paymentsCancelled prometheus.Counter
	scheduleConflicts prometheus.Counter
	sharesSettled     prometheus.Counter
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		chargesGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "patungan_charges_generated_total",
			Help: "Charges created by the generator, by subscription frequency.",
		}, []string{"frequency"}),
		paymentsVerified: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "patungan_payments_verified_total",
			Help: "Payments transitioned to VERIFIED, by ledger effect.",
		}, []string{"ledger_effect"}),
		paymentsReverted: factory.NewCounter(prometheus.CounterOpts{
			Name: "patungan_payments_reverted_total",
			Help: "Verified payments reverted back to PENDING.",
		}),
		paymentsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "patungan_payments_cancelled_total",
			Help: "Pending payments cancelled.",
		}),
		scheduleConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "patungan_schedule_conflicts_total",
			Help: "Scheduled-date conflicts observed by the resolver.",
		}),
		sharesSettled: factory.NewCounter(prometheus.CounterOpts{
			Name: "patungan_charge_shares_settled_total",
			Help: "Charge shares that reached SETTLED.",
		}),
	}
}

func (m *Metrics) IncChargeGenerated(frequency string) {
	if m == nil {
		return
	}
	m.chargesGenerated.WithLabelValues(frequency).Inc()
}

func (m *Metrics) IncPaymentVerified(withLedgerEffect bool) {
	if m == nil {
		return
	}
	m.paymentsVerified.WithLabelValues(strconv.FormatBool(withLedgerEffect)).Inc()
}

func (m *Metrics) IncPaymentReverted() {
	if m == nil {
		return
	}
	m.paymentsReverted.Inc()
}

func (m *Metrics) IncPaymentCancelled() {
	if m == nil {
		return
	}
	m.paymentsCancelled.Inc()
}

func (m *Metrics) IncScheduleConflict() {
	if m == nil {
		return
	}
	m.scheduleConflicts.Inc()
}

func (m *Metrics) IncShareSettled() {
	if m == nil {
		return
	}
	m.sharesSettled.Inc()
}

// HTTPMetrics instruments the gin surface.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics() *HTTPMetrics {
	return NewHTTPMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func NewHTTPMetricsWithRegisterer(reg prometheus.Registerer) *HTTPMetrics {
	factory := promauto.With(reg)
	return &HTTPMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "patungan_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "patungan_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// GinMiddleware records request counts and latency per templated route.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.requests.WithLabelValues(route, c.Request.Method, status).Inc()
		m.duration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
