package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the HTTP and domain collectors of one process.
type Metrics struct {
	ServiceName string

	RequestCounter           *prometheus.CounterVec
	RequestDurationHistogram *prometheus.HistogramVec

	InvitesSent                 *prometheus.CounterVec
	RemindersSent               prometheus.Counter
	InstallmentPaymentsLaunched prometheus.Counter
	VersionConflicts            prometheus.Counter
	OverdueInstallmentsMarked   prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg.
func New(serviceName string, reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		ServiceName: serviceName,
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"service", "method", "path", "status"},
		),
		RequestDurationHistogram: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "method", "path", "status"},
		),
		InvitesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tripdesk_invites_sent_total",
				Help: "Invites issued, by whether an open invite was reused",
			},
			[]string{"reused"},
		),
		RemindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripdesk_reminder_emails_sent_total",
			Help: "Reminder emails handed to the SMTP server",
		}),
		InstallmentPaymentsLaunched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripdesk_installment_payments_launched_total",
			Help: "Installments marked as paid",
		}),
		VersionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripdesk_payment_version_conflicts_total",
			Help: "Payment commands rejected for a stale version",
		}),
		OverdueInstallmentsMarked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripdesk_installments_marked_overdue_total",
			Help: "Installments moved to overdue by the background job",
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.RequestCounter,
		m.RequestDurationHistogram,
		m.InvitesSent,
		m.RemindersSent,
		m.InstallmentPaymentsLaunched,
		m.VersionConflicts,
		m.OverdueInstallmentsMarked,
	)
	return m
}

// Middleware records request count and latency per route.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// the error handler writes the response so the recorded status is final
			if err := next(c); err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			method := c.Request().Method
			path := c.Path()
			statusStr := strconv.Itoa(status)

			m.RequestCounter.WithLabelValues(m.ServiceName, method, path, statusStr).Inc()
			m.RequestDurationHistogram.WithLabelValues(m.ServiceName, method, path, statusStr).
				Observe(time.Since(start).Seconds())

			return nil
		}
	}
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// The helpers below accept a nil receiver so services can run without metrics.

func (m *Metrics) InviteSent(reused bool) {
	if m == nil {
		return
	}
	m.InvitesSent.WithLabelValues(strconv.FormatBool(reused)).Inc()
}

func (m *Metrics) ReminderSent() {
	if m == nil {
		return
	}
	m.RemindersSent.Inc()
}

func (m *Metrics) InstallmentPaid() {
	if m == nil {
		return
	}
	m.InstallmentPaymentsLaunched.Inc()
}

func (m *Metrics) VersionConflict() {
	if m == nil {
		return
	}
	m.VersionConflicts.Inc()
}

func (m *Metrics) OverdueMarked(n int) {
	if m == nil || n == 0 {
		return
	}
	m.OverdueInstallmentsMarked.Add(float64(n))
}
