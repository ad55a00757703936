package payment

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the RED-style instruments for the payment workflow. A nil
// *Metrics is a valid no-op, which keeps tests free of registry plumbing.
type Metrics struct {
	sessionsStarted prometheus.Counter
	sessionsClosed  *prometheus.CounterVec
	sessionDuration *prometheus.HistogramVec
	pollChecks      prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payment_sessions_started_total",
			Help: "Total number of payment sessions started, retries included.",
		}),
		sessionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_sessions_closed_total",
			Help: "Payment sessions that reached a terminal status.",
		}, []string{"status"}),
		sessionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payment_session_duration_seconds",
			Help:    "Time from session start to terminal status in seconds.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"status"}),
		pollChecks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payment_poll_checks_total",
			Help: "Total number of QR status checks issued against the gateway.",
		}),
	}
}

// Collectors returns the instruments for registration in main.
func (m *Metrics) Collectors() []prometheus.Collector {
	if m == nil {
		return nil
	}
	return []prometheus.Collector{m.sessionsStarted, m.sessionsClosed, m.sessionDuration, m.pollChecks}
}

func (m *Metrics) started() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

func (m *Metrics) closed(status string, seconds float64) {
	if m == nil {
		return
	}
	m.sessionsClosed.WithLabelValues(status).Inc()
	m.sessionDuration.WithLabelValues(status).Observe(seconds)
}

func (m *Metrics) pollCheck() {
	if m == nil {
		return
	}
	m.pollChecks.Inc()
}
