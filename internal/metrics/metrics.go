// Package metrics exposes prometheus collectors for gateway calls and
// inbound notifications. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lakala"

type Metrics struct {
	gatewayRequests *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
	notifications   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		gatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_requests_total",
			Help:      "Signed requests sent to the payment gateway.",
		}, []string{"method", "path", "outcome"}),
		gatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Round trip time of gateway requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Inbound payment notifications by handling result.",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(m.gatewayRequests, m.gatewayDuration, m.notifications)
	}
	return m
}

func (m *Metrics) ObserveGatewayCall(method, path, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.gatewayRequests.WithLabelValues(method, path, outcome).Inc()
	m.gatewayDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) ObserveNotification(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
