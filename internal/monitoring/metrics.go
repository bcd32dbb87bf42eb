// Package monitoring exposes the storefront's Prometheus metrics.
package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	paymentAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_payment_attempts_total",
			Help: "Payment attempts by terminal state",
		},
		[]string{"state"},
	)

	ticketVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_ticket_verifications_total",
			Help: "QR ticket verifications by result",
		},
		[]string{"result"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func ObservePayment(state string) {
	paymentAttempts.WithLabelValues(state).Inc()
}

func ObserveVerification(result string) {
	ticketVerifications.WithLabelValues(result).Inc()
}

func ObserveHTTP(method, route string, status int, d time.Duration) {
	httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
