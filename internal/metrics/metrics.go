// README: Prometheus collectors for HTTP traffic and ride lifecycle events.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ryde"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	rideTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ride_transitions_total",
			Help:      "Ride status changes by target status",
		},
		[]string{"to"},
	)

	rideConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ride_write_conflicts_total",
			Help:      "Conditional ride writes that lost a race",
		},
		[]string{"operation"},
	)

	otpVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ride_otp_verifications_total",
			Help:      "Start-ride OTP checks by outcome",
		},
		[]string{"outcome"},
	)

	routeQuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_quotes_total",
			Help:      "Routing lookups by result",
		},
		[]string{"result"},
	)
)

// OTP verification outcomes.
const (
	OTPVerified    = "verified"
	OTPRejected    = "rejected"
	OTPExpired     = "expired"
	OTPMissing     = "missing"
	OTPRateLimited = "rate_limited"
)

func RecordHTTPRequest(method, endpoint, status string, seconds float64) {
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(seconds)
}

func RecordRideTransition(to string) {
	rideTransitionsTotal.WithLabelValues(to).Inc()
}

func RecordRideConflict(operation string) {
	rideConflictsTotal.WithLabelValues(operation).Inc()
}

func RecordOTPVerification(outcome string) {
	otpVerificationsTotal.WithLabelValues(outcome).Inc()
}

func RecordRouteQuote(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	routeQuotesTotal.WithLabelValues(result).Inc()
}
