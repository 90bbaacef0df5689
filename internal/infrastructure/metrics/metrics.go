// Package metrics provides Prometheus metrics for sso-hub.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginStartedTotal counts login requests by outcome.
	LoginStartedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ssohub",
			Name:      "login_started_total",
			Help:      "Total number of login requests",
		},
		[]string{"outcome"},
	)

	// CallbackTotal counts provider callbacks by outcome.
	CallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ssohub",
			Name:      "callback_total",
			Help:      "Total number of login callbacks",
		},
		[]string{"outcome"},
	)

	// VerifyTotal counts proxy verification requests by result.
	VerifyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ssohub",
			Name:      "verify_total",
			Help:      "Total number of proxy verification requests",
		},
		[]string{"result"},
	)

	// RateLimitedTotal counts requests rejected by the per-IP limiter.
	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ssohub",
			Name:      "rate_limited_total",
			Help:      "Total number of rate-limited requests",
		},
		[]string{"route"},
	)

	// ProviderVerifyDuration measures direct verification round-trips.
	ProviderVerifyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ssohub",
			Name:      "provider_verify_duration_seconds",
			Help:      "Duration of check_authentication calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"result"},
	)
)

// Outcome labels.
const (
	OutcomeRedirected    = "redirected"
	OutcomeShortCircuit  = "short_circuit"
	OutcomeError         = "error"
	OutcomeAuthenticated = "authenticated"
	OutcomeDenied        = "denied"
	ResultAllowed        = "allowed"
	ResultRejected       = "rejected"
)

// RecordLogin records a login request.
func RecordLogin(outcome string) {
	LoginStartedTotal.WithLabelValues(outcome).Inc()
}

// RecordCallback records a callback outcome.
func RecordCallback(outcome string) {
	CallbackTotal.WithLabelValues(outcome).Inc()
}

// RecordVerify records a proxy verification result.
func RecordVerify(result string) {
	VerifyTotal.WithLabelValues(result).Inc()
}

// RecordProviderVerify records one check_authentication call.
func RecordProviderVerify(result string, seconds float64) {
	ProviderVerifyDuration.WithLabelValues(result).Observe(seconds)
}

// RecordRateLimited records a rejected request on route.
func RecordRateLimited(route string) {
	RateLimitedTotal.WithLabelValues(route).Inc()
}
