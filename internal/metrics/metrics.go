package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// emailSentTotal counts outbound emails.
	// Labels:
	// - kind: admin | customer | contract
	// - provider: smtp | brevo
	// - result: success | failure
	emailSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentmail",
			Subsystem: "email",
			Name:      "sent_total",
			Help:      "Outbound emails by kind, provider and result.",
		},
		[]string{"kind", "provider", "result"},
	)

	// emailSendSeconds observes the time spent handing a message to the provider.
	emailSendSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rentmail",
			Subsystem: "email",
			Name:      "send_seconds",
			Help:      "Email send latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// submissionsTotal counts contract submissions by endpoint and outcome.
	// Labels:
	// - endpoint: send | send_attachment
	// - result: success | bad_request | not_found | failure
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentmail",
			Subsystem: "contracts",
			Name:      "submissions_total",
			Help:      "Contract submissions by endpoint and result.",
		},
		[]string{"endpoint", "result"},
	)

	// tokenVerificationsTotal counts bearer token checks by provider and result.
	tokenVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentmail",
			Subsystem: "auth",
			Name:      "token_verifications_total",
			Help:      "Bearer token verifications by provider and result.",
		},
		[]string{"provider", "result"},
	)

	// rateLimitExceeded counts HTTP 429 events from the rate limit middleware.
	rateLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentmail",
			Subsystem: "http",
			Name:      "rate_limit_exceeded_total",
			Help:      "Number of requests rejected due to rate limiting (HTTP 429)",
		},
		[]string{"endpoint", "source"},
	)
)

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

// IncEmailSent increments the outbound email counter.
func IncEmailSent(kind, provider, result string) {
	emailSentTotal.WithLabelValues(orUnknown(kind), orUnknown(provider), orUnknown(result)).Inc()
}

// ObserveEmailSend records a provider send latency in seconds.
func ObserveEmailSend(provider string, seconds float64) {
	emailSendSeconds.WithLabelValues(orUnknown(provider)).Observe(seconds)
}

// IncSubmission increments the contract submission counter.
func IncSubmission(endpoint, result string) {
	submissionsTotal.WithLabelValues(orUnknown(endpoint), orUnknown(result)).Inc()
}

// IncTokenVerification increments the token verification counter.
func IncTokenVerification(provider, result string) {
	tokenVerificationsTotal.WithLabelValues(orUnknown(provider), orUnknown(result)).Inc()
}

// IncRateLimitExceeded increments the 429 counter for the given endpoint and source.
func IncRateLimitExceeded(endpoint, source string) {
	rateLimitExceeded.WithLabelValues(orUnknown(endpoint), orUnknown(source)).Inc()
}
