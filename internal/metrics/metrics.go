// Package metrics provides Prometheus metrics for the voice session client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JoinAttempts counts accepted join commands.
	JoinAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voice_join_attempts_total",
			Help: "Total number of accepted join attempts",
		},
	)

	// JoinRejections counts joins refused because a session was already active.
	JoinRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voice_join_rejections_total",
			Help: "Total number of join commands rejected while a session was active",
		},
	)

	// JoinFailures counts join attempts that ended in Failed, by failing step.
	JoinFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_join_failures_total",
			Help: "Total number of join attempts that failed",
		},
		[]string{"cause"},
	)

	// SessionStateTransitions tracks session state changes.
	SessionStateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_session_state_transitions_total",
			Help: "Total number of session state transitions",
		},
		[]string{"from_state", "to_state"},
	)

	// ActiveBindings tracks remote tracks currently being rendered.
	ActiveBindings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "voice_active_track_bindings",
			Help: "Number of remote audio tracks currently bound to playback",
		},
	)

	// TeardownErrors counts best-effort teardown calls that failed.
	TeardownErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_teardown_errors_total",
			Help: "Total number of errors swallowed during session teardown",
		},
		[]string{"step"},
	)

	// CredentialRequestDuration tracks the credential round trip.
	CredentialRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "voice_credential_request_duration_seconds",
			Help:    "Duration of credential requests to the issuing service",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// TokensIssued counts credentials signed by the dev issuer.
	TokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voice_issuer_tokens_issued_total",
			Help: "Total number of access tokens issued",
		},
	)
)

// RecordStateTransition records a session state change.
func RecordStateTransition(fromState, toState string) {
	SessionStateTransitions.WithLabelValues(fromState, toState).Inc()
}

// RecordJoinFailure increments the failure counter for the failing step.
func RecordJoinFailure(cause string) {
	JoinFailures.WithLabelValues(cause).Inc()
}

// RecordTeardownError increments the swallowed teardown error counter.
func RecordTeardownError(step string) {
	TeardownErrors.WithLabelValues(step).Inc()
}
