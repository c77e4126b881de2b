package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// resolutionTotal tracks certificate resolution outcomes
	// Labels: result (success, no_certificate, invalid_certificate,
	// no_matching_entry, no_stored_certificate, certificate_mismatch, error)
	resolutionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certauth_resolutions_total",
			Help: "Total number of certificate resolutions grouped by result",
		},
		[]string{"result"},
	)

	// resolutionDuration tracks the duration of full resolution attempts
	// Buckets: 0.005s, 0.01s, 0.05s, 0.1s, 0.5s, 1s, 5s
	resolutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "certauth_resolution_duration_seconds",
			Help:    "Duration of certificate resolution attempts in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	// flowSuspensions tracks how many authentications were suspended for
	// an expiry warning
	flowSuspensions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "certauth_flow_suspensions_total",
			Help: "Total number of authentications suspended for a certificate expiry warning",
		},
	)

	// flowOutcomes tracks warning-page dispositions
	// Labels: action (resume, render, missing_token, no_such_state, error)
	flowOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certauth_flow_outcomes_total",
			Help: "Total number of warning-page requests grouped by disposition",
		},
		[]string{"action"},
	)
)

// recordResolution records one resolution outcome
func recordResolution(result string, seconds float64) {
	resolutionTotal.WithLabelValues(result).Inc()
	resolutionDuration.Observe(seconds)
}

// recordSuspension records one flow suspension
func recordSuspension() {
	flowSuspensions.Inc()
}

// recordFlowOutcome records one warning-page disposition
func recordFlowOutcome(action string) {
	flowOutcomes.WithLabelValues(action).Inc()
}
