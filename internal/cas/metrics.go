// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package cas

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FilterDecisions counts requests by the state the filter ended in.
	// Labels:
	//   - state: "pass", "absorbed", "authenticated", "rejected"
	FilterDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cas_filter_decisions_total",
			Help: "Total number of requests processed by the CAS filter, by final state",
		},
		[]string{"state"},
	)

	// AuthenticationAttempts counts ticket authentication attempts.
	// Labels:
	//   - outcome: "success", "failure", "absorbed"
	AuthenticationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cas_authentication_attempts_total",
			Help: "Total number of CAS ticket authentication attempts",
		},
		[]string{"outcome"},
	)

	// AuthenticationDuration measures time spent in the authentication mechanism.
	AuthenticationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cas_authentication_duration_seconds",
			Help:    "Duration of CAS ticket authentication in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
)
