// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package casclient

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ValidationRequests counts calls to the CAS server.
	// Labels:
	//   - endpoint: "serviceValidate", "proxyValidate", "proxy" (with /p3 prefix for cas3)
	//   - result: "success", "rejected", "unavailable", "malformed", "canceled"
	ValidationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casgate_cas_server_requests_total",
			Help: "Total number of requests sent to the CAS server, by endpoint and result",
		},
		[]string{"endpoint", "result"},
	)

	// ValidationDuration measures CAS server round trips.
	ValidationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "casgate_cas_server_request_duration_seconds",
			Help:    "Duration of CAS server requests in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	// CircuitBreakerState is the breaker state (0=closed, 1=half-open, 2=open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "casgate_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// CircuitBreakerTransitions counts state changes.
	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casgate_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// CircuitBreakerRequests counts calls through the breaker.
	// Labels:
	//   - result: "success", "failure", "rejected"
	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casgate_circuit_breaker_requests_total",
			Help: "Total number of requests through the circuit breaker, by result",
		},
		[]string{"name", "result"},
	)
)

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrServerUnavailable):
		return "unavailable"
	case errors.Is(err, ErrTicketRejected):
		return "rejected"
	default:
		return "malformed"
	}
}
