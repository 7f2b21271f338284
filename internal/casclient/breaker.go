// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package casclient

import (
	"context"
	"errors"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/casgate/internal/config"
	"github.com/tomtom215/casgate/internal/logging"
)

// DefaultBreakerName labels the CAS server breaker in logs and metrics.
const DefaultBreakerName = "cas-server"

// BreakerValidator wraps a TicketValidator with a circuit breaker so an
// unreachable CAS server fails fast with ErrServerUnavailable.
//
// A rejected or malformed ticket is a successful round trip and never trips
// the breaker; only ErrServerUnavailable counts as a failure.
type BreakerValidator struct {
	next TicketValidator
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// NewBreakerValidator wraps next using the thresholds in cfg.
func NewBreakerValidator(next TicketValidator, cfg config.BreakerConfig) *BreakerValidator {
	return newBreakerValidator(DefaultBreakerName, next, cfg)
}

func newBreakerValidator(name string, next TicketValidator, cfg config.BreakerConfig) *BreakerValidator {
	CircuitBreakerState.WithLabelValues(name).Set(0)

	minRequests := cfg.MinRequests
	failureRatio := cfg.FailureRatio

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,

		// Opens when the failure ratio reaches the threshold over at least
		// minRequests calls.
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests || counts.Requests == 0 {
				return false
			}

			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := ratio >= failureRatio

			if shouldTrip {
				logging.Warn().
					Str("breaker", name).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", ratio*100).
					Msg("Opening circuit to CAS server")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("Circuit breaker state transition")

			CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},

		// Only server faults count. Rejected tickets and callers that went
		// away are successes as far as the circuit is concerned.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || !errors.Is(err, ErrServerUnavailable)
		},
	})

	return &BreakerValidator{next: next, cb: cb, name: name}
}

// State returns the current breaker state.
func (b *BreakerValidator) State() gobreaker.State {
	return b.cb.State()
}

// Available reports whether calls are currently allowed through.
func (b *BreakerValidator) Available() bool {
	return b.cb.State() != gobreaker.StateOpen
}

// Validate calls the wrapped validator through the breaker.
func (b *BreakerValidator) Validate(ctx context.Context, ticket, service string) (*Assertion, error) {
	return castResult[Assertion](b.execute(func() (any, error) {
		return b.next.Validate(ctx, ticket, service)
	}))
}

// RequestProxyTicket calls the wrapped validator through the breaker.
func (b *BreakerValidator) RequestProxyTicket(ctx context.Context, pgt, targetService string) (string, error) {
	pt, err := castResult[string](b.execute(func() (any, error) {
		ticket, err := b.next.RequestProxyTicket(ctx, pgt, targetService)
		if err != nil {
			return nil, err
		}
		return &ticket, nil
	}))
	if err != nil {
		return "", err
	}
	return *pt, nil
}

func (b *BreakerValidator) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			logging.Warn().Err(err).Str("breaker", b.name).Msg("CAS request rejected by circuit breaker")
			return nil, fmt.Errorf("%w: circuit %s: %w", ErrServerUnavailable, b.name, err)
		}
		if errors.Is(err, ErrServerUnavailable) {
			CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		} else {
			CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		}
		return nil, err
	}

	CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return result, nil
}

// castResult type-checks a breaker result.
func castResult[T any](result any, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
