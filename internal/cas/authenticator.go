// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package cas

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/casgate/internal/logging"
)

// StatefulIdentifier is the principal placeholder on tokens built from a
// browser ticket callback.
const StatefulIdentifier = "_cas_stateful_"

// UnauthenticatedToken is handed to the AuthenticationMechanism for checking.
type UnauthenticatedToken struct {
	// Identifier is the placeholder principal (StatefulIdentifier).
	Identifier string

	// Ticket is the presented artifact. Empty when none was supplied; the
	// mechanism decides whether that is acceptable.
	Ticket string

	// Service is the service identifier the ticket must be validated for.
	Service string
}

// AuthenticationMechanism verifies a token. Implementations live outside this
// package (see casclient.Provider).
type AuthenticationMechanism interface {
	Authenticate(ctx context.Context, token UnauthenticatedToken) (*Authentication, error)
}

// MechanismFunc adapts a function to AuthenticationMechanism.
type MechanismFunc func(ctx context.Context, token UnauthenticatedToken) (*Authentication, error)

// Authenticate calls f.
func (f MechanismFunc) Authenticate(ctx context.Context, token UnauthenticatedToken) (*Authentication, error) {
	return f(ctx, token)
}

// OutcomeKind discriminates an Outcome.
type OutcomeKind uint8

const (
	// OutcomeSuccess carries an Authentication.
	OutcomeSuccess OutcomeKind = iota + 1

	// OutcomeFailure carries an *AuthenticationError.
	OutcomeFailure

	// OutcomeAbsorbed means the request was a proxy callback; nothing was attempted.
	OutcomeAbsorbed
)

// String returns the outcome name, used as a metric label.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeAbsorbed:
		return "absorbed"
	default:
		return "unknown"
	}
}

// Outcome is the result of TicketAuthenticator.Attempt: exactly one of
// Success, Failure or Absorbed.
type Outcome struct {
	kind OutcomeKind
	auth *Authentication
	err  *AuthenticationError
}

// Success builds a success outcome.
func Success(auth *Authentication) Outcome {
	return Outcome{kind: OutcomeSuccess, auth: auth}
}

// Failure builds a failure outcome.
func Failure(err *AuthenticationError) Outcome {
	return Outcome{kind: OutcomeFailure, err: err}
}

// Absorbed builds the no-op outcome for proxy callbacks.
func Absorbed() Outcome {
	return Outcome{kind: OutcomeAbsorbed}
}

// Kind returns the discriminant.
func (o Outcome) Kind() OutcomeKind { return o.kind }

// Authentication returns the identity of a success outcome, nil otherwise.
func (o Outcome) Authentication() *Authentication { return o.auth }

// Err returns the error of a failure outcome. It returns a nil error
// (not a typed nil) for the other kinds.
func (o Outcome) Err() error {
	if o.err == nil {
		return nil
	}
	return o.err
}

// TicketAuthenticator extracts the artifact and delegates to the mechanism.
type TicketAuthenticator struct {
	service   *ServiceConfig
	proxy     ProxyReceptorConfig
	mechanism AuthenticationMechanism
}

// NewTicketAuthenticator returns an authenticator. A nil mechanism is a
// configuration error.
func NewTicketAuthenticator(service *ServiceConfig, proxy ProxyReceptorConfig, mechanism AuthenticationMechanism) (*TicketAuthenticator, error) {
	if service == nil {
		return nil, &ConfigurationError{Field: "service", Reason: "service config is required"}
	}
	if mechanism == nil {
		return nil, &ConfigurationError{Field: "mechanism", Reason: "authentication mechanism is required"}
	}
	return &TicketAuthenticator{service: service, proxy: proxy, mechanism: mechanism}, nil
}

// Attempt runs one authentication attempt for req.
func (t *TicketAuthenticator) Attempt(ctx context.Context, req RequestView) Outcome {
	if IsProxyCallback(req, t.proxy) {
		AuthenticationAttempts.WithLabelValues(OutcomeAbsorbed.String()).Inc()
		return Absorbed()
	}

	ticket, _ := req.Parameter(t.service.ArtifactParameter())
	token := UnauthenticatedToken{
		Identifier: StatefulIdentifier,
		Ticket:     ticket,
		Service:    t.serviceFor(req),
	}

	start := time.Now()
	auth, err := t.mechanism.Authenticate(ctx, token)
	AuthenticationDuration.Observe(time.Since(start).Seconds())

	if err == nil && auth == nil {
		err = ErrNoAuthentication
	}
	if err != nil {
		authErr := NewAuthenticationError(ticket, err)
		AuthenticationAttempts.WithLabelValues(OutcomeFailure.String()).Inc()
		logging.Ctx(ctx).Debug().Err(err).
			Bool("unavailable", errors.Is(err, ErrMechanismUnavailable)).
			Msg("CAS ticket rejected")
		return Failure(authErr)
	}

	AuthenticationAttempts.WithLabelValues(OutcomeSuccess.String()).Inc()
	return Success(auth)
}

// serviceFor derives the service identifier the ticket was issued for.
// In authenticate-all-artifacts mode the ticket may arrive on any URL, so
// the service is the request URL itself minus the artifact parameter.
func (t *TicketAuthenticator) serviceFor(req RequestView) string {
	if !t.service.AuthenticateAllArtifacts() || req.URL == nil {
		return t.service.Service()
	}

	u := *req.URL
	u.RawQuery = withoutParameter(u.RawQuery, t.service.ArtifactParameter())
	u.Fragment = ""
	return u.String()
}

// withoutParameter drops every name segment from rawQuery. The remaining
// segments keep their order and encoding, since CAS servers compare the
// service string byte for byte.
func withoutParameter(rawQuery, name string) string {
	if rawQuery == "" {
		return ""
	}
	segments := strings.Split(rawQuery, "&")
	kept := segments[:0]
	for _, segment := range segments {
		key, _, _ := strings.Cut(segment, "=")
		if decoded, err := url.QueryUnescape(key); err == nil && decoded == name {
			continue
		}
		kept = append(kept, segment)
	}
	return strings.Join(kept, "&")
}
