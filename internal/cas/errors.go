// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package cas

import (
	"errors"
	"fmt"
)

// Authentication failure causes. An AuthenticationError wraps one of these
// (or a mechanism-specific error) so callers can use errors.Is.
var (
	// ErrBadCredentials indicates the presented ticket was rejected.
	ErrBadCredentials = errors.New("bad credentials")

	// ErrMissingTicket indicates no service ticket was presented.
	ErrMissingTicket = errors.New("no service ticket provided")

	// ErrMechanismUnavailable indicates the authentication mechanism could not
	// reach a decision (CAS server down, timeout, open circuit).
	ErrMechanismUnavailable = errors.New("authentication mechanism unavailable")

	// ErrNoAuthentication indicates the mechanism returned neither an
	// authentication nor an error.
	ErrNoAuthentication = errors.New("mechanism returned no authentication")
)

// ErrInvalidConfiguration is matched by every ConfigurationError.
var ErrInvalidConfiguration = errors.New("invalid cas configuration")

// AuthenticationError is raised when the authentication mechanism rejects a
// token. It is always delivered to the failure handler and never retried.
type AuthenticationError struct {
	// Ticket is the artifact that was presented (may be empty).
	Ticket string

	// Err is the underlying cause.
	Err error
}

// NewAuthenticationError wraps err as an AuthenticationError.
// If err already is one, it is returned unchanged.
func NewAuthenticationError(ticket string, err error) *AuthenticationError {
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return authErr
	}
	if err == nil {
		err = ErrNoAuthentication
	}
	return &AuthenticationError{Ticket: ticket, Err: err}
}

func (e *AuthenticationError) Error() string {
	return "cas authentication failed: " + e.Err.Error()
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports a malformed filter configuration. It is fatal
// and raised at setup time only.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid cas configuration: %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidConfiguration) true for every ConfigurationError.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}
