// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package casclient

import (
	"errors"
	"fmt"
)

var (
	// ErrTicketRejected is matched when the CAS server answered with an
	// authentication or proxy failure.
	ErrTicketRejected = errors.New("ticket rejected by cas server")

	// ErrServerUnavailable is matched for transport errors, non-200 responses,
	// an open circuit breaker and CAS INTERNAL_ERROR failures.
	ErrServerUnavailable = errors.New("cas server unavailable")

	// ErrMalformedResponse is matched when the response body cannot be parsed.
	ErrMalformedResponse = errors.New("malformed cas response")

	// ErrNoProxyGrantingTicket is returned when a proxy ticket is requested
	// for an authentication that carries no PGT.
	ErrNoProxyGrantingTicket = errors.New("no proxy granting ticket available")
)

// CAS protocol failure codes.
const (
	CodeInvalidRequest           = "INVALID_REQUEST"
	CodeInvalidTicketSpec        = "INVALID_TICKET_SPEC"
	CodeUnauthorizedServiceProxy = "UNAUTHORIZED_SERVICE_PROXY"
	CodeInvalidProxyCallback     = "INVALID_PROXY_CALLBACK"
	CodeInvalidTicket            = "INVALID_TICKET"
	CodeInvalidService           = "INVALID_SERVICE"
	CodeInternalError            = "INTERNAL_ERROR"
	CodeBadPGT                   = "BAD_PGT"
)

// ProtocolError is a failure reported by the CAS server in the response body.
type ProtocolError struct {
	Code        string
	Description string
}

func (e *ProtocolError) Error() string {
	if e.Description == "" {
		return "cas: " + e.Code
	}
	return fmt.Sprintf("cas: %s: %s", e.Code, e.Description)
}

// Is reports INTERNAL_ERROR as ErrServerUnavailable and every other code as
// ErrTicketRejected.
func (e *ProtocolError) Is(target error) bool {
	if e.Code == CodeInternalError {
		return target == ErrServerUnavailable
	}
	return target == ErrTicketRejected
}
