// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

/*
Package casclient talks to the CAS server on behalf of the filter.

It validates service tickets against the CAS 2.0 or CAS 3.0 endpoints,
requests proxy tickets with a proxy granting ticket, and adapts the result
into a cas.AuthenticationMechanism.

# Components

  - Validator: HTTP client for /serviceValidate, /proxyValidate and /proxy,
    including the /p3 variants. Parses XML and JSON responses.
  - BreakerValidator: wraps any TicketValidator with a sony/gobreaker circuit
    breaker. Only transport failures count against the breaker; a rejected
    ticket is a successful round trip.
  - Provider: implements cas.AuthenticationMechanism. Maps validator errors
    onto cas.ErrBadCredentials and cas.ErrMechanismUnavailable, resolves the
    PGT from storage and builds the granted authorities.

# Error Mapping

	ErrTicketRejected      -> cas.ErrBadCredentials        (401)
	ErrServerUnavailable   -> cas.ErrMechanismUnavailable  (503)
	ErrMalformedResponse   -> cas.ErrMechanismUnavailable  (503)

A CAS INTERNAL_ERROR failure code is reported as ErrServerUnavailable.

# Rate Limiting

Outbound validation calls pass through a golang.org/x/time/rate limiter when
cas.validation_rate_limit is positive, so a flood of forged tickets cannot
be forwarded to the CAS server unchecked.
*/
package casclient
