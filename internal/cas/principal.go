// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package cas

import (
	"context"
	"time"
)

// PrincipalKind tags a Principal as anonymous or real.
type PrincipalKind uint8

const (
	// PrincipalAnonymous marks a placeholder identity for unauthenticated users.
	PrincipalAnonymous PrincipalKind = iota + 1

	// PrincipalReal marks an identity established by a credential check.
	PrincipalReal
)

// String returns the kind name for logging.
func (k PrincipalKind) String() string {
	switch k {
	case PrincipalAnonymous:
		return "anonymous"
	case PrincipalReal:
		return "real"
	default:
		return "unknown"
	}
}

// Principal is a tagged variant: Anonymous or Real(payload).
// The filter only ever inspects the tag; the payload is opaque.
type Principal struct {
	kind    PrincipalKind
	name    string
	payload any
}

// AnonymousPrincipal returns the anonymous variant.
func AnonymousPrincipal(name string) Principal {
	return Principal{kind: PrincipalAnonymous, name: name}
}

// RealPrincipal returns the real variant carrying an arbitrary payload
// (for example the validated CAS assertion).
func RealPrincipal(name string, payload any) Principal {
	return Principal{kind: PrincipalReal, name: name, payload: payload}
}

// Kind returns the variant tag.
func (p Principal) Kind() PrincipalKind { return p.kind }

// Name returns the principal name.
func (p Principal) Name() string { return p.name }

// Payload returns the opaque payload of a real principal.
func (p Principal) Payload() any { return p.payload }

// IsAnonymous reports whether p is the anonymous variant.
func (p Principal) IsAnonymous() bool { return p.kind == PrincipalAnonymous }

// Authentication is the identity produced by an AuthenticationMechanism.
type Authentication struct {
	Principal Principal

	// Credentials is the service ticket that was presented.
	Credentials string

	// Authorities are the granted roles (e.g. "ROLE_USER").
	Authorities []string

	// Attributes are the CAS attributes released for the principal.
	Attributes map[string][]string

	// Service is the service identifier the ticket was validated against.
	Service string

	// Authenticated is false for tokens that have not been verified yet.
	Authenticated bool

	// AuthenticatedAt is when the mechanism accepted the credentials.
	AuthenticatedAt time.Time
}

// NewAnonymousAuthentication returns a verified anonymous authentication.
func NewAnonymousAuthentication(name string, authorities ...string) *Authentication {
	return &Authentication{
		Principal:       AnonymousPrincipal(name),
		Authorities:     authorities,
		Authenticated:   true,
		AuthenticatedAt: time.Now(),
	}
}

// HasAuthority checks whether the authentication carries authority.
func (a *Authentication) HasAuthority(authority string) bool {
	if a == nil || authority == "" {
		return false
	}
	for _, granted := range a.Authorities {
		if granted == authority {
			return true
		}
	}
	return false
}

// SecurityContext holds the current Authentication for a single request.
// It is a value: WithAuthentication returns a modified copy.
type SecurityContext struct {
	authentication *Authentication
}

// NewSecurityContext returns a context holding auth (nil means empty).
func NewSecurityContext(auth *Authentication) SecurityContext {
	return SecurityContext{authentication: auth}
}

// Authentication returns the held authentication or nil.
func (sc SecurityContext) Authentication() *Authentication {
	return sc.authentication
}

// WithAuthentication returns a copy holding auth.
func (sc SecurityContext) WithAuthentication(auth *Authentication) SecurityContext {
	sc.authentication = auth
	return sc
}

// Cleared returns an empty security context.
func (sc SecurityContext) Cleared() SecurityContext {
	return SecurityContext{}
}

type contextKey string

const securityContextKey contextKey = "cas_security_context"

// WithSecurityContext returns a context carrying sc.
func WithSecurityContext(ctx context.Context, sc SecurityContext) context.Context {
	return context.WithValue(ctx, securityContextKey, sc)
}

// SecurityContextFrom returns the security context carried by ctx, or an
// empty one.
func SecurityContextFrom(ctx context.Context) SecurityContext {
	sc, ok := ctx.Value(securityContextKey).(SecurityContext)
	if !ok {
		return SecurityContext{}
	}
	return sc
}

// AuthenticationFrom is shorthand for SecurityContextFrom(ctx).Authentication().
func AuthenticationFrom(ctx context.Context) *Authentication {
	return SecurityContextFrom(ctx).Authentication()
}

// Classification is the PrincipalInspector verdict on a security context.
type Classification uint8

const (
	// ClassAbsent means no verified identity is present.
	ClassAbsent Classification = iota

	// ClassAnonymous means the anonymous placeholder is present.
	ClassAnonymous

	// ClassReal means a verified, non-anonymous identity is present.
	ClassReal
)

// String returns the classification name for logging.
func (c Classification) String() string {
	switch c {
	case ClassAnonymous:
		return "anonymous"
	case ClassReal:
		return "real"
	default:
		return "absent"
	}
}

// Classify inspects sc without modifying it.
//
// An authentication whose Authenticated flag is false has not been verified
// and counts as Absent, so a ticket on the request re-authenticates it.
func Classify(sc SecurityContext) Classification {
	auth := sc.Authentication()
	switch {
	case auth == nil:
		return ClassAbsent
	case auth.Principal.IsAnonymous():
		return ClassAnonymous
	case !auth.Authenticated:
		return ClassAbsent
	default:
		return ClassReal
	}
}
