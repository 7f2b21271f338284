// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package casclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/casgate/internal/cas"
	"github.com/tomtom215/casgate/internal/logging"
)

// UserDetails is the principal payload attached to authentications created
// by Provider.
type UserDetails struct {
	Assertion *Assertion

	// ProxyGrantingTicket is empty unless a PGT was delivered to the receptor
	// for this validation.
	ProxyGrantingTicket string
}

// ProviderConfig configures a Provider.
type ProviderConfig struct {
	// AuthorityAttribute names the attribute whose values become authorities.
	AuthorityAttribute string

	// DefaultAuthorities are granted to every authenticated user.
	DefaultAuthorities []string

	// Storage resolves PGTIOUs into PGTs. Optional.
	Storage cas.ProxyGrantingTicketStorage
}

// Provider validates service tickets with the CAS server.
type Provider struct {
	validator TicketValidator
	cfg       ProviderConfig
}

var _ cas.AuthenticationMechanism = (*Provider)(nil)

// NewProvider creates a Provider backed by validator.
func NewProvider(validator TicketValidator, cfg ProviderConfig) (*Provider, error) {
	if validator == nil {
		return nil, &cas.ConfigurationError{Field: "validator", Reason: "must not be nil"}
	}
	return &Provider{validator: validator, cfg: cfg}, nil
}

// Authenticate validates token.Ticket for token.Service.
func (p *Provider) Authenticate(ctx context.Context, token cas.UnauthenticatedToken) (*cas.Authentication, error) {
	if strings.TrimSpace(token.Ticket) == "" {
		return nil, fmt.Errorf("%w: %w", cas.ErrMissingTicket, cas.ErrBadCredentials)
	}

	assertion, err := p.validator.Validate(ctx, token.Ticket, token.Service)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("service", token.Service).Msg("Ticket validation failed")
		return nil, mapValidationError(err)
	}

	details := &UserDetails{Assertion: assertion}
	if iou := assertion.ProxyGrantingTicketIOU; iou != "" && p.cfg.Storage != nil {
		pgt, err := p.cfg.Storage.Retrieve(ctx, iou)
		if err != nil {
			// The service ticket is still valid; only proxying is lost.
			logging.Ctx(ctx).Warn().Err(err).Str("user", assertion.User).Msg("No proxy granting ticket for IOU")
		} else {
			details.ProxyGrantingTicket = pgt
		}
	}

	return &cas.Authentication{
		Principal:       cas.RealPrincipal(assertion.User, details),
		Credentials:     token.Ticket,
		Authorities:     p.authorities(assertion),
		Attributes:      assertion.Attributes,
		Service:         token.Service,
		Authenticated:   true,
		AuthenticatedAt: assertion.ValidatedAt,
	}, nil
}

// RequestProxyTicket obtains a proxy ticket for targetService on behalf of
// the user in auth.
func (p *Provider) RequestProxyTicket(ctx context.Context, auth *cas.Authentication, targetService string) (string, error) {
	if auth == nil {
		return "", ErrNoProxyGrantingTicket
	}
	details, ok := auth.Principal.Payload().(*UserDetails)
	if !ok || details.ProxyGrantingTicket == "" {
		return "", ErrNoProxyGrantingTicket
	}
	return p.validator.RequestProxyTicket(ctx, details.ProxyGrantingTicket, targetService)
}

// authorities merges the defaults with the authority attribute values,
// dropping blanks and duplicates while keeping order.
func (p *Provider) authorities(assertion *Assertion) []string {
	var values []string
	values = append(values, p.cfg.DefaultAuthorities...)
	if p.cfg.AuthorityAttribute != "" {
		values = append(values, assertion.Attribute(p.cfg.AuthorityAttribute)...)
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// mapValidationError translates validator errors into the filter's causes.
// Malformed responses are treated as an unavailable server.
func mapValidationError(err error) error {
	switch {
	case errors.Is(err, ErrServerUnavailable):
		return fmt.Errorf("%w: %w", cas.ErrMechanismUnavailable, err)
	case errors.Is(err, ErrTicketRejected):
		return fmt.Errorf("%w: %w", cas.ErrBadCredentials, err)
	default:
		return fmt.Errorf("%w: %w", cas.ErrMechanismUnavailable, err)
	}
}
