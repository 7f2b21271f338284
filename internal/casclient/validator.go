// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package casclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/casgate/internal/config"
)

// Protocol and response format values accepted in config.CASConfig.
const (
	ProtocolCAS2 = "cas2"
	ProtocolCAS3 = "cas3"

	FormatXML  = "xml"
	FormatJSON = "json"
)

// maxResponseBytes bounds how much of a CAS response body is read.
const maxResponseBytes = 1 << 20

// TicketValidator validates tickets and requests proxy tickets.
type TicketValidator interface {
	// Validate checks ticket for service and returns the assertion.
	Validate(ctx context.Context, ticket, service string) (*Assertion, error)

	// RequestProxyTicket obtains a proxy ticket for targetService using pgt.
	RequestProxyTicket(ctx context.Context, pgt, targetService string) (string, error)
}

// Validator is the HTTP client for the CAS validation endpoints.
type Validator struct {
	serverURL   string
	protocol    string
	format      string
	renew       bool
	acceptProxy bool
	callbackURL string

	client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithHTTPClient replaces the default client (timeout from cas.timeout).
func WithHTTPClient(client *http.Client) Option {
	return func(v *Validator) {
		if client != nil {
			v.client = client
		}
	}
}

// WithProxyCallback sends callbackURL as pgtUrl on every validation.
func WithProxyCallback(callbackURL string) Option {
	return func(v *Validator) {
		v.callbackURL = callbackURL
	}
}

// NewValidator creates a validator for the CAS server in cfg.
func NewValidator(cfg config.CASConfig, opts ...Option) (*Validator, error) {
	serverURL := strings.TrimRight(strings.TrimSpace(cfg.ServerURL), "/")
	parsed, err := url.Parse(serverURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid cas server url %q", cfg.ServerURL)
	}

	protocol := cfg.Protocol
	if protocol == "" {
		protocol = ProtocolCAS3
	}
	format := cfg.ResponseFormat
	if format == "" {
		format = FormatXML
	}
	if format == FormatJSON && protocol != ProtocolCAS3 {
		return nil, errors.New("json response format requires the cas3 protocol")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	v := &Validator{
		serverURL:   serverURL,
		protocol:    protocol,
		format:      format,
		renew:       cfg.Renew,
		acceptProxy: cfg.AcceptProxyTickets,
		client:      &http.Client{Timeout: timeout},
		now:         time.Now,
	}
	if cfg.ValidationRateLimit > 0 {
		burst := cfg.ValidationBurst
		if burst <= 0 {
			burst = 1
		}
		v.limiter = rate.NewLimiter(rate.Limit(cfg.ValidationRateLimit), burst)
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// ValidationEndpoint returns the path used for ticket validation.
func (v *Validator) ValidationEndpoint() string {
	endpoint := "/serviceValidate"
	if v.acceptProxy {
		endpoint = "/proxyValidate"
	}
	if v.protocol == ProtocolCAS3 {
		endpoint = "/p3" + endpoint
	}
	return endpoint
}

// Validate checks ticket against the CAS server.
func (v *Validator) Validate(ctx context.Context, ticket, service string) (*Assertion, error) {
	ticket = strings.TrimSpace(ticket)
	if ticket == "" {
		return nil, &ProtocolError{Code: CodeInvalidRequest, Description: "ticket parameter is required"}
	}

	params := url.Values{}
	params.Set("service", service)
	params.Set("ticket", ticket)
	if v.renew {
		params.Set("renew", "true")
	}
	if v.callbackURL != "" {
		params.Set("pgtUrl", v.callbackURL)
	}
	if v.format == FormatJSON {
		params.Set("format", "JSON")
	}

	endpoint := v.ValidationEndpoint()
	start := time.Now()
	body, err := v.get(ctx, endpoint, params)
	var assertion *Assertion
	if err == nil {
		assertion, err = parseValidationResponse(body, v.format, v.now())
	}
	ValidationDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	ValidationRequests.WithLabelValues(endpoint, resultLabel(err)).Inc()
	if err != nil {
		return nil, err
	}
	return assertion, nil
}

// RequestProxyTicket calls /proxy with the PGT and returns the proxy ticket.
func (v *Validator) RequestProxyTicket(ctx context.Context, pgt, targetService string) (string, error) {
	if strings.TrimSpace(pgt) == "" {
		return "", ErrNoProxyGrantingTicket
	}

	params := url.Values{}
	params.Set("pgt", pgt)
	params.Set("targetService", targetService)
	if v.format == FormatJSON {
		params.Set("format", "JSON")
	}

	const endpoint = "/proxy"
	start := time.Now()
	body, err := v.get(ctx, endpoint, params)
	var ticket string
	if err == nil {
		ticket, err = parseProxyResponse(body, v.format)
	}
	ValidationDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	ValidationRequests.WithLabelValues(endpoint, resultLabel(err)).Inc()
	return ticket, err
}

func (v *Validator) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if v.limiter != nil {
		if err := v.limiter.Wait(ctx); err != nil {
			if canceled(ctx, err) {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: rate limit: %w", ErrServerUnavailable, err)
		}
	}

	reqURL := v.serverURL + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if v.format == FormatJSON {
		req.Header.Set("Accept", "application/json")
	} else {
		req.Header.Set("Accept", "application/xml, text/xml")
	}

	resp, err := v.client.Do(req)
	if err != nil {
		if canceled(ctx, err) {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: request to %s failed: %w", ErrServerUnavailable, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("%w: %s returned status %d", ErrServerUnavailable, endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if canceled(ctx, err) {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: failed to read response body: %w", ErrServerUnavailable, err)
	}
	return body, nil
}

// canceled reports whether err came from the caller abandoning ctx. That says
// nothing about the CAS server, so it is never reported as unavailability.
func canceled(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) && ctx.Err() != nil
}
