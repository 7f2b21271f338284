// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package cas

import (
	"net/http"

	"github.com/tomtom215/casgate/internal/logging"
)

// State is the per-request result of Filter.Process.
type State uint8

const (
	// StatePass means the chain ran untouched.
	StatePass State = iota + 1

	// StateAbsorbed means a proxy callback was consumed; the chain never ran.
	StateAbsorbed

	// StateAuthenticated means a ticket was accepted.
	StateAuthenticated

	// StateRejected means a ticket was rejected; the chain never ran.
	StateRejected
)

// String returns the state name, used as a metric label.
func (s State) String() string {
	switch s {
	case StatePass:
		return "pass"
	case StateAbsorbed:
		return "absorbed"
	case StateAuthenticated:
		return "authenticated"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// FilterConfig holds the collaborators of a Filter.
type FilterConfig struct {
	// Service is required.
	Service *ServiceConfig

	// Proxy enables proxy-granting-ticket callbacks when fully set.
	Proxy ProxyReceptorConfig

	// Mechanism verifies tickets. Required.
	Mechanism AuthenticationMechanism

	// SuccessHandler runs after a successful login on the filter processes URL.
	// Default: RedirectSuccessHandler to "/".
	SuccessHandler SuccessHandler

	// FailureHandler runs after a rejected ticket.
	// Default: StatusFailureHandler without a failure URL.
	FailureHandler FailureHandler
}

// Filter is the per-request orchestrator. It holds no per-request state.
type Filter struct {
	service       *ServiceConfig
	proxy         ProxyReceptorConfig
	authenticator *TicketAuthenticator
	receptor      *ProxyReceptor
	success       SuccessHandler
	failure       FailureHandler
}

// NewFilter validates cfg and builds a Filter.
func NewFilter(cfg FilterConfig) (*Filter, error) {
	authenticator, err := NewTicketAuthenticator(cfg.Service, cfg.Proxy, cfg.Mechanism)
	if err != nil {
		return nil, err
	}

	f := &Filter{
		service:       cfg.Service,
		proxy:         cfg.Proxy,
		authenticator: authenticator,
		success:       cfg.SuccessHandler,
		failure:       cfg.FailureHandler,
	}
	if cfg.Proxy.Enabled() {
		f.receptor = NewProxyReceptor(cfg.Proxy.Storage)
	}
	if f.success == nil {
		f.success = &RedirectSuccessHandler{}
	}
	if f.failure == nil {
		f.failure = &StatusFailureHandler{}
	}

	return f, nil
}

// RequiresAuthentication evaluates the authentication gate for r.
func (f *Filter) RequiresAuthentication(r *http.Request) bool {
	return RequiresAuthentication(ViewOf(r), f.service, f.proxy, SecurityContextFrom(r.Context()))
}

// AttemptAuthentication runs the ticket authenticator for r.
func (f *Filter) AttemptAuthentication(r *http.Request) Outcome {
	return f.authenticator.Attempt(r.Context(), ViewOf(r))
}

// Process handles one request and reports the state it ended in. The chain is
// invoked at most once and never for Absorbed or Rejected.
func (f *Filter) Process(w http.ResponseWriter, r *http.Request, chain http.Handler) State {
	state := f.process(w, r, chain)
	FilterDecisions.WithLabelValues(state.String()).Inc()
	return state
}

func (f *Filter) process(w http.ResponseWriter, r *http.Request, chain http.Handler) State {
	ctx := r.Context()
	view := ViewOf(r)
	sc := SecurityContextFrom(ctx)

	if IsProxyCallback(view, f.proxy) {
		logging.Ctx(ctx).Debug().Str("path", view.Path).Msg("Responding to proxy receptor request")
		f.receptor.Respond(w, r)
		return StateAbsorbed
	}

	if !RequiresAuthentication(view, f.service, f.proxy, sc) {
		chain.ServeHTTP(w, r)
		return StatePass
	}

	outcome := f.authenticator.Attempt(ctx, view)
	switch outcome.Kind() {
	case OutcomeSuccess:
	case OutcomeAbsorbed:
		// Attempt re-checks the proxy gate; unreachable after the check above.
		return StateAbsorbed
	default:
		logging.Ctx(ctx).Warn().Err(outcome.err).Str("path", view.Path).Msg("CAS authentication failed")
		f.failure.OnAuthenticationFailure(w, r, outcome.err)
		return StateRejected
	}

	auth := outcome.Authentication()
	r = r.WithContext(WithSecurityContext(ctx, sc.WithAuthentication(auth)))

	logging.Ctx(ctx).Info().
		Str("principal", auth.Principal.Name()).
		Str("path", view.Path).
		Msg("CAS authentication succeeded")

	if view.Path == f.service.FilterProcessesURL() {
		f.success.OnAuthenticationSuccess(w, r, auth)
	} else {
		// The ticket was incidental; carry on to the requested resource.
		chain.ServeHTTP(w, r)
	}
	return StateAuthenticated
}

// Middleware adapts the filter to func(http.Handler) http.Handler.
func (f *Filter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.Process(w, r, next)
	})
}
