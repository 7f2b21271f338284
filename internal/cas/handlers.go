// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package cas

import (
	"errors"
	"net/http"
)

// SuccessHandler runs once after a successful login on the filter processes
// URL. It owns the response; it may redirect or continue to other handlers.
type SuccessHandler interface {
	OnAuthenticationSuccess(w http.ResponseWriter, r *http.Request, auth *Authentication)
}

// SuccessHandlerFunc adapts a function to SuccessHandler.
type SuccessHandlerFunc func(w http.ResponseWriter, r *http.Request, auth *Authentication)

// OnAuthenticationSuccess calls f.
func (f SuccessHandlerFunc) OnAuthenticationSuccess(w http.ResponseWriter, r *http.Request, auth *Authentication) {
	f(w, r, auth)
}

// FailureHandler runs once after a rejected ticket.
type FailureHandler interface {
	OnAuthenticationFailure(w http.ResponseWriter, r *http.Request, err *AuthenticationError)
}

// FailureHandlerFunc adapts a function to FailureHandler.
type FailureHandlerFunc func(w http.ResponseWriter, r *http.Request, err *AuthenticationError)

// OnAuthenticationFailure calls f.
func (f FailureHandlerFunc) OnAuthenticationFailure(w http.ResponseWriter, r *http.Request, err *AuthenticationError) {
	f(w, r, err)
}

// RedirectSuccessHandler sends the browser to TargetURL ("/" when empty).
type RedirectSuccessHandler struct {
	TargetURL string
}

// OnAuthenticationSuccess implements SuccessHandler.
func (h *RedirectSuccessHandler) OnAuthenticationSuccess(w http.ResponseWriter, r *http.Request, _ *Authentication) {
	target := h.TargetURL
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// StatusFailureHandler redirects to FailureURL when set. Otherwise it answers
// 401, or 503 when the mechanism could not reach a decision.
type StatusFailureHandler struct {
	FailureURL string
}

// OnAuthenticationFailure implements FailureHandler.
func (h *StatusFailureHandler) OnAuthenticationFailure(w http.ResponseWriter, r *http.Request, err *AuthenticationError) {
	if h.FailureURL != "" {
		http.Redirect(w, r, h.FailureURL, http.StatusFound)
		return
	}

	switch {
	case errors.Is(err, ErrMechanismUnavailable):
		http.Error(w, "Service unavailable: authentication service unavailable", http.StatusServiceUnavailable)
	case errors.Is(err, ErrMissingTicket):
		http.Error(w, "Unauthorized: service ticket required", http.StatusUnauthorized)
	default:
		http.Error(w, "Unauthorized: invalid service ticket", http.StatusUnauthorized)
	}
}
