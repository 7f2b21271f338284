// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package cas

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRedirectSuccessHandler(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{name: "default target", target: "", want: "/"},
		{name: "configured target", target: "/home", want: "/home"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &RedirectSuccessHandler{TargetURL: tt.target}
			rec := httptest.NewRecorder()
			h.OnAuthenticationSuccess(rec, httptest.NewRequest(http.MethodGet, "/login/cas", nil), nil)

			if rec.Code != http.StatusFound {
				t.Errorf("status = %d, want 302", rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != tt.want {
				t.Errorf("Location = %q, want %q", loc, tt.want)
			}
		})
	}
}

func TestStatusFailureHandler(t *testing.T) {
	tests := []struct {
		name         string
		failureURL   string
		err          *AuthenticationError
		wantStatus   int
		wantLocation string
	}{
		{
			name:       "bad credentials",
			err:        NewAuthenticationError("ST-1", ErrBadCredentials),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing ticket",
			err:        NewAuthenticationError("", ErrMissingTicket),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "mechanism unavailable",
			err:        NewAuthenticationError("ST-1", ErrMechanismUnavailable),
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:         "redirect to failure URL",
			failureURL:   "/login-failed",
			err:          NewAuthenticationError("ST-1", ErrBadCredentials),
			wantStatus:   http.StatusFound,
			wantLocation: "/login-failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &StatusFailureHandler{FailureURL: tt.failureURL}
			rec := httptest.NewRecorder()
			h.OnAuthenticationFailure(rec, httptest.NewRequest(http.MethodGet, "/login/cas", nil), tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if loc := rec.Header().Get("Location"); loc != tt.wantLocation {
				t.Errorf("Location = %q, want %q", loc, tt.wantLocation)
			}
		})
	}
}

func TestHandlerFuncAdapters(t *testing.T) {
	var gotAuth *Authentication
	var gotErr *AuthenticationError

	success := SuccessHandlerFunc(func(_ http.ResponseWriter, _ *http.Request, auth *Authentication) {
		gotAuth = auth
	})
	failure := FailureHandlerFunc(func(_ http.ResponseWriter, _ *http.Request, err *AuthenticationError) {
		gotErr = err
	})

	auth := &Authentication{Principal: RealPrincipal("alice", nil), Authenticated: true}
	authErr := NewAuthenticationError("ST-1", ErrBadCredentials)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	success.OnAuthenticationSuccess(httptest.NewRecorder(), req, auth)
	failure.OnAuthenticationFailure(httptest.NewRecorder(), req, authErr)

	if gotAuth != auth {
		t.Error("SuccessHandlerFunc did not forward the authentication")
	}
	if gotErr != authErr {
		t.Error("FailureHandlerFunc did not forward the error")
	}
}
