// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package cas

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewTicketAuthenticator_RequiresCollaborators(t *testing.T) {
	t.Parallel()

	if _, err := NewTicketAuthenticator(nil, ProxyReceptorConfig{}, &mockMechanism{}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("nil service: error = %v, want ErrInvalidConfiguration", err)
	}
	if _, err := NewTicketAuthenticator(MustServiceConfig(), ProxyReceptorConfig{}, nil); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("nil mechanism: error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestTicketAuthenticator_NormalOperation(t *testing.T) {
	mech := &mockMechanism{}
	auth, err := NewTicketAuthenticator(MustServiceConfig(WithService("https://app/login/cas")), ProxyReceptorConfig{}, mech)
	if err != nil {
		t.Fatalf("NewTicketAuthenticator() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/login/cas?ticket=ST-0-ER94xMJmn6pha35CQRoZ", nil)
	outcome := auth.Attempt(context.Background(), ViewOf(req))

	if outcome.Kind() != OutcomeSuccess {
		t.Fatalf("Kind() = %v, want success", outcome.Kind())
	}
	if outcome.Authentication() == nil {
		t.Fatal("Authentication() = nil on success")
	}
	if outcome.Err() != nil {
		t.Errorf("Err() = %v, want nil", outcome.Err())
	}
	if mech.lastToken.Ticket != "ST-0-ER94xMJmn6pha35CQRoZ" {
		t.Errorf("token ticket = %q", mech.lastToken.Ticket)
	}
	if mech.lastToken.Service != "https://app/login/cas" {
		t.Errorf("token service = %q, want configured service", mech.lastToken.Service)
	}
	if mech.lastToken.Identifier != StatefulIdentifier {
		t.Errorf("token identifier = %q, want %q", mech.lastToken.Identifier, StatefulIdentifier)
	}
}

func TestTicketAuthenticator_NullServiceTicketHandledGracefully(t *testing.T) {
	mech := &mockMechanism{err: ErrBadCredentials}
	auth, err := NewTicketAuthenticator(MustServiceConfig(), ProxyReceptorConfig{}, mech)
	if err != nil {
		t.Fatalf("NewTicketAuthenticator() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	outcome := auth.Attempt(context.Background(), ViewOf(req))

	if outcome.Kind() != OutcomeFailure {
		t.Fatalf("Kind() = %v, want failure", outcome.Kind())
	}
	var authErr *AuthenticationError
	if !errors.As(outcome.Err(), &authErr) {
		t.Fatalf("Err() = %T, want *AuthenticationError", outcome.Err())
	}
	if !errors.Is(outcome.Err(), ErrBadCredentials) {
		t.Errorf("Err() = %v, want ErrBadCredentials cause", outcome.Err())
	}
	if mech.lastToken.Ticket != "" {
		t.Errorf("absent ticket should be passed as empty, got %q", mech.lastToken.Ticket)
	}
}

func TestTicketAuthenticator_NilAuthenticationIsFailure(t *testing.T) {
	mech := MechanismFunc(func(context.Context, UnauthenticatedToken) (*Authentication, error) {
		return nil, nil
	})
	auth, err := NewTicketAuthenticator(MustServiceConfig(), ProxyReceptorConfig{}, mech)
	if err != nil {
		t.Fatalf("NewTicketAuthenticator() error = %v", err)
	}

	outcome := auth.Attempt(context.Background(), viewFor("/login/cas", nil))
	if outcome.Kind() != OutcomeFailure || !errors.Is(outcome.Err(), ErrNoAuthentication) {
		t.Errorf("outcome = %v / %v, want failure with ErrNoAuthentication", outcome.Kind(), outcome.Err())
	}
}

func TestTicketAuthenticator_KeepsExistingAuthenticationError(t *testing.T) {
	original := &AuthenticationError{Ticket: "ST-9", Err: ErrMechanismUnavailable}
	mech := &mockMechanism{err: original}
	auth, _ := NewTicketAuthenticator(MustServiceConfig(), ProxyReceptorConfig{}, mech)

	outcome := auth.Attempt(context.Background(), viewFor("/login/cas", nil))
	var authErr *AuthenticationError
	if !errors.As(outcome.Err(), &authErr) || authErr != original {
		t.Errorf("Err() = %v, want the mechanism's own AuthenticationError", outcome.Err())
	}
}

func TestTicketAuthenticator_ProxyURL(t *testing.T) {
	mech := &mockMechanism{}
	proxy := ProxyReceptorConfig{ReceptorURL: "/pgtCallback", Storage: newMockStorage()}
	auth, err := NewTicketAuthenticator(MustServiceConfig(), proxy, mech)
	if err != nil {
		t.Fatalf("NewTicketAuthenticator() error = %v", err)
	}

	outcome := auth.Attempt(context.Background(), viewFor("/pgtCallback", nil))

	if outcome.Kind() != OutcomeAbsorbed {
		t.Fatalf("Kind() = %v, want absorbed", outcome.Kind())
	}
	if outcome.Authentication() != nil || outcome.Err() != nil {
		t.Error("absorbed outcome must carry neither authentication nor error")
	}
	if mech.calls() != 0 {
		t.Errorf("mechanism called %d times, want 0", mech.calls())
	}
}

func TestTicketAuthenticator_ServiceDerivedInAuthenticateAllMode(t *testing.T) {
	mech := &mockMechanism{}
	svc := MustServiceConfig(WithAuthenticateAllArtifacts(true), WithService("https://ignored/login/cas"))
	auth, _ := NewTicketAuthenticator(svc, ProxyReceptorConfig{}, mech)

	req := httptest.NewRequest(http.MethodGet, "http://app.example.com/reports?id=7&ticket=ST-1-123", nil)
	auth.Attempt(context.Background(), ViewOf(req))

	want := "http://app.example.com/reports?id=7"
	if mech.lastToken.Service != want {
		t.Errorf("token service = %q, want %q", mech.lastToken.Service, want)
	}
}

func TestTicketAuthenticator_DerivedServiceKeepsQueryVerbatim(t *testing.T) {
	svc := MustServiceConfig(WithAuthenticateAllArtifacts(true))

	tests := []struct {
		name    string
		target  string
		headers map[string]string
		want    string
	}{
		{
			name:   "order and escaping preserved",
			target: "http://app.example.com/reports?z=1&a=b%20c&ticket=ST-1-123",
			want:   "http://app.example.com/reports?z=1&a=b%20c",
		},
		{
			name:   "artifact in the middle",
			target: "http://app.example.com/reports?z=1&ticket=ST-1-123&a=b+c",
			want:   "http://app.example.com/reports?z=1&a=b+c",
		},
		{
			name:   "escaped artifact name",
			target: "http://app.example.com/reports?tick%65t=ST-1-123&id=7",
			want:   "http://app.example.com/reports?id=7",
		},
		{
			name:   "only the artifact",
			target: "http://app.example.com/reports?ticket=ST-1-123",
			want:   "http://app.example.com/reports",
		},
		{
			name:   "similar names kept",
			target: "http://app.example.com/reports?tickets=3&ticket=ST-1-123",
			want:   "http://app.example.com/reports?tickets=3",
		},
		{
			name:    "forwarded https",
			target:  "/reports?id=7&ticket=ST-1-123",
			headers: map[string]string{"X-Forwarded-Proto": "https"},
			want:    "https://example.com/reports?id=7",
		},
		{
			name:    "first forwarded proto wins",
			target:  "/reports?ticket=ST-1-123",
			headers: map[string]string{"X-Forwarded-Proto": "HTTPS, http"},
			want:    "https://example.com/reports",
		},
		{
			name:    "unknown forwarded proto ignored",
			target:  "/reports?ticket=ST-1-123",
			headers: map[string]string{"X-Forwarded-Proto": "gopher"},
			want:    "http://example.com/reports",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mech := &mockMechanism{}
			auth, err := NewTicketAuthenticator(svc, ProxyReceptorConfig{}, mech)
			if err != nil {
				t.Fatalf("NewTicketAuthenticator: %v", err)
			}

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			auth.Attempt(context.Background(), ViewOf(req))

			if mech.lastToken.Service != tt.want {
				t.Errorf("token service = %q, want %q", mech.lastToken.Service, tt.want)
			}
		})
	}
}

func TestOutcomeKind_String(t *testing.T) {
	t.Parallel()

	cases := map[OutcomeKind]string{
		OutcomeSuccess:  "success",
		OutcomeFailure:  "failure",
		OutcomeAbsorbed: "absorbed",
		OutcomeKind(0):  "unknown",
	}
	for kind, want := range cases {
		if kind.String() != want {
			t.Errorf("OutcomeKind(%d).String() = %q, want %q", kind, kind.String(), want)
		}
	}
}
