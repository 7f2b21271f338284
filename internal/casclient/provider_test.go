// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package casclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/casgate/internal/cas"
	"github.com/tomtom215/casgate/internal/pgtstore"
)

func TestNewProvider_RequiresValidator(t *testing.T) {
	t.Parallel()

	_, err := NewProvider(nil, ProviderConfig{})
	if !errors.Is(err, cas.ErrInvalidConfiguration) {
		t.Errorf("error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestProvider_Authenticate(t *testing.T) {
	t.Parallel()

	validatedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fake := &fakeValidator{assertion: &Assertion{
		User: "rod",
		Attributes: map[string][]string{
			"memberOf": {"ROLE_ADMIN", "ROLE_USER", " "},
			"email":    {"rod@example.org"},
		},
		ValidatedAt: validatedAt,
	}}
	p, err := NewProvider(fake, ProviderConfig{
		AuthorityAttribute: "memberOf",
		DefaultAuthorities: []string{"ROLE_USER"},
	})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	auth, err := p.Authenticate(context.Background(), cas.UnauthenticatedToken{
		Identifier: cas.StatefulIdentifier,
		Ticket:     "ST-0-ER94xMJmn6pha35CQRoZ",
		Service:    "https://app.example.com/login/cas",
	})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	if fake.lastTicket != "ST-0-ER94xMJmn6pha35CQRoZ" || fake.lastService != "https://app.example.com/login/cas" {
		t.Errorf("validator got ticket=%q service=%q", fake.lastTicket, fake.lastService)
	}
	if auth.Principal.Kind() != cas.PrincipalReal || auth.Principal.Name() != "rod" {
		t.Errorf("Principal = %v/%q, want real/rod", auth.Principal.Kind(), auth.Principal.Name())
	}
	if !auth.Authenticated {
		t.Error("Authenticated = false, want true")
	}
	if auth.Credentials != "ST-0-ER94xMJmn6pha35CQRoZ" {
		t.Errorf("Credentials = %q", auth.Credentials)
	}
	if !reflect.DeepEqual(auth.Authorities, []string{"ROLE_USER", "ROLE_ADMIN"}) {
		t.Errorf("Authorities = %v, want [ROLE_USER ROLE_ADMIN]", auth.Authorities)
	}
	if !auth.AuthenticatedAt.Equal(validatedAt) {
		t.Errorf("AuthenticatedAt = %v, want %v", auth.AuthenticatedAt, validatedAt)
	}
	if auth.Attributes["email"][0] != "rod@example.org" {
		t.Errorf("Attributes = %v", auth.Attributes)
	}

	details, ok := auth.Principal.Payload().(*UserDetails)
	if !ok {
		t.Fatalf("payload type = %T, want *UserDetails", auth.Principal.Payload())
	}
	if details.ProxyGrantingTicket != "" {
		t.Errorf("ProxyGrantingTicket = %q, want empty", details.ProxyGrantingTicket)
	}
}

func TestProvider_Authenticate_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		wantCause error
	}{
		{"rejected", &ProtocolError{Code: CodeInvalidTicket}, cas.ErrBadCredentials},
		{"internal error", &ProtocolError{Code: CodeInternalError}, cas.ErrMechanismUnavailable},
		{"unavailable", fmt.Errorf("%w: dial tcp", ErrServerUnavailable), cas.ErrMechanismUnavailable},
		{"malformed", fmt.Errorf("%w: EOF", ErrMalformedResponse), cas.ErrMechanismUnavailable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := NewProvider(&fakeValidator{err: tt.err}, ProviderConfig{})
			if err != nil {
				t.Fatalf("NewProvider: %v", err)
			}

			auth, err := p.Authenticate(context.Background(), cas.UnauthenticatedToken{Ticket: "ST-1", Service: "svc"})
			if auth != nil {
				t.Errorf("auth = %+v, want nil", auth)
			}
			if !errors.Is(err, tt.wantCause) {
				t.Errorf("error = %v, want %v", err, tt.wantCause)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("error = %v does not wrap %v", err, tt.err)
			}
		})
	}
}

func TestProvider_Authenticate_MissingTicket(t *testing.T) {
	t.Parallel()

	fake := &fakeValidator{}
	p, err := NewProvider(fake, ProviderConfig{})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	_, err = p.Authenticate(context.Background(), cas.UnauthenticatedToken{Service: "svc"})
	if !errors.Is(err, cas.ErrBadCredentials) || !errors.Is(err, cas.ErrMissingTicket) {
		t.Errorf("error = %v, want ErrMissingTicket and ErrBadCredentials", err)
	}
	if fake.callCount() != 0 {
		t.Errorf("validator called %d times, want 0", fake.callCount())
	}
}

func TestProvider_ResolvesProxyGrantingTicket(t *testing.T) {
	t.Parallel()

	store := pgtstore.NewMemoryStore(time.Minute)
	defer store.Close()
	ctx := context.Background()
	if err := store.Save(ctx, "PGTIOU-84678-8a9d", "PGT-490649-W81Y9Sa2vTM7hda7xNTkezTbVge4CUsybAr"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	fake := &fakeValidator{
		assertion:   &Assertion{User: "rod", ProxyGrantingTicketIOU: "PGTIOU-84678-8a9d"},
		proxyTicket: "PT-957-ZuucXqTZ1YcJw81T3dxf",
	}
	p, err := NewProvider(fake, ProviderConfig{Storage: store})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	auth, err := p.Authenticate(ctx, cas.UnauthenticatedToken{Ticket: "ST-1", Service: "svc"})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	details := auth.Principal.Payload().(*UserDetails)
	if details.ProxyGrantingTicket != "PGT-490649-W81Y9Sa2vTM7hda7xNTkezTbVge4CUsybAr" {
		t.Errorf("ProxyGrantingTicket = %q", details.ProxyGrantingTicket)
	}
	if store.Len() != 0 {
		t.Errorf("store Len = %d, want 0 after retrieval", store.Len())
	}

	pt, err := p.RequestProxyTicket(ctx, auth, "https://backend.example.org/")
	if err != nil {
		t.Fatalf("RequestProxyTicket: %v", err)
	}
	if pt != "PT-957-ZuucXqTZ1YcJw81T3dxf" {
		t.Errorf("proxy ticket = %q", pt)
	}
	if fake.lastPGT != details.ProxyGrantingTicket || fake.lastService != "https://backend.example.org/" {
		t.Errorf("validator got pgt=%q target=%q", fake.lastPGT, fake.lastService)
	}
}

func TestProvider_MissingIOUStillAuthenticates(t *testing.T) {
	t.Parallel()

	store := pgtstore.NewMemoryStore(time.Minute)
	defer store.Close()

	fake := &fakeValidator{assertion: &Assertion{User: "rod", ProxyGrantingTicketIOU: "PGTIOU-unknown"}}
	p, err := NewProvider(fake, ProviderConfig{Storage: store})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	auth, err := p.Authenticate(context.Background(), cas.UnauthenticatedToken{Ticket: "ST-1", Service: "svc"})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	if _, err := p.RequestProxyTicket(context.Background(), auth, "https://backend.example.org/"); !errors.Is(err, ErrNoProxyGrantingTicket) {
		t.Errorf("error = %v, want ErrNoProxyGrantingTicket", err)
	}
	if _, err := p.RequestProxyTicket(context.Background(), nil, "https://backend.example.org/"); !errors.Is(err, ErrNoProxyGrantingTicket) {
		t.Errorf("nil auth: error = %v, want ErrNoProxyGrantingTicket", err)
	}
}

// TestProvider_FilterEndToEnd runs the filter against a fake CAS server
// through the breaker-wrapped validator.
func TestProvider_FilterEndToEnd(t *testing.T) {
	t.Parallel()

	srv := newCASServer(t, http.StatusOK, "application/xml", xmlSuccess)
	v, err := NewValidator(testCASConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	provider, err := NewProvider(newBreakerValidator(t.Name(), v, testBreakerConfig()), ProviderConfig{
		AuthorityAttribute: "memberOf",
	})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	auth, err := provider.Authenticate(context.Background(), cas.UnauthenticatedToken{
		Identifier: cas.StatefulIdentifier,
		Ticket:     "ST-0-ER94xMJmn6pha35CQRoZ",
		Service:    "https://app.example.com/login/cas",
	})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !auth.HasAuthority("ROLE_ADMIN") || !auth.HasAuthority("ROLE_AUDITOR") {
		t.Errorf("Authorities = %v", auth.Authorities)
	}
	if cas.Classify(cas.NewSecurityContext(auth)) != cas.ClassReal {
		t.Error("Classify != ClassReal")
	}
}
