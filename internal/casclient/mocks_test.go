// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package casclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/casgate/internal/config"
)

// fakeValidator returns canned results and records calls.
type fakeValidator struct {
	mu          sync.Mutex
	calls       int
	lastTicket  string
	lastService string
	lastPGT     string
	assertion   *Assertion
	proxyTicket string
	err         error
}

func (f *fakeValidator) Validate(_ context.Context, ticket, service string) (*Assertion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastTicket, f.lastService = ticket, service
	if f.err != nil {
		return nil, f.err
	}
	return f.assertion, nil
}

func (f *fakeValidator) RequestProxyTicket(_ context.Context, pgt, targetService string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastPGT, f.lastService = pgt, targetService
	if f.err != nil {
		return "", f.err
	}
	return f.proxyTicket, nil
}

func (f *fakeValidator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// casServer is an httptest CAS server that records the last request.
type casServer struct {
	*httptest.Server

	mu       sync.Mutex
	path     string
	query    url.Values
	requests int
}

func newCASServer(t *testing.T, status int, contentType, body string) *casServer {
	t.Helper()
	s := &casServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.path = r.URL.Path
		s.query = r.URL.Query()
		s.requests++
		s.mu.Unlock()

		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *casServer) last() (string, url.Values, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path, s.query, s.requests
}

func testCASConfig(serverURL string) config.CASConfig {
	return config.CASConfig{
		ServerURL:          serverURL,
		ServiceURL:         "https://app.example.com/login/cas",
		FilterProcessesURL: "/login/cas",
		ArtifactParameter:  "ticket",
		Protocol:           ProtocolCAS3,
		ResponseFormat:     FormatXML,
		Timeout:            2 * time.Second,
	}
}

const xmlSuccess = `<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas">
  <cas:authenticationSuccess>
    <cas:user>rod</cas:user>
    <cas:attributes>
      <cas:email>rod@example.org</cas:email>
      <cas:memberOf>ROLE_ADMIN</cas:memberOf>
      <cas:memberOf>ROLE_AUDITOR</cas:memberOf>
      <cas:attribute name="department" value="engineering"/>
    </cas:attributes>
    <cas:proxyGrantingTicket>PGTIOU-84678-8a9d</cas:proxyGrantingTicket>
  </cas:authenticationSuccess>
</cas:serviceResponse>`

const xmlProxyChainBody = `<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas">
  <cas:authenticationSuccess>
    <cas:user>rod</cas:user>
    <cas:proxies>
      <cas:proxy>https://proxy2.example.org/pgtUrl</cas:proxy>
      <cas:proxy>https://proxy1.example.org/pgtUrl</cas:proxy>
    </cas:proxies>
  </cas:authenticationSuccess>
</cas:serviceResponse>`

const xmlFailureInvalidTicket = `<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas">
  <cas:authenticationFailure code="INVALID_TICKET">
    Ticket ST-1856339-aA5Yuvrxzpv8Tau1cYQ7 not recognized
  </cas:authenticationFailure>
</cas:serviceResponse>`

const jsonSuccess = `{
  "serviceResponse": {
    "authenticationSuccess": {
      "user": "rod",
      "proxyGrantingTicket": "PGTIOU-84678-8a9d",
      "proxies": ["https://proxy1.example.org/pgtUrl"],
      "attributes": {
        "email": "rod@example.org",
        "memberOf": ["ROLE_ADMIN", "ROLE_AUDITOR"],
        "loginCount": 3
      }
    }
  }
}`

const jsonFailureBody = `{
  "serviceResponse": {
    "authenticationFailure": {
      "code": "INVALID_SERVICE",
      "description": "Ticket was issued for another service"
    }
  }
}`
