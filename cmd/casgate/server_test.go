// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/casgate/internal/config"
)

const casValidationSuccess = `<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas">
  <cas:authenticationSuccess>
    <cas:user>rod</cas:user>
    <cas:attributes>
      <cas:memberOf>ROLE_ADMIN</cas:memberOf>
    </cas:attributes>
    <cas:proxyGrantingTicket>PGTIOU-84678-8a9d</cas:proxyGrantingTicket>
  </cas:authenticationSuccess>
</cas:serviceResponse>`

const casProxySuccess = `<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas">
  <cas:proxySuccess>
    <cas:proxyTicket>PT-957-ZuucXqTZ1YcJw81T3dxf</cas:proxyTicket>
  </cas:proxySuccess>
</cas:serviceResponse>`

// fakeCAS answers validation for tickets starting with "ST-" and proxy
// requests for PGT-490649.
type fakeCAS struct {
	*httptest.Server
	validations atomic.Int32
	lastPGTURL  atomic.Value
}

func newFakeCAS(t *testing.T) *fakeCAS {
	t.Helper()
	f := &fakeCAS{}
	mux := http.NewServeMux()
	mux.HandleFunc("/cas/p3/serviceValidate", func(w http.ResponseWriter, r *http.Request) {
		f.validations.Add(1)
		f.lastPGTURL.Store(r.URL.Query().Get("pgtUrl"))
		if !strings.HasPrefix(r.URL.Query().Get("ticket"), "ST-") {
			_, _ = w.Write([]byte(`<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas"><cas:authenticationFailure code="INVALID_TICKET">not recognized</cas:authenticationFailure></cas:serviceResponse>`))
			return
		}
		_, _ = w.Write([]byte(casValidationSuccess))
	})
	mux.HandleFunc("/cas/proxy", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pgt") != "PGT-490649" {
			_, _ = w.Write([]byte(`<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas"><cas:proxyFailure code="BAD_PGT">unknown</cas:proxyFailure></cas:serviceResponse>`))
			return
		}
		_, _ = w.Write([]byte(casProxySuccess))
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

// loadTestConfig loads configuration from CASGATE_* variables only.
func loadTestConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	t.Setenv("CASGATE_CONFIG", "")
	for k, v := range env {
		t.Setenv(k, v)
	}
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return cfg
}

func TestNewApp_LoginFlow(t *testing.T) {
	cas := newFakeCAS(t)
	cfg := loadTestConfig(t, map[string]string{
		"CASGATE_CAS_SERVER_URL":          cas.URL + "/cas",
		"CASGATE_CAS_SERVICE_URL":         "https://app.example.org/login/cas",
		"CASGATE_CAS_AUTHORITY_ATTRIBUTE": "memberOf",
		"CASGATE_CAS_SUCCESS_URL":         "/api/v1/whoami",
	})

	a, err := newApp(cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()
	if a.store != nil {
		t.Error("store should be nil without proxy configuration")
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login/cas?ticket=ST-1-abc", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("login status = %d, want 302: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/api/v1/whoami" {
		t.Errorf("Location = %q, want /api/v1/whoami", loc)
	}

	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login/cas?ticket=forged", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("forged ticket status = %d, want 401", rec.Code)
	}

	// Outside the filter URL a ticket is ignored unless authenticate-all is on.
	before := cas.validations.Load()
	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/whoami?ticket=ST-2-abc", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("whoami status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"kind":"anonymous"`) {
		t.Errorf("whoami body = %s, want anonymous identity", rec.Body.String())
	}
	if cas.validations.Load() != before {
		t.Error("ticket outside the filter URL was validated")
	}
}

func TestNewApp_ProxyFlow(t *testing.T) {
	cas := newFakeCAS(t)
	cfg := loadTestConfig(t, map[string]string{
		"CASGATE_CAS_SERVER_URL":                 cas.URL + "/cas",
		"CASGATE_CAS_AUTHENTICATE_ALL_ARTIFACTS": "true",
		"CASGATE_PROXY_RECEPTOR_URL":             "/pgtCallback",
		"CASGATE_PROXY_CALLBACK_URL":             "https://app.example.org/pgtCallback",
		"CASGATE_STORAGE_BACKEND":                "memory",
	})

	a, err := newApp(cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()

	// The CAS server delivers the PGT to the receptor before answering validation.
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pgtCallback?pgtIou=PGTIOU-84678-8a9d&pgtId=PGT-490649", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "proxySuccess") {
		t.Fatalf("callback = %d %q, want proxySuccess", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/proxy-ticket?ticket=ST-3-abc&targetService=https://backend.example.org/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("proxy-ticket status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			ProxyTicket string `json:"proxy_ticket"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.ProxyTicket != "PT-957-ZuucXqTZ1YcJw81T3dxf" {
		t.Errorf("proxy ticket = %q", resp.Data.ProxyTicket)
	}
	if got, _ := cas.lastPGTURL.Load().(string); got != "https://app.example.org/pgtCallback" {
		t.Errorf("pgtUrl sent = %q", got)
	}
}

func TestCheckConfigCommand(t *testing.T) {
	loadTestConfig(t, map[string]string{
		"CASGATE_CAS_SERVER_URL":  "https://sso.example.org/cas",
		"CASGATE_CAS_SERVICE_URL": "https://app.example.org/login/cas",
	})

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"check-config"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("check-config: %v", err)
	}

	if !strings.HasPrefix(out.String(), "configuration OK") {
		t.Errorf("output = %q", out.String())
	}
	if !strings.Contains(out.String(), `"cas_server": "https://sso.example.org/cas"`) {
		t.Errorf("output missing cas_server: %s", out.String())
	}
}

func TestCheckConfigCommand_Invalid(t *testing.T) {
	loadTestConfig(t, map[string]string{
		"CASGATE_CAS_SERVER_URL":  "https://sso.example.org/cas",
		"CASGATE_CAS_SERVICE_URL": "https://app.example.org/login/cas",
	})
	t.Setenv("CASGATE_CAS_PROTOCOL", "cas9")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"check-config"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out.String()) != version {
		t.Errorf("output = %q, want %q", out.String(), version)
	}
}
