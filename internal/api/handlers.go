// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/casgate/internal/cas"
	"github.com/tomtom215/casgate/internal/casclient"
)

// ProxyTicketIssuer obtains proxy tickets for an authenticated user.
// Satisfied by *casclient.Provider.
type ProxyTicketIssuer interface {
	RequestProxyTicket(ctx context.Context, auth *cas.Authentication, targetService string) (string, error)
}

// CASStatus reports whether the CAS server is reachable.
// Satisfied by *casclient.BreakerValidator.
type CASStatus interface {
	Available() bool
}

// Handler serves casgate's endpoints.
type Handler struct {
	issuer    ProxyTicketIssuer
	status    CASStatus
	version   string
	startTime time.Time
}

// NewHandler creates a Handler. issuer and status may be nil; the proxy
// ticket endpoint then answers 501 and health always reports the CAS
// server as available.
func NewHandler(issuer ProxyTicketIssuer, status CASStatus, version string) *Handler {
	return &Handler{
		issuer:    issuer,
		status:    status,
		version:   version,
		startTime: time.Now(),
	}
}

// HealthStatus is the /healthz payload.
type HealthStatus struct {
	Status       string  `json:"status"`
	Version      string  `json:"version"`
	CASAvailable bool    `json:"cas_available"`
	Uptime       float64 `json:"uptime_seconds"`
}

// Health reports liveness. An open circuit to the CAS server is "degraded"
// but still 200 so orchestrators do not restart a healthy gateway.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	available := h.status == nil || h.status.Available()
	status := "ok"
	if !available {
		status = "degraded"
	}
	respondSuccess(w, r, HealthStatus{
		Status:       status,
		Version:      h.version,
		CASAvailable: available,
		Uptime:       time.Since(h.startTime).Seconds(),
	})
}

// Identity is the whoami payload.
type Identity struct {
	User            string              `json:"user"`
	Kind            string              `json:"kind"`
	Authorities     []string            `json:"authorities"`
	Attributes      map[string][]string `json:"attributes,omitempty"`
	Service         string              `json:"service,omitempty"`
	AuthenticatedAt *time.Time          `json:"authenticated_at,omitempty"`
}

// WhoAmI returns the identity in the request's security context.
func (h *Handler) WhoAmI(w http.ResponseWriter, r *http.Request) {
	auth := cas.AuthenticationFrom(r.Context())
	if cas.Classify(cas.SecurityContextFrom(r.Context())) == cas.ClassAbsent {
		respondError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "No authentication present", nil)
		return
	}

	identity := Identity{
		User:        auth.Principal.Name(),
		Kind:        auth.Principal.Kind().String(),
		Authorities: auth.Authorities,
		Attributes:  auth.Attributes,
		Service:     auth.Service,
	}
	if identity.Authorities == nil {
		identity.Authorities = []string{}
	}
	if !auth.AuthenticatedAt.IsZero() {
		at := auth.AuthenticatedAt
		identity.AuthenticatedAt = &at
	}
	respondSuccess(w, r, identity)
}

// ProxyTicketResponse is the proxy-ticket payload.
type ProxyTicketResponse struct {
	ProxyTicket   string `json:"proxy_ticket"`
	TargetService string `json:"target_service"`
}

// ProxyTicket issues a proxy ticket for ?targetService= on behalf of the
// authenticated user.
func (h *Handler) ProxyTicket(w http.ResponseWriter, r *http.Request) {
	if h.issuer == nil {
		respondError(w, r, http.StatusNotImplemented, "PROXY_DISABLED", "Proxy tickets are not enabled", nil)
		return
	}
	if cas.Classify(cas.SecurityContextFrom(r.Context())) != cas.ClassReal {
		respondError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "A CAS login is required", nil)
		return
	}

	target := strings.TrimSpace(r.URL.Query().Get("targetService"))
	if target == "" {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "targetService is required", nil)
		return
	}

	pt, err := h.issuer.RequestProxyTicket(r.Context(), cas.AuthenticationFrom(r.Context()), target)
	switch {
	case err == nil:
		respondSuccess(w, r, ProxyTicketResponse{ProxyTicket: pt, TargetService: target})
	case errors.Is(err, casclient.ErrNoProxyGrantingTicket):
		respondError(w, r, http.StatusConflict, "NO_PGT", "No proxy granting ticket for this login", err)
	case errors.Is(err, casclient.ErrServerUnavailable):
		respondError(w, r, http.StatusServiceUnavailable, "CAS_UNAVAILABLE", "CAS server unavailable", err)
	default:
		respondError(w, r, http.StatusBadGateway, "PROXY_REJECTED", "CAS server refused the proxy request", err)
	}
}
