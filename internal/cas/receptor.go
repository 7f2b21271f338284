// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package cas

import (
	"io"
	"net/http"
	"strings"

	"github.com/tomtom215/casgate/internal/logging"
)

// Proxy callback query parameters sent by the CAS server.
const (
	ParamProxyGrantingTicketIOU = "pgtIou"
	ParamProxyGrantingTicket    = "pgtId"
)

// proxySuccessBody acknowledges a stored proxy-granting ticket.
const proxySuccessBody = `<?xml version="1.0"?>` +
	`<casClient:proxySuccess xmlns:casClient="http://www.yale.edu/tp/casClient" />`

// ProxyReceptor answers proxy-granting-ticket callbacks from the CAS server.
type ProxyReceptor struct {
	storage ProxyGrantingTicketStorage
}

// NewProxyReceptor returns a receptor writing into storage.
func NewProxyReceptor(storage ProxyGrantingTicketStorage) *ProxyReceptor {
	return &ProxyReceptor{storage: storage}
}

// Respond stores the PGT carried by r and acknowledges it. A callback without
// both parameters is the CAS server probing the endpoint and gets an empty 200.
func (p *ProxyReceptor) Respond(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	pgtIou := strings.TrimSpace(query.Get(ParamProxyGrantingTicketIOU))
	pgtID := strings.TrimSpace(query.Get(ParamProxyGrantingTicket))

	if pgtIou == "" || pgtID == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := p.storage.Save(r.Context(), pgtIou, pgtID); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to store proxy granting ticket")
		http.Error(w, "Internal server error: proxy granting ticket not stored", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, proxySuccessBody); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Failed to write proxy receptor response")
	}
}
