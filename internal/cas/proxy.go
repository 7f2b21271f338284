// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package cas

import "context"

// ProxyGrantingTicketStorage keeps PGTIOU -> PGT mappings delivered by the
// CAS server to the proxy receptor. The gates only check that one is present.
type ProxyGrantingTicketStorage interface {
	// Save records the PGT for the given IOU.
	Save(ctx context.Context, pgtIou, pgtID string) error

	// Retrieve returns and removes the PGT for iou.
	Retrieve(ctx context.Context, pgtIou string) (string, error)
}

// ProxyReceptorConfig enables proxy-granting-ticket callbacks. Both fields
// must be set; with either missing, proxy handling is disabled entirely.
type ProxyReceptorConfig struct {
	// ReceptorURL is the exact path the CAS server calls back on. Empty = absent.
	ReceptorURL string

	// Storage receives the tickets. Nil = absent.
	Storage ProxyGrantingTicketStorage
}

// Enabled reports whether both the URL and the storage are configured.
func (c ProxyReceptorConfig) Enabled() bool {
	return c.ReceptorURL != "" && c.Storage != nil
}

// IsProxyCallback reports whether req is a registered proxy-receptor callback.
// Configuring only the URL without storage never absorbs a request.
func IsProxyCallback(req RequestView, proxy ProxyReceptorConfig) bool {
	return proxy.ReceptorURL != "" &&
		proxy.ReceptorURL == req.Path &&
		proxy.Storage != nil
}
