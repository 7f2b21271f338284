// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

// Package pgtstore holds proxy-granting tickets between the CAS server's
// callback and the ticket validation response that names them.
//
// The CAS server delivers the PGT to the proxy receptor before it answers
// the validation request, keyed by a PGTIOU that the validation response
// later repeats. A mapping is therefore short-lived: it is claimed once,
// by Retrieve, and otherwise expires after the configured TTL.
//
// Two backends exist:
//
//   - MemoryStore: map guarded by a mutex, lost on restart
//   - BadgerStore: BadgerDB with native entry TTLs, survives restarts
package pgtstore

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is how long an unclaimed PGTIOU mapping is kept.
const DefaultTTL = 60 * time.Second

var (
	// ErrTicketNotFound is returned when no live mapping exists for a PGTIOU.
	ErrTicketNotFound = errors.New("proxy granting ticket not found")

	// ErrInvalidTicket is returned when Save is given a blank PGTIOU or PGT.
	ErrInvalidTicket = errors.New("proxy granting ticket and IOU are required")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("proxy granting ticket store closed")
)

// Store is a proxy-granting-ticket storage backend. It satisfies
// cas.ProxyGrantingTicketStorage.
type Store interface {
	// Save maps pgtIou to pgtID, replacing any previous mapping.
	Save(ctx context.Context, pgtIou, pgtID string) error

	// Retrieve returns and removes the PGT for pgtIou.
	// Returns ErrTicketNotFound when absent or expired.
	Retrieve(ctx context.Context, pgtIou string) (string, error)

	// Cleanup evicts expired mappings and reports how many were removed.
	Cleanup(ctx context.Context) (int, error)

	// Close releases backend resources.
	Close() error
}

// ticketRecord is the stored value. ExpiresAt is checked on read so expiry
// is exact even where the backend evicts lazily.
type ticketRecord struct {
	PGT       string    `json:"pgt"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (r ticketRecord) expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

func normalizeTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
