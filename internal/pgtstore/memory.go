// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package pgtstore

import (
	"context"
	"strings"
	"sync"
	"time"
)

const backendMemory = "memory"

// MemoryStore keeps mappings in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]ticketRecord
	ttl     time.Duration
	closed  bool

	// now is replaced in tests.
	now func() time.Time
}

// NewMemoryStore creates an in-memory store. A non-positive ttl means DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]ticketRecord),
		ttl:     normalizeTTL(ttl),
		now:     time.Now,
	}
}

// Save stores the mapping.
func (s *MemoryStore) Save(_ context.Context, pgtIou, pgtID string) error {
	pgtIou, pgtID = strings.TrimSpace(pgtIou), strings.TrimSpace(pgtID)
	if pgtIou == "" || pgtID == "" {
		recordOp(backendMemory, opSave, ErrInvalidTicket)
		return ErrInvalidTicket
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		recordOp(backendMemory, opSave, ErrClosed)
		return ErrClosed
	}

	now := s.now()
	s.entries[pgtIou] = ticketRecord{PGT: pgtID, StoredAt: now, ExpiresAt: now.Add(s.ttl)}
	StoredTickets.WithLabelValues(backendMemory).Set(float64(len(s.entries)))
	recordOp(backendMemory, opSave, nil)
	return nil
}

// Retrieve returns and removes the mapping.
func (s *MemoryStore) Retrieve(_ context.Context, pgtIou string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		recordOp(backendMemory, opRetrieve, ErrClosed)
		return "", ErrClosed
	}

	record, ok := s.entries[pgtIou]
	if ok {
		delete(s.entries, pgtIou)
		StoredTickets.WithLabelValues(backendMemory).Set(float64(len(s.entries)))
	}
	if !ok || record.expired(s.now()) {
		recordOp(backendMemory, opRetrieve, ErrTicketNotFound)
		return "", ErrTicketNotFound
	}

	recordOp(backendMemory, opRetrieve, nil)
	return record.PGT, nil
}

// Cleanup evicts expired mappings.
func (s *MemoryStore) Cleanup(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for iou, record := range s.entries {
		if record.expired(now) {
			delete(s.entries, iou)
			removed++
		}
	}

	StoredTickets.WithLabelValues(backendMemory).Set(float64(len(s.entries)))
	EvictedTickets.WithLabelValues(backendMemory).Add(float64(removed))
	return removed, nil
}

// Len returns the number of stored mappings, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close drops all mappings. Later calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = make(map[string]ticketRecord)
	StoredTickets.WithLabelValues(backendMemory).Set(0)
	return nil
}
