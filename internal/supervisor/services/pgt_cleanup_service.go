// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package services

import (
	"context"
	"time"

	"github.com/tomtom215/casgate/internal/logging"
)

// Cleaner evicts expired entries and reports how many were removed.
// Satisfied by pgtstore.Store.
type Cleaner interface {
	Cleanup(ctx context.Context) (int, error)
}

// PGTCleanupService runs Cleanup on a fixed interval.
//
// A failed sweep is logged and retried on the next tick rather than
// returned, so a transient storage error does not count as a crash.
type PGTCleanupService struct {
	store    Cleaner
	interval time.Duration
}

// NewPGTCleanupService creates the service. A non-positive interval means 30s.
func NewPGTCleanupService(store Cleaner, interval time.Duration) *PGTCleanupService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &PGTCleanupService{store: store, interval: interval}
}

// Serve sweeps until ctx is canceled.
func (s *PGTCleanupService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *PGTCleanupService) sweep(ctx context.Context) {
	removed, err := s.store.Cleanup(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Proxy granting ticket cleanup failed")
		return
	}
	if removed > 0 {
		logging.Debug().Int("removed", removed).Msg("Evicted expired proxy granting tickets")
	}
}

func (s *PGTCleanupService) String() string {
	return "pgt-cleanup"
}
