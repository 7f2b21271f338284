// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package pgtstore

import (
	"fmt"

	"github.com/tomtom215/casgate/internal/config"
	"github.com/tomtom215/casgate/internal/logging"
)

// New builds the store selected by cfg.Backend ("memory" or "badger").
func New(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "", backendMemory:
		logging.Info().Dur("ttl", normalizeTTL(cfg.TicketTTL)).Msg("Using in-memory proxy granting ticket store")
		return NewMemoryStore(cfg.TicketTTL), nil
	case backendBadger:
		if cfg.Path == "" {
			return nil, fmt.Errorf("badger proxy granting ticket store requires a path")
		}
		store, err := OpenBadgerStore(cfg.Path, cfg.TicketTTL)
		if err != nil {
			return nil, err
		}
		logging.Info().Str("path", cfg.Path).Dur("ttl", store.ttl).Msg("Using badger proxy granting ticket store")
		return store, nil
	default:
		return nil, fmt.Errorf("unknown proxy granting ticket store backend %q", cfg.Backend)
	}
}
