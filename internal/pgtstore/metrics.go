// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package pgtstore

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	opSave     = "save"
	opRetrieve = "retrieve"
)

var (
	// Operations counts store calls by backend, operation and result.
	Operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casgate_pgt_store_operations_total",
			Help: "Proxy granting ticket store operations by backend, operation and result",
		},
		[]string{"backend", "operation", "result"},
	)

	// StoredTickets is the number of mappings currently held (memory backend).
	StoredTickets = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "casgate_pgt_store_entries",
			Help: "Proxy granting ticket mappings currently stored",
		},
		[]string{"backend"},
	)

	// EvictedTickets counts mappings removed by Cleanup.
	EvictedTickets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casgate_pgt_store_evictions_total",
			Help: "Expired proxy granting ticket mappings evicted by cleanup",
		},
		[]string{"backend"},
	)
)

func recordOp(backend, op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrTicketNotFound):
		result = "not_found"
	case errors.Is(err, ErrInvalidTicket):
		result = "invalid"
	default:
		result = "error"
	}
	Operations.WithLabelValues(backend, op, result).Inc()
}
