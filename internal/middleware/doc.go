// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

/*
Package middleware provides the HTTP infrastructure middleware that wraps the
CAS filter.

Key Components:

  - RequestID: request tracking through X-Request-ID and the logging context
  - HTTPMetrics: Prometheus instrumentation keyed by chi route pattern

Middleware Stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)      // Layer 1: request tracking
	r.Use(chimw.Recoverer)           // Layer 2: panic recovery
	r.Use(middleware.HTTPMetrics)    // Layer 3: metrics
	r.Use(httprate.LimitByIP(...))   // Layer 4: rate limiting
	r.Use(filter.Middleware)         // Layer 5: CAS authentication

All middleware use the func(http.Handler) http.Handler shape so they plug into
chi directly.
*/
package middleware
