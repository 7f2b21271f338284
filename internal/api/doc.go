// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

/*
Package api wires the CAS filter into a chi router and serves casgate's own
endpoints.

# Middleware Order

	RequestID -> RealIP -> Recoverer -> HTTPMetrics -> CORS -> CAS filter -> anonymous

The CAS filter runs for every request so it can absorb proxy callbacks and
handle the filter processes URL, neither of which has a route.

# Endpoints

	GET /healthz                 liveness plus CAS server circuit state
	GET /metrics                 Prometheus metrics
	GET /                        current identity (same as whoami)
	GET /api/v1/whoami           current identity
	GET /api/v1/proxy-ticket     proxy ticket for ?targetService=

The /api/v1 group is rate limited per client IP with go-chi/httprate.
*/
package api
