// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

/*
Casgate is an HTTP gateway that authenticates requests with CAS service
tickets.

# Process Layout

	casgate (root supervisor)
	├── storage-layer
	│   └── pgt-cleanup     (only with proxy support enabled)
	└── api-layer
	    └── http-server

Component initialization order:

 1. Configuration: koanf v2 (defaults, YAML file, CASGATE_* environment)
 2. Logging: zerolog, bridged to slog for the supervisor
 3. PGT storage: memory or BadgerDB (only with proxy support enabled)
 4. Ticket validator: CAS 2/3 over HTTP, wrapped in a circuit breaker
 5. CAS filter and anonymous middleware
 6. chi router, then the supervisor tree

# Commands

	casgate [serve]          run the gateway (default)
	casgate check-config     load and validate configuration, print a summary
	casgate version          print the build version

All commands accept --config/-c; CASGATE_CONFIG is used otherwise.

# Example

	export CASGATE_CAS_SERVER_URL=https://sso.example.org/cas
	export CASGATE_CAS_SERVICE_URL=https://app.example.org/login/cas
	./casgate serve

# Signal Handling

SIGINT and SIGTERM cancel the supervisor context. The HTTP server stops
accepting connections and waits up to server.shutdown_timeout for in-flight
requests; the PGT store is closed afterwards.
*/
package main
