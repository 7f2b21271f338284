// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

// Package services adapts casgate components to suture.Service.
//
//   - HTTPServerService: runs an *http.Server and shuts it down gracefully
//     when the supervisor context ends.
//   - PGTCleanupService: periodically evicts expired proxy granting ticket
//     mappings from the configured store.
//
// Both implement fmt.Stringer so suture logs them by name.
package services
