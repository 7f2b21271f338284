// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package cas

// RequiresAuthentication decides whether standard ticket authentication
// should run for req. Checks run in a fixed order and the first decisive one
// wins; later checks assume the earlier ones did not decide.
func RequiresAuthentication(req RequestView, service *ServiceConfig, proxy ProxyReceptorConfig, sc SecurityContext) bool {
	// Proxy callbacks are absorbed separately and never re-enter this path.
	if IsProxyCallback(req, proxy) {
		return false
	}

	if req.Path == service.FilterProcessesURL() {
		return true
	}

	if !service.AuthenticateAllArtifacts() {
		return false
	}

	if !req.HasParameter(service.ArtifactParameter()) {
		return false
	}

	// A real principal is never re-authenticated, even with a ticket present.
	if Classify(sc) == ClassReal {
		return false
	}

	return true
}
