// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package cas

import "net/http"

const (
	// DefaultAnonymousName is the principal name of anonymous users.
	DefaultAnonymousName = "anonymousUser"

	// DefaultAnonymousAuthority is granted to anonymous users.
	DefaultAnonymousAuthority = "ROLE_ANONYMOUS"
)

// AnonymousMiddleware fills an empty security context with an anonymous
// authentication. Install it after the CAS filter so a ticket on the request
// still gets a chance to authenticate.
func AnonymousMiddleware(name string, authorities ...string) func(http.Handler) http.Handler {
	if name == "" {
		name = DefaultAnonymousName
	}
	if len(authorities) == 0 {
		authorities = []string{DefaultAnonymousAuthority}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc := SecurityContextFrom(r.Context())
			if sc.Authentication() == nil {
				anon := NewAnonymousAuthentication(name, authorities...)
				r = r.WithContext(WithSecurityContext(r.Context(), sc.WithAuthentication(anon)))
			}
			next.ServeHTTP(w, r)
		})
	}
}
