// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package cas

import (
	"net/http"
	"net/url"
	"strings"
)

// RequestView is the read-only slice of a request the decision functions see.
// Only the URL query is consulted; the body is never read.
type RequestView struct {
	Path       string
	Parameters url.Values

	// URL is the full request URL as the client addressed it. Used only for
	// service derivation in authenticate-all-artifacts mode.
	URL *url.URL
}

// ViewOf projects r into a RequestView.
func ViewOf(r *http.Request) RequestView {
	return RequestView{
		Path:       r.URL.Path,
		Parameters: r.URL.Query(),
		URL:        requestURL(r),
	}
}

// Parameter returns the first value for name and whether it was present.
func (v RequestView) Parameter(name string) (string, bool) {
	values, ok := v.Parameters[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// HasParameter reports whether name appears in the query at all.
func (v RequestView) HasParameter(name string) bool {
	_, ok := v.Parameter(name)
	return ok
}

// requestURL reconstructs the absolute URL of r. Behind a TLS-terminating
// proxy the scheme comes from X-Forwarded-Proto.
func requestURL(r *http.Request) *url.URL {
	u := *r.URL
	if u.Host == "" {
		u.Host = r.Host
	}
	if u.Scheme == "" {
		u.Scheme = forwardedScheme(r)
	}
	return &u
}

func forwardedScheme(r *http.Request) string {
	proto, _, _ := strings.Cut(r.Header.Get("X-Forwarded-Proto"), ",")
	switch proto = strings.ToLower(strings.TrimSpace(proto)); proto {
	case "http", "https":
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
