// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/casgate/internal/config"
)

// MiddlewareConfig holds CORS and rate limit settings.
type MiddlewareConfig struct {
	// CORSAllowedOrigins empty disables CORS headers entirely.
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	CORSMaxAge         int // seconds

	// RateLimitRequests per RateLimitWindow per client IP. Zero disables.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// MiddlewareConfigFrom builds the middleware settings from server config.
func MiddlewareConfigFrom(cfg config.ServerConfig) *MiddlewareConfig {
	m := DefaultMiddlewareConfig()
	m.CORSAllowedOrigins = cfg.CORSOrigins
	m.RateLimitRequests = cfg.RateLimitRequests
	m.RateLimitWindow = cfg.RateLimitWindow
	return m
}

// DefaultMiddlewareConfig returns defaults with no CORS origins.
func DefaultMiddlewareConfig() *MiddlewareConfig {
	return &MiddlewareConfig{
		CORSAllowedOrigins: []string{},
		CORSAllowedMethods: []string{http.MethodGet, http.MethodOptions},
		CORSAllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		CORSMaxAge:         86400,
		RateLimitRequests:  100,
		RateLimitWindow:    time.Minute,
	}
}

// ChiMiddleware builds chi-compatible middleware from a MiddlewareConfig.
type ChiMiddleware struct {
	config *MiddlewareConfig
}

// NewChiMiddleware creates the factory. A nil config means the defaults.
func NewChiMiddleware(config *MiddlewareConfig) *ChiMiddleware {
	if config == nil {
		config = DefaultMiddlewareConfig()
	}
	return &ChiMiddleware{config: config}
}

func passThrough(next http.Handler) http.Handler { return next }

// CORS returns the go-chi/cors handler, or a no-op with no origins.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	if len(m.config.CORSAllowedOrigins) == 0 {
		return passThrough
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   m.config.CORSAllowedOrigins,
		AllowedMethods:   m.config.CORSAllowedMethods,
		AllowedHeaders:   m.config.CORSAllowedHeaders,
		AllowCredentials: false,
		MaxAge:           m.config.CORSMaxAge,
	})
}

// RateLimit limits requests per client IP, or is a no-op when disabled.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.config.RateLimitRequests <= 0 || m.config.RateLimitWindow <= 0 {
		return passThrough
	}
	return httprate.Limit(
		m.config.RateLimitRequests,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests", nil)
		}),
	)
}
