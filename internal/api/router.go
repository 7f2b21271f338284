// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/casgate/internal/middleware"
)

// RouterConfig holds the router's collaborators.
type RouterConfig struct {
	// Filter is the CAS filter middleware. Required.
	Filter func(http.Handler) http.Handler

	// Anonymous seeds an anonymous principal after the filter. Optional.
	Anonymous func(http.Handler) http.Handler

	Handler    *Handler
	Middleware *ChiMiddleware
}

// NewRouter builds the casgate HTTP handler.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Middleware == nil {
		cfg.Middleware = NewChiMiddleware(nil)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.HTTPMetrics)
	r.Use(cfg.Middleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(cfg.Filter)
	if cfg.Anonymous != nil {
		r.Use(cfg.Anonymous)
	}

	r.Get("/healthz", cfg.Handler.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/", cfg.Handler.WhoAmI)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cfg.Middleware.RateLimit())
		r.Get("/whoami", cfg.Handler.WhoAmI)
		r.Get("/proxy-ticket", cfg.Handler.ProxyTicket)
	})

	return r
}
