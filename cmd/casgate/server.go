// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/tomtom215/casgate/internal/api"
	"github.com/tomtom215/casgate/internal/cas"
	"github.com/tomtom215/casgate/internal/casclient"
	"github.com/tomtom215/casgate/internal/config"
	"github.com/tomtom215/casgate/internal/logging"
	"github.com/tomtom215/casgate/internal/pgtstore"
	"github.com/tomtom215/casgate/internal/supervisor"
	"github.com/tomtom215/casgate/internal/supervisor/services"
)

// app holds the wired components of a running gateway.
type app struct {
	handler http.Handler

	// store is nil when proxy support is disabled.
	store pgtstore.Store
}

// Close releases the PGT store.
func (a *app) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// newApp wires storage, validation, the CAS filter and the router.
func newApp(cfg *config.Config) (*app, error) {
	service, err := cas.NewServiceConfig(
		cas.WithFilterProcessesURL(cfg.CAS.FilterProcessesURL),
		cas.WithArtifactParameter(cfg.CAS.ArtifactParameter),
		cas.WithAuthenticateAllArtifacts(cfg.CAS.AuthenticateAllArtifacts),
		cas.WithService(cfg.CAS.ServiceURL),
	)
	if err != nil {
		return nil, err
	}

	a := &app{}
	var opts []casclient.Option
	if cfg.Proxy.Enabled() {
		store, err := pgtstore.New(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to open pgt store: %w", err)
		}
		a.store = store
		opts = append(opts, casclient.WithProxyCallback(cfg.Proxy.CallbackURL))
		logging.Info().
			Str("receptor", cfg.Proxy.ReceptorURL).
			Str("backend", cfg.Storage.Backend).
			Msg("Proxy ticket support enabled")
	}

	validator, err := casclient.NewValidator(cfg.CAS, opts...)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to create ticket validator: %w", err)
	}

	var ticketValidator casclient.TicketValidator = validator
	var casStatus api.CASStatus
	if cfg.Breaker.Enabled {
		breaker := casclient.NewBreakerValidator(validator, cfg.Breaker)
		ticketValidator = breaker
		casStatus = breaker
	}

	providerCfg := casclient.ProviderConfig{
		AuthorityAttribute: cfg.CAS.AuthorityAttribute,
		DefaultAuthorities: cfg.CAS.DefaultAuthorities,
	}
	proxy := cas.ProxyReceptorConfig{ReceptorURL: cfg.Proxy.ReceptorURL}
	if a.store != nil {
		providerCfg.Storage = a.store
		proxy.Storage = a.store
	}

	provider, err := casclient.NewProvider(ticketValidator, providerCfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	filter, err := cas.NewFilter(cas.FilterConfig{
		Service:        service,
		Proxy:          proxy,
		Mechanism:      provider,
		SuccessHandler: &cas.RedirectSuccessHandler{TargetURL: cfg.CAS.SuccessURL},
		FailureHandler: &cas.StatusFailureHandler{FailureURL: cfg.CAS.FailureURL},
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	var issuer api.ProxyTicketIssuer
	if a.store != nil {
		issuer = provider
	}

	routerCfg := api.RouterConfig{
		Filter:     filter.Middleware,
		Handler:    api.NewHandler(issuer, casStatus, version),
		Middleware: api.NewChiMiddleware(api.MiddlewareConfigFrom(cfg.Server)),
	}
	if cfg.CAS.AnonymousName != "" {
		routerCfg.Anonymous = cas.AnonymousMiddleware(cfg.CAS.AnonymousName, cfg.CAS.AnonymousAuthorities...)
	}
	a.handler = api.NewRouter(routerCfg)

	logging.Info().
		Str("cas_server", cfg.CAS.ServerURL).
		Str("endpoint", validator.ValidationEndpoint()).
		Str("filter_processes_url", service.FilterProcessesURL()).
		Bool("authenticate_all_artifacts", service.AuthenticateAllArtifacts()).
		Bool("circuit_breaker", cfg.Breaker.Enabled).
		Msg("CAS filter configured")

	return a, nil
}

// serve runs the gateway until SIGINT or SIGTERM.
func serve(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing pgt store")
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	if a.store != nil {
		tree.AddStorageService(services.NewPGTCleanupService(a.store, cfg.Storage.CleanupInterval))
	}

	addr := cfg.Server.Address()
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(srv, addr, cfg.Server.ShutdownTimeout))

	err = tree.Serve(ctx)
	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		logging.Warn().Int("count", len(report)).Msg("Services did not stop within the shutdown timeout")
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor stopped: %w", err)
	}
	logging.Info().Msg("casgate stopped")
	return nil
}
