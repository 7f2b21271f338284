// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

/*
Package cas implements the decision core of a CAS (Central Authentication
Service) single-sign-on filter.

For every inbound request the Filter decides whether the request is:

  - a proxy-granting-ticket callback from the CAS server, which is absorbed
    and never reaches the application,
  - a service-ticket callback that must be authenticated, or
  - unrelated traffic that flows through untouched.

Decision Order:

RequiresAuthentication evaluates its conditions in a fixed order, first match
wins:

 1. proxy callback                        -> false
 2. path equals the filter processes URL  -> true
 3. authenticate-all-artifacts disabled   -> false
 4. artifact parameter missing            -> false
 5. a real (non-anonymous) principal      -> false
 6. otherwise                             -> true

Reordering these checks changes who gets authenticated. Keep them in this order.

Security Context:

There is no global holder. The current Authentication travels in the request
context:

	sc := cas.SecurityContextFrom(r.Context())
	if auth := sc.Authentication(); auth != nil {
	    logging.Ctx(r.Context()).Info().Str("user", auth.Principal.Name()).Msg("request")
	}

On success the Filter hands a request carrying the new SecurityContext to the
success handler or the downstream chain. Nothing is shared across requests.

Usage Example:

	svc, err := cas.NewServiceConfig(
	    cas.WithService("https://app.example.com/login/cas"),
	)
	if err != nil {
	    log.Fatal(err)
	}

	filter, err := cas.NewFilter(cas.FilterConfig{
	    Service:   svc,
	    Proxy:     cas.ProxyReceptorConfig{ReceptorURL: "/pgtCallback", Storage: store},
	    Mechanism: provider, // e.g. casclient.Provider
	})
	if err != nil {
	    log.Fatal(err)
	}

	router.Use(filter.Middleware)

Thread Safety:

ServiceConfig, ProxyReceptorConfig, TicketAuthenticator and Filter are
read-only after construction and safe for concurrent use.
*/
package cas
