// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

/*
Package config provides layered configuration loading for casgate.

# Configuration Sources

Sources are applied in order, later sources overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. YAML config file (--config flag, CASGATE_CONFIG, or DefaultConfigPaths)
 3. CASGATE_* environment variables

Comma-separated environment values are split for list fields such as
cas.default_authorities.

# Configuration Structure

  - ServerConfig: HTTP listener, timeouts, rate limiting
  - CASConfig: CAS server location, filter URL, artifact parameter,
    authenticate-all-artifacts mode, validation protocol, handler targets
  - ProxyConfig: proxy-granting-ticket receptor and callback URLs
  - StorageConfig: proxy-granting-ticket storage backend and TTLs
  - BreakerConfig: circuit breaker around the CAS server
  - LoggingConfig: zerolog level, format, caller info

# Environment Variables

CAS:
  - CASGATE_CAS_SERVER_URL: CAS server prefix, e.g. https://sso.example.org/cas (required)
  - CASGATE_CAS_SERVICE_URL: service URL sent with tickets (required unless authenticate-all)
  - CASGATE_CAS_FILTER_PROCESSES_URL: login callback path (default: /login/cas)
  - CASGATE_CAS_ARTIFACT_PARAMETER: ticket parameter name (default: ticket)
  - CASGATE_CAS_AUTHENTICATE_ALL_ARTIFACTS: authenticate tickets on any path (default: false)
  - CASGATE_CAS_PROTOCOL: cas2 or cas3 (default: cas3)
  - CASGATE_CAS_DEFAULT_AUTHORITIES: comma-separated authorities (default: ROLE_USER)

Proxy tickets:
  - CASGATE_PROXY_RECEPTOR_URL: path the CAS server calls back on
  - CASGATE_PROXY_CALLBACK_URL: absolute URL sent as pgtUrl

Storage:
  - CASGATE_STORAGE_BACKEND: memory or badger (default: memory)
  - CASGATE_STORAGE_PATH: badger directory
  - CASGATE_STORAGE_TICKET_TTL: proxy-granting-ticket lifetime (default: 60s)

Server and logging:
  - CASGATE_HTTP_HOST, CASGATE_HTTP_PORT
  - CASGATE_LOG_LEVEL, CASGATE_LOG_FORMAT, CASGATE_LOG_CALLER

# Usage Example

	cfg, err := config.Load(configPath)
	if err != nil {
	    log.Fatalf("Failed to load config: %v", err)
	}
	fmt.Println(cfg.Server.Address())

# Thread Safety

Config values are read-only after Load returns and safe to share between
goroutines.
*/
package config
