// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	CAS     CASConfig     `koanf:"cas"`
	Proxy   ProxyConfig   `koanf:"proxy"`
	Storage StorageConfig `koanf:"storage"`
	Breaker BreakerConfig `koanf:"breaker"`
	Logging LoggingConfig `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	// RateLimitRequests per RateLimitWindow per client IP. Zero disables the limiter.
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`

	// CORSOrigins lists allowed browser origins. Empty disables CORS headers.
	CORSOrigins []string `koanf:"cors_origins"`
}

// Address returns host:port for the listener.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// CASConfig holds the CAS filter and ticket validation settings.
type CASConfig struct {
	// ServerURL is the CAS server prefix, e.g. https://sso.example.org/cas.
	ServerURL string `koanf:"server_url" validate:"required,url"`

	// ServiceURL identifies this application to the CAS server. Required
	// unless AuthenticateAllArtifacts derives it per request.
	ServiceURL string `koanf:"service_url" validate:"omitempty,url"`

	FilterProcessesURL       string `koanf:"filter_processes_url" validate:"required,startswith=/"`
	ArtifactParameter        string `koanf:"artifact_parameter" validate:"required"`
	AuthenticateAllArtifacts bool   `koanf:"authenticate_all_artifacts"`

	// Protocol selects the validation endpoint: cas2 (/serviceValidate) or
	// cas3 (/p3/serviceValidate).
	Protocol string `koanf:"protocol" validate:"oneof=cas2 cas3"`

	// ResponseFormat is xml or json. JSON requires a CAS 3 server.
	ResponseFormat string `koanf:"response_format" validate:"oneof=xml json"`

	Renew              bool          `koanf:"renew"`
	AcceptProxyTickets bool          `koanf:"accept_proxy_tickets"`
	Timeout            time.Duration `koanf:"timeout" validate:"gt=0"`

	// ValidationRateLimit caps outbound validation requests per second.
	// Zero means unlimited.
	ValidationRateLimit float64 `koanf:"validation_rate_limit" validate:"gte=0"`
	ValidationBurst     int     `koanf:"validation_burst" validate:"gte=0"`

	// AuthorityAttribute names the CAS attribute whose values become
	// authorities. Empty means only DefaultAuthorities are granted.
	AuthorityAttribute string   `koanf:"authority_attribute"`
	DefaultAuthorities []string `koanf:"default_authorities"`

	SuccessURL string `koanf:"success_url"`
	FailureURL string `koanf:"failure_url"`

	AnonymousName        string   `koanf:"anonymous_name"`
	AnonymousAuthorities []string `koanf:"anonymous_authorities"`
}

// ProxyConfig holds proxy-granting-ticket receptor settings. Both fields
// empty disables proxy support.
type ProxyConfig struct {
	// ReceptorURL is the request path the CAS server calls back on.
	ReceptorURL string `koanf:"receptor_url" validate:"omitempty,startswith=/"`

	// CallbackURL is the absolute URL sent to the CAS server as pgtUrl.
	CallbackURL string `koanf:"callback_url" validate:"omitempty,url"`
}

// Enabled reports whether proxy tickets are requested and received.
func (p ProxyConfig) Enabled() bool {
	return p.ReceptorURL != "" && p.CallbackURL != ""
}

// StorageConfig holds proxy-granting-ticket storage settings.
type StorageConfig struct {
	// Backend is memory or badger.
	Backend string `koanf:"backend" validate:"oneof=memory badger"`

	// Path is the badger directory. Required for the badger backend.
	Path string `koanf:"path"`

	// TicketTTL bounds how long an unclaimed PGTIOU mapping is kept.
	TicketTTL       time.Duration `koanf:"ticket_ttl" validate:"gt=0"`
	CleanupInterval time.Duration `koanf:"cleanup_interval" validate:"gt=0"`
}

// BreakerConfig holds circuit breaker settings for the CAS server client.
type BreakerConfig struct {
	Enabled bool `koanf:"enabled"`

	// MaxRequests allowed while half-open.
	MaxRequests uint32 `koanf:"max_requests" validate:"min=1"`

	// Interval resets the closed-state counts. Zero never resets.
	Interval time.Duration `koanf:"interval" validate:"gte=0"`

	// Timeout is the open-state wait before probing again.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// The breaker trips once MinRequests have been seen and the failure
	// ratio reaches FailureRatio.
	MinRequests  uint32  `koanf:"min_requests" validate:"min=1"`
	FailureRatio float64 `koanf:"failure_ratio" validate:"gt=0,lte=1"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level" validate:"oneof=trace debug info warn error"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format" validate:"oneof=json console"`

	// Caller adds file:line to each entry.
	Caller bool `koanf:"caller"`
}
