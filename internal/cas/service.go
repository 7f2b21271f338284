// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package cas

import "strings"

const (
	// DefaultFilterProcessesURL is the path CAS redirects back to after login.
	DefaultFilterProcessesURL = "/login/cas"

	// DefaultArtifactParameter is the query parameter carrying the service ticket.
	DefaultArtifactParameter = "ticket"
)

// ServiceConfig describes this service to the filter. It is immutable once
// built; use NewServiceConfig with options to construct one.
type ServiceConfig struct {
	filterProcessesURL       string
	artifactParameter        string
	authenticateAllArtifacts bool
	service                  string
}

// ServiceOption customizes a ServiceConfig during construction.
type ServiceOption func(*ServiceConfig)

// WithFilterProcessesURL sets the exact path that always triggers authentication.
func WithFilterProcessesURL(path string) ServiceOption {
	return func(c *ServiceConfig) { c.filterProcessesURL = path }
}

// WithArtifactParameter sets the query parameter name holding the ticket.
func WithArtifactParameter(name string) ServiceOption {
	return func(c *ServiceConfig) { c.artifactParameter = name }
}

// WithAuthenticateAllArtifacts lets any request carrying the artifact
// parameter trigger authentication, not just the filter processes URL.
func WithAuthenticateAllArtifacts(enabled bool) ServiceOption {
	return func(c *ServiceConfig) { c.authenticateAllArtifacts = enabled }
}

// WithService sets the service URL registered with the CAS server.
func WithService(serviceURL string) ServiceOption {
	return func(c *ServiceConfig) { c.service = serviceURL }
}

// NewServiceConfig builds a ServiceConfig from defaults and options.
// Returns a *ConfigurationError when a required value ends up empty.
func NewServiceConfig(opts ...ServiceOption) (*ServiceConfig, error) {
	c := &ServiceConfig{
		filterProcessesURL: DefaultFilterProcessesURL,
		artifactParameter:  DefaultArtifactParameter,
	}
	for _, opt := range opts {
		opt(c)
	}

	if strings.TrimSpace(c.filterProcessesURL) == "" {
		return nil, &ConfigurationError{Field: "filter_processes_url", Reason: "must not be empty"}
	}
	if strings.TrimSpace(c.artifactParameter) == "" {
		return nil, &ConfigurationError{Field: "artifact_parameter", Reason: "must not be empty"}
	}

	return c, nil
}

// MustServiceConfig is like NewServiceConfig but panics on error.
// Intended for tests and package-level defaults.
func MustServiceConfig(opts ...ServiceOption) *ServiceConfig {
	c, err := NewServiceConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// FilterProcessesURL returns the dedicated login callback path.
func (c *ServiceConfig) FilterProcessesURL() string { return c.filterProcessesURL }

// ArtifactParameter returns the name of the ticket query parameter.
func (c *ServiceConfig) ArtifactParameter() string { return c.artifactParameter }

// AuthenticateAllArtifacts reports whether any path may carry a ticket.
func (c *ServiceConfig) AuthenticateAllArtifacts() bool { return c.authenticateAllArtifacts }

// Service returns the configured service URL (may be empty).
func (c *ServiceConfig) Service() string { return c.service }
