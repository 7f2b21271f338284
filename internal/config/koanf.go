// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"casgate.yaml",
	"casgate.yml",
	"/etc/casgate/casgate.yaml",
	"/etc/casgate/casgate.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CASGATE_CONFIG"

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "CASGATE_"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       2 * time.Minute,
			ShutdownTimeout:   10 * time.Second,
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			CORSOrigins:       []string{},
		},
		CAS: CASConfig{
			ServerURL:                "",
			ServiceURL:               "",
			FilterProcessesURL:       "/login/cas",
			ArtifactParameter:        "ticket",
			AuthenticateAllArtifacts: false,
			Protocol:                 "cas3",
			ResponseFormat:           "xml",
			Timeout:                  10 * time.Second,
			ValidationRateLimit:      0,
			ValidationBurst:          20,
			DefaultAuthorities:       []string{"ROLE_USER"},
			SuccessURL:               "/",
			AnonymousName:            "anonymousUser",
			AnonymousAuthorities:     []string{"ROLE_ANONYMOUS"},
		},
		Storage: StorageConfig{
			Backend:         "memory",
			Path:            "/data/pgt",
			TicketTTL:       60 * time.Second,
			CleanupInterval: 30 * time.Second,
		},
		Breaker: BreakerConfig{
			Enabled:      true,
			MaxRequests:  3,
			Interval:     time.Minute,
			Timeout:      30 * time.Second,
			MinRequests:  10,
			FailureRatio: 0.6,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load reads configuration from defaults, a YAML file, and CASGATE_*
// environment variables, then validates the result.
//
// path selects the config file explicitly. When empty, CASGATE_CONFIG and
// DefaultConfigPaths are searched; no file at all is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath, err := resolveConfigFile(path)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// resolveConfigFile returns the config file to load. An explicit path must
// exist; discovered paths are optional.
func resolveConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}

	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", nil
}

// sliceConfigPaths lists list-valued keys that may arrive as comma-separated
// strings from the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"cas.default_authorities",
	"cas.anonymous_authorities",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (without EnvPrefix, lower
// case) to koanf keys. Variables not listed are ignored.
var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"rate_limit_requests":   "server.rate_limit_requests",
	"rate_limit_window":     "server.rate_limit_window",
	"cors_origins":          "server.cors_origins",

	"cas_server_url":                 "cas.server_url",
	"cas_service_url":                "cas.service_url",
	"cas_filter_processes_url":       "cas.filter_processes_url",
	"cas_artifact_parameter":         "cas.artifact_parameter",
	"cas_authenticate_all_artifacts": "cas.authenticate_all_artifacts",
	"cas_protocol":                   "cas.protocol",
	"cas_response_format":            "cas.response_format",
	"cas_renew":                      "cas.renew",
	"cas_accept_proxy_tickets":       "cas.accept_proxy_tickets",
	"cas_timeout":                    "cas.timeout",
	"cas_validation_rate_limit":      "cas.validation_rate_limit",
	"cas_validation_burst":           "cas.validation_burst",
	"cas_authority_attribute":        "cas.authority_attribute",
	"cas_default_authorities":        "cas.default_authorities",
	"cas_success_url":                "cas.success_url",
	"cas_failure_url":                "cas.failure_url",
	"cas_anonymous_name":             "cas.anonymous_name",
	"cas_anonymous_authorities":      "cas.anonymous_authorities",

	"proxy_receptor_url": "proxy.receptor_url",
	"proxy_callback_url": "proxy.callback_url",

	"storage_backend":          "storage.backend",
	"storage_path":             "storage.path",
	"storage_ticket_ttl":       "storage.ticket_ttl",
	"storage_cleanup_interval": "storage.cleanup_interval",

	"breaker_enabled":       "breaker.enabled",
	"breaker_max_requests":  "breaker.max_requests",
	"breaker_interval":      "breaker.interval",
	"breaker_timeout":       "breaker.timeout",
	"breaker_min_requests":  "breaker.min_requests",
	"breaker_failure_ratio": "breaker.failure_ratio",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps CASGATE_* variables to koanf keys. Returning ""
// makes koanf skip the variable.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return envMappings[key]
}
