// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/casgate/internal/config"
	"github.com/tomtom215/casgate/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "casgate",
		Short: "CAS single sign-on authentication gateway",
		Long: `casgate validates CAS service tickets on incoming requests, establishes
the authenticated principal and serves a small identity API.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file (YAML)")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the gateway",
			Args:  cobra.NoArgs,
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "check-config",
			Short: "Validate configuration and print the effective settings",
			Args:  cobra.NoArgs,
			RunE:  runCheckConfig,
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)
	return rootCmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to read --config flag: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Str("version", version).Msg("Starting casgate")

	return serve(cmd.Context(), cfg)
}

// configSummary is what check-config prints. Secrets are never part of it.
type configSummary struct {
	Listen              string `json:"listen"`
	CASServer           string `json:"cas_server"`
	Protocol            string `json:"protocol"`
	ResponseFormat      string `json:"response_format"`
	Service             string `json:"service,omitempty"`
	FilterProcessesURL  string `json:"filter_processes_url"`
	AuthenticateAll     bool   `json:"authenticate_all_artifacts"`
	ProxyEnabled        bool   `json:"proxy_enabled"`
	StorageBackend      string `json:"storage_backend,omitempty"`
	CircuitBreaker      bool   `json:"circuit_breaker"`
	ValidationRateLimit string `json:"validation_rate_limit"`
}

func runCheckConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	summary := configSummary{
		Listen:             cfg.Server.Address(),
		CASServer:          cfg.CAS.ServerURL,
		Protocol:           cfg.CAS.Protocol,
		ResponseFormat:     cfg.CAS.ResponseFormat,
		Service:            cfg.CAS.ServiceURL,
		FilterProcessesURL: cfg.CAS.FilterProcessesURL,
		AuthenticateAll:    cfg.CAS.AuthenticateAllArtifacts,
		ProxyEnabled:       cfg.Proxy.Enabled(),
		CircuitBreaker:     cfg.Breaker.Enabled,
	}
	if cfg.Proxy.Enabled() {
		summary.StorageBackend = cfg.Storage.Backend
	}
	summary.ValidationRateLimit = "unlimited"
	if cfg.CAS.ValidationRateLimit > 0 {
		summary.ValidationRateLimit = fmt.Sprintf("%g/s burst %d", cfg.CAS.ValidationRateLimit, cfg.CAS.ValidationBurst)
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "configuration OK\n%s\n", out)
	return nil
}
