// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// structValidator returns the shared validator. Field names in errors use
// koanf keys so they match the config file.
func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks field constraints and cross-field requirements.
func (c *Config) Validate() error {
	if err := structValidator().Struct(c); err != nil {
		return translateValidationError(err)
	}

	if err := c.validateCAS(); err != nil {
		return err
	}
	if err := c.validateProxy(); err != nil {
		return err
	}
	return c.validateStorage()
}

func (c *Config) validateCAS() error {
	if !c.CAS.AuthenticateAllArtifacts && c.CAS.ServiceURL == "" {
		return fmt.Errorf("cas.service_url is required unless cas.authenticate_all_artifacts is enabled")
	}
	if c.CAS.ResponseFormat == "json" && c.CAS.Protocol != "cas3" {
		return fmt.Errorf("cas.response_format=json requires cas.protocol=cas3")
	}
	if c.Proxy.ReceptorURL != "" && c.Proxy.ReceptorURL == c.CAS.FilterProcessesURL {
		// The receptor would shadow every login callback.
		return fmt.Errorf("proxy.receptor_url must differ from cas.filter_processes_url")
	}
	return nil
}

func (c *Config) validateProxy() error {
	if (c.Proxy.ReceptorURL == "") != (c.Proxy.CallbackURL == "") {
		return fmt.Errorf("proxy.receptor_url and proxy.callback_url must be set together")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.Backend == "badger" && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required for the badger backend")
	}
	return nil
}

// translateValidationError flattens validator errors into one message naming
// each offending key.
func translateValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := strings.ToLower(strings.TrimPrefix(fe.Namespace(), "Config."))
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", key, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", key, fe.Tag()))
		}
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
