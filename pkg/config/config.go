/*
 * Copyright 2026 The MassaPay Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads and validates massa-agent configuration from files
// or the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/massapay/massa-agent/pkg/lifecycle"
	"github.com/massapay/massa-agent/pkg/logger"
	"github.com/massapay/massa-agent/pkg/models"
)

var (
	errInvalidConfigSource = errors.New("invalid CONFIG_SOURCE value")
)

const (
	configSourceFile = "file"
	configSourceEnv  = "env"
)

// Config holds the configuration loading dependencies.
type Config struct {
	defaultLoader ConfigLoader
	logger        logger.Logger
}

// NewConfig initializes a new Config instance with a default file loader.
// A nil logger gets a warn-level stderr logger.
func NewConfig(log logger.Logger) *Config {
	if log == nil {
		log = lifecycle.NewLoggerFromZerolog(
			zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger(),
		)
	}

	return &Config{
		defaultLoader: &FileConfigLoader{logger: log},
		logger:        log,
	}
}

// ValidateConfig validates a configuration if it implements Validator.
func ValidateConfig(cfg interface{}) error {
	v, ok := cfg.(Validator)
	if !ok {
		return nil
	}

	return v.Validate()
}

// LoadAndValidate fills cfg from the source named by CONFIG_SOURCE (file by
// default) and validates it. With the file source an empty path keeps the
// values already in cfg.
func (c *Config) LoadAndValidate(ctx context.Context, path string, cfg interface{}) error {
	loader, err := c.loaderFor(strings.ToLower(os.Getenv("CONFIG_SOURCE")), path)
	if err != nil {
		return err
	}

	if loader != nil {
		if err := loader.Load(ctx, path, cfg); err != nil {
			return err
		}
	}

	if err := ValidateConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

func (c *Config) loaderFor(source, path string) (ConfigLoader, error) {
	switch source {
	case configSourceEnv:
		prefix := os.Getenv("CONFIG_ENV_PREFIX")
		if prefix == "" {
			prefix = DefaultEnvPrefix
		}

		return NewEnvConfigLoader(c.logger, prefix), nil
	case configSourceFile, "":
		if path == "" {
			c.logger.Debug().Msg("No config file given, using defaults")

			return nil, nil
		}

		return c.defaultLoader, nil
	default:
		return nil, fmt.Errorf("%w: %s (expected '%s' or '%s')",
			errInvalidConfigSource, source, configSourceFile, configSourceEnv)
	}
}

// LoadBridgeConfig returns the defaults overlaid with whatever the configured
// source provides.
func LoadBridgeConfig(ctx context.Context, log logger.Logger, path string) (*models.BridgeConfig, error) {
	cfg := models.DefaultBridgeConfig()

	if err := NewConfig(log).LoadAndValidate(ctx, path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LogSafe logs cfg at debug level with sensitive fields removed.
func LogSafe(log logger.Logger, cfg interface{}) {
	safe, err := models.FilterSensitiveFields(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Unable to filter configuration for logging")
		return
	}

	log.Debug().Interface("config", safe).Msg("Effective configuration")
}
