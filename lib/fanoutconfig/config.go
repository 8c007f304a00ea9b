// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fanoutconfig provides configuration loading for the
// coordinator daemon.
//
// Configuration is loaded from a single file named by the
// FANOUT_COORDINATOR_CONFIG environment variable. There is no
// discovery or search path. Unlike a service that must refuse to
// start without its config, the coordinator daemon is useful
// standalone (a single process, no external dependencies), so when
// the environment variable is unset, Load falls back to an in-code
// default rather than failing.
package fanoutconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the coordinator daemon's configuration.
type Config struct {
	// SocketPath is the Unix socket the wire protocol listens on.
	SocketPath string `yaml:"socket_path"`

	// ObserverAddr is the TCP address the observer WebSocket hub
	// listens on (host:port). Empty disables the observer endpoint.
	ObserverAddr string `yaml:"observer_addr"`

	// DefaultMaxRounds overrides fanout.DefaultMaxRounds for channels
	// created without an explicit per-registration value. Zero means
	// "use the package default".
	DefaultMaxRounds int `yaml:"default_max_rounds"`

	// CollectionWindowMillis overrides fanout.AgentCollectionWindow.
	// Zero means "use the package default".
	CollectionWindowMillis int `yaml:"collection_window_millis"`

	// ResponseTimeoutSeconds overrides fanout.AgentResponseTimeout.
	// Zero means "use the package default".
	ResponseTimeoutSeconds int `yaml:"response_timeout_seconds"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no config file is
// supplied.
func Default() *Config {
	return &Config{
		SocketPath:   "/run/fanout-coordinator/coordinator.sock",
		ObserverAddr: "127.0.0.1:9480",
		LogLevel:     "info",
	}
}

// Load reads the config named by FANOUT_COORDINATOR_CONFIG. If the
// variable is unset, Load returns Default() unmodified.
func Load() (*Config, error) {
	path := os.Getenv("FANOUT_COORDINATOR_CONFIG")
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, layered over
// Default().
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for obvious errors.
func (c *Config) Validate() error {
	if c.SocketPath == "" {
		return fmt.Errorf("socket_path is required")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	return nil
}
