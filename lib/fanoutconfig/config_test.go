// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fanoutconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.SocketPath == "" {
		t.Error("expected a non-empty default socket_path")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected log_level=info, got %s", cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() should validate cleanly, got %v", err)
	}
}

func TestLoad_FallsBackToDefaultWhenUnset(t *testing.T) {
	orig := os.Getenv("FANOUT_COORDINATOR_CONFIG")
	defer os.Setenv("FANOUT_COORDINATOR_CONFIG", orig)
	os.Unsetenv("FANOUT_COORDINATOR_CONFIG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with unset env var should fall back, got error: %v", err)
	}
	if cfg.SocketPath != Default().SocketPath {
		t.Errorf("expected default socket_path, got %s", cfg.SocketPath)
	}
}

func TestLoad_WithConfigFile(t *testing.T) {
	orig := os.Getenv("FANOUT_COORDINATOR_CONFIG")
	defer os.Setenv("FANOUT_COORDINATOR_CONFIG", orig)

	dir := t.TempDir()
	path := filepath.Join(dir, "coordinator.yaml")
	content := `
socket_path: /tmp/custom-coordinator.sock
observer_addr: 0.0.0.0:9999
default_max_rounds: 5
collection_window_millis: 500
response_timeout_seconds: 30
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	os.Setenv("FANOUT_COORDINATOR_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.SocketPath != "/tmp/custom-coordinator.sock" {
		t.Errorf("expected overridden socket_path, got %s", cfg.SocketPath)
	}
	if cfg.DefaultMaxRounds != 5 {
		t.Errorf("expected default_max_rounds=5, got %d", cfg.DefaultMaxRounds)
	}
	if cfg.CollectionWindowMillis != 500 {
		t.Errorf("expected collection_window_millis=500, got %d", cfg.CollectionWindowMillis)
	}
	if cfg.ResponseTimeoutSeconds != 30 {
		t.Errorf("expected response_timeout_seconds=30, got %d", cfg.ResponseTimeoutSeconds)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log_level=debug, got %s", cfg.LogLevel)
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	if _, err := LoadFile("/no/such/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate_RejectsUnknownLogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log_level")
	}
}

func TestValidate_RejectsEmptySocketPath(t *testing.T) {
	cfg := Default()
	cfg.SocketPath = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty socket_path")
	}
}
