// Package testutil provides test utilities and helpers for secretsadapter tests.
//
// This package contains shared test infrastructure including configuration
// builders, environment helpers and logger capture.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/systmms/secretsadapter/internal/config"
	"github.com/systmms/secretsadapter/internal/logging"
)

// TestConfigBuilder provides a fluent API for building test configurations.
//
// Example usage:
//
//	cfg := NewTestConfig(t).
//	    WithProvider("bitwarden", map[string]any{
//	        "server_url": server.URL,
//	        "api_key":    "token",
//	    }).
//	    WithDefault("bitwarden").
//	    Load()
type TestConfigBuilder struct {
	config  *config.Definition
	tempDir string
	t       *testing.T
}

// NewTestConfig creates a new TestConfigBuilder starting from version: 1 and
// no providers.
func NewTestConfig(t *testing.T) *TestConfigBuilder {
	t.Helper()

	return &TestConfigBuilder{
		config: &config.Definition{
			Version:   config.CurrentVersion,
			Providers: make(map[string]map[string]interface{}),
		},
		tempDir: t.TempDir(),
		t:       t,
	}
}

// WithProvider adds a provider section.
func (b *TestConfigBuilder) WithProvider(providerType string, section map[string]any) *TestConfigBuilder {
	b.config.Providers[providerType] = section
	return b
}

// WithDefault sets the default provider type.
func (b *TestConfigBuilder) WithDefault(providerType string) *TestConfigBuilder {
	b.config.Default = providerType
	return b
}

// Write writes the configuration as YAML and returns its path.
func (b *TestConfigBuilder) Write() string {
	b.t.Helper()

	data, err := yaml.Marshal(b.config)
	if err != nil {
		b.t.Fatalf("Failed to marshal test config: %v", err)
	}

	path := filepath.Join(b.tempDir, config.DefaultPath)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		b.t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

// Load writes the configuration and loads it through config.Config, so the
// schema and default checks apply.
func (b *TestConfigBuilder) Load() *config.Config {
	b.t.Helper()

	cfg := &config.Config{
		Path:   b.Write(),
		Logger: logging.Discard(),
	}
	if err := cfg.Load(); err != nil {
		b.t.Fatalf("Failed to load test config: %v", err)
	}
	return cfg
}

// WriteTestConfig writes a YAML string to a temporary secretsadapter.yaml and
// returns its path.
//
// Example:
//
//	path := WriteTestConfig(t, `
//	version: 1
//	providers:
//	  bitwarden:
//	    server_url: https://vault.example.com
//	    api_key: token
//	`)
func WriteTestConfig(t *testing.T, yamlContent string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), config.DefaultPath)
	if err := os.WriteFile(path, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}
