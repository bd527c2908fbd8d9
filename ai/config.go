// Copyright 2025 The pdfstash authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"os"
	"strings"
)

// Config holds configuration for embedding providers.
type Config struct {
	// APIKey is the credential for the remote embeddings API. Empty means
	// the remote variant is unavailable.
	APIKey string

	// RemoteModel is the model identifier used by the remote variant.
	// Default: "text-embedding-3-small"
	RemoteModel string

	// LocalModel is the Ollama model name used by the local variant.
	// Default: "all-minilm"
	LocalModel string

	// LocalHost is the base URL of the local Ollama server.
	// Default: "http://localhost:11434"
	LocalHost string

	// ForceLocal skips the remote variant entirely.
	ForceLocal bool
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithAPIKey sets the remote API credential.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithRemoteModel sets the remote embedding model identifier.
func WithRemoteModel(model string) ConfigOption {
	return func(c *Config) {
		c.RemoteModel = model
	}
}

// WithLocalModel sets the local embedding model name.
func WithLocalModel(model string) ConfigOption {
	return func(c *Config) {
		c.LocalModel = model
	}
}

// WithLocalHost sets the local embedding server URL.
func WithLocalHost(host string) ConfigOption {
	return func(c *Config) {
		c.LocalHost = host
	}
}

// WithForceLocal forces the local variant regardless of credentials.
func WithForceLocal(force bool) ConfigOption {
	return func(c *Config) {
		c.ForceLocal = force
	}
}

// DefaultConfig returns a Config with the default models and a local Ollama
// server on its standard port.
func DefaultConfig() *Config {
	return &Config{
		RemoteModel: "text-embedding-3-small",
		LocalModel:  "all-minilm",
		LocalHost:   "http://localhost:11434",
	}
}

// NewConfig creates a Config with defaults and applies the provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// FromEnv returns a Config populated from the environment: OPENAI_API_KEY
// supplies the remote credential and USE_LOCAL_EMBEDDINGS forces the local
// variant.
func FromEnv() *Config {
	return NewConfig(
		WithAPIKey(os.Getenv("OPENAI_API_KEY")),
		WithForceLocal(TruthyEnv(os.Getenv("USE_LOCAL_EMBEDDINGS"))),
	)
}

// Validate checks that the configuration is complete.
func (c *Config) Validate() error {
	if c.RemoteModel == "" {
		return errors.New("ai config: RemoteModel is required")
	}
	if c.LocalModel == "" {
		return errors.New("ai config: LocalModel is required")
	}
	if c.LocalHost == "" {
		return errors.New("ai config: LocalHost is required")
	}
	return nil
}

// TruthyEnv reports whether an environment flag value means "enabled".
// Accepted spellings are "1", "true" and "yes", case-insensitive.
func TruthyEnv(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
