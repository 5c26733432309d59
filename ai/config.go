// Copyright 2025 Poiesic Systems
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
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string `koanf:"embedding_host"`

	// ExtractorHost is the base URL for the relation extraction service API.
	ExtractorHost string `koanf:"extractor_host"`

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string `koanf:"embedding_model"`

	// ExtractorModel is the chat model used for relation extraction.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	ExtractorModel string `koanf:"extractor_model"`

	// Token is the API key. Local OpenAI-compatible servers accept "none".
	Token string `koanf:"token"`

	// EmbedRateLimit caps embedding requests per second. 0 disables limiting.
	EmbedRateLimit float64 `koanf:"embed_rate_limit"`

	// EmbedBurst is the burst size used with EmbedRateLimit.
	EmbedBurst int `koanf:"embed_burst"`
}

// ConfigOption is a functional option for configuring an AI provider.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithExtractorHost sets the extraction service host URL.
func WithExtractorHost(host string) ConfigOption {
	return func(c *Config) {
		c.ExtractorHost = host
	}
}

// WithHost sets both hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.ExtractorHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithExtractorModel sets the extraction model identifier.
func WithExtractorModel(model string) ConfigOption {
	return func(c *Config) {
		c.ExtractorModel = model
	}
}

// WithToken sets the API key.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// WithEmbedRateLimit limits embedding calls to perSecond with the given burst.
func WithEmbedRateLimit(perSecond float64, burst int) ConfigOption {
	return func(c *Config) {
		c.EmbedRateLimit = perSecond
		c.EmbedBurst = burst
	}
}

// DefaultConfig returns a config with sensible defaults for local development.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:  defaultHost,
		ExtractorHost:  defaultHost,
		EmbeddingModel: "embeddinggemma",
		ExtractorModel: "qwen2.5:3b",
		Token:          "none",
		EmbedBurst:     1,
	}
}

// NewConfig creates a new config with the given options applied to defaults.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures hosts end with /v1 and fills an empty token.
func (c *Config) Normalize() {
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	c.ExtractorHost = normalizeHost(c.ExtractorHost)
	if c.Token == "" {
		c.Token = "none"
	}
	if c.EmbedRateLimit > 0 && c.EmbedBurst < 1 {
		c.EmbedBurst = 1
	}
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the config is valid.
// Normalizes the config first.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.ExtractorHost == "" {
		return errors.New("ai config: ExtractorHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.ExtractorModel == "" {
		return errors.New("ai config: ExtractorModel is required")
	}
	if c.EmbedRateLimit < 0 {
		return errors.New("ai config: EmbedRateLimit must not be negative")
	}
	return nil
}
