package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.ExtractorHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "qwen2.5:3b", cfg.ExtractorModel)
	assert.Equal(t, "none", cfg.Token)
	assert.Zero(t, cfg.EmbedRateLimit)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.ExtractorHost)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.ExtractorHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithExtractorHost("http://extract:9090/v1"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://extract:9090/v1", cfg.ExtractorHost)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("http://custom:8080/v1"),
			WithEmbeddingModel("text-embedding-3-small"),
			WithExtractorModel("gpt-4o-mini"),
			WithToken("sk-test"),
			WithEmbedRateLimit(5, 2),
		)

		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "gpt-4o-mini", cfg.ExtractorModel)
		assert.Equal(t, "sk-test", cfg.Token)
		assert.Equal(t, 5.0, cfg.EmbedRateLimit)
		assert.Equal(t, 2, cfg.EmbedBurst)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name              string
		embeddingHost     string
		extractorHost     string
		expectedEmbedding string
		expectedExtractor string
	}{
		{
			name:              "already has /v1",
			embeddingHost:     "http://localhost:11434/v1",
			extractorHost:     "http://localhost:11434/v1",
			expectedEmbedding: "http://localhost:11434/v1",
			expectedExtractor: "http://localhost:11434/v1",
		},
		{
			name:              "missing /v1",
			embeddingHost:     "http://localhost:11434",
			extractorHost:     "http://localhost:11434",
			expectedEmbedding: "http://localhost:11434/v1",
			expectedExtractor: "http://localhost:11434/v1",
		},
		{
			name:              "has trailing slash",
			embeddingHost:     "http://localhost:11434/",
			extractorHost:     "http://localhost:11434/",
			expectedEmbedding: "http://localhost:11434/v1",
			expectedExtractor: "http://localhost:11434/v1",
		},
		{
			name:              "empty hosts",
			expectedEmbedding: "",
			expectedExtractor: "",
		},
		{
			name:              "different formats",
			embeddingHost:     "http://embed:8080",
			extractorHost:     "http://extract:9090/v1",
			expectedEmbedding: "http://embed:8080/v1",
			expectedExtractor: "http://extract:9090/v1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				EmbeddingHost: tt.embeddingHost,
				ExtractorHost: tt.extractorHost,
			}

			cfg.Normalize()

			assert.Equal(t, tt.expectedEmbedding, cfg.EmbeddingHost)
			assert.Equal(t, tt.expectedExtractor, cfg.ExtractorHost)
			assert.Equal(t, "none", cfg.Token)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			EmbeddingHost:  "http://localhost:11434",
			ExtractorHost:  "http://localhost:11434",
			EmbeddingModel: "embeddinggemma",
			ExtractorModel: "qwen2.5:3b",
		}
	}

	t.Run("valid config", func(t *testing.T) {
		cfg := valid()
		require.NoError(t, cfg.Validate())

		// Should also normalize
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.ExtractorHost)
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"missing embedding host", func(c *Config) { c.EmbeddingHost = "" }, "EmbeddingHost"},
		{"missing extractor host", func(c *Config) { c.ExtractorHost = "" }, "ExtractorHost"},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }, "EmbeddingModel"},
		{"missing extractor model", func(c *Config) { c.ExtractorModel = "" }, "ExtractorModel"},
		{"negative rate limit", func(c *Config) { c.EmbedRateLimit = -1 }, "EmbedRateLimit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	t.Run("rate limit gets a burst", func(t *testing.T) {
		cfg := valid()
		cfg.EmbedRateLimit = 3
		require.NoError(t, cfg.Validate())
		assert.Equal(t, 1, cfg.EmbedBurst)
	})
}

func TestConfigValidate_Integration(t *testing.T) {
	require.NoError(t, NewConfig().Validate())
	require.NoError(t, DefaultConfig().Validate())
}
