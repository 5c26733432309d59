package config

import (
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "corpora.db", cfg.Storage.Path)
	assert.Equal(t, 0.75, cfg.Search.Alpha)
	assert.Equal(t, 5, cfg.Search.TopK)
	assert.Equal(t, 3, cfg.Ingestion.MaxRetries)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"missing storage path", func(c *Config) { c.Storage.Path = "" }, "storage.path"},
		{"in-memory needs no path", func(c *Config) { c.Storage.Path = ""; c.Storage.InMemory = true }, ""},
		{"missing embedding model", func(c *Config) { c.AI.EmbeddingModel = "" }, "EmbeddingModel"},
		{"zero concurrency", func(c *Config) { c.Ingestion.Concurrency = 0 }, "ingestion.concurrency"},
		{"negative batch size", func(c *Config) { c.Ingestion.BatchSize = -1 }, "ingestion.batch_size"},
		{"zero retries", func(c *Config) { c.Ingestion.MaxRetries = 0 }, "ingestion.max_retries"},
		{"negative retry delay", func(c *Config) { c.Ingestion.RetryDelay = -1 }, "ingestion.retry_delay"},
		{"zero intake buffer", func(c *Config) { c.Ingestion.IntakeBuffer = 0 }, "ingestion.intake_buffer"},
		{"negative scraper timeout", func(c *Config) { c.Scraper.Timeout = -1 }, "scraper.timeout"},
		{"alpha above one", func(c *Config) { c.Search.Alpha = 1.5 }, "search.alpha"},
		{"alpha NaN", func(c *Config) { c.Search.Alpha = math.NaN() }, "search.alpha"},
		{"negative threshold", func(c *Config) { c.Search.Threshold = -0.1 }, "search.threshold"},
		{"zero topK", func(c *Config) { c.Search.TopK = 0 }, "search.top_k"},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config: ")
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLogConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			got, err := LogConfig{Level: tt.level}.SlogLevel()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
