package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpora.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeConfig(t, `
storage:
  path: /var/lib/corpora
ai:
  embedding_host: http://embed:11434
  embedding_model: nomic-embed-text
  embed_rate_limit: 5
ingestion:
  concurrency: 4
  batch_size: 16
  retry_delay: 250ms
scraper:
  url: http://scraper:8000
  timeout: 2m
search:
  alpha: 0.5
  top_k: 10
  threshold: 0.2
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/corpora", cfg.Storage.Path)
	assert.Equal(t, "http://embed:11434/v1", cfg.AI.EmbeddingHost, "hosts are normalized")
	assert.Equal(t, "nomic-embed-text", cfg.AI.EmbeddingModel)
	assert.Equal(t, "qwen2.5:3b", cfg.AI.ExtractorModel, "unset fields keep defaults")
	assert.Equal(t, 5.0, cfg.AI.EmbedRateLimit)
	assert.Equal(t, 4, cfg.Ingestion.Concurrency)
	assert.Equal(t, 16, cfg.Ingestion.BatchSize)
	assert.Equal(t, 3, cfg.Ingestion.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Ingestion.RetryDelay)
	assert.Equal(t, "http://scraper:8000", cfg.Scraper.URL)
	assert.Equal(t, 2*time.Minute, cfg.Scraper.Timeout)
	assert.Equal(t, 0.5, cfg.Search.Alpha)
	assert.Equal(t, 10, cfg.Search.TopK)
	assert.Equal(t, 0.2, cfg.Search.Threshold)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	path := writeConfig(t, `
storage:
  path: /from/file
search:
  top_k: 10
`)
	t.Setenv("CORPORA_STORAGE_PATH", "/from/env")
	t.Setenv("CORPORA_SEARCH_TOP_K", "3")
	t.Setenv("CORPORA_AI_EMBEDDING_MODEL", "env-model")
	t.Setenv("CORPORA_SCRAPER_URL", "http://env-scraper")
	t.Setenv("CORPORA_INGESTION_RETRY_DELAY", "2s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/from/env", cfg.Storage.Path)
	assert.Equal(t, 3, cfg.Search.TopK)
	assert.Equal(t, "env-model", cfg.AI.EmbeddingModel)
	assert.Equal(t, "http://env-scraper", cfg.Scraper.URL)
	assert.Equal(t, 2*time.Second, cfg.Ingestion.RetryDelay)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Storage, cfg.Storage)
}

func TestLoad_NoPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Search, cfg.Search)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "storage: [unclosed")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config file")
}

func TestLoad_Validation(t *testing.T) {
	path := writeConfig(t, "search:\n  alpha: 2\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: search.alpha")
}

func TestLoad_FileTooLarge(t *testing.T) {
	path := writeConfig(t, "# "+strings.Repeat("x", maxConfigFileSize))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "storage.path", envKey("CORPORA_STORAGE_PATH"))
	assert.Equal(t, "ai.embed_rate_limit", envKey("CORPORA_AI_EMBED_RATE_LIMIT"))
	assert.Equal(t, "debug", envKey("CORPORA_DEBUG"))
}
