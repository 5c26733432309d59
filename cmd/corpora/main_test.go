package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/corpora"
	"github.com/poiesic/corpora/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// runApp runs the CLI with args and returns what it wrote to stdout.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"corpora"}, args...))
	return stdout.String(), err
}

func writeConfig(t *testing.T, dir, scraperURL string) string {
	t.Helper()
	path := filepath.Join(dir, "corpora.yaml")
	content := fmt.Sprintf("storage:\n  path: %s\nscraper:\n  url: %s\ningestion:\n  retry_delay: 0s\n",
		filepath.Join(dir, "db"), scraperURL)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func useMockProvider(t *testing.T) {
	t.Helper()
	corpusOptions = []corpora.Option{corpora.WithProvider(mock.NewMockProvider())}
	t.Cleanup(func() { corpusOptions = nil })
}

// newScraper answers uploads with one chunk per file holding the file's text.
func newScraper(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		ids := r.MultipartForm.Value["uuids"]
		files := r.MultipartForm.File["files"]
		for i, header := range files {
			f, err := header.Open()
			if !assert.NoError(t, err) {
				return
			}
			text, _ := io.ReadAll(f)
			f.Close()
			line, _ := json.Marshal(map[string]any{"uuid": ids[i], "page": 1, "index": 0, "text": string(text)})
			fmt.Fprintf(w, "%s\n", line)
		}
		fmt.Fprintln(w, "[DONE]")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSetup_LogLevel(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "http://scraper.invalid")

	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "DEBUG"} {
			t.Run(level, func(t *testing.T) {
				app := &cli.App{
					Name:   "test",
					Flags:  newApp().Flags,
					Before: setup,
					After:  teardown,
					Action: func(c *cli.Context) error { return nil },
				}
				require.NoError(t, app.Run([]string{"test", "--config", cfg, "--log-level", level}))
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		_, err := runApp(t, "--config", cfg, "--log-level", "invalid", "search", "q")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		app := &cli.App{
			Name:   "test",
			Flags:  newApp().Flags,
			Before: setup,
			Action: func(c *cli.Context) error {
				assert.Equal(t, "debug", appConfig(c).Log.Level)
				return nil
			},
		}
		require.NoError(t, app.Run([]string{"test", "--config", cfg, "-l", "debug"}))
	})
}

func TestNewLogger_FileFanout(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "corpora.log")
	var stderr bytes.Buffer

	logger, cleanup, err := newLogger(&stderr, logFile, 0)
	require.NoError(t, err)
	logger.Info("hello", "chunks", 3)
	require.NoError(t, cleanup())

	assert.Contains(t, stderr.String(), "msg=hello")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, 3.0, entry["chunks"])
}

func TestNewLogger_BadFile(t *testing.T) {
	_, _, err := newLogger(io.Discard, filepath.Join(t.TempDir(), "missing", "dir", "x.log"), 0)
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("missing default file is ignored", func(t *testing.T) {
		assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), ".env"), false))
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		assert.Error(t, loadEnvFile(filepath.Join(t.TempDir(), ".env"), true))
	})

	t.Run("values reach the config", func(t *testing.T) {
		dir := t.TempDir()
		envFile := filepath.Join(dir, ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("CORPORA_SEARCH_TOP_K=7\n"), 0600))
		t.Setenv("CORPORA_SEARCH_TOP_K", "")
		os.Unsetenv("CORPORA_SEARCH_TOP_K")

		app := &cli.App{
			Name:   "test",
			Flags:  newApp().Flags,
			Before: setup,
			Action: func(c *cli.Context) error {
				assert.Equal(t, 7, appConfig(c).Search.TopK)
				return nil
			},
		}
		require.NoError(t, app.Run([]string{"test", "--config", filepath.Join(dir, "absent.yaml"), "--env-file", envFile}))
	})
}

func TestCommandValidation(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "http://scraper.invalid")

	tests := []struct {
		name   string
		args   []string
		errMsg string
	}{
		{"ingest needs an owner", []string{"ingest", "a.txt"}, "owner"},
		{"ingest needs files", []string{"ingest", "--owner", "o"}, "at least one file"},
		{"ingest missing file", []string{"ingest", "--owner", "o", filepath.Join(dir, "nope.txt")}, "nope.txt"},
		{"search needs a query", []string{"search", "--graph", "g"}, "query is required"},
		{"search needs a scope", []string{"search", "paris"}, "--graph or --doc"},
		{"search rejects alpha", []string{"search", "--doc", "d", "--alpha", "3", "paris"}, "search.alpha"},
		{"reembed batch size", []string{"reembed", "--batch-size", "0"}, "batch-size"},
		{"reembed retries", []string{"reembed", "--max-retries", "0"}, "max-retries"},
	}

	useMockProvider(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runApp(t, append([]string{"--config", cfg}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestIngestSearchReembed(t *testing.T) {
	useMockProvider(t)
	scraper := newScraper(t)
	dir := t.TempDir()
	cfg := writeConfig(t, dir, scraper.URL)

	paris := filepath.Join(dir, "paris.txt")
	tokyo := filepath.Join(dir, "tokyo.txt")
	require.NoError(t, os.WriteFile(paris, []byte("Paris is the capital of France and home of the Eiffel Tower."), 0600))
	require.NoError(t, os.WriteFile(tokyo, []byte("Tokyo is the capital of Japan."), 0600))

	out, err := runApp(t, "--config", cfg, "ingest", "--owner", "owner-1", "--concurrency", "2", paris, tokyo)
	require.NoError(t, err)

	var lines []map[string]any
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 3)
	assert.Equal(t, "success", lines[0]["status"])
	completion := lines[2]
	assert.Equal(t, "processing_complete", completion["status"])
	graphID, _ := completion["graph_id"].(string)
	require.NotEmpty(t, graphID)

	out, err = runApp(t, "--config", cfg, "search", "--graph", graphID, "--owner", "owner-1", "--alpha", "0", "Eiffel", "Tower")
	require.NoError(t, err)

	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.NotEmpty(t, results)
	assert.Equal(t, "paris.txt", results[0]["document_name"])

	_, err = runApp(t, "--config", cfg, "reembed", "--batch-size", "1", "--retry-delay", "0s")
	require.NoError(t, err)
}
