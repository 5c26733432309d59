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

package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/corpora"
	"github.com/poiesic/corpora/config"
	slogmulti "github.com/samber/slog-multi"
	"github.com/urfave/cli/v2"
)

const (
	configKey  = "config"
	cleanupKey = "log-cleanup"
)

// corpusOptions are applied to every corpus the commands open.
var corpusOptions []corpora.Option

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "corpora",
		Usage: "Document ingestion and hybrid retrieval over a knowledge graph",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				Value:   "corpora.yaml",
				EnvVars: []string{"CORPORA_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from this file",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Also write JSON logs to this file",
			},
		},
		Before: setup,
		After:  teardown,
		Commands: []*cli.Command{
			ingestCommand(),
			searchCommand(),
			reembedCommand(),
		},
	}
}

// setup loads the environment and config, then installs the logger.
func setup(c *cli.Context) error {
	if err := loadEnvFile(c.String("env-file"), c.IsSet("env-file")); err != nil {
		return err
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-file") {
		cfg.Log.File = c.String("log-file")
	}

	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", strings.ToLower(cfg.Log.Level))
	}

	logger, cleanup, err := newLogger(c.App.ErrWriter, cfg.Log.File, level)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg
	c.App.Metadata[cleanupKey] = cleanup
	return nil
}

func teardown(c *cli.Context) error {
	if cleanup, ok := c.App.Metadata[cleanupKey].(func() error); ok {
		return cleanup()
	}
	return nil
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing file is only an error when required.
func loadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err != nil && (required || !errors.Is(err, os.ErrNotExist)) {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// newLogger writes text logs to stderr and, when logFile is set, JSON logs
// to logFile as well.
func newLogger(stderr io.Writer, logFile string, level slog.Level) (*slog.Logger, func() error, error) {
	if stderr == nil {
		stderr = os.Stderr
	}
	stderrHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	if logFile == "" {
		return slog.New(stderrHandler), func() error { return nil }, nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})

	return slog.New(slogmulti.Fanout(stderrHandler, fileHandler)), file.Close, nil
}

func appConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

func openCorpus(cfg *config.Config, opts ...corpora.Option) (*corpora.Corpus, error) {
	opts = append(opts, corpusOptions...)
	corpus, err := corpora.Open(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	return corpus, nil
}
