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

// Package config loads corpora configuration from a YAML file and
// CORPORA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/poiesic/corpora/ai"
)

// Config holds the complete corpora configuration.
type Config struct {
	Storage   StorageConfig   `koanf:"storage"`
	AI        ai.Config       `koanf:"ai"`
	Ingestion IngestionConfig `koanf:"ingestion"`
	Scraper   ScraperConfig   `koanf:"scraper"`
	Search    SearchConfig    `koanf:"search"`
	Log       LogConfig       `koanf:"log"`
}

// StorageConfig holds BadgerDB settings.
type StorageConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// IngestionConfig holds chunk processing settings.
type IngestionConfig struct {
	Concurrency  int           `koanf:"concurrency"`   // concurrent chunk processors per upload
	BatchSize    int           `koanf:"batch_size"`    // 0 processes chunks one at a time
	MaxRetries   int           `koanf:"max_retries"`   // attempts per chunk
	RetryDelay   time.Duration `koanf:"retry_delay"`   // base backoff delay
	IntakeBuffer int           `koanf:"intake_buffer"` // results buffered ahead of the consumer
}

// ScraperConfig holds the external scraper endpoint.
type ScraperConfig struct {
	URL     string        `koanf:"url"`
	Token   string        `koanf:"token"`
	Timeout time.Duration `koanf:"timeout"` // upload and response headers only
}

// SearchConfig holds hybrid search defaults.
type SearchConfig struct {
	Alpha     float64 `koanf:"alpha"`
	TopK      int     `koanf:"top_k"`
	Threshold float64 `koanf:"threshold"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `koanf:"level"`
	File  string `koanf:"file"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{Path: "corpora.db"},
		AI:      *ai.DefaultConfig(),
		Ingestion: IngestionConfig{
			Concurrency:  8,
			MaxRetries:   3,
			RetryDelay:   time.Second,
			IntakeBuffer: 64,
		},
		Scraper: ScraperConfig{Timeout: 10 * time.Minute},
		Search: SearchConfig{
			Alpha: 0.75,
			TopK:  5,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Storage.Path == "" && !c.Storage.InMemory {
		return errors.New("config: storage.path is required")
	}
	if err := c.AI.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	in := c.Ingestion
	if in.Concurrency < 1 {
		return fmt.Errorf("config: ingestion.concurrency must be at least 1, got %d", in.Concurrency)
	}
	if in.BatchSize < 0 {
		return fmt.Errorf("config: ingestion.batch_size must not be negative, got %d", in.BatchSize)
	}
	if in.MaxRetries < 1 {
		return fmt.Errorf("config: ingestion.max_retries must be at least 1, got %d", in.MaxRetries)
	}
	if in.RetryDelay < 0 {
		return fmt.Errorf("config: ingestion.retry_delay must not be negative, got %v", in.RetryDelay)
	}
	if in.IntakeBuffer < 1 {
		return fmt.Errorf("config: ingestion.intake_buffer must be at least 1, got %d", in.IntakeBuffer)
	}

	if c.Scraper.Timeout < 0 {
		return fmt.Errorf("config: scraper.timeout must not be negative, got %v", c.Scraper.Timeout)
	}

	s := c.Search
	if !inUnitRange(s.Alpha) {
		return fmt.Errorf("config: search.alpha must be in [0,1], got %v", s.Alpha)
	}
	if !inUnitRange(s.Threshold) {
		return fmt.Errorf("config: search.threshold must be in [0,1], got %v", s.Threshold)
	}
	if s.TopK < 1 {
		return fmt.Errorf("config: search.top_k must be at least 1, got %d", s.TopK)
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	return nil
}

// SlogLevel parses Level. An empty level means info.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(l.Level) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

func inUnitRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
