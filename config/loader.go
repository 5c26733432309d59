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

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "CORPORA_"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Load builds a Config from defaults, then the YAML file at path, then
// environment variables, and validates the result.
//
// A missing file is not an error; an empty path skips the file entirely.
// Environment variables map onto section.field by their first underscore:
//
//	CORPORA_STORAGE_PATH      -> storage.path
//	CORPORA_AI_EMBEDDING_HOST -> ai.embedding_host
//	CORPORA_SEARCH_TOP_K      -> search.top_k
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if content != nil {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey turns CORPORA_SECTION_FIELD_NAME into section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, found := strings.Cut(lower, "_")
	if !found {
		return lower
	}
	return section + "." + field
}

// readFile returns nil content when the file does not exist.
func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config: %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config: file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	content, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}
