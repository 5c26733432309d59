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

package upload

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/corpora/core"
)

const (
	doneMarker = "[DONE]"

	// maxLineSize bounds a single NDJSON line from the scraper.
	maxLineSize = 16 << 20
)

// descriptor is one chunk line as sent by the scraper.
type descriptor struct {
	UUID  string          `json:"uuid"`
	Page  int             `json:"page"`
	Index int             `json:"index"`
	Text  *string         `json:"text"`
	Error json.RawMessage `json:"error"`
}

// parseLine turns a trimmed, non-empty line into a chunk.
// ok is false when the line must be skipped.
func parseLine(line string, logger *slog.Logger) (core.Chunk, bool) {
	var d descriptor
	if err := json.Unmarshal([]byte(line), &d); err != nil {
		logger.Info("skipping invalid JSON", "line", core.Preview(line), "err", err)
		return core.Chunk{}, false
	}
	if len(d.Error) > 0 || d.Text == nil {
		logger.Info("skipping invalid chunk", "line", core.Preview(line))
		return core.Chunk{}, false
	}

	chunk := core.Chunk{
		Text:       *d.Text,
		DocumentID: d.UUID,
		PageNum:    d.Page,
		ChunkIndex: d.Index,
	}
	if err := core.ValidateChunk(&chunk); err != nil {
		logger.Info("skipping invalid chunk", "line", core.Preview(line), "err", err)
		return core.Chunk{}, false
	}
	return chunk, true
}

// readChunks reads the scraper stream until [DONE], EOF, or handle returns
// false. It returns the read error, if any. Context cancellation is reported
// as the context error.
func readChunks(ctx context.Context, r io.Reader, logger *slog.Logger, handle func(core.Chunk) bool) error {
	start := time.Now()
	firstLine := true

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if firstLine {
			firstLine = false
			logger.Info("time to first chunk", "seconds", time.Since(start).Seconds())
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == doneMarker {
			logger.Info("scraper streaming complete", "seconds", time.Since(start).Seconds())
			return nil
		}

		chunk, ok := parseLine(line, logger)
		if !ok {
			continue
		}
		if !handle(chunk) {
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	logger.Info("scraper stream ended without done marker", "seconds", time.Since(start).Seconds())
	return nil
}
