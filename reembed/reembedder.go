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

package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/corpora/ai"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/perf"
	"github.com/poiesic/corpora/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of chunks to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each embedding call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder re-embeds every chunk in a store.
type Reembedder struct {
	chunks    storage.ChunkRepository
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *ChunkIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(chunks storage.ChunkRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		chunks:    chunks,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(chunks, embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewChunkIterator(chunks, config.BatchSize),
	}, nil
}

// Run re-embeds every stored chunk and reports progress to the configured writer.
// It stops at the first batch that cannot be embedded or stored; batches
// already written keep their new vectors.
func (r *Reembedder) Run(ctx context.Context) error {
	total, err := r.chunks.CountChunks(ctx)
	if err != nil {
		return fmt.Errorf("failed to count chunks: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No chunks found in store (0 chunks)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d chunks (batch size: %d)\n",
		total, r.iterator.batchSize)

	progress := perf.NewProgress(r.progress, "chunks", total, r.config.ReportInterval)
	progress.Start()

	err = r.iterator.ForEach(ctx, func(records []*core.ChunkRecord) error {
		if err := r.processor.Process(ctx, records); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		progress.Increment(len(records))
		return nil
	})
	if err != nil {
		return err
	}

	progress.Finish()

	elapsed := progress.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		total, elapsed.Round(time.Second), float64(total)/max(elapsed.Seconds(), 1e-9))
	return nil
}
