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
	"time"

	"github.com/poiesic/corpora/ai"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/retry"
	"github.com/poiesic/corpora/storage"
)

// BatchProcessor embeds a page of chunks and writes the new vectors back.
type BatchProcessor struct {
	chunks         storage.ChunkRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts for each embedding call
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(chunks storage.ChunkRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		chunks:         chunks,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates embeddings for a batch of chunks and updates them in storage.
// Vectors are normalized before they are stored.
func (bp *BatchProcessor) Process(ctx context.Context, records []*core.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.Text
	}

	var embeddings [][]float32
	err := retry.Do(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(records) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingMismatch, len(records), len(embeddings))
	}

	for i := range records {
		records[i].Vector = core.NormalizeVector(embeddings[i])
	}

	if err := bp.chunks.UpdateChunks(ctx, records...); err != nil {
		return fmt.Errorf("failed to update chunks: %w", err)
	}
	return nil
}
