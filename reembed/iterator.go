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

	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/storage"
)

const (
	// DefaultBatchSize is the default number of chunks to fetch in each batch
	DefaultBatchSize = 100
)

// ChunkIterator walks every stored chunk in ID order, one page at a time.
type ChunkIterator struct {
	chunks    storage.ChunkRepository
	batchSize int
}

// NewChunkIterator creates a new chunk iterator.
// batchSize: number of chunks to fetch per page (defaults when <= 0)
func NewChunkIterator(chunks storage.ChunkRepository, batchSize int) *ChunkIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ChunkIterator{
		chunks:    chunks,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each page of chunks.
// Iteration stops on the first error from fn or when every chunk has been seen.
// Pages are fetched by ID cursor, so fn may update the chunks it is given.
func (it *ChunkIterator) ForEach(ctx context.Context, fn func([]*core.ChunkRecord) error) error {
	var cursor core.ID
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := it.chunks.ListChunks(ctx, cursor, it.batchSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}
		cursor = page[len(page)-1].Id

		if err := fn(page); err != nil {
			return err
		}
		if len(page) < it.batchSize {
			return nil
		}
	}
}
