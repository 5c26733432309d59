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

package storage

import (
	"context"

	"github.com/poiesic/corpora/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases resources held by the repository.
	// The shared backend is closed separately.
	Close() error
}

// ChunkRepository provides operations for managing embedded chunks.
type ChunkRepository interface {
	Repository

	// AddChunk persists a single chunk and assigns its ID from the sequence.
	// Sets InsertedAt. Returns the stored record.
	AddChunk(ctx context.Context, record *core.ChunkRecord) (*core.ChunkRecord, error)

	// AddChunks persists several chunks in one transaction.
	AddChunks(ctx context.Context, records ...*core.ChunkRecord) ([]*core.ChunkRecord, error)

	// UpdateChunks replaces existing chunks.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunks(ctx context.Context, records ...*core.ChunkRecord) error

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.ChunkRecord, error)

	// GetChunks retrieves multiple chunks by their IDs.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, ids ...core.ID) ([]*core.ChunkRecord, error)

	// GetChunksByDocument retrieves the chunks of a document ordered by ID.
	GetChunksByDocument(ctx context.Context, documentID string) ([]*core.ChunkRecord, error)

	// CountChunksByDocument returns how many chunks are stored for a document.
	CountChunksByDocument(ctx context.Context, documentID string) (int, error)

	// CountChunks returns the total number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// ListChunks returns up to limit chunks with ID greater than afterID, ordered by ID.
	// Pass 0 to start from the beginning.
	ListChunks(ctx context.Context, afterID core.ID, limit int) ([]*core.ChunkRecord, error)

	// FindCandidates returns up to limit chunks most similar to vector.
	// Only chunks owned by ownerID (when non-empty) whose document is in
	// documentIDs are considered. An empty documentIDs matches nothing.
	// Results are ordered by similarity, highest first, with ties in ID order.
	FindCandidates(ctx context.Context, ownerID string, vector []float32, documentIDs []string, limit int) ([]*core.ChunkRecord, error)
}

// DocumentRepository provides operations for managing uploaded documents.
type DocumentRepository interface {
	Repository

	// AddDocuments stores document records. Sets InsertedAt if not already set.
	AddDocuments(ctx context.Context, documents ...*core.Document) ([]*core.Document, error)

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id string) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist.
	GetDocuments(ctx context.Context, ids ...string) ([]*core.Document, error)

	// GetDocumentsByGraph retrieves every document uploaded into a graph.
	GetDocumentsByGraph(ctx context.Context, graphID string) ([]*core.Document, error)
}

// GraphRepository provides operations for graph metadata, nodes, and edges.
type GraphRepository interface {
	Repository

	// CreateGraph stores new graph metadata. Sets InsertedAt if not already set.
	// Returns ErrDuplicateKey if a graph with the same ID exists.
	CreateGraph(ctx context.Context, graph *core.Graph) (*core.Graph, error)

	// GetGraph retrieves graph metadata by ID.
	// Returns ErrNotFound if the graph doesn't exist.
	GetGraph(ctx context.Context, id string) (*core.Graph, error)

	// UpsertNodes inserts nodes or merges them into existing ones.
	// Nodes with ID=0 get their content ID. Chunk IDs and properties are merged.
	// Thread-safe: concurrent upserts of the same node do not lose chunk IDs.
	UpsertNodes(ctx context.Context, nodes ...*core.Node) ([]*core.Node, error)

	// UpsertEdges inserts edges or merges chunk IDs into existing ones.
	UpsertEdges(ctx context.Context, edges ...*core.Edge) error

	// GetNode retrieves a node by graph and ID.
	// Returns ErrNotFound if the node doesn't exist.
	GetNode(ctx context.Context, graphID string, id core.ID) (*core.Node, error)

	// GetNodes retrieves every node of a graph.
	GetNodes(ctx context.Context, graphID string) ([]*core.Node, error)

	// GetEdges retrieves every edge of a graph.
	GetEdges(ctx context.Context, graphID string) ([]*core.Edge, error)
}
