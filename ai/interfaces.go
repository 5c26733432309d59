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

package ai

import "context"

// Embedder generates vector embeddings for text.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// RelationExtractor turns free text into entities and the relations between them.
// Implementations must be safe for concurrent use.
type RelationExtractor interface {
	// ExtractGraph analyzes text and returns the entities it mentions
	// and the typed relations connecting them.
	// Returns an empty graph if nothing can be extracted.
	ExtractGraph(ctx context.Context, text string) (*ExtractedGraph, error)
}

// ExtractedGraph is the entity/relation payload of one text.
type ExtractedGraph struct {
	Nodes []ExtractedNode `json:"nodes"`
	Edges []ExtractedEdge `json:"edges"`
}

// ExtractedNode is an entity found in text.
type ExtractedNode struct {
	// Key is the lower_snake_case identifier edges refer to.
	// Example: "leonhard_euler"
	Key string `json:"id"`

	// Type is an upper-case label such as "PERSON". Unknown labels
	// are accepted with a NEW_ prefix.
	Type string `json:"type"`

	// Title is the display name.
	Title string `json:"title"`

	Properties map[string]string `json:"properties,omitempty"`
}

// ExtractedEdge is a directed relation between two extracted nodes.
type ExtractedEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

// AIProvider is a factory for creating AI service instances.
// It manages the lifecycle of embedder and relation extractor services.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// RelationExtractor returns the entity/relation extraction service.
	// The returned RelationExtractor is safe for concurrent use.
	RelationExtractor() RelationExtractor

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
