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

package core

import (
	"fmt"
	"strings"
)

// ValidateChunk validates a Chunk received from the scraper.
//
// Validation rules:
//   - Text must contain something other than whitespace
//   - DocumentID must not be empty
//   - PageNum and ChunkIndex must not be negative
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if strings.TrimSpace(chunk.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	if chunk.DocumentID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyDocumentID)
	}

	if chunk.PageNum < 0 || chunk.ChunkIndex < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrNegativePosition)
	}

	return nil
}

// ValidateNode validates a Node before it is stored.
//
// NOT validated:
//   - ID (derived from the tuple when zero)
//   - ChunkIDs (may be empty for nodes created outside ingestion)
func ValidateNode(node *Node) error {
	if node == nil {
		return fmt.Errorf("%w: node is nil", ErrInvalidNode)
	}

	if node.GraphID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidNode, ErrEmptyGraphID)
	}

	if strings.TrimSpace(node.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidNode, ErrEmptyNodeTitle)
	}

	if strings.TrimSpace(node.Type) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidNode, ErrEmptyNodeType)
	}

	return nil
}

// ValidateEdge validates an Edge before it is stored.
func ValidateEdge(edge *Edge) error {
	if edge == nil {
		return fmt.Errorf("%w: edge is nil", ErrInvalidEdge)
	}

	if edge.GraphID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEdge, ErrEmptyGraphID)
	}

	if edge.From == 0 || edge.To == 0 {
		return fmt.Errorf("%w: endpoints must be set", ErrInvalidEdge)
	}

	if strings.TrimSpace(edge.Type) == "" {
		return fmt.Errorf("%w: relation type cannot be empty", ErrInvalidEdge)
	}

	return nil
}
