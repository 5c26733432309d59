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


package search

import "errors"

var (
	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrEmbedderRequired is returned by SearchText when no embedder is configured.
	ErrEmbedderRequired = errors.New("embedder required for text search")

	// ErrEmptyEmbedding is returned when the query embedding is empty.
	ErrEmptyEmbedding = errors.New("query embedding is empty")

	// ErrInvalidQuery is returned when query parameters are out of range.
	ErrInvalidQuery = errors.New("invalid query")
)
