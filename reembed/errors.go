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

import "errors"

var (
	// ErrChunkRepositoryRequired is returned when no chunk repository is supplied.
	ErrChunkRepositoryRequired = errors.New("chunk repository is required")

	// ErrEmbedderRequired is returned when no embedder is supplied.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrEmbeddingMismatch is returned when the embedder returns a different
	// number of vectors than texts it was given.
	ErrEmbeddingMismatch = errors.New("embedding count mismatch")
)
