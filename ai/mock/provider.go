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

package mock

import (
	"sync/atomic"

	"github.com/poiesic/corpora/ai"
)

// MockProvider bundles a MockEmbedder and a MockRelationExtractor.
type MockProvider struct {
	Embeddings *MockEmbedder
	Extraction *MockRelationExtractor

	closed atomic.Bool
}

var _ ai.AIProvider = (*MockProvider)(nil)

// NewMockProvider returns a provider backed by default mock services.
func NewMockProvider() *MockProvider {
	return NewMockProviderWith(nil, nil)
}

// NewMockProviderWith returns a provider using the given services.
// A nil service is replaced by its default mock.
func NewMockProviderWith(embedder *MockEmbedder, extractor *MockRelationExtractor) *MockProvider {
	if embedder == nil {
		embedder = NewMockEmbedder()
	}
	if extractor == nil {
		extractor = NewMockRelationExtractor()
	}
	return &MockProvider{Embeddings: embedder, Extraction: extractor}
}

func (p *MockProvider) Embedder() ai.Embedder {
	return p.Embeddings
}

func (p *MockProvider) RelationExtractor() ai.RelationExtractor {
	return p.Extraction
}

// Close marks the provider closed. It always succeeds.
func (p *MockProvider) Close() error {
	p.closed.Store(true)
	return nil
}

// Closed reports whether Close has been called.
func (p *MockProvider) Closed() bool {
	return p.closed.Load()
}
