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
	"context"
	"hash/fnv"
	"sync/atomic"

	"github.com/poiesic/corpora/ai"
	"github.com/poiesic/corpora/core"
)

// DefaultDimensions is the vector size produced by the default behavior.
const DefaultDimensions = 384

// MockEmbedder is a test double for ai.Embedder.
// Safe for concurrent use; the Func fields must be set before use.
type MockEmbedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	// If nil, uses default deterministic behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default deterministic behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	textCalls  atomic.Int64
	batchCalls atomic.Int64
}

var _ ai.Embedder = (*MockEmbedder)(nil)

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// The concrete type is returned so tests can set the Func hooks.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// EmbedText generates a deterministic embedding based on text hash.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.textCalls.Add(1)

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return DeterministicVector(text, DefaultDimensions), nil
}

// EmbedTexts generates deterministic embeddings for multiple texts.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.batchCalls.Add(1)

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = DeterministicVector(text, DefaultDimensions)
	}
	return embeddings, nil
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	return int(m.textCalls.Load() + m.batchCalls.Load())
}

// TextCallCount returns the number of EmbedText calls.
func (m *MockEmbedder) TextCallCount() int {
	return int(m.textCalls.Load())
}

// BatchCallCount returns the number of EmbedTexts calls.
func (m *MockEmbedder) BatchCallCount() int {
	return int(m.batchCalls.Load())
}

// Reset clears the call counts and custom functions.
func (m *MockEmbedder) Reset() {
	m.textCalls.Store(0)
	m.batchCalls.Store(0)
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

// DeterministicVector creates a unit-length embedding vector from text.
// It uses FNV hash to ensure the same text always produces the same vector.
func DeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := range vector {
		// Simple pseudo-random generation based on seed and index
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}
	return core.NormalizeVector(vector)
}
