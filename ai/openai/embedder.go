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

package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/corpora/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrEmptyEmbedding is returned when the service answers with a zero-length vector.
var ErrEmptyEmbedding = errors.New("embedding service returned an empty vector")

// Embedder turns chunk text into vectors through an OpenAI-compatible
// embeddings endpoint.
type Embedder struct {
	client embeddings.Embedder
	logger *slog.Logger
}

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	llm, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(config.Token),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("openai embedding client: %w", err)
	}

	client, err := embeddings.NewEmbedder(llm, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("openai embedder: %w", err)
	}

	return &Embedder{
		client: client,
		logger: slog.Default().With("component", "openai-embedder", "model", config.EmbeddingModel),
	}, nil
}

// NewEmbedder creates an embedder from config.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText embeds a single chunk.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts embeds a batch of chunks in one request. The result has one
// non-empty vector per input, in input order.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	start := time.Now()
	vectors, err := e.client.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("embedding request failed", "texts", len(texts), "err", err)
		return nil, fmt.Errorf("embed %d texts: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(texts))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			e.logger.Warn("empty vector in embedding response", "index", i)
			return nil, fmt.Errorf("text %d: %w", i, ErrEmptyEmbedding)
		}
	}

	e.logger.Debug("embedded texts", "texts", len(texts), "dimensions", len(vectors[0]), "elapsed", time.Since(start))
	return vectors, nil
}
