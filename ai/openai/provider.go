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
	"log/slog"
	"sync"

	"github.com/poiesic/corpora/ai"
)

// Provider serves embeddings and relation extraction from
// OpenAI-compatible endpoints.
type Provider struct {
	embedder  ai.Embedder
	extractor *RelationExtractor
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewProvider validates config and builds both services. Embedding calls
// go through a token bucket when EmbedRateLimit is positive.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}
	extractor, err := newRelationExtractor(config)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "openai-provider")
	logger.Info("AI provider ready",
		"embedding_host", config.EmbeddingHost,
		"embedding_model", config.EmbeddingModel,
		"extractor_host", config.ExtractorHost,
		"extractor_model", config.ExtractorModel,
		"embed_rate_limit", config.EmbedRateLimit)

	return &Provider{
		embedder:  ai.NewRateLimitedEmbedder(embedder, config.EmbedRateLimit, config.EmbedBurst),
		extractor: extractor,
		logger:    logger,
	}, nil
}

func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

func (p *Provider) RelationExtractor() ai.RelationExtractor {
	return p.extractor
}

// Close is idempotent. The HTTP clients hold no resources that need releasing.
func (p *Provider) Close() error {
	p.closeOnce.Do(func() {
		p.logger.Debug("AI provider closed")
	})
	return nil
}
