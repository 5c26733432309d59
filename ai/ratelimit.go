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

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedEmbedder throttles calls to an underlying Embedder.
// A batch call costs one token per text.
type RateLimitedEmbedder struct {
	next    Embedder
	limiter *rate.Limiter
}

var _ Embedder = (*RateLimitedEmbedder)(nil)

// NewRateLimitedEmbedder wraps next so that at most perSecond texts are embedded
// per second, with bursts of up to burst texts. A non-positive perSecond returns
// next unchanged.
func NewRateLimitedEmbedder(next Embedder, perSecond float64, burst int) Embedder {
	if perSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedEmbedder{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// EmbedText waits for a token, then embeds.
func (e *RateLimitedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return e.next.EmbedText(ctx, text)
}

// EmbedTexts waits for one token per text, then embeds the batch.
// Batches larger than the burst are admitted in burst-sized steps.
func (e *RateLimitedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	remaining := len(texts)
	for remaining > 0 {
		n := min(remaining, e.limiter.Burst())
		if err := e.limiter.WaitN(ctx, n); err != nil {
			return nil, err
		}
		remaining -= n
	}
	return e.next.EmbedTexts(ctx, texts)
}
