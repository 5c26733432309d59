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

// Package ai defines the model-backed services corpora depends on.
//
// Ingestion needs two things from a model: a vector per chunk (Embedder)
// and the places, people and relations mentioned in it (RelationExtractor).
// Search only needs the Embedder, to place the query in the same space as
// the stored chunks. AIProvider hands out both and owns their lifetime.
//
// Config is loaded under the "ai" key of the corpora config file. Setting
// EmbedRateLimit wraps the embedder in a token bucket shared by every
// ingestion worker:
//
//	cfg := ai.NewConfig(ai.WithHost("http://localhost:11434"), ai.WithEmbedRateLimit(20, 5))
//	provider, err := openai.NewProvider(cfg)
//
// Implementations live in ai/openai; ai/mock has deterministic doubles.
package ai
