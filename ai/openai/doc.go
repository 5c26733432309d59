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

// Package openai talks to OpenAI-compatible endpoints through langchaingo.
//
// Embeddings go through the embeddings API. Relation extraction sends each
// chunk to a chat model with a JSON-only prompt and decodes the reply into
// an ai.ExtractedGraph, repairing the unquoted keys small local models
// tend to emit. Any server speaking the OpenAI wire format works:
//
//	provider, err := openai.NewProvider(ai.NewConfig(
//	    ai.WithHost("http://localhost:11434"),
//	    ai.WithEmbeddingModel("embeddinggemma"),
//	    ai.WithExtractorModel("qwen2.5:3b"),
//	))
package openai
