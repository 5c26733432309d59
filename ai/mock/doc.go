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

// Package mock provides test doubles for the ai interfaces.
//
// # Usage
//
//	provider := mock.NewMockProvider()
//	mockEmbedder := provider.Embeddings
//
//	// Inject failures
//	mockEmbedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return nil, errors.New("provider down")
//	}
//
//	// Check call counts
//	count := mockEmbedder.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockRelationExtractor: Turns capitalized words into linked nodes
//   - MockProvider: Aggregates mock embedder and extractor
//
// Call counters are atomic, so the mocks can be shared by concurrent workers.
package mock
