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
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/poiesic/corpora/ai"
)

// MockRelationExtractor is a test double for ai.RelationExtractor.
type MockRelationExtractor struct {
	// ExtractGraphFunc is called by ExtractGraph if set.
	ExtractGraphFunc func(ctx context.Context, text string) (*ai.ExtractedGraph, error)

	callCount atomic.Int64
}

var _ ai.RelationExtractor = (*MockRelationExtractor)(nil)

// NewMockRelationExtractor creates a mock extractor with default behavior.
// The concrete type is returned so tests can set ExtractGraphFunc.
func NewMockRelationExtractor() *MockRelationExtractor {
	return &MockRelationExtractor{}
}

// ExtractGraph extracts a simple graph from text.
// Default behavior: every capitalized word becomes a CONCEPT node and
// consecutive nodes are joined by RELATED_TO edges.
func (m *MockRelationExtractor) ExtractGraph(ctx context.Context, text string) (*ai.ExtractedGraph, error) {
	m.callCount.Add(1)

	if m.ExtractGraphFunc != nil {
		return m.ExtractGraphFunc(ctx, text)
	}

	graph := &ai.ExtractedGraph{}
	seen := make(map[string]bool)
	for _, word := range strings.Fields(text) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word == "" || !unicode.IsUpper([]rune(word)[0]) {
			continue
		}
		key := strings.ToLower(word)
		if seen[key] {
			continue
		}
		seen[key] = true
		graph.Nodes = append(graph.Nodes, ai.ExtractedNode{Key: key, Type: "CONCEPT", Title: word})
	}
	for i := 1; i < len(graph.Nodes); i++ {
		graph.Edges = append(graph.Edges, ai.ExtractedEdge{
			From: graph.Nodes[i-1].Key,
			To:   graph.Nodes[i].Key,
			Type: "RELATED_TO",
		})
	}
	return graph, nil
}

// CallCount returns the number of times ExtractGraph was called.
func (m *MockRelationExtractor) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom functions.
func (m *MockRelationExtractor) Reset() {
	m.callCount.Store(0)
	m.ExtractGraphFunc = nil
}
