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
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/corpora/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const maxParseAttempts = 3

// RelationExtractor implements ai.RelationExtractor using OpenAI-compatible chat APIs.
type RelationExtractor struct {
	client llms.Model
	logger *slog.Logger
}

var _ ai.RelationExtractor = (*RelationExtractor)(nil)

// payload mirrors the JSON the model is asked to produce.
type payload struct {
	Nodes []struct {
		ID         string         `json:"id"`
		Type       string         `json:"type"`
		Title      string         `json:"title"`
		Properties map[string]any `json:"properties"`
	} `json:"nodes"`
	Edges []struct {
		From string `json:"from"`
		To   string `json:"to"`
		Type string `json:"type"`
	} `json:"edges"`
}

// newRelationExtractor is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newRelationExtractor(config *ai.Config) (*RelationExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ExtractorHost),
		openai.WithToken(config.Token),
		openai.WithModel(config.ExtractorModel),
	)
	if err != nil {
		return nil, err
	}

	return newRelationExtractorWithModel(client), nil
}

func newRelationExtractorWithModel(client llms.Model) *RelationExtractor {
	return &RelationExtractor{
		client: client,
		logger: slog.Default().With("component", "openai-extractor"),
	}
}

// NewRelationExtractor creates a new relation extractor using the provided configuration.
//
// Returns ai.RelationExtractor interface to enforce abstraction.
func NewRelationExtractor(config *ai.Config) (ai.RelationExtractor, error) {
	return newRelationExtractor(config)
}

// ExtractGraph extracts entities and relations from text using an LLM.
// Malformed model output is retried; transport errors are returned at once.
func (e *RelationExtractor) ExtractGraph(ctx context.Context, text string) (*ai.ExtractedGraph, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, buildSystemPrompt()),
		llms.TextParts(llms.ChatMessageTypeHuman, text),
	}

	var result payload
	var lastErr error
	for attempt := 1; attempt <= maxParseAttempts; attempt++ {
		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			e.logger.Error("failed to generate content", "attempt", attempt, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			e.logger.Debug("no choices returned from model")
			return &ai.ExtractedGraph{}, nil
		}

		responseText := repairJSON(stripCodeFence(response.Choices[0].Content))
		result = payload{}
		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			e.logger.Warn("error parsing extractor response",
				"attempt", attempt,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		e.logger.Error("failed to parse extractor response after retries", "err", lastErr)
		return nil, fmt.Errorf("parse extractor response: %w", lastErr)
	}

	graph := e.normalize(&result)
	e.logger.Debug("extracted graph",
		"nodes", len(graph.Nodes),
		"edges", len(graph.Edges))
	return graph, nil
}

// normalize canonicalizes keys and labels, drops duplicate nodes and edges,
// and drops edges whose endpoints were not extracted.
func (e *RelationExtractor) normalize(p *payload) *ai.ExtractedGraph {
	graph := &ai.ExtractedGraph{
		Nodes: make([]ai.ExtractedNode, 0, len(p.Nodes)),
		Edges: make([]ai.ExtractedEdge, 0, len(p.Edges)),
	}

	known := make(map[string]bool, len(p.Nodes))
	for _, n := range p.Nodes {
		title := n.Title
		if title == "" {
			title = stringProperty(n.Properties, "title", "name")
		}
		key := canonicalKey(n.ID)
		if key == "" {
			key = canonicalKey(title)
		}
		if key == "" || title == "" || known[key] {
			continue
		}
		known[key] = true

		graph.Nodes = append(graph.Nodes, ai.ExtractedNode{
			Key:        key,
			Type:       e.label(n.Type, ai.NodeTypes, "node"),
			Title:      title,
			Properties: stringProperties(n.Properties),
		})
	}

	type edgeKey struct{ from, to, typ string }
	seen := make(map[edgeKey]bool, len(p.Edges))
	for _, edge := range p.Edges {
		k := edgeKey{canonicalKey(edge.From), canonicalKey(edge.To), e.label(edge.Type, ai.EdgeTypes, "edge")}
		if !known[k.from] || !known[k.to] || seen[k] {
			continue
		}
		seen[k] = true
		graph.Edges = append(graph.Edges, ai.ExtractedEdge{From: k.from, To: k.to, Type: k.typ})
	}
	return graph
}

// label canonicalizes a label and prefixes labels outside the vocabulary with NEW_.
func (e *RelationExtractor) label(raw string, vocabulary []string, kind string) string {
	label := canonicalLabel(raw)
	if label == "" {
		label = "RELATED_TO"
		if kind == "node" {
			label = "CONCEPT"
		}
	}
	if slices.Contains(vocabulary, label) || len(label) > 4 && label[:4] == "NEW_" {
		return label
	}
	e.logger.Warn("unknown label", "kind", kind, "label", label)
	return "NEW_" + label
}

func stringProperty(props map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := props[k]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	return ""
}

func stringProperties(props map[string]any) map[string]string {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]string, len(props))
	for k, v := range props {
		if v == nil {
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}
