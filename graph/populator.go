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

// Package graph populates knowledge graphs from chunk text.
//
// A Populator asks an ai.RelationExtractor for the entities and relations in
// a chunk and upserts them into a storage.GraphRepository. Every node and edge
// remembers the chunks it was extracted from, so repeated mentions across
// chunks merge into one node.
package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/corpora/ai"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/storage"
)

var (
	// ErrGraphRepositoryRequired is returned when the graph repository is nil.
	ErrGraphRepositoryRequired = errors.New("graph repository is required")

	// ErrExtractorRequired is returned when the relation extractor is nil.
	ErrExtractorRequired = errors.New("relation extractor is required")
)

// Populator writes extracted entities and relations into one graph.
// It is safe for concurrent use.
type Populator struct {
	graphs    storage.GraphRepository
	extractor ai.RelationExtractor
	graphID   string
	logger    *slog.Logger
}

// Option configures a Populator.
type Option func(*Populator)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Populator) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPopulator creates a Populator bound to graphID.
func NewPopulator(graphs storage.GraphRepository, extractor ai.RelationExtractor, graphID string, opts ...Option) (*Populator, error) {
	if graphs == nil {
		return nil, ErrGraphRepositoryRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if graphID == "" {
		return nil, core.ErrEmptyGraphID
	}

	p := &Populator{
		graphs:    graphs,
		extractor: extractor,
		graphID:   graphID,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "graph-populator", "graph_id", graphID)
	return p, nil
}

// GraphID returns the graph this populator writes to.
func (p *Populator) GraphID() string {
	return p.graphID
}

// PopulateFromText extracts entities and relations from text and merges them
// into the graph, tagged with chunkID. documentID is recorded on new nodes.
func (p *Populator) PopulateFromText(ctx context.Context, text string, chunkID core.ID, documentID string) error {
	extracted, err := p.extractor.ExtractGraph(ctx, text)
	if err != nil {
		return fmt.Errorf("extract relations: %w", err)
	}
	if extracted == nil || len(extracted.Nodes) == 0 {
		p.logger.Debug("no entities extracted", "chunk_id", chunkID)
		return nil
	}

	nodes := make([]*core.Node, 0, len(extracted.Nodes))
	ids := make(map[string]core.ID, len(extracted.Nodes))
	for _, n := range extracted.Nodes {
		if strings.TrimSpace(n.Title) == "" || strings.TrimSpace(n.Type) == "" {
			continue
		}
		properties := make(map[string]string, len(n.Properties)+1)
		for k, v := range n.Properties {
			properties[k] = v
		}
		properties["document_id"] = documentID

		node := &core.Node{
			Id:         core.NodeID(p.graphID, n.Type, n.Title),
			GraphID:    p.graphID,
			Type:       n.Type,
			Title:      n.Title,
			ChunkIDs:   []core.ID{chunkID},
			Properties: properties,
		}
		ids[n.Key] = node.Id
		nodes = append(nodes, node)
	}

	if _, err := p.graphs.UpsertNodes(ctx, nodes...); err != nil {
		return fmt.Errorf("upsert nodes: %w", err)
	}

	edges := make([]*core.Edge, 0, len(extracted.Edges))
	for _, e := range extracted.Edges {
		from, okFrom := ids[e.From]
		to, okTo := ids[e.To]
		if !okFrom || !okTo || e.Type == "" {
			p.logger.Debug("skipping dangling edge", "from", e.From, "to", e.To, "type", e.Type)
			continue
		}
		edges = append(edges, &core.Edge{
			GraphID:  p.graphID,
			From:     from,
			To:       to,
			Type:     e.Type,
			ChunkIDs: []core.ID{chunkID},
		})
	}
	if len(edges) > 0 {
		if err := p.graphs.UpsertEdges(ctx, edges...); err != nil {
			return fmt.Errorf("upsert edges: %w", err)
		}
	}

	p.logger.Debug("populated graph from chunk",
		"chunk_id", chunkID,
		"nodes", len(nodes),
		"edges", len(edges))
	return nil
}
