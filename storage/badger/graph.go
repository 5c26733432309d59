package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/storage"
)

// GraphRepository implements storage.GraphRepository using BadgerDB.
type GraphRepository struct {
	backend *Backend
}

var _ storage.GraphRepository = (*GraphRepository)(nil)

// NewGraphRepository creates a new GraphRepository.
func NewGraphRepository(backend *Backend) (*GraphRepository, error) {
	return &GraphRepository{backend: backend}, nil
}

// Close is a no-op; the backend is closed separately.
func (r *GraphRepository) Close() error {
	return nil
}

// CreateGraph stores new graph metadata.
func (r *GraphRepository) CreateGraph(ctx context.Context, graph *core.Graph) (*core.Graph, error) {
	if graph.Id == "" {
		return nil, core.ErrEmptyGraphID
	}

	err := r.backend.WithUpdate(func(tx *badger.Txn) error {
		key := makeGraphKey(graph.Id)
		_, found, err := readValue(tx, key, storage.UnmarshalGraph)
		if err != nil {
			return err
		}
		if found {
			return storage.ErrDuplicateKey
		}
		if graph.InsertedAt.IsZero() {
			graph.InsertedAt = time.Now().UTC()
		}
		return tx.Set(key, storage.MarshalGraph(graph))
	})
	if err != nil {
		return nil, err
	}
	return graph, nil
}

// GetGraph retrieves graph metadata by ID.
func (r *GraphRepository) GetGraph(ctx context.Context, id string) (*core.Graph, error) {
	var result *core.Graph
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		graph, found, err := readValue(tx, makeGraphKey(id), storage.UnmarshalGraph)
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrNotFound
		}
		result = graph
		return nil
	}, false)
	return result, err
}

// UpsertNodes inserts nodes or merges them into the stored ones.
func (r *GraphRepository) UpsertNodes(ctx context.Context, nodes ...*core.Node) ([]*core.Node, error) {
	for _, node := range nodes {
		if err := core.ValidateNode(node); err != nil {
			return nil, err
		}
	}

	results := make([]*core.Node, len(nodes))
	err := r.backend.WithUpdate(func(tx *badger.Txn) error {
		for i, node := range nodes {
			if node.Id == 0 {
				node.Id = core.IDFromContent(node.Tuple())
			}
			key := makeNodeKey(node.GraphID, node.Id)

			node.ChunkIDs = mergeIDs(nil, node.ChunkIDs)
			merged := node
			old, found, err := readValue(tx, key, storage.UnmarshalNode)
			if err != nil {
				return err
			}
			if found {
				merged = mergeNode(old, node)
			}
			if err := tx.Set(key, storage.MarshalNode(merged)); err != nil {
				return err
			}
			results[i] = merged
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// UpsertEdges inserts edges or merges chunk IDs into the stored ones.
func (r *GraphRepository) UpsertEdges(ctx context.Context, edges ...*core.Edge) error {
	for _, edge := range edges {
		if err := core.ValidateEdge(edge); err != nil {
			return err
		}
	}

	return r.backend.WithUpdate(func(tx *badger.Txn) error {
		for _, edge := range edges {
			key := makeEdgeKey(edge.GraphID, edge.From, edge.To, edge.Type)

			edge.ChunkIDs = mergeIDs(nil, edge.ChunkIDs)
			merged := edge
			old, found, err := readValue(tx, key, storage.UnmarshalEdge)
			if err != nil {
				return err
			}
			if found {
				merged = &core.Edge{
					GraphID:  edge.GraphID,
					From:     edge.From,
					To:       edge.To,
					Type:     edge.Type,
					ChunkIDs: mergeIDs(old.ChunkIDs, edge.ChunkIDs),
				}
			}
			if err := tx.Set(key, storage.MarshalEdge(merged)); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetNode retrieves a node by graph and ID.
func (r *GraphRepository) GetNode(ctx context.Context, graphID string, id core.ID) (*core.Node, error) {
	var result *core.Node
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		node, found, err := readValue(tx, makeNodeKey(graphID, id), storage.UnmarshalNode)
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrNotFound
		}
		result = node
		return nil
	}, false)
	return result, err
}

// GetNodes retrieves every node of a graph.
func (r *GraphRepository) GetNodes(ctx context.Context, graphID string) ([]*core.Node, error) {
	var results []*core.Node
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, makePartialNodeKey(graphID), func(_, val []byte) error {
			node, err := storage.UnmarshalNode(val)
			if err != nil {
				return err
			}
			if node.GraphID == graphID {
				results = append(results, node)
			}
			return nil
		})
	}, false)
	return results, err
}

// GetEdges retrieves every edge of a graph.
func (r *GraphRepository) GetEdges(ctx context.Context, graphID string) ([]*core.Edge, error) {
	var results []*core.Edge
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, makePartialEdgeKey(graphID), func(_, val []byte) error {
			edge, err := storage.UnmarshalEdge(val)
			if err != nil {
				return err
			}
			if edge.GraphID == graphID {
				results = append(results, edge)
			}
			return nil
		})
	}, false)
	return results, err
}

// mergeNode combines a stored node with an incoming one. The stored title
// casing wins; incoming properties overwrite stored ones.
func mergeNode(old, incoming *core.Node) *core.Node {
	merged := &core.Node{
		Id:       old.Id,
		GraphID:  old.GraphID,
		Type:     old.Type,
		Title:    old.Title,
		ChunkIDs: mergeIDs(old.ChunkIDs, incoming.ChunkIDs),
	}
	if len(old.Properties)+len(incoming.Properties) > 0 {
		merged.Properties = make(map[string]string, len(old.Properties)+len(incoming.Properties))
		for k, v := range old.Properties {
			merged.Properties[k] = v
		}
		for k, v := range incoming.Properties {
			merged.Properties[k] = v
		}
	}
	return merged
}

// mergeIDs returns the sorted union of two ID lists.
func mergeIDs(a, b []core.ID) []core.ID {
	if len(a)+len(b) == 0 {
		return nil
	}
	merged := make([]core.ID, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	slices.Sort(merged)
	return slices.Compact(merged)
}
