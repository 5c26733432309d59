package badger

import (
	"encoding/binary"

	"github.com/poiesic/corpora/core"
)

// Key prefixes for different data types
const (
	chunkPrefix         = "chk:"
	chunkDocumentPrefix = "chkdoc:"
	chunkIDSeq          = "chkseq"
	documentPrefix      = "doc:"
	documentGraphPrefix = "docg:"
	graphPrefix         = "gra:"
	nodePrefix          = "gnode:"
	edgePrefix          = "gedge:"
)

// appendID writes id in BigEndian order so lexicographic sort matches numeric order.
func appendID(buf []byte, id core.ID) []byte {
	return binary.BigEndian.AppendUint64(buf, uint64(id))
}

// makeChunkKey generates a key for a chunk by ID.
// Format: prefix:id
func makeChunkKey(id core.ID) []byte {
	buf := make([]byte, 0, len(chunkPrefix)+8)
	buf = append(buf, chunkPrefix...)
	return appendID(buf, id)
}

// makeChunkDocumentKey generates a composite key for the document index.
// Format: prefix:documentID:chunkID
func makeChunkDocumentKey(documentID string, id core.ID) []byte {
	return appendID(makePartialChunkDocumentKey(documentID), id)
}

// makePartialChunkDocumentKey generates the prefix of every chunk index key of a document.
func makePartialChunkDocumentKey(documentID string) []byte {
	buf := make([]byte, 0, len(chunkDocumentPrefix)+len(documentID)+9)
	buf = append(buf, chunkDocumentPrefix...)
	buf = append(buf, documentID...)
	return append(buf, ':')
}

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id string) []byte {
	return []byte(documentPrefix + id)
}

// makeDocumentGraphKey generates a composite key for the graph index.
// Format: prefix:graphID:documentID
func makeDocumentGraphKey(graphID, documentID string) []byte {
	return []byte(documentGraphPrefix + graphID + ":" + documentID)
}

// makePartialDocumentGraphKey generates the prefix of every document index key of a graph.
func makePartialDocumentGraphKey(graphID string) []byte {
	return []byte(documentGraphPrefix + graphID + ":")
}

// makeGraphKey generates a key for graph metadata by ID.
func makeGraphKey(id string) []byte {
	return []byte(graphPrefix + id)
}

// makeNodeKey generates a key for a node scoped to its graph.
// Format: prefix:graphID:nodeID
func makeNodeKey(graphID string, id core.ID) []byte {
	return appendID(makePartialNodeKey(graphID), id)
}

func makePartialNodeKey(graphID string) []byte {
	return []byte(nodePrefix + graphID + ":")
}

// makeEdgeKey generates a key for an edge scoped to its graph.
// Format: prefix:graphID:from:to:type
func makeEdgeKey(graphID string, from, to core.ID, edgeType string) []byte {
	buf := makePartialEdgeKey(graphID)
	buf = appendID(buf, from)
	buf = appendID(buf, to)
	return append(buf, edgeType...)
}

func makePartialEdgeKey(graphID string) []byte {
	return []byte(edgePrefix + graphID + ":")
}
