package storage

import (
	"testing"
	"time"

	"github.com/poiesic/corpora/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalChunkRecord(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name   string
		record *core.ChunkRecord
	}{
		{
			name: "minimal record",
			record: &core.ChunkRecord{
				Id:         core.ID(1),
				DocumentID: "doc-1",
				Text:       "Hello",
				InsertedAt: now,
			},
		},
		{
			name: "record with vector and scope",
			record: &core.ChunkRecord{
				Id:         core.ID(7),
				OwnerID:    "owner-1",
				GraphID:    "graph-1",
				DocumentID: "doc-2",
				PageNum:    12,
				ChunkIndex: 3,
				Text:       "The Eiffel Tower is in Paris.",
				Vector:     []float32{0.1, -0.25, 3.5, 0},
				InsertedAt: now,
			},
		},
		{
			name: "zero timestamp",
			record: &core.ChunkRecord{
				Id:         core.ID(9),
				DocumentID: "doc-3",
				Text:       "unicode ✓ text",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalChunkRecord(tt.record)
			decoded, err := UnmarshalChunkRecord(data)
			require.NoError(t, err)
			assert.Equal(t, tt.record, decoded)
		})
	}
}

func TestUnmarshalChunkRecord_Truncated(t *testing.T) {
	record := &core.ChunkRecord{
		Id:         core.ID(3),
		DocumentID: "doc-1",
		Text:       "some text",
		Vector:     []float32{1, 2, 3},
	}
	data := MarshalChunkRecord(record)

	_, err := UnmarshalChunkRecord(data[:len(data)/2])
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalDocument(t *testing.T) {
	doc := &core.Document{
		Id:          "0b8c6d9e-3a1f-4b2c-9d8e-7f6a5b4c3d2e",
		GraphID:     "graph-1",
		OwnerID:     "owner-1",
		Name:        "report.pdf",
		ContentType: "application/pdf",
		Size:        1 << 20,
		Checksum:    core.Checksum([]byte("pdf")),
		InsertedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}

	decoded, err := UnmarshalDocument(MarshalDocument(doc))
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestMarshalUnmarshalGraph(t *testing.T) {
	graph := &core.Graph{
		Id:         "graph-1",
		OwnerID:    "owner-1",
		Name:       "a.pdf & b.pdf",
		InsertedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	decoded, err := UnmarshalGraph(MarshalGraph(graph))
	require.NoError(t, err)
	assert.Equal(t, graph, decoded)
}

func TestMarshalUnmarshalNode(t *testing.T) {
	node := &core.Node{
		Id:       core.NodeID("graph-1", "place", "paris"),
		GraphID:  "graph-1",
		Type:     "place",
		Title:    "Paris",
		ChunkIDs: []core.ID{1, 5, 9},
		Properties: map[string]string{
			"country": "France",
			"kind":    "capital",
		},
	}

	data := MarshalNode(node)
	decoded, err := UnmarshalNode(data)
	require.NoError(t, err)
	assert.Equal(t, node, decoded)

	// Property order must not influence the encoding
	assert.Equal(t, data, MarshalNode(node))
}

func TestMarshalUnmarshalEdge(t *testing.T) {
	edge := &core.Edge{
		GraphID:  "graph-1",
		From:     core.ID(11),
		To:       core.ID(22),
		Type:     "located_in",
		ChunkIDs: []core.ID{4},
	}

	decoded, err := UnmarshalEdge(MarshalEdge(edge))
	require.NoError(t, err)
	assert.Equal(t, edge, decoded)
}
