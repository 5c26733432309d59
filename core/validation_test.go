package core

import (
	"errors"
	"testing"
)

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *Chunk
		wantErr error
	}{
		{
			name:    "valid chunk",
			chunk:   &Chunk{Text: "Hello world", DocumentID: "doc-1", PageNum: 1, ChunkIndex: 0},
			wantErr: nil,
		},
		{
			name:    "valid chunk on page zero",
			chunk:   &Chunk{Text: "Preface", DocumentID: "doc-1"},
			wantErr: nil,
		},
		{
			name:    "nil chunk",
			chunk:   nil,
			wantErr: ErrInvalidChunk,
		},
		{
			name:    "empty text",
			chunk:   &Chunk{Text: "", DocumentID: "doc-1"},
			wantErr: ErrEmptyText,
		},
		{
			name:    "whitespace text",
			chunk:   &Chunk{Text: " \n\t ", DocumentID: "doc-1"},
			wantErr: ErrEmptyText,
		},
		{
			name:    "missing document id",
			chunk:   &Chunk{Text: "body"},
			wantErr: ErrEmptyDocumentID,
		},
		{
			name:    "negative page",
			chunk:   &Chunk{Text: "body", DocumentID: "doc-1", PageNum: -1},
			wantErr: ErrNegativePosition,
		},
		{
			name:    "negative index",
			chunk:   &Chunk{Text: "body", DocumentID: "doc-1", ChunkIndex: -3},
			wantErr: ErrNegativePosition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunk() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidChunk) {
				t.Errorf("ValidateChunk() error = %v, should wrap ErrInvalidChunk", err)
			}
		})
	}
}

func TestValidateNode(t *testing.T) {
	tests := []struct {
		name    string
		node    *Node
		wantErr error
	}{
		{
			name:    "valid node",
			node:    &Node{GraphID: "g", Type: "place", Title: "Paris"},
			wantErr: nil,
		},
		{
			name:    "nil node",
			node:    nil,
			wantErr: ErrInvalidNode,
		},
		{
			name:    "missing graph",
			node:    &Node{Type: "place", Title: "Paris"},
			wantErr: ErrEmptyGraphID,
		},
		{
			name:    "missing title",
			node:    &Node{GraphID: "g", Type: "place", Title: "  "},
			wantErr: ErrEmptyNodeTitle,
		},
		{
			name:    "missing type",
			node:    &Node{GraphID: "g", Title: "Paris"},
			wantErr: ErrEmptyNodeType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNode(tt.node)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateNode() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateNode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateEdge(t *testing.T) {
	tests := []struct {
		name    string
		edge    *Edge
		wantErr bool
	}{
		{"valid edge", &Edge{GraphID: "g", From: 1, To: 2, Type: "located_in"}, false},
		{"nil edge", nil, true},
		{"missing graph", &Edge{From: 1, To: 2, Type: "located_in"}, true},
		{"missing endpoint", &Edge{GraphID: "g", From: 1, Type: "located_in"}, true},
		{"missing type", &Edge{GraphID: "g", From: 1, To: 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEdge(tt.edge)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEdge() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidEdge) {
				t.Errorf("ValidateEdge() error = %v, should wrap ErrInvalidEdge", err)
			}
		})
	}
}
