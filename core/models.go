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

package core

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored entities.
// Chunk IDs come from database sequences, graph node IDs from content hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ParseID parses a decimal ID string.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return ID(v), nil
}

// String renders the ID in decimal.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// MarshalText encodes the ID as a decimal string.
// JSON consumers see a string, so 64-bit values survive JavaScript number parsing.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes a decimal ID string.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Checksum returns the hex encoded BLAKE2b-256 digest of data.
func Checksum(data []byte) string {
	h, _ := blake2b.New(32, nil)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Chunk is one unit of extracted document text as delivered by the scraper.
// It is immutable once received.
type Chunk struct {
	Text       string
	DocumentID string
	PageNum    int
	ChunkIndex int
}

// ChunkRecord is the persisted form of a chunk, scoped to an owner and graph.
type ChunkRecord struct {
	Id         ID
	OwnerID    string
	GraphID    string
	DocumentID string
	PageNum    int
	ChunkIndex int
	Text       string
	Vector     []float32 // Embedding vector used for candidate retrieval
	InsertedAt time.Time
}

// Graph holds the metadata of a knowledge graph built from one or more uploads.
type Graph struct {
	Id         string
	OwnerID    string
	Name       string
	InsertedAt time.Time
}

// Document represents one uploaded file.
type Document struct {
	Id          string
	GraphID     string
	OwnerID     string
	Name        string
	ContentType string
	Size        int64
	Checksum    string // BLAKE2b-256 of the raw bytes
	InsertedAt  time.Time
}

// Node is an entity in a knowledge graph.
type Node struct {
	Id         ID
	GraphID    string
	Type       string
	Title      string
	ChunkIDs   []ID
	Properties map[string]string
}

// Tuple returns the canonical "(graph,type,title)" form used for content IDs.
func (n *Node) Tuple() string {
	return NodeTuple(n.GraphID, n.Type, n.Title)
}

// NodeTuple builds the canonical node tuple. Type and title are case-folded
// so "Paris" and "paris" resolve to the same node.
func NodeTuple(graphID, nodeType, title string) string {
	return "(" + graphID + "," + strings.ToLower(strings.TrimSpace(nodeType)) + "," +
		strings.ToLower(strings.TrimSpace(title)) + ")"
}

// NodeID returns the content ID for a node in a graph.
func NodeID(graphID, nodeType, title string) ID {
	return IDFromContent(NodeTuple(graphID, nodeType, title))
}

// Edge is a typed, directed relation between two nodes of the same graph.
type Edge struct {
	GraphID  string
	From     ID
	To       ID
	Type     string
	ChunkIDs []ID
}

// RetrievedContext is a ranked search hit handed to downstream consumers.
type RetrievedContext struct {
	Text         string  `json:"text"`
	DocumentName string  `json:"document_name"`
	DocumentID   string  `json:"document_id"`
	ChunkID      ID      `json:"chunk_id"`
	ChunkIndex   int     `json:"chunk_index"`
	TotalChunks  int     `json:"total_chunks"`
	Score        float64 `json:"score"`
}
