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

package storage

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/corpora/core"
)

// encoder is implemented by a sizing pass and a writing pass,
// so every record layout is declared exactly once.
type encoder interface {
	putUint64(v uint64)
	putInt64(v int64)
	putInt(v int)
	putString(v string)
	putFloat32(v float32)
}

type sizer struct {
	size int
}

func (s *sizer) putUint64(v uint64)   { s.size += varint.Uint64.Size(v) }
func (s *sizer) putInt64(v int64)     { s.size += varint.Int64.Size(v) }
func (s *sizer) putInt(v int)         { s.size += varint.Int.Size(v) }
func (s *sizer) putString(v string)   { s.size += ord.String.Size(v) }
func (s *sizer) putFloat32(v float32) { s.size += varint.Uint32.Size(math.Float32bits(v)) }

type writer struct {
	bs []byte
	n  int
}

func (w *writer) putUint64(v uint64)   { w.n += varint.Uint64.Marshal(v, w.bs[w.n:]) }
func (w *writer) putInt64(v int64)     { w.n += varint.Int64.Marshal(v, w.bs[w.n:]) }
func (w *writer) putInt(v int)         { w.n += varint.Int.Marshal(v, w.bs[w.n:]) }
func (w *writer) putString(v string)   { w.n += ord.String.Marshal(v, w.bs[w.n:]) }
func (w *writer) putFloat32(v float32) { w.n += varint.Uint32.Marshal(math.Float32bits(v), w.bs[w.n:]) }

func encode(layout func(e encoder)) []byte {
	var s sizer
	layout(&s)
	w := &writer{bs: make([]byte, s.size)}
	layout(w)
	return w.bs
}

func putTime(e encoder, t time.Time) {
	if t.IsZero() {
		e.putInt64(0)
		return
	}
	e.putInt64(t.UnixMicro())
}

func putIDs(e encoder, ids []core.ID) {
	e.putInt(len(ids))
	for _, id := range ids {
		e.putUint64(uint64(id))
	}
}

// decoder reads fields sequentially and remembers the first error.
type decoder struct {
	bs  []byte
	n   int
	err error
}

func (d *decoder) uint64() uint64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) int64() int64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) int() int {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) float32() float32 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Uint32.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return math.Float32frombits(v)
}

// length reads a collection length. Every element takes at least one byte,
// so a length larger than the remaining input means the data was cut short.
func (d *decoder) length() int {
	l := d.int()
	if d.err == nil && (l < 0 || l > len(d.bs)-d.n) {
		d.err = ErrTruncatedData
		return 0
	}
	return l
}

func (d *decoder) time() time.Time {
	micros := d.int64()
	if micros == 0 {
		return time.Time{}
	}
	return time.UnixMicro(micros).UTC()
}

func (d *decoder) ids() []core.ID {
	l := d.length()
	if l == 0 {
		return nil
	}
	ids := make([]core.ID, l)
	for i := range ids {
		ids[i] = core.ID(d.uint64())
	}
	return ids
}

func (d *decoder) finish() error {
	if d.err != nil {
		return fmt.Errorf("%w: %w", ErrSerializationFailed, d.err)
	}
	return nil
}

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	return encode(func(e encoder) {
		e.putUint64(uint64(id))
	})
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	d := &decoder{bs: data}
	id := core.ID(d.uint64())
	return id, d.finish()
}

// MarshalChunkRecord serializes a ChunkRecord to bytes.
func MarshalChunkRecord(record *core.ChunkRecord) []byte {
	return encode(func(e encoder) {
		e.putUint64(uint64(record.Id))
		e.putString(record.OwnerID)
		e.putString(record.GraphID)
		e.putString(record.DocumentID)
		e.putInt(record.PageNum)
		e.putInt(record.ChunkIndex)
		e.putString(record.Text)
		e.putInt(len(record.Vector))
		for _, v := range record.Vector {
			e.putFloat32(v)
		}
		putTime(e, record.InsertedAt)
	})
}

// UnmarshalChunkRecord deserializes a ChunkRecord from bytes.
func UnmarshalChunkRecord(data []byte) (*core.ChunkRecord, error) {
	d := &decoder{bs: data}
	record := &core.ChunkRecord{
		Id:         core.ID(d.uint64()),
		OwnerID:    d.string(),
		GraphID:    d.string(),
		DocumentID: d.string(),
		PageNum:    d.int(),
		ChunkIndex: d.int(),
		Text:       d.string(),
	}
	if l := d.length(); l > 0 {
		record.Vector = make([]float32, l)
		for i := range record.Vector {
			record.Vector[i] = d.float32()
		}
	}
	record.InsertedAt = d.time()
	if err := d.finish(); err != nil {
		return nil, err
	}
	return record, nil
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	return encode(func(e encoder) {
		e.putString(doc.Id)
		e.putString(doc.GraphID)
		e.putString(doc.OwnerID)
		e.putString(doc.Name)
		e.putString(doc.ContentType)
		e.putInt64(doc.Size)
		e.putString(doc.Checksum)
		putTime(e, doc.InsertedAt)
	})
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	d := &decoder{bs: data}
	doc := &core.Document{
		Id:          d.string(),
		GraphID:     d.string(),
		OwnerID:     d.string(),
		Name:        d.string(),
		ContentType: d.string(),
		Size:        d.int64(),
		Checksum:    d.string(),
		InsertedAt:  d.time(),
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return doc, nil
}

// MarshalGraph serializes Graph metadata to bytes.
func MarshalGraph(graph *core.Graph) []byte {
	return encode(func(e encoder) {
		e.putString(graph.Id)
		e.putString(graph.OwnerID)
		e.putString(graph.Name)
		putTime(e, graph.InsertedAt)
	})
}

// UnmarshalGraph deserializes Graph metadata from bytes.
func UnmarshalGraph(data []byte) (*core.Graph, error) {
	d := &decoder{bs: data}
	graph := &core.Graph{
		Id:         d.string(),
		OwnerID:    d.string(),
		Name:       d.string(),
		InsertedAt: d.time(),
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return graph, nil
}

// MarshalNode serializes a Node to bytes.
// Properties are written in key order so equal nodes encode identically.
func MarshalNode(node *core.Node) []byte {
	keys := make([]string, 0, len(node.Properties))
	for k := range node.Properties {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return encode(func(e encoder) {
		e.putUint64(uint64(node.Id))
		e.putString(node.GraphID)
		e.putString(node.Type)
		e.putString(node.Title)
		putIDs(e, node.ChunkIDs)
		e.putInt(len(keys))
		for _, k := range keys {
			e.putString(k)
			e.putString(node.Properties[k])
		}
	})
}

// UnmarshalNode deserializes a Node from bytes.
func UnmarshalNode(data []byte) (*core.Node, error) {
	d := &decoder{bs: data}
	node := &core.Node{
		Id:       core.ID(d.uint64()),
		GraphID:  d.string(),
		Type:     d.string(),
		Title:    d.string(),
		ChunkIDs: d.ids(),
	}
	if l := d.length(); l > 0 {
		node.Properties = make(map[string]string, l)
		for range l {
			k := d.string()
			node.Properties[k] = d.string()
		}
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return node, nil
}

// MarshalEdge serializes an Edge to bytes.
func MarshalEdge(edge *core.Edge) []byte {
	return encode(func(e encoder) {
		e.putString(edge.GraphID)
		e.putUint64(uint64(edge.From))
		e.putUint64(uint64(edge.To))
		e.putString(edge.Type)
		putIDs(e, edge.ChunkIDs)
	})
}

// UnmarshalEdge deserializes an Edge from bytes.
func UnmarshalEdge(data []byte) (*core.Edge, error) {
	d := &decoder{bs: data}
	edge := &core.Edge{
		GraphID:  d.string(),
		From:     core.ID(d.uint64()),
		To:       core.ID(d.uint64()),
		Type:     d.string(),
		ChunkIDs: d.ids(),
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return edge, nil
}
