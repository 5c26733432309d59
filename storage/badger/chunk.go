package badger

import (
	"context"
	"encoding/binary"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/storage"
)

// ChunkRepository implements storage.ChunkRepository using BadgerDB.
type ChunkRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	idSeq, err := backend.GetSequence(chunkIDSeq)
	if err != nil {
		return nil, err
	}

	return &ChunkRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ChunkRepository) Close() error {
	return r.idSeq.Release()
}

// nextID draws the next chunk ID from the sequence.
func (r *ChunkRepository) nextID() (core.ID, error) {
	nextID, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if nextID == 0 {
		nextID, err = r.idSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(nextID), nil
}

// AddChunk persists a single chunk.
func (r *ChunkRepository) AddChunk(ctx context.Context, record *core.ChunkRecord) (*core.ChunkRecord, error) {
	added, err := r.AddChunks(ctx, record)
	if err != nil {
		return nil, err
	}
	return added[0], nil
}

// AddChunks persists one or more chunks in a single transaction.
func (r *ChunkRepository) AddChunks(ctx context.Context, records ...*core.ChunkRecord) ([]*core.ChunkRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			// Always generate new ID from sequence
			id, err := r.nextID()
			if err != nil {
				return err
			}
			record.Id = id
			record.InsertedAt = time.Now().UTC()

			if err := tx.Set(makeChunkKey(record.Id), storage.MarshalChunkRecord(record)); err != nil {
				return err
			}
			indexKey := makeChunkDocumentKey(record.DocumentID, record.Id)
			if err := tx.Set(indexKey, storage.MarshalID(record.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return records, nil
}

// UpdateChunks replaces existing chunks. The document index is rewritten
// when a chunk moves to another document.
func (r *ChunkRepository) UpdateChunks(ctx context.Context, records ...*core.ChunkRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.backend.WithUpdate(func(tx *badger.Txn) error {
		for _, record := range records {
			key := makeChunkKey(record.Id)

			old, found, err := readValue(tx, key, storage.UnmarshalChunkRecord)
			if err != nil {
				return err
			}
			if !found {
				return storage.ErrNotFound
			}

			if record.InsertedAt.IsZero() {
				record.InsertedAt = old.InsertedAt
			}
			if err := tx.Set(key, storage.MarshalChunkRecord(record)); err != nil {
				return err
			}

			if old.DocumentID != record.DocumentID {
				if err := tx.Delete(makeChunkDocumentKey(old.DocumentID, old.Id)); err != nil {
					return err
				}
				indexKey := makeChunkDocumentKey(record.DocumentID, record.Id)
				if err := tx.Set(indexKey, storage.MarshalID(record.Id)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.ChunkRecord, error) {
	var result *core.ChunkRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		record, found, err := readValue(tx, makeChunkKey(id), storage.UnmarshalChunkRecord)
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrNotFound
		}
		result = record
		return nil
	}, false)
	return result, err
}

// GetChunks retrieves multiple chunks by their IDs.
func (r *ChunkRepository) GetChunks(ctx context.Context, ids ...core.ID) ([]*core.ChunkRecord, error) {
	var result []*core.ChunkRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			record, found, err := readValue(tx, makeChunkKey(id), storage.UnmarshalChunkRecord)
			if err != nil {
				return err
			}
			if found {
				result = append(result, record)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetChunksByDocument retrieves the chunks of a document ordered by ID.
func (r *ChunkRepository) GetChunksByDocument(ctx context.Context, documentID string) ([]*core.ChunkRecord, error) {
	var results []*core.ChunkRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		results, err = r.readDocumentChunks(tx, documentID, nil)
		return err
	}, false)
	return results, err
}

// CountChunksByDocument counts the index entries of a document.
func (r *ChunkRepository) CountChunksByDocument(ctx context.Context, documentID string) (int, error) {
	var count int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialChunkDocumentKey(documentID)
		count = countPrefix(tx, prefix, len(prefix)+8)
		return nil
	}, false)
	return count, err
}

// CountChunks returns the total number of stored chunks.
func (r *ChunkRepository) CountChunks(ctx context.Context) (int, error) {
	var count int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		count = countPrefix(tx, []byte(chunkPrefix), 0)
		return nil
	}, false)
	return count, err
}

// ListChunks returns up to limit chunks with ID greater than afterID.
func (r *ChunkRepository) ListChunks(ctx context.Context, afterID core.ID, limit int) ([]*core.ChunkRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", storage.ErrInvalidQuery, limit)
	}

	var results []*core.ChunkRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(chunkPrefix)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(makeChunkKey(afterID + 1)); iter.ValidForPrefix(prefix); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var record *core.ChunkRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalChunkRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, record)
			if len(results) >= limit {
				break
			}
		}
		return nil
	}, false)
	return results, err
}

// FindCandidates scores every chunk of the given documents against vector
// and returns the best limit of them.
func (r *ChunkRepository) FindCandidates(ctx context.Context, ownerID string, vector []float32, documentIDs []string, limit int) ([]*core.ChunkRecord, error) {
	if len(documentIDs) == 0 || limit <= 0 {
		return nil, nil
	}

	type scored struct {
		record *core.ChunkRecord
		score  float64
	}
	var candidates []scored

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		seen := make(map[string]struct{}, len(documentIDs))
		for _, documentID := range documentIDs {
			if _, dup := seen[documentID]; dup {
				continue
			}
			seen[documentID] = struct{}{}

			if err := ctx.Err(); err != nil {
				return err
			}
			records, err := r.readDocumentChunks(tx, documentID, func(record *core.ChunkRecord) bool {
				return len(record.Vector) > 0 && (ownerID == "" || record.OwnerID == ownerID)
			})
			if err != nil {
				return err
			}
			for _, record := range records {
				candidates = append(candidates, scored{
					record: record,
					score:  core.CosineSimilarity(vector, record.Vector),
				})
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(candidates, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		case a.record.Id < b.record.Id:
			return -1
		case a.record.Id > b.record.Id:
			return 1
		}
		return 0
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	results := make([]*core.ChunkRecord, len(candidates))
	for i, c := range candidates {
		results[i] = c.record
	}
	return results, nil
}

// readDocumentChunks follows the document index and loads matching chunks in ID order.
func (r *ChunkRepository) readDocumentChunks(tx *badger.Txn, documentID string, keep func(*core.ChunkRecord) bool) ([]*core.ChunkRecord, error) {
	prefix := makePartialChunkDocumentKey(documentID)
	var ids []core.ID
	err := scanPrefix(tx, prefix, func(key, _ []byte) error {
		// Skip entries of documents whose ID extends this one
		if len(key) != len(prefix)+8 {
			return nil
		}
		ids = append(ids, core.ID(binary.BigEndian.Uint64(key[len(prefix):])))
		return nil
	})
	if err != nil {
		return nil, err
	}

	var results []*core.ChunkRecord
	for _, id := range ids {
		record, found, err := readValue(tx, makeChunkKey(id), storage.UnmarshalChunkRecord)
		if err != nil {
			return nil, err
		}
		if !found || (keep != nil && !keep(record)) {
			continue
		}
		results = append(results, record)
	}
	return results, nil
}
