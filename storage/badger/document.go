package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/storage"
)

// DocumentRepository implements storage.DocumentRepository using BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	return &DocumentRepository{backend: backend}, nil
}

// Close is a no-op; the backend is closed separately.
func (r *DocumentRepository) Close() error {
	return nil
}

// AddDocuments stores document records and indexes them by graph.
func (r *DocumentRepository) AddDocuments(ctx context.Context, documents ...*core.Document) ([]*core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, doc := range documents {
			if doc.InsertedAt.IsZero() {
				doc.InsertedAt = now
			}
			if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
				return err
			}
			if err := tx.Set(makeDocumentGraphKey(doc.GraphID, doc.Id), []byte(doc.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return documents, nil
}

// GetDocument retrieves a document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id string) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		doc, found, err := readValue(tx, makeDocumentKey(id), storage.UnmarshalDocument)
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrNotFound
		}
		result = doc
		return nil
	}, false)
	return result, err
}

// GetDocuments retrieves multiple documents by their IDs.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...string) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, found, err := readValue(tx, makeDocumentKey(id), storage.UnmarshalDocument)
			if err != nil {
				return err
			}
			if found {
				results = append(results, doc)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetDocumentsByGraph follows the graph index to every document of a graph.
func (r *DocumentRepository) GetDocumentsByGraph(ctx context.Context, graphID string) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var ids []string
		err := scanPrefix(tx, makePartialDocumentGraphKey(graphID), func(_, val []byte) error {
			ids = append(ids, string(val))
			return nil
		})
		if err != nil {
			return err
		}

		for _, id := range ids {
			doc, found, err := readValue(tx, makeDocumentKey(id), storage.UnmarshalDocument)
			if err != nil {
				return err
			}
			if found && doc.GraphID == graphID {
				results = append(results, doc)
			}
		}
		return nil
	}, false)
	return results, err
}
