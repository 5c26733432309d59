package badger

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/corpora/storage"
)

const (
	defaultSequenceBandwidth = 100
)

// Backend wraps a BadgerDB instance and provides low-level operations.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist.
func OpenBackend(filePath string, inMemory bool) (*Backend, error) {
	return OpenBackendWithLogger(filePath, inMemory, slog.Default())
}

// OpenBackendWithLogger is OpenBackend with an explicit logger for badger's
// internal messages.
func OpenBackendWithLogger(filePath string, inMemory bool, logger *slog.Logger) (*Backend, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := ensureDir(filePath); err != nil {
			return nil, err
		}
		opts = badger.DefaultOptions(filePath)
	}

	logger = logger.With("component", "badger")
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Backend{
		db:     db,
		logger: logger,
	}, nil
}

func ensureDir(filePath string) error {
	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(filePath, 0755); err != nil {
			return err
		}
		info, err = os.Stat(filePath)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filePath)
	}
	return nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction.
// The transaction is automatically discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// WithUpdate runs fn in a read-write transaction and commits it.
// Conflicting concurrent commits are retried, so read-modify-write
// callers never lose an update.
func (b *Backend) WithUpdate(fn func(tx *badger.Txn) error) error {
	const maxConflictRetries = 25
	var err error
	for range maxConflictRetries {
		err = b.WithTx(func(tx *badger.Txn) error {
			if err := fn(tx); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// GetSequence returns a BadgerDB sequence for generating sequential IDs.
func (b *Backend) GetSequence(name string) (*badger.Sequence, error) {
	return b.db.GetSequence([]byte(name), defaultSequenceBandwidth)
}

// scanPrefix calls fn with every key starting with prefix and its value, in key order.
func scanPrefix(tx *badger.Txn, prefix []byte, fn func(key, val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
		item := iter.Item()
		key := item.KeyCopy(nil)
		err := item.Value(func(val []byte) error {
			return fn(key, val)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// countPrefix counts keys starting with prefix without reading values.
// When keyLen is positive only keys of exactly that length are counted.
func countPrefix(tx *badger.Txn, prefix []byte, keyLen int) int {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	count := 0
	for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
		if keyLen > 0 && len(iter.Item().Key()) != keyLen {
			continue
		}
		count++
	}
	return count
}

// readValue reads the value stored at key and decodes it.
// The boolean is false when the key doesn't exist.
func readValue[T any](tx *badger.Txn, key []byte, decode func([]byte) (T, error)) (T, bool, error) {
	var zero T
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return zero, false, nil
		}
		return zero, false, err
	}

	var result T
	err = item.Value(func(val []byte) error {
		var err error
		result, err = decode(val)
		return err
	})
	if err != nil {
		return zero, false, err
	}
	return result, true, nil
}
