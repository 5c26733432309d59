package badger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/corpora/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := OpenBackend(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	err = backend.WithTx(func(tx *badger.Txn) error { return nil }, false)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestScanPrefix(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	err = backend.WithUpdate(func(tx *badger.Txn) error {
		for _, k := range []string{"a:1", "a:2", "b:1"} {
			if err := tx.Set([]byte(k), []byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var keys []string
	err = backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte("a:"), func(key, val []byte) error {
			assert.Equal(t, key, val)
			keys = append(keys, string(key))
			return nil
		})
	}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a:1", "a:2"}, keys)

	err = backend.WithTx(func(tx *badger.Txn) error {
		assert.Equal(t, 2, countPrefix(tx, []byte("a:"), 0))
		assert.Equal(t, 0, countPrefix(tx, []byte("a:"), 10))
		return nil
	}, false)
	require.NoError(t, err)
}

func TestKeys_PreserveNumericOrder(t *testing.T) {
	assert.Less(t, string(makeChunkKey(255)), string(makeChunkKey(256)))
	assert.Less(t, string(makeChunkDocumentKey("doc", 1)), string(makeChunkDocumentKey("doc", 1<<40)))
	assert.NotEqual(t, makeEdgeKey("g", 1, 2, "a"), makeEdgeKey("g", 2, 1, "a"))
}
