package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *badger.Repositories {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

func addChunks(t *testing.T, repos *badger.Repositories, n int) []*core.ChunkRecord {
	t.Helper()
	records := make([]*core.ChunkRecord, n)
	for i := range records {
		records[i] = &core.ChunkRecord{
			DocumentID: "doc-1",
			ChunkIndex: i,
			Text:       fmt.Sprintf("chunk %d", i),
		}
	}
	added, err := repos.Chunks.AddChunks(context.Background(), records...)
	require.NoError(t, err)
	require.Len(t, added, n)
	return added
}

func TestChunkIterator_Basic(t *testing.T) {
	repos := setupTestDB(t)
	added := addChunks(t, repos, 5)

	iter := NewChunkIterator(repos.Chunks, 2)
	var pages []int
	var ids []core.ID

	err := iter.ForEach(context.Background(), func(records []*core.ChunkRecord) error {
		pages = append(pages, len(records))
		for _, r := range records {
			ids = append(ids, r.Id)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, pages)
	require.Len(t, ids, 5)
	for i, r := range added {
		assert.Equal(t, r.Id, ids[i], "chunks should be visited in ID order")
	}
}

func TestChunkIterator_ExactMultiple(t *testing.T) {
	repos := setupTestDB(t)
	addChunks(t, repos, 4)

	calls := 0
	err := NewChunkIterator(repos.Chunks, 2).ForEach(context.Background(), func(records []*core.ChunkRecord) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "an empty trailing page should not reach fn")
}

func TestChunkIterator_Empty(t *testing.T) {
	repos := setupTestDB(t)

	called := false
	err := NewChunkIterator(repos.Chunks, 10).ForEach(context.Background(), func(records []*core.ChunkRecord) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestChunkIterator_DefaultBatchSize(t *testing.T) {
	repos := setupTestDB(t)
	iter := NewChunkIterator(repos.Chunks, 0)
	assert.Equal(t, DefaultBatchSize, iter.batchSize)
}

func TestChunkIterator_StopsOnError(t *testing.T) {
	repos := setupTestDB(t)
	addChunks(t, repos, 6)

	stop := errors.New("stop")
	calls := 0
	err := NewChunkIterator(repos.Chunks, 2).ForEach(context.Background(), func(records []*core.ChunkRecord) error {
		calls++
		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestChunkIterator_ContextCancellation(t *testing.T) {
	repos := setupTestDB(t)
	addChunks(t, repos, 6)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := NewChunkIterator(repos.Chunks, 2).ForEach(ctx, func(records []*core.ChunkRecord) error {
		calls++
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
