package reembed

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/poiesic/corpora/ai/mock"
	"github.com/poiesic/corpora/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReembedder_Validation(t *testing.T) {
	repos := setupTestDB(t)

	_, err := NewReembedder(nil, mock.NewMockEmbedder(), nil, nil)
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	_, err = NewReembedder(repos.Chunks, nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	r, err := NewReembedder(repos.Chunks, mock.NewMockEmbedder(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), r.config)
}

func TestReembedder_Run(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()
	addChunks(t, repos, 10)

	var buf bytes.Buffer
	embedder := mock.NewMockEmbedder()
	config := &Config{
		BatchSize:      3,
		ReportInterval: 3,
		MaxRetries:     3,
		RetryDelay:     10 * time.Millisecond,
	}

	reembedder, err := NewReembedder(repos.Chunks, embedder, config, &buf)
	require.NoError(t, err)
	require.NoError(t, reembedder.Run(ctx))
	assert.Equal(t, 4, embedder.BatchCallCount(), "10 chunks in batches of 3")

	updated, err := repos.Chunks.ListChunks(ctx, 0, 100)
	require.NoError(t, err)
	require.Len(t, updated, 10)

	for _, record := range updated {
		require.NotEmpty(t, record.Vector, "chunk %d should have an embedding", record.Id)
		var magnitude float32
		for _, v := range record.Vector {
			magnitude += v * v
		}
		assert.InDelta(t, 1.0, magnitude, 0.01, "vector should be normalized")
	}

	output := buf.String()
	assert.Contains(t, output, "Starting reembedding of 10 chunks")
	assert.Contains(t, output, "10/10", "should show completion")
	assert.Contains(t, output, "Reembedding complete")
}

func TestReembedder_EmptyStore(t *testing.T) {
	repos := setupTestDB(t)

	var buf bytes.Buffer
	embedder := mock.NewMockEmbedder()
	reembedder, err := NewReembedder(repos.Chunks, embedder, DefaultConfig(), &buf)
	require.NoError(t, err)

	require.NoError(t, reembedder.Run(context.Background()))
	assert.Contains(t, buf.String(), "0 chunks")
	assert.Zero(t, embedder.CallCount())
}

func TestReembedder_ContextCancellation(t *testing.T) {
	repos := setupTestDB(t)
	addChunks(t, repos, 10)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return unnormalized(ctx, texts)
	}

	config := &Config{BatchSize: 2, ReportInterval: 2, MaxRetries: 1, RetryDelay: time.Millisecond}
	reembedder, err := NewReembedder(repos.Chunks, embedder, config, &bytes.Buffer{})
	require.NoError(t, err)

	err = reembedder.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls, "no batch should start after cancellation")

	records, err := repos.Chunks.ListChunks(context.Background(), 0, 100)
	require.NoError(t, err)
	embedded := 0
	for _, r := range records {
		if len(r.Vector) > 0 {
			embedded++
		}
	}
	// The first batch is stored; the second is embedded but its update is refused.
	assert.Equal(t, 2, embedded)
}

func TestReembedder_ReplacesExistingVectors(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()

	added, err := repos.Chunks.AddChunks(ctx, &core.ChunkRecord{
		DocumentID: "doc-1",
		Text:       "old model",
		Vector:     []float32{0, 0, 1},
	})
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	reembedder, err := NewReembedder(repos.Chunks, embedder, nil, nil)
	require.NoError(t, err)
	require.NoError(t, reembedder.Run(ctx))

	record, err := repos.Chunks.GetChunk(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Len(t, record.Vector, mock.DefaultDimensions)
	assert.InDelta(t, 1.0, core.CosineSimilarity(record.Vector, core.NormalizeVector(mock.DeterministicVector("old model", mock.DefaultDimensions))), 1e-5)
}
