package ingestion

import "errors"

var (
	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrGraphEnricherRequired is returned when a graph enricher is not provided.
	ErrGraphEnricherRequired = errors.New("graph enricher required")

	// ErrInvalidMaxRetries is returned when the retry count is less than one.
	ErrInvalidMaxRetries = errors.New("max retries must be at least 1")

	// ErrEmptyEmbedding is returned when the embedder produces no vector.
	ErrEmptyEmbedding = errors.New("embedder returned an empty vector")

	// ErrNotPersisted is returned when the store accepts a chunk without assigning an id.
	ErrNotPersisted = errors.New("chunk was not persisted")
)
