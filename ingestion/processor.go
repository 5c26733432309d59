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

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/corpora/ai"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/retry"
	"github.com/poiesic/corpora/storage"
)

// DefaultMaxRetries is the number of embed and persist attempts per chunk.
const DefaultMaxRetries = 3

// GraphEnricher adds the entities and relations found in a chunk to a
// knowledge graph. Implementations must be safe for concurrent use.
type GraphEnricher interface {
	PopulateFromText(ctx context.Context, text string, chunkID core.ID, documentID string) error
}

// Processor embeds, stores and enriches chunks.
type Processor struct {
	chunks     storage.ChunkRepository
	embedder   ai.Embedder
	enricher   GraphEnricher
	maxRetries int
	retryDelay time.Duration
	ownerID    string
	graphID    string
	metrics    *Metrics
	logger     *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor) error

// WithMaxRetries sets how many times embedding and persistence are attempted.
func WithMaxRetries(n int) Option {
	return func(p *Processor) error {
		if n < 1 {
			return ErrInvalidMaxRetries
		}
		p.maxRetries = n
		return nil
	}
}

// WithRetryDelay sets the base backoff between attempts. It doubles after
// every failed attempt. Zero retries immediately.
func WithRetryDelay(d time.Duration) Option {
	return func(p *Processor) error {
		if d < 0 {
			d = 0
		}
		p.retryDelay = d
		return nil
	}
}

// WithScope stamps every stored chunk with an owner and graph.
func WithScope(ownerID, graphID string) Option {
	return func(p *Processor) error {
		p.ownerID = ownerID
		p.graphID = graphID
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) error {
		if logger != nil {
			p.logger = logger
		}
		return nil
	}
}

// WithMetrics records processing metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(p *Processor) error {
		p.metrics = metrics
		return nil
	}
}

// NewProcessor creates a chunk processor.
func NewProcessor(chunks storage.ChunkRepository, embedder ai.Embedder, enricher GraphEnricher, opts ...Option) (*Processor, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if enricher == nil {
		return nil, ErrGraphEnricherRequired
	}

	p := &Processor{
		chunks:     chunks,
		embedder:   embedder,
		enricher:   enricher,
		maxRetries: DefaultMaxRetries,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "processor")

	return p, nil
}

// attemptOutcome is the result of one embed and persist attempt.
type attemptOutcome struct {
	record *core.ChunkRecord
	err    error
}

// Process runs one chunk through every stage. It never returns an error;
// failures are reported in the result.
func (p *Processor) Process(ctx context.Context, chunk core.Chunk) core.ChunkProcessingResult {
	start := time.Now()
	timings := core.NewTimings()

	stageStart := time.Now()
	text := SanitizeText(chunk.Text)
	timings[core.StageSanitize] = time.Since(stageStart)

	attempt := 0
	var outcome attemptOutcome
	err := retry.Do(ctx, func() error {
		attempt++
		if attempt > 1 {
			p.metrics.RecordRetry()
		}
		outcome = p.embedAndPersist(ctx, chunk, text, timings)
		if outcome.err != nil {
			p.logger.Warn("error persisting chunk",
				"attempt", attempt,
				"max_attempts", p.maxRetries,
				"document_id", chunk.DocumentID,
				"err", outcome.err)
		}
		return outcome.err
	}, p.maxRetries, p.retryDelay)

	if err != nil {
		p.logger.Error("failed to persist chunk",
			"attempts", p.maxRetries,
			"document_id", chunk.DocumentID,
			"page", chunk.PageNum,
			"index", chunk.ChunkIndex,
			"err", err)
		return p.finish(start, failedResult(chunk, text,
			fmt.Errorf("failed to save chunk to database after %d attempts: %w", p.maxRetries, err), timings))
	}

	return p.finish(start, p.enrich(ctx, chunk, text, outcome.record, timings))
}

// embedAndPersist performs a single attempt. Timings hold the durations of
// the latest attempt.
func (p *Processor) embedAndPersist(ctx context.Context, chunk core.Chunk, text string, timings core.Timings) attemptOutcome {
	stageStart := time.Now()
	vector, err := p.embedder.EmbedText(ctx, text)
	timings[core.StageEmbed] = time.Since(stageStart)
	if err != nil {
		return attemptOutcome{err: fmt.Errorf("generate embedding: %w", err)}
	}
	if len(vector) == 0 {
		return attemptOutcome{err: ErrEmptyEmbedding}
	}

	stageStart = time.Now()
	record, err := p.persist(ctx, chunk, text, vector)
	timings[core.StagePersist] = time.Since(stageStart)
	return attemptOutcome{record: record, err: err}
}

func (p *Processor) persist(ctx context.Context, chunk core.Chunk, text string, vector []float32) (*core.ChunkRecord, error) {
	record, err := p.chunks.AddChunk(ctx, &core.ChunkRecord{
		OwnerID:    p.ownerID,
		GraphID:    p.graphID,
		DocumentID: chunk.DocumentID,
		PageNum:    chunk.PageNum,
		ChunkIndex: chunk.ChunkIndex,
		Text:       text,
		Vector:     vector,
	})
	if err != nil {
		return nil, err
	}
	if record == nil || record.Id == 0 {
		return nil, ErrNotPersisted
	}
	return record, nil
}

// enrich populates the graph for a stored chunk and builds the final result.
func (p *Processor) enrich(ctx context.Context, chunk core.Chunk, text string, record *core.ChunkRecord, timings core.Timings) core.ChunkProcessingResult {
	id := record.Id
	result := core.ChunkProcessingResult{
		Status:      core.StatusSuccess,
		DocumentID:  chunk.DocumentID,
		PageNum:     chunk.PageNum,
		ChunkIndex:  chunk.ChunkIndex,
		TextPreview: core.Preview(text),
		ChunkID:     &id,
		Timings:     timings,
	}

	stageStart := time.Now()
	err := p.enricher.PopulateFromText(ctx, text, id, record.DocumentID)
	timings[core.StageEnrich] = time.Since(stageStart)
	if err != nil {
		p.logger.Error("graph enrichment failed", "chunk_id", id, "err", err)
		result.Status = core.StatusPartialSuccess
		result.Error = err.Error()
		return result
	}

	p.logger.Debug("processed chunk", "chunk_id", id, "text", core.Preview(text))
	return result
}

func (p *Processor) finish(start time.Time, result core.ChunkProcessingResult) core.ChunkProcessingResult {
	result.Timings[core.StageTotal] = time.Since(start)
	p.metrics.RecordResult(result)
	return result
}

func failedResult(chunk core.Chunk, text string, err error, timings core.Timings) core.ChunkProcessingResult {
	return core.ChunkProcessingResult{
		Status:      core.StatusFailed,
		DocumentID:  chunk.DocumentID,
		PageNum:     chunk.PageNum,
		ChunkIndex:  chunk.ChunkIndex,
		TextPreview: core.Preview(text),
		Error:       err.Error(),
		Timings:     timings,
	}
}

// ProcessMany processes chunks in parallel on a worker pool of
// concurrencyLimit workers. Results are returned in input order.
func (p *Processor) ProcessMany(ctx context.Context, chunks []core.Chunk, concurrencyLimit int) []core.ChunkProcessingResult {
	results := make([]core.ChunkProcessingResult, len(chunks))
	if len(chunks) == 0 {
		return results
	}
	if concurrencyLimit < 1 {
		concurrencyLimit = 1
	}

	pool, err := ants.NewPool(concurrencyLimit)
	if err != nil {
		p.logger.Error("error creating worker pool, processing sequentially", "err", err)
		for i, chunk := range chunks {
			results[i] = p.Process(ctx, chunk)
		}
		return results
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			results[i] = p.Process(ctx, chunk)
		}); err != nil {
			wg.Done()
			results[i] = p.finish(time.Now(), failedResult(chunk, chunk.Text,
				fmt.Errorf("schedule chunk: %w", err), core.NewTimings()))
		}
	}
	wg.Wait()

	return results
}

// ProcessBatch processes chunks in groups of batchSize with one embedding
// request per group. Persistence in a batch is not retried. When the batched
// embedding fails the group is reprocessed chunk by chunk with Process.
// Results are returned in input order.
func (p *Processor) ProcessBatch(ctx context.Context, chunks []core.Chunk, batchSize int) []core.ChunkProcessingResult {
	results := make([]core.ChunkProcessingResult, 0, len(chunks))
	if len(chunks) == 0 {
		return results
	}
	if batchSize < 1 {
		batchSize = len(chunks)
	}

	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))
		results = append(results, p.processGroup(ctx, chunks[start:end])...)
	}
	return results
}

func (p *Processor) processGroup(ctx context.Context, group []core.Chunk) []core.ChunkProcessingResult {
	groupStart := time.Now()

	texts := make([]string, len(group))
	for i, chunk := range group {
		texts[i] = SanitizeText(chunk.Text)
	}
	sanitizeTime := time.Since(groupStart)

	embedStart := time.Now()
	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	embedTime := time.Since(embedStart)
	if err == nil {
		err = checkVectors(vectors, len(group))
	}
	if err != nil {
		p.logger.Warn("batch embedding failed, falling back to individual processing",
			"batch_size", len(group),
			"err", err)
		p.metrics.RecordFallback()
		results := make([]core.ChunkProcessingResult, len(group))
		for i, chunk := range group {
			results[i] = p.Process(ctx, chunk)
		}
		return results
	}

	shared := sanitizeTime + embedTime
	results := make([]core.ChunkProcessingResult, len(group))
	for i, chunk := range group {
		start := time.Now().Add(-shared)
		timings := core.NewTimings()
		timings[core.StageSanitize] = sanitizeTime
		timings[core.StageEmbed] = embedTime

		persistStart := time.Now()
		record, err := p.persist(ctx, chunk, texts[i], vectors[i])
		timings[core.StagePersist] = time.Since(persistStart)
		if err != nil {
			p.logger.Error("failed to persist batched chunk", "document_id", chunk.DocumentID, "err", err)
			results[i] = p.finish(start, failedResult(chunk, texts[i],
				fmt.Errorf("failed to save chunk to database: %w", err), timings))
			continue
		}

		results[i] = p.finish(start, p.enrich(ctx, chunk, texts[i], record, timings))
	}
	return results
}

func checkVectors(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("expected %d embeddings, got %d", want, len(vectors))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("embedding %d: %w", i, ErrEmptyEmbedding)
		}
	}
	return nil
}
