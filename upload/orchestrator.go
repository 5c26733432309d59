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

package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/perf"
	"github.com/poiesic/corpora/storage"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultIntakeBuffer is the capacity of the result channel between
	// workers and the output stream.
	DefaultIntakeBuffer = 64

	// DefaultDrainInterval is how long the output loop waits for a result
	// before checking whether processing has finished.
	DefaultDrainInterval = time.Second

	statusComplete = "processing_complete"
)

// ChunkProcessor processes scraped chunks. *ingestion.Processor implements it.
type ChunkProcessor interface {
	Process(ctx context.Context, chunk core.Chunk) core.ChunkProcessingResult
	ProcessBatch(ctx context.Context, chunks []core.Chunk, batchSize int) []core.ChunkProcessingResult
}

// ProcessorFactory builds a processor that stores chunks for ownerID and
// enriches graphID.
type ProcessorFactory func(ownerID, graphID string) (ChunkProcessor, error)

// Orchestrator runs uploads from files to a stream of results.
type Orchestrator struct {
	graphs        storage.GraphRepository
	documents     storage.DocumentRepository
	scraper       Scraper
	factory       ProcessorFactory
	intakeBuffer  int
	drainInterval time.Duration
	logger        *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithIntakeBuffer sets the capacity of the result channel.
func WithIntakeBuffer(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.intakeBuffer = n
		}
	}
}

// WithDrainInterval sets how long the output loop waits per poll.
func WithDrainInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.drainInterval = d
		}
	}
}

// NewOrchestrator creates an upload orchestrator.
func NewOrchestrator(graphs storage.GraphRepository, documents storage.DocumentRepository, scraper Scraper, factory ProcessorFactory, opts ...Option) (*Orchestrator, error) {
	if graphs == nil {
		return nil, ErrGraphRepositoryRequired
	}
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if scraper == nil {
		return nil, ErrScraperRequired
	}
	if factory == nil {
		return nil, ErrProcessorFactoryRequired
	}

	o := &Orchestrator{
		graphs:        graphs,
		documents:     documents,
		scraper:       scraper,
		factory:       factory,
		intakeBuffer:  DefaultIntakeBuffer,
		drainInterval: DefaultDrainInterval,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "orchestrator")
	return o, nil
}

// SetupSession prepares an upload. With an empty existingGraphID a new graph
// named after the files is created; otherwise the graph must exist.
func (o *Orchestrator) SetupSession(ctx context.Context, ownerID string, files []File, existingGraphID string) (*Session, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	start := time.Now()

	graphID := existingGraphID
	if graphID == "" {
		graph, err := o.graphs.CreateGraph(ctx, &core.Graph{
			Id:      uuid.NewString(),
			OwnerID: ownerID,
			Name:    graphName(files),
		})
		if err != nil {
			return nil, fmt.Errorf("create graph metadata: %w", err)
		}
		graphID = graph.Id
	} else if _, err := o.graphs.GetGraph(ctx, graphID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("graph %s not found: %w", graphID, err)
		}
		return nil, fmt.Errorf("load graph %s: %w", graphID, err)
	}

	session := &Session{
		OwnerID:     ownerID,
		GraphID:     graphID,
		DocumentIDs: make([]string, len(files)),
		Files:       make([]File, len(files)),
	}
	docs := make([]*core.Document, len(files))
	for i, f := range files {
		f.ContentType = contentType(f.Name, f.ContentType)
		session.Files[i] = f
		docs[i] = &core.Document{
			Id:          uuid.NewString(),
			GraphID:     graphID,
			OwnerID:     ownerID,
			Name:        f.Name,
			ContentType: f.ContentType,
			Size:        int64(len(f.Data)),
			Checksum:    core.Checksum(f.Data),
		}
		session.DocumentIDs[i] = docs[i].Id
	}
	if _, err := o.documents.AddDocuments(ctx, docs...); err != nil {
		return nil, fmt.Errorf("persist documents: %w", err)
	}

	o.logger.Info("upload session ready",
		"graph_id", graphID,
		"documents", len(docs),
		"seconds", time.Since(start).Seconds())
	return session, nil
}

// Statistics counts the chunks of one run.
type Statistics struct {
	TotalChunks      int `json:"total_chunks"`
	SuccessfulChunks int `json:"successful_chunks"`
	FailedChunks     int `json:"failed_chunks"`
}

// Completion is the final line of a result stream.
type Completion struct {
	Status             string       `json:"status"`
	GraphID            string       `json:"graph_id"`
	Message            string       `json:"message"`
	Statistics         Statistics   `json:"statistics"`
	PerformanceSummary perf.Summary `json:"performance_summary"`
}

// run holds the shared state of one streaming run.
type run struct {
	graphID    string
	label      string
	tracker    *perf.Tracker
	total      atomic.Int64
	successful atomic.Int64
	failed     atomic.Int64
}

func newRun(graphID, label string) *run {
	return &run{graphID: graphID, label: label, tracker: perf.NewTracker()}
}

func (r *run) record(result core.ChunkProcessingResult) {
	if result.Succeeded() {
		r.successful.Add(1)
	} else {
		r.failed.Add(1)
	}
	r.tracker.Merge(result.Timings)
}

func (r *run) completion() Completion {
	stats := Statistics{
		TotalChunks:      int(r.total.Load()),
		SuccessfulChunks: int(r.successful.Load()),
		FailedChunks:     int(r.failed.Load()),
	}
	return Completion{
		Status:  statusComplete,
		GraphID: r.graphID,
		Message: fmt.Sprintf("%s complete: %d/%d chunks processed successfully",
			r.label, stats.SuccessfulChunks, stats.TotalChunks),
		Statistics:         stats,
		PerformanceSummary: r.tracker.Summary(stats.TotalChunks, stats.SuccessfulChunks, stats.FailedChunks),
	}
}

// StreamResults scrapes the session files and processes every chunk with at
// most concurrencyLimit chunks in flight. Each result is emitted as one JSON
// line in completion order, followed by a Completion line. The channel is
// closed after the Completion line.
//
// A scraper rejection is returned as *ScraperError before anything is
// scheduled.
func (o *Orchestrator) StreamResults(ctx context.Context, session *Session, concurrencyLimit int) (<-chan []byte, error) {
	if session == nil {
		return nil, ErrNilSession
	}
	if concurrencyLimit < 1 {
		concurrencyLimit = 1
	}

	processor, body, err := o.start(ctx, session)
	if err != nil {
		return nil, err
	}

	r := newRun(session.GraphID, "Processing")
	results := make(chan core.ChunkProcessingResult, o.intakeBuffer)
	done := make(chan struct{})
	out := make(chan []byte)
	logger := o.logger.With("graph_id", session.GraphID)

	go func() {
		defer close(done)
		defer body.Close()

		gate := semaphore.NewWeighted(int64(concurrencyLimit))
		taskCtx := context.WithoutCancel(ctx)
		var wg sync.WaitGroup

		err := readChunks(ctx, body, logger, func(chunk core.Chunk) bool {
			if err := gate.Acquire(ctx, 1); err != nil {
				return false
			}
			n := r.total.Add(1)
			logger.Debug("queuing chunk", "n", n, "text", core.Preview(chunk.Text))

			wg.Add(1)
			go func() {
				defer wg.Done()
				defer gate.Release(1)
				result := processor.Process(taskCtx, chunk)
				r.record(result)
				results <- result
			}()
			return true
		})
		if err != nil {
			logger.Error("scraper stream interrupted, no further chunks scheduled", "err", err)
		}

		wg.Wait()
	}()

	go o.drain(ctx, out, results, done, r)
	return out, nil
}

// StreamBatchResults is StreamResults with batched processing. Chunks are
// collected into groups of batchSize and each group is processed with
// ProcessBatch; results are emitted per group in submission order. A
// batchSize below one processes everything as a single group at stream end.
func (o *Orchestrator) StreamBatchResults(ctx context.Context, session *Session, batchSize int) (<-chan []byte, error) {
	if session == nil {
		return nil, ErrNilSession
	}

	processor, body, err := o.start(ctx, session)
	if err != nil {
		return nil, err
	}

	r := newRun(session.GraphID, "Batch processing")
	results := make(chan core.ChunkProcessingResult, o.intakeBuffer)
	done := make(chan struct{})
	out := make(chan []byte)
	logger := o.logger.With("graph_id", session.GraphID)

	go func() {
		defer close(done)
		defer body.Close()

		taskCtx := context.WithoutCancel(ctx)
		var pending []core.Chunk
		flush := func() {
			if len(pending) == 0 {
				return
			}
			start := time.Now()
			r.total.Add(int64(len(pending)))
			for _, result := range processor.ProcessBatch(taskCtx, pending, len(pending)) {
				r.record(result)
				results <- result
			}
			r.tracker.Add(core.StageBatch, time.Since(start))
			logger.Debug("flushed batch", "size", len(pending), "seconds", time.Since(start).Seconds())
			pending = nil
		}

		err := readChunks(ctx, body, logger, func(chunk core.Chunk) bool {
			pending = append(pending, chunk)
			if batchSize > 0 && len(pending) >= batchSize {
				flush()
			}
			return ctx.Err() == nil
		})
		if err != nil {
			logger.Error("scraper stream interrupted, no further chunks scheduled", "err", err)
		}
		if ctx.Err() == nil {
			flush()
		} else if len(pending) > 0 {
			logger.Warn("dropping unflushed chunks after cancellation", "chunks", len(pending))
		}
	}()

	go o.drain(ctx, out, results, done, r)
	return out, nil
}

// start builds the session processor and opens the scraper stream.
func (o *Orchestrator) start(ctx context.Context, session *Session) (ChunkProcessor, io.ReadCloser, error) {
	processor, err := o.factory(session.OwnerID, session.GraphID)
	if err != nil {
		return nil, nil, fmt.Errorf("create processor: %w", err)
	}

	body, err := o.scraper.Stream(ctx, session.Files, session.DocumentIDs)
	if err != nil {
		return nil, nil, err
	}
	return processor, body, nil
}
