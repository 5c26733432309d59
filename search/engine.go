package search

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/poiesic/corpora/ai"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/storage"
)

const (
	// DefaultAlpha weights vector similarity over keyword relevance.
	DefaultAlpha = 0.75
	// DefaultTopK is the number of results returned by SearchText.
	DefaultTopK = 5
	// candidateMultiplier sizes the candidate pool relative to TopK.
	candidateMultiplier = 10
)

// Query is a fully specified hybrid search request.
type Query struct {
	Alpha              float64   // 0 = keyword only, 1 = vector only
	OwnerID            string    // restricts candidates to one owner; empty matches all
	QueryEmbedding     []float32 // embedding of QueryText
	QueryText          string
	KeywordQueryText   string   // BM25 query; falls back to QueryText when empty
	AvailableDocuments []string // documents the caller may read
	Threshold          float64  // minimum hybrid score kept after the TopK cut
	NumCandidates      int      // vector candidates to rank; <= 0 means TopK*10
	TopK               int
}

// TextQuery is a search request whose embedding is computed by the engine.
type TextQuery struct {
	OwnerID            string
	QueryText          string
	KeywordQueryText   string
	AvailableDocuments []string
	Alpha              *float64 // nil selects DefaultAlpha
	Threshold          float64
	TopK               int // <= 0 selects DefaultTopK
}

// Candidate is a chunk with its component scores.
type Candidate struct {
	Record      *core.ChunkRecord
	VectorScore float64
	BM25Score   float64
	HybridScore float64
}

// Engine runs hybrid searches over stored chunks.
type Engine struct {
	chunks    storage.ChunkRepository
	documents storage.DocumentRepository
	embedder  ai.Embedder
	monitor   SearchMonitor
	k1, b     float64
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithMonitor observes every search run by the engine.
func WithMonitor(monitor SearchMonitor) Option {
	return func(e *Engine) error {
		if monitor != nil {
			e.monitor = monitor
		}
		return nil
	}
}

// WithEmbedder enables SearchText.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(e *Engine) error {
		e.embedder = embedder
		return nil
	}
}

// WithBM25Params overrides the BM25 k1 and b parameters.
func WithBM25Params(k1, b float64) Option {
	return func(e *Engine) error {
		if k1 < 0 || b < 0 || b > 1 {
			return fmt.Errorf("%w: bm25 parameters k1=%v b=%v out of range", ErrInvalidQuery, k1, b)
		}
		e.k1 = k1
		e.b = b
		return nil
	}
}

// NewEngine creates a new search engine.
func NewEngine(chunks storage.ChunkRepository, documents storage.DocumentRepository, opts ...Option) (*Engine, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}

	e := &Engine{
		chunks:    chunks,
		documents: documents,
		monitor:   &noopMonitor{},
		k1:        DefaultK1,
		b:         DefaultB,
		logger:    slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

func validate(q Query) error {
	if math.IsNaN(q.Alpha) || q.Alpha < 0 || q.Alpha > 1 {
		return fmt.Errorf("%w: alpha must be in [0,1], got %v", ErrInvalidQuery, q.Alpha)
	}
	if math.IsNaN(q.Threshold) || q.Threshold < 0 || q.Threshold > 1 {
		return fmt.Errorf("%w: threshold must be in [0,1], got %v", ErrInvalidQuery, q.Threshold)
	}
	if q.TopK < 1 {
		return fmt.Errorf("%w: topK must be at least 1, got %d", ErrInvalidQuery, q.TopK)
	}
	return nil
}

// Search ranks candidate chunks for q and returns at most TopK contexts
// whose hybrid score reaches Threshold, best first.
func (e *Engine) Search(ctx context.Context, q Query) ([]core.RetrievedContext, error) {
	if err := validate(q); err != nil {
		return nil, err
	}
	e.monitor.Start(q)

	if len(q.AvailableDocuments) == 0 {
		e.monitor.Finish(nil)
		return []core.RetrievedContext{}, nil
	}

	limit := q.NumCandidates
	if limit <= 0 {
		limit = q.TopK * candidateMultiplier
	}

	records, err := e.chunks.FindCandidates(ctx, q.OwnerID, q.QueryEmbedding, q.AvailableDocuments, limit)
	if err != nil {
		e.logger.Error("error retrieving candidates", "err", err)
		e.monitor.Finish(nil)
		return nil, err
	}
	e.monitor.AfterCandidateRetrieval(records)

	candidates := e.score(q, records)
	e.monitor.AfterScoring(candidates)

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].HybridScore > candidates[j].HybridScore
	})
	if len(candidates) > q.TopK {
		candidates = candidates[:q.TopK]
	}
	kept := candidates[:0]
	for _, c := range candidates {
		if c.HybridScore >= q.Threshold {
			kept = append(kept, c)
		}
	}

	results, err := e.contexts(ctx, kept)
	if err != nil {
		e.monitor.Finish(nil)
		return nil, err
	}
	e.monitor.Finish(results)

	e.logger.Debug("search complete",
		"candidates", len(records),
		"results", len(results),
		"alpha", q.Alpha)
	return results, nil
}

// score computes vector, keyword and hybrid scores in candidate order.
func (e *Engine) score(q Query, records []*core.ChunkRecord) []Candidate {
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}

	keywordQuery := q.KeywordQueryText
	if keywordQuery == "" {
		keywordQuery = q.QueryText
	}
	keyword := minMaxNormalize(newBM25Index(texts, e.k1, e.b).scores(keywordQuery))

	candidates := make([]Candidate, len(records))
	for i, r := range records {
		vector := (core.CosineSimilarity(q.QueryEmbedding, r.Vector) + 1) / 2
		candidates[i] = Candidate{
			Record:      r,
			VectorScore: vector,
			BM25Score:   keyword[i],
			HybridScore: q.Alpha*vector + (1-q.Alpha)*keyword[i],
		}
	}
	return candidates
}

// contexts resolves document names and chunk totals for the final hits.
func (e *Engine) contexts(ctx context.Context, candidates []Candidate) ([]core.RetrievedContext, error) {
	results := make([]core.RetrievedContext, 0, len(candidates))
	if len(candidates) == 0 {
		return results, nil
	}

	docIDs := make([]string, 0, len(candidates))
	totals := make(map[string]int, len(candidates))
	for _, c := range candidates {
		id := c.Record.DocumentID
		if _, seen := totals[id]; seen {
			continue
		}
		total, err := e.chunks.CountChunksByDocument(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("count chunks of document %s: %w", id, err)
		}
		totals[id] = total
		docIDs = append(docIDs, id)
	}

	docs, err := e.documents.GetDocuments(ctx, docIDs...)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	names := make(map[string]string, len(docs))
	for _, d := range docs {
		names[d.Id] = d.Name
	}

	for _, c := range candidates {
		results = append(results, core.RetrievedContext{
			Text:         c.Record.Text,
			DocumentName: names[c.Record.DocumentID],
			DocumentID:   c.Record.DocumentID,
			ChunkID:      c.Record.Id,
			ChunkIndex:   c.Record.ChunkIndex,
			TotalChunks:  totals[c.Record.DocumentID],
			Score:        c.HybridScore,
		})
	}
	return results, nil
}

// SearchText embeds the query text and runs Search with defaults applied.
func (e *Engine) SearchText(ctx context.Context, q TextQuery) ([]core.RetrievedContext, error) {
	if e.embedder == nil {
		return nil, ErrEmbedderRequired
	}

	embedding, err := e.embedder.EmbedText(ctx, q.QueryText)
	if err != nil {
		e.logger.Error("error generating embedding for query", "query", q.QueryText, "err", err)
		return nil, err
	}
	if len(embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}

	alpha := DefaultAlpha
	if q.Alpha != nil {
		alpha = *q.Alpha
	}
	topK := q.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	return e.Search(ctx, Query{
		Alpha:              alpha,
		OwnerID:            q.OwnerID,
		QueryEmbedding:     embedding,
		QueryText:          q.QueryText,
		KeywordQueryText:   q.KeywordQueryText,
		AvailableDocuments: q.AvailableDocuments,
		Threshold:          q.Threshold,
		NumCandidates:      topK * candidateMultiplier,
		TopK:               topK,
	})
}
