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

// Package corpora ingests documents into a retrieval store and a knowledge
// graph, and answers hybrid keyword and vector queries over them.
//
// Open wires storage, the AI provider and metrics from a config.Config.
// The returned Corpus builds the per-upload pieces on demand:
//
//	corpus, err := corpora.Open(cfg)
//	orchestrator, err := corpus.NewOrchestrator(nil)
//	session, err := orchestrator.SetupSession(ctx, ownerID, files, "")
//	results, err := orchestrator.StreamResults(ctx, session, cfg.Ingestion.Concurrency)
package corpora

import (
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/corpora/ai"
	"github.com/poiesic/corpora/ai/openai"
	"github.com/poiesic/corpora/config"
	"github.com/poiesic/corpora/graph"
	"github.com/poiesic/corpora/ingestion"
	"github.com/poiesic/corpora/reembed"
	"github.com/poiesic/corpora/search"
	"github.com/poiesic/corpora/storage"
	"github.com/poiesic/corpora/storage/badger"
	"github.com/poiesic/corpora/upload"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrConfigRequired is returned by Open when no configuration is given.
var ErrConfigRequired = errors.New("config is required")

// Corpus owns the storage and AI provider behind ingestion and search.
type Corpus struct {
	repos    *badger.Repositories
	provider ai.AIProvider
	config   *config.Config
	metrics  *ingestion.Metrics
	logger   *slog.Logger
}

// Option configures a Corpus.
type Option func(*options)

type options struct {
	provider   ai.AIProvider
	registerer prometheus.Registerer
	logger     *slog.Logger
}

// WithProvider replaces the OpenAI-compatible provider built from the config.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithMetricsRegisterer registers ingestion metrics with reg.
// Without it no metrics are recorded.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Open validates cfg and opens the store it names.
func Open(cfg *config.Config, opts ...Option) (*Corpus, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackendWithLogger(cfg.Storage.Path, cfg.Storage.InMemory, options.logger)
	if err != nil {
		return nil, err
	}

	repos, err := badger.NewRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(&cfg.AI)
		if err != nil {
			repos.Close()
			return nil, err
		}
	}

	var metrics *ingestion.Metrics
	if options.registerer != nil {
		metrics = ingestion.NewMetrics(options.registerer)
	}

	return &Corpus{
		repos:    repos,
		provider: provider,
		config:   cfg,
		metrics:  metrics,
		logger:   options.logger,
	}, nil
}

// Close releases the provider, the repositories and the backend.
func (c *Corpus) Close() error {
	if err := c.provider.Close(); err != nil {
		c.logger.Error("error closing AI provider", "err", err)
	}
	if err := c.repos.Close(); err != nil {
		c.logger.Error("error closing storage", "err", err)
		return err
	}
	return nil
}

// Config returns the configuration the corpus was opened with.
func (c *Corpus) Config() *config.Config {
	return c.config
}

// Chunks returns the chunk repository.
func (c *Corpus) Chunks() storage.ChunkRepository {
	return c.repos.Chunks
}

// Documents returns the document repository.
func (c *Corpus) Documents() storage.DocumentRepository {
	return c.repos.Documents
}

// Graphs returns the graph repository.
func (c *Corpus) Graphs() storage.GraphRepository {
	return c.repos.Graphs
}

// NewProcessor builds a chunk processor that stores chunks for ownerID and
// enriches graphID.
func (c *Corpus) NewProcessor(ownerID, graphID string) (*ingestion.Processor, error) {
	populator, err := graph.NewPopulator(c.repos.Graphs, c.provider.RelationExtractor(), graphID,
		graph.WithLogger(c.logger))
	if err != nil {
		return nil, err
	}

	return ingestion.NewProcessor(c.repos.Chunks, c.provider.Embedder(), populator,
		ingestion.WithScope(ownerID, graphID),
		ingestion.WithMaxRetries(c.config.Ingestion.MaxRetries),
		ingestion.WithRetryDelay(c.config.Ingestion.RetryDelay),
		ingestion.WithMetrics(c.metrics),
		ingestion.WithLogger(c.logger),
	)
}

// NewOrchestrator builds an upload orchestrator whose processors come from
// NewProcessor. A nil scraper selects a ScraperClient for the configured
// scraper URL.
func (c *Corpus) NewOrchestrator(scraper upload.Scraper, opts ...upload.Option) (*upload.Orchestrator, error) {
	if scraper == nil {
		client, err := upload.NewScraperClient(c.config.Scraper.URL,
			upload.WithToken(c.config.Scraper.Token),
			upload.WithTimeout(c.config.Scraper.Timeout),
			upload.WithScraperLogger(c.logger),
		)
		if err != nil {
			return nil, err
		}
		scraper = client
	}

	factory := func(ownerID, graphID string) (upload.ChunkProcessor, error) {
		return c.NewProcessor(ownerID, graphID)
	}

	opts = append([]upload.Option{
		upload.WithLogger(c.logger),
		upload.WithIntakeBuffer(c.config.Ingestion.IntakeBuffer),
	}, opts...)
	return upload.NewOrchestrator(c.repos.Graphs, c.repos.Documents, scraper, factory, opts...)
}

// NewSearchEngine builds a hybrid search engine over the corpus.
func (c *Corpus) NewSearchEngine(opts ...search.Option) (*search.Engine, error) {
	opts = append([]search.Option{
		search.WithEmbedder(c.provider.Embedder()),
		search.WithLogger(c.logger),
	}, opts...)
	return search.NewEngine(c.repos.Chunks, c.repos.Documents, opts...)
}

// NewReembedder builds a reembedder that uses the corpus embedder.
// progress receives human-readable progress lines.
func (c *Corpus) NewReembedder(cfg *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(c.repos.Chunks, c.provider.Embedder(), cfg, progress)
}
