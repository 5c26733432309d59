// Package ingestion turns scraped document chunks into stored, embedded and
// graph-enriched records.
//
// A Processor runs each chunk through four stages:
//
//  1. Sanitize: Unicode normalization and whitespace cleanup (never retried)
//  2. Embed: vector generation via ai.Embedder
//  3. Persist: storage via storage.ChunkRepository
//  4. Enrich: knowledge graph population via GraphEnricher
//
// Embedding and persistence are retried together. Enrichment failures do not
// fail the chunk; the result is reported as partial_success instead.
//
// # Usage
//
//	processor, err := ingestion.NewProcessor(repos.Chunks, provider.Embedder(), populator,
//	    ingestion.WithScope(ownerID, graphID),
//	    ingestion.WithMaxRetries(3),
//	)
//	if err != nil {
//	    return err
//	}
//
//	result := processor.Process(ctx, chunk)
//	results := processor.ProcessMany(ctx, chunks, 10)
//	batched := processor.ProcessBatch(ctx, chunks, 5)
//
// Process never returns an error. Every failure is captured in the returned
// core.ChunkProcessingResult along with per-stage timings.
//
// # Thread Safety
//
// Processor is safe for concurrent use as long as its collaborators are.
package ingestion
