// Package reembed re-embeds every stored chunk with a new or updated
// embedding model.
//
// Chunks are walked in ID order, embedded in batches with retry and
// exponential backoff, and written back with unit-length vectors so cosine
// similarity search keeps working across model changes.
package reembed
