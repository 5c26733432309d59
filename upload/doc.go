// Package upload coordinates document uploads from raw files to a live
// progress stream.
//
// An upload runs in two steps. SetupSession resolves or creates the target
// graph, records one core.Document per file and buffers the file bytes.
// StreamResults then sends the files to the external scraper, schedules every
// chunk it returns on a bounded number of workers, and emits one NDJSON line
// per processed chunk followed by a final summary line:
//
//	{"status":"processing_complete","graph_id":"...","message":"Processing complete: 4/5 chunks processed successfully",
//	 "statistics":{"total_chunks":5,"successful_chunks":4,"failed_chunks":1},"performance_summary":{...}}
//
// StreamBatchResults is the batched variant: chunks are grouped and each group
// is embedded with a single request.
//
// # Scraper Protocol
//
// The scraper answers a multipart upload with one JSON object per line:
//
//	{"uuid":"<document id>","page":3,"index":0,"text":"..."}
//
// A literal [DONE] line ends the stream. Blank lines are keep-alives. Lines
// that cannot be parsed, carry an "error" field, or lack "text" are skipped.
//
// # Cancellation
//
// Cancelling the caller's context stops scheduling new chunks. Chunks already
// admitted run to completion and the stream still ends with the summary line.
package upload
