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
	"github.com/poiesic/corpora/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for chunk processing.
//
// Metrics:
//   - corpora_chunks_processed_total{status} - Chunks processed by outcome
//   - corpora_chunk_stage_duration_seconds{stage} - Histogram of stage durations
//   - corpora_chunk_retries_total - Embed/persist attempts beyond the first
//   - corpora_batch_fallbacks_total - Batches reprocessed chunk by chunk
type Metrics struct {
	ChunksTotal    *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
	RetriesTotal   prometheus.Counter
	FallbacksTotal prometheus.Counter
}

// NewMetrics creates the processing metrics and registers them with reg.
// Use a fresh registry per Metrics value; registering twice panics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ChunksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpora_chunks_processed_total",
				Help: "Total number of chunks processed, by result status",
			},
			[]string{"status"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "corpora_chunk_stage_duration_seconds",
				Help:    "Duration of chunk processing stages in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
			},
			[]string{"stage"},
		),
		RetriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "corpora_chunk_retries_total",
				Help: "Total number of embed and persist attempts beyond the first",
			},
		),
		FallbacksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "corpora_batch_fallbacks_total",
				Help: "Total number of batches reprocessed chunk by chunk",
			},
		),
	}
}

// RecordResult records the outcome and stage timings of one chunk.
func (m *Metrics) RecordResult(result core.ChunkProcessingResult) {
	if m == nil {
		return
	}
	m.ChunksTotal.WithLabelValues(string(result.Status)).Inc()
	for stage, d := range result.Timings {
		m.StageDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
	}
}

// RecordRetry records one extra attempt.
func (m *Metrics) RecordRetry() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// RecordFallback records a batch that fell back to per-chunk processing.
func (m *Metrics) RecordFallback() {
	if m == nil {
		return
	}
	m.FallbacksTotal.Inc()
}
