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

package core

import (
	"encoding/json"
	"time"
)

// Status is the outcome of processing one chunk.
type Status string

const (
	// StatusSuccess means the chunk was persisted and enriched.
	StatusSuccess Status = "success"
	// StatusPartialSuccess means the chunk was persisted but enrichment failed.
	StatusPartialSuccess Status = "partial_success"
	// StatusFailed means the chunk could not be persisted.
	StatusFailed Status = "failed"
)

// Stage names a timed step of chunk processing.
type Stage string

const (
	StageSanitize Stage = "text_sanitization"
	StageEmbed    Stage = "embedding_generation"
	StagePersist  Stage = "database_save"
	StageEnrich   Stage = "kg_population"
	StageTotal    Stage = "total_processing"

	// StageBatch is recorded once per flushed batch, not per chunk.
	StageBatch Stage = "batch_processing"
)

// ChunkStages lists the per-chunk stages in pipeline order.
var ChunkStages = []Stage{StageSanitize, StageEmbed, StagePersist, StageEnrich, StageTotal}

// Timings maps stages to their measured durations.
type Timings map[Stage]time.Duration

// NewTimings returns timings with every chunk stage present and zeroed.
func NewTimings() Timings {
	t := make(Timings, len(ChunkStages))
	for _, s := range ChunkStages {
		t[s] = 0
	}
	return t
}

// MarshalJSON encodes durations as fractional seconds.
func (t Timings) MarshalJSON() ([]byte, error) {
	out := make(map[string]float64, len(t))
	for stage, d := range t {
		out[string(stage)] = d.Seconds()
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes fractional seconds back into durations.
func (t *Timings) UnmarshalJSON(data []byte) error {
	var in map[string]float64
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := make(Timings, len(in))
	for stage, secs := range in {
		out[Stage(stage)] = time.Duration(secs * float64(time.Second))
	}
	*t = out
	return nil
}

// PreviewLength is the number of characters kept by Preview.
const PreviewLength = 100

// Preview truncates text to PreviewLength characters, appending "..." when cut.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLength {
		return text
	}
	return string(runes[:PreviewLength]) + "..."
}

// ChunkProcessingResult reports what happened to a single chunk.
// ChunkID is set exactly when Status is not failed.
// Error is set exactly when Status is not success.
type ChunkProcessingResult struct {
	Status      Status  `json:"status"`
	DocumentID  string  `json:"document_id"`
	PageNum     int     `json:"page_num"`
	ChunkIndex  int     `json:"chunk_index"`
	TextPreview string  `json:"text"`
	ChunkID     *ID     `json:"chunk_id,omitempty"`
	Error       string  `json:"error,omitempty"`
	Timings     Timings `json:"performance_timings"`
}

// Succeeded reports whether the chunk was persisted.
func (r *ChunkProcessingResult) Succeeded() bool {
	return r.Status == StatusSuccess || r.Status == StatusPartialSuccess
}
