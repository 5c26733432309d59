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

// Package perf aggregates per-stage processing timings into run summaries
// and reports progress of long batch jobs.
package perf

import (
	"math"
	"slices"
	"sync"
	"time"

	"github.com/poiesic/corpora/core"
)

// Tracker accumulates stage timings from many concurrent chunk results.
// It is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	start  time.Time
	stages map[core.Stage]*stageAccumulator
	order  []core.Stage
}

type stageAccumulator struct {
	total time.Duration
	count int
	min   time.Duration
	max   time.Duration
}

// NewTracker creates a tracker whose clock starts now.
func NewTracker() *Tracker {
	return &Tracker{
		start:  time.Now(),
		stages: make(map[core.Stage]*stageAccumulator),
	}
}

// Add records one observation for a stage.
func (t *Tracker) Add(stage core.Stage, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.add(stage, d)
}

// Merge records every stage of a chunk result.
func (t *Tracker) Merge(timings core.Timings) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, stage := range core.ChunkStages {
		if d, ok := timings[stage]; ok {
			t.add(stage, d)
		}
	}
	for stage, d := range timings {
		if !slices.Contains(core.ChunkStages, stage) {
			t.add(stage, d)
		}
	}
}

func (t *Tracker) add(stage core.Stage, d time.Duration) {
	acc, ok := t.stages[stage]
	if !ok {
		acc = &stageAccumulator{min: d, max: d}
		t.stages[stage] = acc
		t.order = append(t.order, stage)
	}
	acc.total += d
	acc.count++
	acc.min = min(acc.min, d)
	acc.max = max(acc.max, d)
}

// Elapsed returns the time since the tracker was created.
func (t *Tracker) Elapsed() time.Duration {
	return time.Since(t.start)
}

// StageStats summarizes one stage in seconds.
type StageStats struct {
	Total float64 `json:"total"`
	Count int     `json:"count"`
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Summary is the aggregate performance report of one ingestion run.
type Summary struct {
	TotalTime        float64                   `json:"total_time"`
	ChunkCount       int                       `json:"chunk_count"`
	ChunksPerSecond  float64                   `json:"chunks_per_second"`
	AvgTimePerChunk  float64                   `json:"avg_time_per_chunk"`
	StageTimings     map[core.Stage]StageStats `json:"stage_timings"`
	SuccessfulChunks int                       `json:"successful_chunks"`
	FailedChunks     int                       `json:"failed_chunks"`
	SuccessRate      float64                   `json:"success_rate"`
}

// Summary builds the report for a run over chunkCount chunks.
// Every ratio is 0 when its denominator is 0.
func (t *Tracker) Summary(chunkCount, successful, failed int) Summary {
	return t.SummaryAt(t.Elapsed(), chunkCount, successful, failed)
}

// SummaryAt is Summary with an explicit total run time.
func (t *Tracker) SummaryAt(totalTime time.Duration, chunkCount, successful, failed int) Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := totalTime.Seconds()
	s := Summary{
		TotalTime:        round(total),
		ChunkCount:       chunkCount,
		StageTimings:     make(map[core.Stage]StageStats, len(t.stages)),
		SuccessfulChunks: successful,
		FailedChunks:     failed,
		ChunksPerSecond:  round(ratio(float64(chunkCount), total)),
		AvgTimePerChunk:  round(ratio(total, float64(chunkCount))),
		SuccessRate:      ratio(float64(successful), float64(chunkCount)),
	}
	for _, stage := range t.order {
		acc := t.stages[stage]
		s.StageTimings[stage] = StageStats{
			Total: round(acc.total.Seconds()),
			Count: acc.count,
			Avg:   round(ratio(acc.total.Seconds(), float64(acc.count))),
			Min:   round(acc.min.Seconds()),
			Max:   round(acc.max.Seconds()),
		}
	}
	return s
}

func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

// round keeps reports readable: microsecond precision is plenty.
func round(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
