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

package perf

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Progress tracks and reports progress of long-running batch jobs
// such as reembedding or seeding.
type Progress struct {
	writer         io.Writer
	unit           string
	total          int
	current        int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgress creates a new progress tracker.
// writer: where to write progress output (typically os.Stderr)
// unit: label for the rate, such as "chunks"
// total: total number of items to process
// reportInterval: report progress every N items
func NewProgress(writer io.Writer, unit string, total, reportInterval int) *Progress {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &Progress{
		writer:         writer,
		unit:           unit,
		total:          total,
		reportInterval: reportInterval,
	}
}

// Start begins tracking progress.
func (p *Progress) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.current = 0
	p.lastReported = 0
}

// Increment increases the current progress by the specified amount.
func (p *Progress) Increment(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.current = min(p.current+delta, p.total)

	// Report if we've crossed a report interval
	if p.current-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.current
	}
}

// Current returns the number of items processed so far.
func (p *Progress) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Finish marks the operation as complete and prints final progress.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.current = p.total
	p.report()
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time elapsed since Start was called.
func (p *Progress) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}
	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with lock held.
func (p *Progress) report() {
	elapsed := time.Since(p.startTime)
	rate := ratio(float64(p.current), elapsed.Seconds())

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}

	eta := "-"
	if rate > 0 && p.current < p.total {
		remaining := time.Duration(float64(p.total-p.current) / rate * float64(time.Second))
		eta = remaining.Round(time.Second).String()
	}

	fmt.Fprintf(p.writer, "\rProgress: %d/%d (%.1f%%) - %.1f %s/s - ETA %s",
		p.current, p.total, percentage, rate, p.unit, eta)
}
