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
	"encoding/json"
	"time"

	"github.com/poiesic/corpora/core"
)

// drain forwards results to out as JSON lines until the producer is done and
// every result has been forwarded, then writes the Completion line and
// closes out. Results keep being consumed after the reader goes away so
// workers never block.
func (o *Orchestrator) drain(ctx context.Context, out chan<- []byte, results <-chan core.ChunkProcessingResult, done <-chan struct{}, r *run) {
	defer close(out)

	connected := true
	forward := func(v any) {
		if !connected {
			return
		}
		line, err := json.Marshal(v)
		if err != nil {
			o.logger.Error("error encoding result", "err", err)
			return
		}
		connected = o.deliver(ctx, out, append(line, '\n'))
		if !connected {
			o.logger.Warn("stream consumer gone, discarding remaining output", "graph_id", r.graphID)
		}
	}

	timer := time.NewTimer(o.drainInterval)
	defer timer.Stop()

poll:
	for {
		select {
		case result := <-results:
			forward(result)
		case <-timer.C:
			select {
			case <-done:
				break poll
			default:
			}
		}
		timer.Reset(o.drainInterval)
	}

	// The producer closes done only after every worker has sent its result.
	for {
		select {
		case result := <-results:
			forward(result)
			continue
		default:
		}
		break
	}

	completion := r.completion()
	o.logger.Info(completion.Message,
		"total_chunks", completion.Statistics.TotalChunks,
		"failed_chunks", completion.Statistics.FailedChunks,
		"seconds", completion.PerformanceSummary.TotalTime)
	forward(completion)
}

// deliver sends line to out. Once ctx is cancelled the consumer still gets
// one drain interval to take the line before it is dropped.
func (o *Orchestrator) deliver(ctx context.Context, out chan<- []byte, line []byte) bool {
	select {
	case out <- line:
		return true
	case <-ctx.Done():
	}

	grace := time.NewTimer(o.drainInterval)
	defer grace.Stop()
	select {
	case out <- line:
		return true
	case <-grace.C:
		return false
	}
}
