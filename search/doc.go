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


// Package search provides hybrid vector and keyword retrieval over stored chunks.
//
// The Engine fetches a bounded set of vector candidates from the chunk store,
// scores them two ways and blends the scores:
//   - Vector score: cosine similarity mapped from [-1, 1] to [0, 1]
//   - Keyword score: Okapi BM25 computed over the candidate texts only,
//     min-max normalized to [0, 1]
//
// The blended score is alpha*vector + (1-alpha)*keyword. Alpha 1 ranks purely
// by vector similarity and alpha 0 purely by keywords. Results are cut to
// TopK and then filtered by Threshold.
//
// No keyword index is persisted; BM25 statistics are rebuilt per query from
// the candidates.
package search
