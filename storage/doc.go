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

// Package storage declares the repositories behind a corpus and the binary
// layout of their records.
//
// Chunks carry their owner, graph and document so vector candidates can be
// filtered without joins. Documents belong to exactly one graph, and a
// graph's nodes and edges point back at the chunks that mention them.
//
// Records are encoded with mus-go varints in a fixed field order; adding a
// field means appending it to both the Marshal and Unmarshal layout.
// storage/badger implements the repositories on a single Badger database:
//
//	repos, err := badger.NewMemoryRepositories()
//	defer repos.Close()
//
// Implementations must be safe for concurrent use, since ingestion workers
// write chunks and upsert nodes in parallel.
package storage
