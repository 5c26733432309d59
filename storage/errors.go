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

package storage

import "errors"

var (
	// ErrNotFound is returned when a chunk, document, graph or node does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when a graph ID is already taken.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrStorageClosed is returned for any operation after the backend closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidQuery is returned for a non-positive page size.
	ErrInvalidQuery = errors.New("invalid query parameters")

	// ErrSerializationFailed wraps every record decoding failure.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTruncatedData means a record ended before all its fields were read.
	ErrTruncatedData = errors.New("truncated data")
)
