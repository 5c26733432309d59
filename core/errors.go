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

import "errors"

// Domain validation errors
var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidNode indicates a Node failed validation.
	ErrInvalidNode = errors.New("invalid node")

	// ErrInvalidEdge indicates an Edge failed validation.
	ErrInvalidEdge = errors.New("invalid edge")

	// ErrInvalidID indicates an ID string could not be parsed.
	ErrInvalidID = errors.New("invalid id")

	// ErrEmptyText indicates the Text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptyDocumentID indicates the DocumentID field is empty.
	ErrEmptyDocumentID = errors.New("document id cannot be empty")

	// ErrNegativePosition indicates a negative page number or chunk index.
	ErrNegativePosition = errors.New("page number and chunk index cannot be negative")

	// ErrEmptyNodeTitle indicates the node Title field is empty.
	ErrEmptyNodeTitle = errors.New("node title cannot be empty")

	// ErrEmptyNodeType indicates the node Type field is empty.
	ErrEmptyNodeType = errors.New("node type cannot be empty")

	// ErrEmptyGraphID indicates the GraphID field is empty.
	ErrEmptyGraphID = errors.New("graph id cannot be empty")
)
