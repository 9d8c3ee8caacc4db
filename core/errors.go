// Copyright 2025 Augur Labs
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

// Failure taxonomy for the engine boundary. Callers match with errors.Is;
// wrapped detail carries the human-readable cause.
var (
	// ErrParse indicates an unreadable, empty, or unsupported document.
	ErrParse = errors.New("parse error")

	// ErrEmbedding indicates a model or service failure during vectorization.
	ErrEmbedding = errors.New("embedding error")

	// ErrIndexBuild indicates an internal invariant violation while building
	// an index version, such as a vector dimension mismatch.
	ErrIndexBuild = errors.New("index build error")

	// ErrConflict indicates a training job is already active for the tenant.
	ErrConflict = errors.New("training already in progress")

	// ErrNotTrained indicates a query against a tenant with no successfully
	// published index version.
	ErrNotTrained = errors.New("tenant has no trained index")

	// ErrGenerationTimeout indicates the language-model call exceeded its
	// budget. The call is retryable at the caller's discretion.
	ErrGenerationTimeout = errors.New("generation timed out")
)

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyTenant indicates a missing tenant identifier.
	ErrEmptyTenant = errors.New("tenant cannot be empty")

	// ErrInvalidTenant indicates a tenant identifier with characters
	// reserved by the storage key schema.
	ErrInvalidTenant = errors.New("invalid tenant identifier")

	// ErrEmptyFilename indicates the Filename field is empty.
	ErrEmptyFilename = errors.New("filename cannot be empty")

	// ErrEmptyChunkText indicates the chunk Text field is empty.
	ErrEmptyChunkText = errors.New("chunk text cannot be empty")

	// ErrInvalidParseStatus indicates an invalid ParseStatus value.
	ErrInvalidParseStatus = errors.New("invalid parse status")

	// ErrInvalidJobStatus indicates an invalid JobStatus value.
	ErrInvalidJobStatus = errors.New("invalid job status")
)
