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

import (
	"fmt"
	"strings"
)

// ValidateTenantID validates a tenant identifier. Tenant IDs are spliced
// into storage keys with ':' separators, so the separator character is
// rejected to keep tenant key ranges disjoint.
func ValidateTenantID(tenant TenantID) error {
	if tenant == "" {
		return ErrEmptyTenant
	}
	if strings.ContainsRune(string(tenant), ':') {
		return fmt.Errorf("%w: %q contains ':'", ErrInvalidTenant, tenant)
	}
	return nil
}

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Tenant must not be empty
//   - Filename must not be empty
//   - Status must be a valid ParseStatus
//
// NOT validated (populated later in the lifecycle):
//   - Text (empty until extraction runs)
//   - ParsedAt (zero until extraction runs)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if err := ValidateTenantID(doc.Tenant); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if doc.Filename == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyFilename)
	}

	if err := ValidateParseStatus(doc.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Tenant must not be empty
//   - Text must not be empty
//   - DocumentId must be set
//
// NOT validated (populated during training):
//   - Vector and EmbeddingModel (empty until the embedder runs)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if err := ValidateTenantID(chunk.Tenant); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, err)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyChunkText)
	}

	if chunk.DocumentId == 0 {
		return fmt.Errorf("%w: document id required", ErrInvalidChunk)
	}

	return nil
}

// ValidateParseStatus validates that a ParseStatus has a valid value.
func ValidateParseStatus(status ParseStatus) error {
	if status < ParseStatusPending || status > ParseStatusFailed {
		return fmt.Errorf("%w: value %d", ErrInvalidParseStatus, status)
	}
	return nil
}

// ValidateJobStatus validates that a JobStatus has a valid value.
func ValidateJobStatus(status JobStatus) error {
	if status < JobStatusQueued || status > JobStatusFailed {
		return fmt.Errorf("%w: value %d", ErrInvalidJobStatus, status)
	}
	return nil
}
