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

package index

import (
	"fmt"
	"time"

	"github.com/augurlabs/augur/core"
)

// Builder accumulates embedded chunks for a new index version. It is
// append-only: entries cannot be removed or replaced, and nothing added
// here is visible to queries until the built version is published. The
// first added chunk fixes the embedding dimension; every later chunk
// must match it and carry the builder's embedding model.
//
// A Builder is not safe for concurrent use. The training coordinator is
// the only writer.
type Builder struct {
	tenant    core.TenantID
	number    uint64
	model     string
	dimension int
	chunks    []core.Chunk
}

// NewBuilder creates a builder for the given tenant, version number, and
// embedding model.
func NewBuilder(tenant core.TenantID, number uint64, model string) (*Builder, error) {
	if err := core.ValidateTenantID(tenant); err != nil {
		return nil, err
	}
	if model == "" {
		return nil, fmt.Errorf("%w: embedding model required", core.ErrIndexBuild)
	}

	return &Builder{
		tenant: tenant,
		number: number,
		model:  model,
	}, nil
}

// Add appends chunks to the version under construction. Vectors are
// normalized to unit length on insert. A chunk with a missing vector, a
// mismatched dimension, or a foreign embedding model rejects the whole
// call and leaves the builder unchanged.
func (b *Builder) Add(chunks ...*core.Chunk) error {
	staged := make([]core.Chunk, 0, len(chunks))
	dimension := b.dimension

	for _, chunk := range chunks {
		if chunk == nil {
			return fmt.Errorf("%w: nil chunk", core.ErrIndexBuild)
		}
		if len(chunk.Vector) == 0 {
			return fmt.Errorf("%w: chunk %d has no vector", core.ErrIndexBuild, chunk.Id)
		}
		if chunk.EmbeddingModel != b.model {
			return fmt.Errorf("%w: chunk %d embedded with %q, index requires %q",
				core.ErrIndexBuild, chunk.Id, chunk.EmbeddingModel, b.model)
		}
		if dimension == 0 {
			dimension = len(chunk.Vector)
		}
		if len(chunk.Vector) != dimension {
			return fmt.Errorf("%w: chunk %d has dimension %d, index requires %d",
				core.ErrIndexBuild, chunk.Id, len(chunk.Vector), dimension)
		}

		copied := *chunk
		copied.Vector = NormalizeVector(chunk.Vector)
		staged = append(staged, copied)
	}

	b.dimension = dimension
	b.chunks = append(b.chunks, staged...)
	return nil
}

// Size returns the number of chunks added so far.
func (b *Builder) Size() int {
	return len(b.chunks)
}

// Build seals the builder into an immutable Version. An empty builder is
// a build failure: publishing a zero-chunk index would silently turn
// every query into a miss.
func (b *Builder) Build() (*Version, error) {
	if len(b.chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks added", core.ErrIndexBuild)
	}

	return &Version{
		tenant:    b.tenant,
		number:    b.number,
		model:     b.model,
		dimension: b.dimension,
		chunks:    b.chunks,
		builtAt:   time.Now(),
	}, nil
}
