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
	"sort"
	"time"

	"github.com/augurlabs/augur/core"
)

// Version is an immutable snapshot of a tenant's vector index. All chunk
// vectors are unit length, so cosine similarity reduces to a dot product.
// Search never mutates the version, which makes concurrent reads safe
// without locking.
type Version struct {
	tenant    core.TenantID
	number    uint64
	model     string
	dimension int
	chunks    []core.Chunk
	builtAt   time.Time
}

// Tenant returns the owner of this index version.
func (v *Version) Tenant() core.TenantID {
	return v.tenant
}

// Number returns the monotonic version number.
func (v *Version) Number() uint64 {
	return v.number
}

// Model returns the embedding model that produced the chunk vectors.
func (v *Version) Model() string {
	return v.model
}

// Dimension returns the embedding dimension.
func (v *Version) Dimension() int {
	return v.dimension
}

// Size returns the number of indexed chunks.
func (v *Version) Size() int {
	return len(v.chunks)
}

// BuiltAt returns when the version was built.
func (v *Version) BuiltAt() time.Time {
	return v.builtAt
}

// Manifest describes this version for persistence.
func (v *Version) Manifest() *core.IndexManifest {
	return &core.IndexManifest{
		Tenant:         v.tenant,
		Version:        v.number,
		EmbeddingModel: v.model,
		Dimension:      v.dimension,
		ChunkCount:     len(v.chunks),
		BuiltAt:        v.builtAt,
	}
}

// Chunks returns the indexed chunks with their unit-length vectors.
// Callers must treat the result as read-only.
func (v *Version) Chunks() []core.Chunk {
	return v.chunks
}

// Search returns the k chunks most similar to the query vector, ordered
// by descending cosine similarity with ties broken by ascending chunk
// id. A k larger than the index returns every entry; a non-positive k
// returns nothing.
func (v *Version) Search(query []float32, k int) []core.Hit {
	if k <= 0 || len(v.chunks) == 0 {
		return nil
	}

	unit := NormalizeVector(query)

	hits := make([]core.Hit, 0, len(v.chunks))
	for i := range v.chunks {
		chunk := &v.chunks[i]
		hits = append(hits, core.Hit{
			Chunk: chunk,
			Score: dotProduct(unit, chunk.Vector),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.Id < hits[j].Chunk.Id
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits
}
