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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/augurlabs/augur/core"
	"github.com/augurlabs/augur/storage"
)

// Registry tracks the published index version per tenant. The published
// pointer is the only shared mutable state between training and queries:
// the training coordinator is the single writer, queries are concurrent
// readers. Old versions stay serviceable for queries that already hold
// them; they are simply dropped from the map and collected when the last
// reference goes away.
//
// After a restart the registry is empty; Published lazily rehydrates a
// tenant's index from the stored manifest and chunks.
type Registry struct {
	manifests storage.ManifestRepository
	chunks    storage.ChunkRepository
	logger    *slog.Logger

	mu        sync.RWMutex
	published map[core.TenantID]*Version
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry) error

// WithRegistryLogger sets a custom logger.
// Default is slog.Default().
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRegistry creates a registry backed by the given manifest and chunk
// stores.
func NewRegistry(
	manifests storage.ManifestRepository,
	chunks storage.ChunkRepository,
	opts ...RegistryOption,
) (*Registry, error) {
	if manifests == nil {
		return nil, ErrManifestRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}

	r := &Registry{
		manifests: manifests,
		chunks:    chunks,
		logger:    slog.Default(),
		published: make(map[core.TenantID]*Version),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Publish atomically switches the tenant's published version. Version
// numbers must advance; republishing an old number is an invariant
// violation.
func (r *Registry) Publish(version *Version) error {
	if version == nil {
		return fmt.Errorf("%w: nil version", core.ErrIndexBuild)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.published[version.tenant]; ok && version.number <= current.number {
		return fmt.Errorf("%w: version %d does not advance published version %d",
			core.ErrIndexBuild, version.number, current.number)
	}

	r.published[version.tenant] = version
	r.logger.Info("published index version",
		"tenant", version.tenant,
		"version", version.number,
		"chunks", version.Size())
	return nil
}

// Published returns the tenant's currently published version, loading it
// from storage if this process has not seen the tenant yet. Returns
// (nil, nil) when the tenant has never published an index.
func (r *Registry) Published(ctx context.Context, tenant core.TenantID) (*Version, error) {
	r.mu.RLock()
	version, ok := r.published[tenant]
	r.mu.RUnlock()
	if ok {
		return version, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check: another reader may have hydrated while we waited.
	if version, ok := r.published[tenant]; ok {
		return version, nil
	}

	version, err := r.load(ctx, tenant)
	if err != nil || version == nil {
		return nil, err
	}

	r.published[tenant] = version
	return version, nil
}

// load rebuilds a Version from the stored manifest and its chunks.
func (r *Registry) load(ctx context.Context, tenant core.TenantID) (*Version, error) {
	manifest, err := r.manifests.GetManifest(ctx, tenant)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	chunks, err := r.chunks.GetChunks(ctx, tenant, manifest.Version)
	if err != nil {
		return nil, err
	}

	r.logger.Info("restored index version from storage",
		"tenant", tenant,
		"version", manifest.Version,
		"chunks", len(chunks))

	return Restore(manifest, chunks), nil
}

// Restore reassembles a Version from its persisted manifest and chunks.
// Stored vectors are already unit length; they are not re-normalized.
func Restore(manifest *core.IndexManifest, chunks []*core.Chunk) *Version {
	entries := make([]core.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk == nil {
			continue
		}
		entries = append(entries, *chunk)
	}

	return &Version{
		tenant:    manifest.Tenant,
		number:    manifest.Version,
		model:     manifest.EmbeddingModel,
		dimension: manifest.Dimension,
		chunks:    entries,
		builtAt:   manifest.BuiltAt,
	}
}
