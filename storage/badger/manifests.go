package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"

	"github.com/augurlabs/augur/core"
	"github.com/augurlabs/augur/storage"
)

// ManifestRepository implements storage.ManifestRepository for BadgerDB.
type ManifestRepository struct {
	backend *Backend
}

var _ storage.ManifestRepository = (*ManifestRepository)(nil)

// NewManifestRepository creates a new ManifestRepository.
func NewManifestRepository(backend *Backend) *ManifestRepository {
	return &ManifestRepository{backend: backend}
}

// Close implements storage.Repository. The backend is owned by the caller.
func (r *ManifestRepository) Close() error {
	return nil
}

// PutManifest stores the manifest for a tenant, replacing any prior one.
func (r *ManifestRepository) PutManifest(ctx context.Context, manifest *core.IndexManifest) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeManifestKey(manifest.Tenant)
		if err := tx.Set(key, storage.MarshalManifest(manifest)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetManifest retrieves the published manifest for a tenant.
func (r *ManifestRepository) GetManifest(ctx context.Context, tenant core.TenantID) (*core.IndexManifest, error) {
	var manifest *core.IndexManifest

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeManifestKey(tenant))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			manifest, err = storage.UnmarshalManifest(val)
			return err
		})
	}, false)

	if err != nil {
		return nil, err
	}
	return manifest, nil
}
