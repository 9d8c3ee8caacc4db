package badger

import (
	"context"
	"encoding/binary"

	"github.com/dgraph-io/badger/v4"

	"github.com/augurlabs/augur/core"
	"github.com/augurlabs/augur/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
// Chunks are keyed by (tenant, version, document, ordinal) so one version's
// records never overwrite another's.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	return &ChunkRepository{backend: backend}, nil
}

// Close implements storage.Repository. The backend is owned by the caller.
func (r *ChunkRepository) Close() error {
	return nil
}

// PutChunks stores chunks under the given index version.
func (r *ChunkRepository) PutChunks(ctx context.Context, tenant core.TenantID, version uint64, chunks ...*core.Chunk) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			if err := core.ValidateChunk(chunk); err != nil {
				return err
			}
			key := makeChunkKey(tenant, version, chunk.DocumentId, chunk.Ordinal)
			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetChunks retrieves all chunks stored under the given index version,
// ordered by (document id, ordinal) via the key encoding.
func (r *ChunkRepository) GetChunks(ctx context.Context, tenant core.TenantID, version uint64) ([]*core.Chunk, error) {
	var chunks []*core.Chunk

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkVersionPrefix(tenant, version)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk != nil {
				chunks = append(chunks, chunk)
			}
		}
		return nil
	}, false)

	return chunks, err
}

// DeleteVersion removes all chunks stored under the given index version.
func (r *ChunkRepository) DeleteVersion(ctx context.Context, tenant core.TenantID, version uint64) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkVersionPrefix(tenant, version)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)

		var keys [][]byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// ListVersions returns the index versions with stored chunks for a tenant,
// ascending.
func (r *ChunkRepository) ListVersions(ctx context.Context, tenant core.TenantID) ([]uint64, error) {
	var versions []uint64

	prefix := makeChunkTenantPrefix(tenant)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		var last uint64
		seen := false
		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix)+8 {
				continue
			}
			version := binary.BigEndian.Uint64(key[len(prefix):])
			if !seen || version != last {
				versions = append(versions, version)
				last = version
				seen = true
			}
		}
		return nil
	}, false)

	return versions, err
}
