package storage

import (
	"context"

	"github.com/augurlabs/augur/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing a tenant's documents.
type DocumentRepository interface {
	Repository

	// AddDocument adds a document to storage.
	// Sets UploadedAt if not already set.
	// Returns the document with timestamps populated.
	// Re-uploads of the same filename coexist as distinct documents.
	AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// UpdateDocument updates an existing document, typically to record the
	// outcome of text extraction.
	// Returns ErrNotFound if the document doesn't exist.
	UpdateDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a single document by tenant and ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, tenant core.TenantID, id core.ID) (*core.Document, error)

	// ListDocuments retrieves all documents owned by a tenant,
	// ordered by upload time ascending.
	ListDocuments(ctx context.Context, tenant core.TenantID) ([]*core.Document, error)

	// DeleteDocuments removes documents by their IDs.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, tenant core.TenantID, ids ...core.ID) error
}

// ChunkRepository provides operations for managing embedded chunks.
// Chunks are stored per index version so that a failed rebuild never
// overwrites the chunks backing the published version.
type ChunkRepository interface {
	Repository

	// PutChunks stores chunks under the given index version.
	PutChunks(ctx context.Context, tenant core.TenantID, version uint64, chunks ...*core.Chunk) error

	// GetChunks retrieves all chunks stored under the given index version,
	// ordered by (document id, ordinal).
	GetChunks(ctx context.Context, tenant core.TenantID, version uint64) ([]*core.Chunk, error)

	// DeleteVersion removes all chunks stored under the given index version.
	DeleteVersion(ctx context.Context, tenant core.TenantID, version uint64) error

	// ListVersions returns the index versions with stored chunks for a
	// tenant, ascending.
	ListVersions(ctx context.Context, tenant core.TenantID) ([]uint64, error)
}

// ManifestRepository records which index version is published per tenant.
type ManifestRepository interface {
	Repository

	// PutManifest stores the manifest for a tenant, replacing any prior one.
	PutManifest(ctx context.Context, manifest *core.IndexManifest) error

	// GetManifest retrieves the published manifest for a tenant.
	// Returns ErrNotFound if the tenant has never published an index.
	GetManifest(ctx context.Context, tenant core.TenantID) (*core.IndexManifest, error)
}
