package index

import "errors"

var (
	// ErrManifestRepositoryRequired indicates a nil manifest repository.
	ErrManifestRepositoryRequired = errors.New("manifest repository is required")

	// ErrChunkRepositoryRequired indicates a nil chunk repository.
	ErrChunkRepositoryRequired = errors.New("chunk repository is required")
)
