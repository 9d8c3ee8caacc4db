package training

import "errors"

var (
	// ErrDocumentRepositoryRequired indicates a nil document repository.
	ErrDocumentRepositoryRequired = errors.New("document repository is required")

	// ErrChunkRepositoryRequired indicates a nil chunk repository.
	ErrChunkRepositoryRequired = errors.New("chunk repository is required")

	// ErrManifestRepositoryRequired indicates a nil manifest repository.
	ErrManifestRepositoryRequired = errors.New("manifest repository is required")

	// ErrRegistryRequired indicates a nil index registry.
	ErrRegistryRequired = errors.New("index registry is required")

	// ErrAIProviderRequired indicates a nil AI provider.
	ErrAIProviderRequired = errors.New("AI provider is required")

	// ErrInvalidMaxAttempts indicates a non-positive retry attempt count.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrNoDocuments indicates a training request for a tenant with no
	// parsed documents to index.
	ErrNoDocuments = errors.New("tenant has no parsed documents")
)
