package chunker

import "errors"

var (
	// ErrInvalidChunkSize indicates a non-positive chunk size.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")

	// ErrInvalidOverlap indicates a negative overlap or one that is not
	// smaller than the chunk size.
	ErrInvalidOverlap = errors.New("invalid overlap")
)
