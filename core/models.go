package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// TenantID identifies the owner of a document collection.
// The engine treats it as opaque; it is assigned by the surrounding system.
type TenantID string

// ParseStatus tracks the document text-extraction lifecycle.
type ParseStatus int

const (
	// ParseStatusPending means the document has been accepted but not yet extracted.
	ParseStatusPending ParseStatus = iota + 1
	// ParseStatusParsed means text extraction succeeded.
	ParseStatusParsed
	// ParseStatusFailed means text extraction failed.
	ParseStatusFailed
)

// Document represents an uploaded file owned by a tenant.
// Documents are immutable once parsed; re-uploading the same filename creates
// a new Document and both coexist until explicitly removed.
type Document struct {
	Id          ID
	Tenant      TenantID
	Filename    string
	MIMEType    string
	ByteSize    int64
	ContentHash string // hex-encoded BLAKE2b of the raw bytes
	Status      ParseStatus
	Text        string // extracted text, populated when Status is ParseStatusParsed
	UploadedAt  time.Time
	ParsedAt    time.Time
}

// Chunk is a bounded span of text derived deterministically from a Document.
// It is the unit of retrieval. The embedding vector and model are populated
// during training and persisted alongside the chunk.
type Chunk struct {
	Id             ID
	DocumentId     ID
	Tenant         TenantID
	Ordinal        int
	Text           string
	CharLen        int
	Vector         []float32
	EmbeddingModel string
}

// JobStatus is the state of a training job.
type JobStatus int

const (
	// JobStatusQueued means the job has been accepted but not started.
	JobStatusQueued JobStatus = iota + 1
	// JobStatusRunning means the rebuild is in progress.
	JobStatusRunning
	// JobStatusSucceeded means a new index version was published.
	JobStatusSucceeded
	// JobStatusFailed means the rebuild failed; the previously published
	// version is untouched.
	JobStatusFailed
)

// String returns the lowercase status name for logging and status polling.
func (s JobStatus) String() string {
	switch s {
	case JobStatusQueued:
		return "queued"
	case JobStatusRunning:
		return "running"
	case JobStatusSucceeded:
		return "succeeded"
	case JobStatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Active reports whether the job still holds the tenant's single training slot.
func (s JobStatus) Active() bool {
	return s == JobStatusQueued || s == JobStatusRunning
}

// TrainingJob records one asynchronous index rebuild for a tenant.
// At most one job per tenant may be in an active status at a time.
type TrainingJob struct {
	Id         ID
	Tenant     TenantID
	Status     JobStatus
	StartedAt  time.Time
	FinishedAt time.Time
	Error      string // human-readable cause when Status is JobStatusFailed
}

// IndexManifest is the persisted record of a published index version.
// The in-memory snapshot is rebuilt from chunk records after a restart.
type IndexManifest struct {
	Tenant         TenantID
	Version        uint64
	EmbeddingModel string
	Dimension      int
	ChunkCount     int
	BuiltAt        time.Time
}

// Hit is one retrieval result: a chunk and its cosine similarity to the query.
type Hit struct {
	Chunk *Chunk
	Score float32
}
