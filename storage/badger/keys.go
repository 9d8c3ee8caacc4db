package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/augurlabs/augur/core"
)

// Key prefixes for different data types
const (
	documentPrefix     = "docrec"
	documentUploadPfx  = "docrecu"
	documentIDSeq      = "docrecseq"
	chunkPrefix        = "chkrec"
	manifestPrefix     = "idxman"
)

// makeDocumentKey generates a key for a document by tenant and ID.
func makeDocumentKey(tenant core.TenantID, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", documentPrefix, tenant, id))
}

// makeDocumentPrefix generates the key prefix covering all of a tenant's documents.
func makeDocumentPrefix(tenant core.TenantID) []byte {
	return []byte(fmt.Sprintf("%s:%s:", documentPrefix, tenant))
}

// makeDocumentUploadKey generates a composite key for the upload-order index.
// Format: prefix:tenant:uploadedAtMicro:id
// Timestamps and IDs are written in BigEndian order so lexicographic sort
// matches upload order.
func makeDocumentUploadKey(tenant core.TenantID, uploadedMicro int64, id core.ID) []byte {
	prefix := []byte(fmt.Sprintf("%s:%s:", documentUploadPfx, tenant))
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(uploadedMicro))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeDocumentUploadPrefix generates the key prefix for a tenant's upload-order index.
func makeDocumentUploadPrefix(tenant core.TenantID) []byte {
	return []byte(fmt.Sprintf("%s:%s:", documentUploadPfx, tenant))
}

// makeChunkKey generates a composite key for a chunk.
// Format: prefix:tenant:version:documentID:ordinal
// The numeric parts are BigEndian so iteration yields (document, ordinal) order.
func makeChunkKey(tenant core.TenantID, version uint64, documentID core.ID, ordinal int) []byte {
	prefix := []byte(fmt.Sprintf("%s:%s:", chunkPrefix, tenant))
	buf := make([]byte, len(prefix)+24)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], version)
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(ordinal))
	return buf
}

// makeChunkVersionPrefix generates the key prefix covering one index version's chunks.
func makeChunkVersionPrefix(tenant core.TenantID, version uint64) []byte {
	prefix := []byte(fmt.Sprintf("%s:%s:", chunkPrefix, tenant))
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], version)
	return buf
}

// makeChunkTenantPrefix generates the key prefix covering all of a tenant's chunks.
func makeChunkTenantPrefix(tenant core.TenantID) []byte {
	return []byte(fmt.Sprintf("%s:%s:", chunkPrefix, tenant))
}

// makeManifestKey generates the key for a tenant's published index manifest.
func makeManifestKey(tenant core.TenantID) []byte {
	return []byte(fmt.Sprintf("%s:%s", manifestPrefix, tenant))
}
