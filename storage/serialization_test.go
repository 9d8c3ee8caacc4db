package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/augurlabs/augur/core"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Empty(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalDocument(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	doc := &core.Document{
		Id:          7,
		Tenant:      "tenant-1",
		Filename:    "facts.txt",
		MIMEType:    "text/plain",
		ByteSize:    32,
		ContentHash: "abc123",
		Status:      core.ParseStatusParsed,
		Text:        "The sky is blue. Grass is green.",
		UploadedAt:  now,
		ParsedAt:    now,
	}

	data := MarshalDocument(doc)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalDocument(data)
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestMarshalUnmarshalChunk(t *testing.T) {
	chunk := &core.Chunk{
		Id:             core.IDFromContent("chunk"),
		DocumentId:     7,
		Tenant:         "tenant-1",
		Ordinal:        3,
		Text:           "The sky is blue.",
		CharLen:        16,
		Vector:         []float32{0.1, 0.2, 0.3},
		EmbeddingModel: "embeddinggemma",
	}

	data := MarshalChunk(chunk)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalChunk(data)
	require.NoError(t, err)
	assert.Equal(t, chunk, decoded)
}

func TestMarshalUnmarshalManifest(t *testing.T) {
	manifest := &core.IndexManifest{
		Tenant:         "tenant-1",
		Version:        4,
		EmbeddingModel: "embeddinggemma",
		Dimension:      768,
		ChunkCount:     120,
		BuiltAt:        time.Now().UTC().Truncate(time.Microsecond),
	}

	data := MarshalManifest(manifest)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalManifest(data)
	require.NoError(t, err)
	assert.Equal(t, manifest, decoded)
}
