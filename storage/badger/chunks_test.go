package badger

import (
	"context"
	"testing"

	"github.com/augurlabs/augur/core"
)

func testStoredChunk(id core.ID, ordinal int, text string) *core.Chunk {
	return &core.Chunk{
		Id:             id,
		DocumentId:     1,
		Tenant:         "tenant-1",
		Ordinal:        ordinal,
		Text:           text,
		CharLen:        len(text),
		Vector:         []float32{0.1, 0.2},
		EmbeddingModel: "embeddinggemma",
	}
}

func TestChunkVersionedStorage(t *testing.T) {
	_, chunkRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	if err := chunkRepo.PutChunks(ctx, "tenant-1", 1,
		testStoredChunk(10, 0, "first"),
		testStoredChunk(11, 1, "second"),
	); err != nil {
		t.Fatalf("Failed to put chunks: %v", err)
	}

	got, err := chunkRepo.GetChunks(ctx, "tenant-1", 1)
	if err != nil {
		t.Fatalf("Failed to get chunks: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(got))
	}
	if got[0].Text != "first" || got[1].Text != "second" {
		t.Fatalf("Chunks out of order: %q, %q", got[0].Text, got[1].Text)
	}
	if len(got[0].Vector) != 2 {
		t.Fatalf("Vector not persisted, got %v", got[0].Vector)
	}
}

func TestChunkVersionsAreIndependent(t *testing.T) {
	_, chunkRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	if err := chunkRepo.PutChunks(ctx, "tenant-1", 1, testStoredChunk(10, 0, "old")); err != nil {
		t.Fatalf("Failed to put version 1 chunks: %v", err)
	}
	if err := chunkRepo.PutChunks(ctx, "tenant-1", 2, testStoredChunk(20, 0, "new")); err != nil {
		t.Fatalf("Failed to put version 2 chunks: %v", err)
	}

	// Writing version 2 must not disturb version 1.
	v1, err := chunkRepo.GetChunks(ctx, "tenant-1", 1)
	if err != nil {
		t.Fatalf("Failed to get version 1: %v", err)
	}
	if len(v1) != 1 || v1[0].Text != "old" {
		t.Fatalf("Version 1 disturbed: %+v", v1)
	}

	versions, err := chunkRepo.ListVersions(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("Failed to list versions: %v", err)
	}
	if len(versions) != 2 || versions[0] != 1 || versions[1] != 2 {
		t.Fatalf("Expected versions [1 2], got %v", versions)
	}
}

func TestChunkDeleteVersion(t *testing.T) {
	_, chunkRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	if err := chunkRepo.PutChunks(ctx, "tenant-1", 1, testStoredChunk(10, 0, "old")); err != nil {
		t.Fatalf("Failed to put chunks: %v", err)
	}
	if err := chunkRepo.PutChunks(ctx, "tenant-1", 2, testStoredChunk(20, 0, "new")); err != nil {
		t.Fatalf("Failed to put chunks: %v", err)
	}

	if err := chunkRepo.DeleteVersion(ctx, "tenant-1", 1); err != nil {
		t.Fatalf("Failed to delete version: %v", err)
	}

	gone, err := chunkRepo.GetChunks(ctx, "tenant-1", 1)
	if err != nil {
		t.Fatalf("Failed to get deleted version: %v", err)
	}
	if len(gone) != 0 {
		t.Fatalf("Expected version 1 empty after delete, got %d chunks", len(gone))
	}

	versions, err := chunkRepo.ListVersions(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("Failed to list versions: %v", err)
	}
	if len(versions) != 1 || versions[0] != 2 {
		t.Fatalf("Expected versions [2], got %v", versions)
	}
}

func TestChunkTenantIsolation(t *testing.T) {
	_, chunkRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	if err := chunkRepo.PutChunks(ctx, "tenant-1", 1, testStoredChunk(10, 0, "private")); err != nil {
		t.Fatalf("Failed to put chunks: %v", err)
	}

	other, err := chunkRepo.GetChunks(ctx, "tenant-2", 1)
	if err != nil {
		t.Fatalf("Failed to get chunks for tenant-2: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("Expected no chunks for tenant-2, got %d", len(other))
	}
}
