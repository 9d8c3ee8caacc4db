// Copyright 2025 Augur Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package augur

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-crypt/x/blake2b"

	"github.com/augurlabs/augur/ai"
	"github.com/augurlabs/augur/ai/openai"
	"github.com/augurlabs/augur/answer"
	"github.com/augurlabs/augur/chunker"
	"github.com/augurlabs/augur/core"
	"github.com/augurlabs/augur/extract"
	"github.com/augurlabs/augur/index"
	"github.com/augurlabs/augur/storage"
	"github.com/augurlabs/augur/storage/badger"
	"github.com/augurlabs/augur/training"
)

// Engine is the per-tenant retrieval-augmented generation engine. It
// owns the storage backend, the extraction registry, the index registry,
// the training coordinator, and the answer pipeline, and exposes the
// boundary the surrounding system calls: upload, train, ask, status.
type Engine struct {
	backend      *badger.Backend
	documentRepo storage.DocumentRepository
	chunkRepo    storage.ChunkRepository
	manifestRepo storage.ManifestRepository
	provider     ai.AIProvider
	extractors   *extract.Registry
	registry     *index.Registry
	coordinator  *training.Coordinator
	pipeline     *answer.Pipeline
	logger       *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig      *ai.Config
	provider      ai.AIProvider
	inMemory      bool
	logger        *slog.Logger
	chunkSize     int
	overlap       int
	topK          int
	contextBudget int
}

// WithAIConfig sets the AI service configuration used to build the
// default OpenAI-compatible provider.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithProvider injects an AI provider, bypassing the default
// OpenAI-compatible one. Used by tests and embedders with custom stacks.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemory opens the storage backend in memory, without files.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithChunkParameters sets the chunk size and overlap used by rebuilds.
func WithChunkParameters(size, overlap int) EngineOption {
	return func(o *engineOptions) {
		o.chunkSize = size
		o.overlap = overlap
	}
}

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(k int) EngineOption {
	return func(o *engineOptions) {
		o.topK = k
	}
}

// WithContextBudget sets the prompt's retrieved-context character budget.
func WithContextBudget(budget int) EngineOption {
	return func(o *engineOptions) {
		o.contextBudget = budget
	}
}

// NewEngine opens the storage backend at filePath and wires the engine.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig:      ai.DefaultConfig(),
		logger:        slog.Default(),
		chunkSize:     chunker.DefaultMaxChunkSize,
		overlap:       chunker.DefaultOverlap,
		topK:          answer.DefaultTopK,
		contextBudget: answer.DefaultContextBudget,
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	documentRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		documentRepo.Close()
		backend.Close()
		return nil, err
	}

	manifestRepo := badger.NewManifestRepository(backend)

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			chunkRepo.Close()
			documentRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	registry, err := index.NewRegistry(manifestRepo, chunkRepo,
		index.WithRegistryLogger(options.logger))
	if err != nil {
		provider.Close()
		chunkRepo.Close()
		documentRepo.Close()
		backend.Close()
		return nil, err
	}

	splitter, err := chunker.New(
		chunker.WithMaxChunkSize(options.chunkSize),
		chunker.WithOverlap(options.overlap),
	)
	if err != nil {
		provider.Close()
		chunkRepo.Close()
		documentRepo.Close()
		backend.Close()
		return nil, err
	}

	coordinator, err := training.NewCoordinator(
		documentRepo, chunkRepo, manifestRepo, registry, provider,
		training.WithChunker(splitter),
		training.WithLogger(options.logger),
	)
	if err != nil {
		provider.Close()
		chunkRepo.Close()
		documentRepo.Close()
		backend.Close()
		return nil, err
	}

	pipeline, err := answer.NewPipeline(registry, provider,
		answer.WithTopK(options.topK),
		answer.WithContextBudget(options.contextBudget),
		answer.WithLogger(options.logger),
	)
	if err != nil {
		coordinator.Release()
		provider.Close()
		chunkRepo.Close()
		documentRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:      backend,
		documentRepo: documentRepo,
		chunkRepo:    chunkRepo,
		manifestRepo: manifestRepo,
		provider:     provider,
		extractors:   extract.NewRegistry(),
		registry:     registry,
		coordinator:  coordinator,
		pipeline:     pipeline,
		logger:       options.logger,
	}, nil
}

// Close releases the engine's resources. It waits a bounded time for
// in-flight training jobs to finish before shutting storage down; a job
// still running after that fails without touching the published version.
func (e *Engine) Close() error {
	e.coordinator.Release()

	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	if err := e.chunkRepo.Close(); err != nil {
		e.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := e.manifestRepo.Close(); err != nil {
		e.logger.Error("error closing manifest repository", "err", err)
		return err
	}
	if err := e.documentRepo.Close(); err != nil {
		e.logger.Error("error closing document repository", "err", err)
		return err
	}

	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// UploadDocument accepts raw document bytes for a tenant. Text is
// extracted immediately; a document whose format is unsupported or whose
// content cannot be parsed is recorded with a failed status and the
// parse error is returned as the rejection reason. Re-uploads of the
// same filename coexist as distinct documents.
func (e *Engine) UploadDocument(ctx context.Context, tenant core.TenantID, filename, mimeType string, data []byte) (*core.Document, error) {
	if err := core.ValidateTenantID(tenant); err != nil {
		return nil, err
	}
	if filename == "" {
		return nil, core.ErrEmptyFilename
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", core.ErrParse, filename)
	}

	doc := &core.Document{
		Tenant:      tenant,
		Filename:    filename,
		MIMEType:    mimeType,
		ByteSize:    int64(len(data)),
		ContentHash: contentHash(data),
		Status:      core.ParseStatusPending,
	}

	text, parseErr := e.extractors.Extract(ctx, filename, mimeType, data)
	if parseErr != nil {
		doc.Status = core.ParseStatusFailed
	} else {
		doc.Status = core.ParseStatusParsed
		doc.Text = text
		doc.ParsedAt = time.Now().UTC()
	}

	stored, err := e.documentRepo.AddDocument(ctx, doc)
	if err != nil {
		return nil, err
	}

	if parseErr != nil {
		e.logger.Warn("document rejected",
			"tenant", tenant, "filename", filename, "err", parseErr)
		return stored, parseErr
	}

	e.logger.Info("document accepted",
		"tenant", tenant,
		"filename", filename,
		"document", stored.Id,
		"bytes", stored.ByteSize)
	return stored, nil
}

// ListDocuments returns the tenant's documents in upload order.
func (e *Engine) ListDocuments(ctx context.Context, tenant core.TenantID) ([]*core.Document, error) {
	return e.documentRepo.ListDocuments(ctx, tenant)
}

// StartTraining queues a full index rebuild for the tenant. Returns the
// queued job, or core.ErrConflict while another job is active.
func (e *Engine) StartTraining(ctx context.Context, tenant core.TenantID) (*core.TrainingJob, error) {
	return e.coordinator.StartTraining(ctx, tenant)
}

// Answer responds to a question using the tenant's published index.
func (e *Engine) Answer(ctx context.Context, tenant core.TenantID, question string) (string, error) {
	return e.pipeline.Answer(ctx, tenant, question)
}

// TenantStatus is a polling snapshot of a tenant's training state and
// published index.
type TenantStatus struct {
	// Job is the most recent training job, nil if none was started in
	// this process.
	Job *core.TrainingJob

	// Published describes the published index version, nil before the
	// first successful training.
	Published *core.IndexManifest
}

// Status reports the tenant's latest training job and published index
// version for polling by the surrounding system.
func (e *Engine) Status(ctx context.Context, tenant core.TenantID) (*TenantStatus, error) {
	if err := core.ValidateTenantID(tenant); err != nil {
		return nil, err
	}

	status := &TenantStatus{
		Job: e.coordinator.Status(tenant),
	}

	version, err := e.registry.Published(ctx, tenant)
	if err != nil {
		return nil, err
	}
	if version != nil {
		status.Published = version.Manifest()
	}

	return status, nil
}

// contentHash returns the hex BLAKE2b-256 digest of the raw bytes.
func contentHash(data []byte) string {
	h, _ := blake2b.New(32, nil)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
