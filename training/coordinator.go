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

package training

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/augurlabs/augur/ai"
	"github.com/augurlabs/augur/chunker"
	"github.com/augurlabs/augur/core"
	"github.com/augurlabs/augur/index"
	"github.com/augurlabs/augur/storage"
)

// Coordinator serializes index rebuilds per tenant. A rebuild is a full
// pass: every parsed document is re-chunked and re-embedded, a new index
// version is built and persisted, and only then is it published. The
// previously published version stays serviceable throughout, so a failed
// rebuild never degrades retrieval.
//
// At most one job per tenant may be queued or running; a second start is
// rejected with a conflict, never queued silently.
type Coordinator struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	manifests storage.ManifestRepository
	registry  *index.Registry
	embedder  ai.Embedder
	splitter  *chunker.Chunker
	pool      *ants.Pool
	logger    *slog.Logger

	embedBatchSize int
	maxRetries     int
	retryBaseDelay time.Duration

	mu        sync.Mutex
	jobs      map[core.TenantID]*core.TrainingJob
	nextJobID core.ID
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithPoolSize sets the worker pool size for concurrent rebuilds of
// different tenants. Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(c *Coordinator) error {
		if size < 1 {
			size = 1
		}

		if c.pool != nil {
			c.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		c.pool = pool
		return nil
	}
}

// WithChunker sets the chunker used during rebuilds.
// Default is a chunker with default parameters.
func WithChunker(splitter *chunker.Chunker) Option {
	return func(c *Coordinator) error {
		if splitter != nil {
			c.splitter = splitter
		}
		return nil
	}
}

// WithEmbedBatchSize sets how many chunk texts are embedded per call.
// Default is 100.
func WithEmbedBatchSize(size int) Option {
	return func(c *Coordinator) error {
		if size > 0 {
			c.embedBatchSize = size
		}
		return nil
	}
}

// WithRetry sets the retry policy for embedding calls.
// Default is 3 attempts with a 1s base delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Coordinator) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		c.maxRetries = maxAttempts
		c.retryBaseDelay = baseDelay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewCoordinator creates a training coordinator.
func NewCoordinator(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	manifests storage.ManifestRepository,
	registry *index.Registry,
	provider ai.AIProvider,
	opts ...Option,
) (*Coordinator, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if manifests == nil {
		return nil, ErrManifestRepositoryRequired
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	splitter, err := chunker.New()
	if err != nil {
		pool.Release()
		return nil, err
	}

	c := &Coordinator{
		documents:      documents,
		chunks:         chunks,
		manifests:      manifests,
		registry:       registry,
		embedder:       provider.Embedder(),
		splitter:       splitter,
		pool:           pool,
		logger:         slog.Default(),
		embedBatchSize: 100,
		maxRetries:     3,
		retryBaseDelay: 1 * time.Second,
		jobs:           make(map[core.TenantID]*core.TrainingJob),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			c.Release()
			return nil, err
		}
	}

	return c, nil
}

// StartTraining queues a full rebuild for the tenant. Returns the queued
// job, or a conflict when a job for the tenant is already queued or
// running. The rebuild itself proceeds asynchronously; poll Status for
// the outcome.
func (c *Coordinator) StartTraining(ctx context.Context, tenant core.TenantID) (*core.TrainingJob, error) {
	if err := core.ValidateTenantID(tenant); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if existing, ok := c.jobs[tenant]; ok && existing.Status.Active() {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: job %d is %s for tenant %s",
			core.ErrConflict, existing.Id, existing.Status, tenant)
	}

	c.nextJobID++
	job := &core.TrainingJob{
		Id:        c.nextJobID,
		Tenant:    tenant,
		Status:    core.JobStatusQueued,
		StartedAt: time.Now().UTC(),
	}
	c.jobs[tenant] = job
	c.mu.Unlock()

	err := c.pool.Submit(func() {
		c.run(job)
	})
	if err != nil {
		c.finish(job, err)
		return nil, err
	}

	c.logger.Info("training job queued", "tenant", tenant, "job", job.Id)
	return c.snapshot(job), nil
}

// Status returns the tenant's most recent training job, or nil if the
// tenant has never started one in this process.
func (c *Coordinator) Status(tenant core.TenantID) *core.TrainingJob {
	c.mu.Lock()
	defer c.mu.Unlock()

	job, ok := c.jobs[tenant]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

// releaseTimeout bounds how long Release waits for running rebuilds.
const releaseTimeout = 30 * time.Second

// Release shuts down the worker pool, waiting up to releaseTimeout for
// jobs already running to finish. A rebuild still running after that is
// abandoned; it fails when its storage closes and the published version
// stays untouched. The coordinator must not be used afterwards.
func (c *Coordinator) Release() {
	if c.pool == nil || c.pool.IsClosed() {
		return
	}
	if err := c.pool.ReleaseTimeout(releaseTimeout); err != nil {
		c.logger.Warn("worker pool released with jobs still running", "err", err)
	}
}

// snapshot copies a job under the lock for safe return to callers.
func (c *Coordinator) snapshot(job *core.TrainingJob) *core.TrainingJob {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *job
	return &copied
}

func (c *Coordinator) setStatus(job *core.TrainingJob, status core.JobStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	job.Status = status
}

func (c *Coordinator) finish(job *core.TrainingJob, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	job.FinishedAt = time.Now().UTC()
	if err != nil {
		job.Status = core.JobStatusFailed
		job.Error = err.Error()
		return
	}
	job.Status = core.JobStatusSucceeded
}

// run executes one rebuild. Uses a background context: the job outlives
// the request that started it.
func (c *Coordinator) run(job *core.TrainingJob) {
	ctx := context.Background()

	c.setStatus(job, core.JobStatusRunning)
	c.logger.Info("training job running", "tenant", job.Tenant, "job", job.Id)

	version, err := c.rebuild(ctx, job.Tenant)
	c.finish(job, err)

	if err != nil {
		c.logger.Error("training job failed",
			"tenant", job.Tenant, "job", job.Id, "err", err)
		return
	}

	c.logger.Info("training job succeeded",
		"tenant", job.Tenant,
		"job", job.Id,
		"version", version.Number(),
		"chunks", version.Size())
}

// rebuild re-chunks and re-embeds every parsed document, builds and
// persists a new index version, publishes it, and prunes superseded
// versions. Any failure before publish leaves the published version and
// its stored chunks untouched.
func (c *Coordinator) rebuild(ctx context.Context, tenant core.TenantID) (*index.Version, error) {
	docs, err := c.documents.ListDocuments(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("%w: listing documents: %w", core.ErrIndexBuild, err)
	}

	parsed := make([]*core.Document, 0, len(docs))
	for _, doc := range docs {
		if doc.Status == core.ParseStatusParsed {
			parsed = append(parsed, doc)
		}
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("%w: tenant %s", ErrNoDocuments, tenant)
	}

	number, err := c.nextVersion(ctx, tenant)
	if err != nil {
		return nil, err
	}

	builder, err := index.NewBuilder(tenant, number, c.embedder.Model())
	if err != nil {
		return nil, err
	}

	for _, doc := range parsed {
		split, err := c.splitter.Split(doc)
		if err != nil {
			return nil, err
		}
		if err := c.embedAndAdd(ctx, builder, split); err != nil {
			return nil, err
		}
	}

	version, err := builder.Build()
	if err != nil {
		return nil, err
	}

	if err := c.persist(ctx, version); err != nil {
		return nil, err
	}

	if err := c.registry.Publish(version); err != nil {
		return nil, err
	}

	c.prune(ctx, tenant, number)
	return version, nil
}

// nextVersion picks a version number above both the published version
// and any version with stored chunks, including leftovers from builds
// that failed after persisting.
func (c *Coordinator) nextVersion(ctx context.Context, tenant core.TenantID) (uint64, error) {
	var highest uint64

	published, err := c.registry.Published(ctx, tenant)
	if err != nil {
		return 0, fmt.Errorf("%w: reading published version: %w", core.ErrIndexBuild, err)
	}
	if published != nil {
		highest = published.Number()
	}

	stored, err := c.chunks.ListVersions(ctx, tenant)
	if err != nil {
		return 0, fmt.Errorf("%w: listing stored versions: %w", core.ErrIndexBuild, err)
	}
	for _, v := range stored {
		if v > highest {
			highest = v
		}
	}

	return highest + 1, nil
}

// embedAndAdd embeds chunk texts in batches and appends them to the
// builder. Embedding calls are retried with backoff; a batch that still
// fails aborts the job.
func (c *Coordinator) embedAndAdd(ctx context.Context, builder *index.Builder, split []core.Chunk) error {
	model := c.embedder.Model()

	for start := 0; start < len(split); start += c.embedBatchSize {
		end := start + c.embedBatchSize
		if end > len(split) {
			end = len(split)
		}
		batch := split[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		var vectors [][]float32
		err := RetryWithBackoff(ctx, func() error {
			var embedErr error
			vectors, embedErr = c.embedder.EmbedTexts(ctx, texts)
			return embedErr
		}, c.maxRetries, c.retryBaseDelay)
		if err != nil {
			return fmt.Errorf("%w: %w", core.ErrEmbedding, err)
		}

		embedded := make([]*core.Chunk, len(batch))
		for i := range batch {
			chunk := batch[i]
			chunk.Vector = vectors[i]
			chunk.EmbeddingModel = model
			embedded[i] = &chunk
		}

		if err := builder.Add(embedded...); err != nil {
			return err
		}
	}

	return nil
}

// persistBatchSize caps how many chunks go into one storage transaction,
// keeping large tenants under badger's transaction size limit.
const persistBatchSize = 500

// persist writes the version's chunks and manifest. Chunks land under
// the new version number, so the chunks backing the published version
// are never overwritten; the manifest only advances here, after the
// chunks are durable. Chunk writes are batched; a batch failure leaves
// an orphan version that prune removes after the next publish.
func (c *Coordinator) persist(ctx context.Context, version *index.Version) error {
	chunks := version.Chunks()

	for start := 0; start < len(chunks); start += persistBatchSize {
		end := start + persistBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		refs := make([]*core.Chunk, 0, end-start)
		for i := start; i < end; i++ {
			refs = append(refs, &chunks[i])
		}
		if err := c.chunks.PutChunks(ctx, version.Tenant(), version.Number(), refs...); err != nil {
			return fmt.Errorf("%w: persisting chunks: %w", core.ErrIndexBuild, err)
		}
	}

	if err := c.manifests.PutManifest(ctx, version.Manifest()); err != nil {
		return fmt.Errorf("%w: persisting manifest: %w", core.ErrIndexBuild, err)
	}

	return nil
}

// prune drops stored chunk versions superseded by the published one.
// Best-effort: a failed delete costs disk, not correctness.
func (c *Coordinator) prune(ctx context.Context, tenant core.TenantID, published uint64) {
	stored, err := c.chunks.ListVersions(ctx, tenant)
	if err != nil {
		c.logger.Warn("failed to list stored versions for pruning", "tenant", tenant, "err", err)
		return
	}

	for _, v := range stored {
		if v == published {
			continue
		}
		if err := c.chunks.DeleteVersion(ctx, tenant, v); err != nil {
			c.logger.Warn("failed to prune stored version",
				"tenant", tenant, "version", v, "err", err)
		}
	}
}
