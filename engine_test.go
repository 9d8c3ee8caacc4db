package augur

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/augurlabs/augur/ai/mock"
	"github.com/augurlabs/augur/core"
)

// keywordVector embeds text by keyword occurrence so end-to-end tests
// get meaningful retrieval without a live embedding service.
func keywordVector(text string) []float32 {
	lower := strings.ToLower(text)
	return []float32{
		float32(strings.Count(lower, "sky")),
		float32(strings.Count(lower, "grass")),
		float32(strings.Count(lower, "ocean")),
		float32(strings.Count(lower, "mountain")),
		1,
	}
}

func keywordProvider() *mock.MockProvider {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	embedder := provider.GetMockEmbedder()
	embedder.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		return keywordVector(text), nil
	}
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = keywordVector(text)
		}
		return vectors, nil
	}
	return provider
}

func newTestEngine(t *testing.T, opts ...EngineOption) (*Engine, *mock.MockProvider) {
	t.Helper()

	provider := keywordProvider()
	opts = append([]EngineOption{
		WithInMemory(),
		WithProvider(provider),
		// One sentence per chunk, one chunk per prompt, so retrieval
		// ranking is observable through the generator's prompts.
		WithChunkParameters(20, 0),
		WithTopK(1),
	}, opts...)

	engine, err := NewEngine("", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	return engine, provider
}

func waitForTraining(t *testing.T, engine *Engine, tenant core.TenantID) *core.TrainingJob {
	t.Helper()

	var job *core.TrainingJob
	require.Eventually(t, func() bool {
		status, err := engine.Status(context.Background(), tenant)
		if err != nil {
			return false
		}
		job = status.Job
		return job != nil && !job.Status.Active()
	}, 5*time.Second, 5*time.Millisecond)
	return job
}

func TestNewEngine_FileBacked(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "augur_db")

	engine, err := NewEngine(dbPath, WithProvider(keywordProvider()))
	require.NoError(t, err)
	require.NotNil(t, engine)
	require.NoError(t, engine.Close())
}

func TestUploadDocument(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	t.Run("accepted", func(t *testing.T) {
		doc, err := engine.UploadDocument(ctx, "tenant-1", "facts.txt", "text/plain",
			[]byte("The sky is blue."))
		require.NoError(t, err)

		assert.NotZero(t, doc.Id)
		assert.Equal(t, core.ParseStatusParsed, doc.Status)
		assert.Equal(t, "The sky is blue.", doc.Text)
		assert.NotEmpty(t, doc.ContentHash)
		assert.False(t, doc.UploadedAt.IsZero())
		assert.False(t, doc.ParsedAt.IsZero())
	})

	t.Run("rejected unsupported format", func(t *testing.T) {
		doc, err := engine.UploadDocument(ctx, "tenant-1", "image.png", "image/png",
			[]byte{0x89, 0x50, 0x4e, 0x47})
		assert.ErrorIs(t, err, core.ErrParse)

		// The rejection is recorded, not dropped.
		require.NotNil(t, doc)
		assert.Equal(t, core.ParseStatusFailed, doc.Status)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := engine.UploadDocument(ctx, "", "facts.txt", "text/plain", []byte("x"))
		assert.ErrorIs(t, err, core.ErrEmptyTenant)

		_, err = engine.UploadDocument(ctx, "a:b", "facts.txt", "text/plain", []byte("x"))
		assert.ErrorIs(t, err, core.ErrInvalidTenant)

		_, err = engine.UploadDocument(ctx, "tenant-1", "", "text/plain", []byte("x"))
		assert.ErrorIs(t, err, core.ErrEmptyFilename)

		_, err = engine.UploadDocument(ctx, "tenant-1", "facts.txt", "text/plain", nil)
		assert.ErrorIs(t, err, core.ErrParse)
	})

	t.Run("re-upload coexists", func(t *testing.T) {
		first, err := engine.UploadDocument(ctx, "tenant-2", "notes.txt", "text/plain",
			[]byte("Version one."))
		require.NoError(t, err)
		second, err := engine.UploadDocument(ctx, "tenant-2", "notes.txt", "text/plain",
			[]byte("Version two."))
		require.NoError(t, err)
		assert.NotEqual(t, first.Id, second.Id)

		docs, err := engine.ListDocuments(ctx, "tenant-2")
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})
}

func TestAnswer_BeforeTraining(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.UploadDocument(ctx, "tenant-1", "facts.txt", "text/plain",
		[]byte("The sky is blue."))
	require.NoError(t, err)

	_, err = engine.Answer(ctx, "tenant-1", "What color is the sky?")
	assert.ErrorIs(t, err, core.ErrNotTrained)
}

func TestEndToEnd_RetrievalDistinguishesQuestions(t *testing.T) {
	engine, provider := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.UploadDocument(ctx, "tenant-1", "facts.txt", "text/plain",
		[]byte("The sky is blue. Grass is green."))
	require.NoError(t, err)

	_, err = engine.StartTraining(ctx, "tenant-1")
	require.NoError(t, err)
	job := waitForTraining(t, engine, "tenant-1")
	require.Equal(t, core.JobStatusSucceeded, job.Status)

	generator := provider.GetMockGenerator()

	answer, err := engine.Answer(ctx, "tenant-1", "What color is the sky?")
	require.NoError(t, err)
	assert.NotEmpty(t, answer)
	require.Len(t, generator.Prompts, 1)
	assert.Contains(t, generator.Prompts[0], "The sky is blue.")
	assert.NotContains(t, generator.Prompts[0], "Grass is green.")

	_, err = engine.Answer(ctx, "tenant-1", "What color is grass?")
	require.NoError(t, err)
	require.Len(t, generator.Prompts, 2)
	assert.Contains(t, generator.Prompts[1], "Grass is green.")
	assert.NotContains(t, generator.Prompts[1], "The sky is blue.")
}

func TestEndToEnd_RetrainPicksUpNewDocuments(t *testing.T) {
	engine, provider := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.UploadDocument(ctx, "tenant-1", "sky.txt", "text/plain",
		[]byte("The sky is blue."))
	require.NoError(t, err)
	_, err = engine.UploadDocument(ctx, "tenant-1", "grass.txt", "text/plain",
		[]byte("Grass is green."))
	require.NoError(t, err)

	_, err = engine.StartTraining(ctx, "tenant-1")
	require.NoError(t, err)
	require.Equal(t, core.JobStatusSucceeded, waitForTraining(t, engine, "tenant-1").Status)

	_, err = engine.UploadDocument(ctx, "tenant-1", "ocean.txt", "text/plain",
		[]byte("The ocean is deep."))
	require.NoError(t, err)

	_, err = engine.StartTraining(ctx, "tenant-1")
	require.NoError(t, err)
	require.Equal(t, core.JobStatusSucceeded, waitForTraining(t, engine, "tenant-1").Status)

	status, err := engine.Status(ctx, "tenant-1")
	require.NoError(t, err)
	require.NotNil(t, status.Published)
	assert.Equal(t, uint64(2), status.Published.Version)

	generator := provider.GetMockGenerator()
	generator.Reset()

	_, err = engine.Answer(ctx, "tenant-1", "How deep is the ocean?")
	require.NoError(t, err)
	require.Len(t, generator.Prompts, 1)
	assert.Contains(t, generator.Prompts[0], "The ocean is deep.")
}

func TestEndToEnd_QueriesServedDuringRebuild(t *testing.T) {
	engine, provider := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.UploadDocument(ctx, "tenant-1", "sky.txt", "text/plain",
		[]byte("The sky is blue."))
	require.NoError(t, err)

	_, err = engine.StartTraining(ctx, "tenant-1")
	require.NoError(t, err)
	require.Equal(t, core.JobStatusSucceeded, waitForTraining(t, engine, "tenant-1").Status)

	// Hold the next rebuild inside embedding.
	embedder := provider.GetMockEmbedder()
	release := make(chan struct{})
	entered := make(chan struct{})
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		close(entered)
		<-release
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = keywordVector(text)
		}
		return vectors, nil
	}

	_, err = engine.StartTraining(ctx, "tenant-1")
	require.NoError(t, err)
	<-entered

	// A concurrent start is rejected while the job runs.
	_, err = engine.StartTraining(ctx, "tenant-1")
	assert.ErrorIs(t, err, core.ErrConflict)

	// Queries keep working against the published version.
	answer, err := engine.Answer(ctx, "tenant-1", "What color is the sky?")
	require.NoError(t, err)
	assert.NotEmpty(t, answer)

	close(release)
	require.Equal(t, core.JobStatusSucceeded, waitForTraining(t, engine, "tenant-1").Status)
}

func TestEngineStatus(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	status, err := engine.Status(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Nil(t, status.Job)
	assert.Nil(t, status.Published)

	_, err = engine.Status(ctx, "")
	assert.ErrorIs(t, err, core.ErrEmptyTenant)

	_, err = engine.UploadDocument(ctx, "tenant-1", "facts.txt", "text/plain",
		[]byte("The sky is blue."))
	require.NoError(t, err)
	_, err = engine.StartTraining(ctx, "tenant-1")
	require.NoError(t, err)
	waitForTraining(t, engine, "tenant-1")

	status, err = engine.Status(ctx, "tenant-1")
	require.NoError(t, err)
	require.NotNil(t, status.Job)
	assert.Equal(t, core.JobStatusSucceeded, status.Job.Status)
	require.NotNil(t, status.Published)
	assert.Equal(t, uint64(1), status.Published.Version)
	assert.Equal(t, "mock-embedder", status.Published.EmbeddingModel)
}

func TestEngine_SurvivesRestart(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "augur_db")
	ctx := context.Background()

	engine, err := NewEngine(dbPath,
		WithProvider(keywordProvider()),
		WithChunkParameters(60, 0))
	require.NoError(t, err)

	_, err = engine.UploadDocument(ctx, "tenant-1", "facts.txt", "text/plain",
		[]byte("The sky is blue."))
	require.NoError(t, err)
	_, err = engine.StartTraining(ctx, "tenant-1")
	require.NoError(t, err)
	require.Equal(t, core.JobStatusSucceeded, waitForTraining(t, engine, "tenant-1").Status)
	require.NoError(t, engine.Close())

	// Reopen: the published index is rehydrated from storage.
	provider := keywordProvider()
	reopened, err := NewEngine(dbPath,
		WithProvider(provider),
		WithChunkParameters(60, 0))
	require.NoError(t, err)
	defer reopened.Close()

	status, err := reopened.Status(ctx, "tenant-1")
	require.NoError(t, err)
	require.NotNil(t, status.Published)
	assert.Equal(t, uint64(1), status.Published.Version)

	_, err = reopened.Answer(ctx, "tenant-1", "What color is the sky?")
	require.NoError(t, err)

	generator := provider.GetMockGenerator()
	require.Len(t, generator.Prompts, 1)
	assert.Contains(t, generator.Prompts[0], "The sky is blue.")
}
