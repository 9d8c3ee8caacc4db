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

package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/augurlabs/augur/ai"
	"github.com/augurlabs/augur/core"
	"github.com/augurlabs/augur/index"
)

const (
	// DefaultTopK is the default number of chunks retrieved per question.
	DefaultTopK = 3

	// DefaultContextBudget is the default character budget for retrieved
	// context in the prompt.
	DefaultContextBudget = 2000
)

// Pipeline answers questions against a tenant's published index: embed
// the question, retrieve the most similar chunks, assemble a bounded
// prompt, and invoke the generator. The pipeline keeps no state across
// calls beyond reading the published index snapshot; it never retries a
// generation call on its own.
type Pipeline struct {
	registry  *index.Registry
	embedder  ai.Embedder
	generator ai.Generator
	logger    *slog.Logger

	topK          int
	contextBudget int
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithTopK sets how many chunks are retrieved per question.
// Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(p *Pipeline) error {
		if k < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidTopK, k)
		}
		p.topK = k
		return nil
	}
}

// WithContextBudget sets the character budget for retrieved context.
// Default is DefaultContextBudget.
func WithContextBudget(budget int) Option {
	return func(p *Pipeline) error {
		if budget < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidContextBudget, budget)
		}
		p.contextBudget = budget
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an answer pipeline.
func NewPipeline(registry *index.Registry, provider ai.AIProvider, opts ...Option) (*Pipeline, error) {
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	p := &Pipeline{
		registry:      registry,
		embedder:      provider.Embedder(),
		generator:     provider.Generator(),
		logger:        slog.Default(),
		topK:          DefaultTopK,
		contextBudget: DefaultContextBudget,
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Answer responds to the question using the tenant's published index.
// Fails with core.ErrNotTrained before the first successful training; a
// generator deadline surfaces as core.ErrGenerationTimeout and is the
// caller's to retry.
func (p *Pipeline) Answer(ctx context.Context, tenant core.TenantID, question string) (string, error) {
	if err := core.ValidateTenantID(tenant); err != nil {
		return "", err
	}
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}

	version, err := p.registry.Published(ctx, tenant)
	if err != nil {
		return "", err
	}
	if version == nil {
		return "", fmt.Errorf("%w: tenant %s has no published index", core.ErrNotTrained, tenant)
	}

	if model := p.embedder.Model(); model != version.Model() {
		return "", fmt.Errorf("%w: query embedder %q does not match index model %q",
			core.ErrEmbedding, model, version.Model())
	}

	vector, err := p.embedder.EmbedText(ctx, question)
	if err != nil {
		return "", fmt.Errorf("%w: embedding question: %w", core.ErrEmbedding, err)
	}
	if len(vector) != version.Dimension() {
		return "", fmt.Errorf("%w: query dimension %d does not match index dimension %d",
			core.ErrEmbedding, len(vector), version.Dimension())
	}

	hits := version.Search(vector, p.topK)
	p.logger.Debug("retrieved context",
		"tenant", tenant,
		"version", version.Number(),
		"hits", len(hits))

	prompt := BuildPrompt(question, hits, p.contextBudget)

	raw, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	return StripEcho(raw), nil
}

// Retrieve returns the top-k chunks for the question without invoking
// the generator. It backs inspection tooling and tests that need the
// retrieval half in isolation.
func (p *Pipeline) Retrieve(ctx context.Context, tenant core.TenantID, question string) ([]core.Hit, error) {
	if err := core.ValidateTenantID(tenant); err != nil {
		return nil, err
	}
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	version, err := p.registry.Published(ctx, tenant)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, fmt.Errorf("%w: tenant %s has no published index", core.ErrNotTrained, tenant)
	}

	vector, err := p.embedder.EmbedText(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding question: %w", core.ErrEmbedding, err)
	}
	if len(vector) != version.Dimension() {
		return nil, fmt.Errorf("%w: query dimension %d does not match index dimension %d",
			core.ErrEmbedding, len(vector), version.Dimension())
	}

	return version.Search(vector, p.topK), nil
}
