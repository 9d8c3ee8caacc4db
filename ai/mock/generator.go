package mock

import (
	"context"
	"sync"
)

// MockGenerator is a test double for ai.Generator.
// By default it echoes a canned answer; inject GenerateFunc for custom behavior.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	// Answer is returned by the default behavior. Defaults to "mock answer".
	Answer string

	// Prompts records every prompt passed to Generate, for assertions.
	// Read it only after concurrent callers have quiesced.
	Prompts []string

	mu        sync.Mutex
	callCount int
}

// NewMockGenerator creates a mock generator with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate records the prompt and returns the configured answer.
func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}

	if m.Answer == "" {
		return "mock answer", nil
	}
	return m.Answer, nil
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears recorded prompts, call count, and injected behavior.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	m.callCount = 0
	m.Prompts = nil
	m.mu.Unlock()
	m.GenerateFunc = nil
}
