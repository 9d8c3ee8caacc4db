package answer

import "errors"

var (
	// ErrRegistryRequired indicates a nil index registry.
	ErrRegistryRequired = errors.New("index registry is required")

	// ErrAIProviderRequired indicates a nil AI provider.
	ErrAIProviderRequired = errors.New("AI provider is required")

	// ErrEmptyQuestion indicates a blank question.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrInvalidTopK indicates a non-positive retrieval count.
	ErrInvalidTopK = errors.New("topK must be positive")

	// ErrInvalidContextBudget indicates a non-positive context budget.
	ErrInvalidContextBudget = errors.New("context budget must be positive")
)
