// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMService provides text generation for roadmap synthesis.
// This is an optional service - when nil, queries fail with a typed
// error while rebuilds and retrieval keep working.
//
// Implementations may include:
//   - Gemini (gemini-1.5-pro)
//   - Ollama (local models)
type LLMService interface {
	// Generate produces a text completion from a prompt. Adapters make
	// exactly one attempt; transient provider failures (timeout, 429,
	// 5xx) are reported wrapped in domain.ErrTransport so the caller
	// can decide whether to retry.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
