// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMService is the language-model boundary of the pipeline: a prompt in,
// a (hopefully JSON-parseable) string out.
// It is optional; when nil, LLM-backed workflows report ErrLLMUnavailable.
//
// Adapters exist for OpenAI, Anthropic and Ollama. Implementations map a
// rejected key to ErrMissingCredential and HTTP 429 to ErrRateLimited.
type LLMService interface {
	// Complete runs one single-turn completion.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable without running inference.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompletionRequest is one model call.
type CompletionRequest struct {
	// System is an optional system instruction.
	System string

	// Prompt is the user message.
	Prompt string

	// JSON asks the provider for a JSON object answer where supported.
	// Callers must still cope with providers that ignore it.
	JSON bool

	// MaxTokens caps the answer length. Zero uses the adapter default.
	MaxTokens int

	// Temperature controls randomness. Zero keeps the provider default.
	Temperature float64
}
