package driven

import "github.com/custodia-labs/didakt/internal/core/domain"

// AIConfigValidator checks LLM settings before they are relied upon, by
// building the provider client and contacting it once.
type AIConfigValidator interface {
	// ValidateLLM returns nil when settings select no provider.
	ValidateLLM(settings *domain.LLMSettings) error
}
