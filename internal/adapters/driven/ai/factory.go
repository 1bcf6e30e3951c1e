// Package ai turns stored LLM settings into a ready-to-use driven.LLMService.
package ai

import (
	"context"
	"fmt"
	"time"

	anthropicllm "github.com/custodia-labs/didakt/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/didakt/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/didakt/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/didakt/internal/core/domain"
	"github.com/custodia-labs/didakt/internal/core/ports/driven"
)

// DefaultPingTimeout bounds the connectivity check done at startup and by
// the settings commands.
const DefaultPingTimeout = 5 * time.Second

const fixHint = "Run 'didakt settings llm' to fix"

type constructor func(domain.LLMSettings) (driven.LLMService, error)

var providers = map[domain.AIProvider]constructor{
	domain.AIProviderOllama: func(s domain.LLMSettings) (driven.LLMService, error) {
		return ollamallm.NewLLMService(ollamallm.LLMConfig{BaseURL: s.BaseURL, Model: s.Model}), nil
	},
	domain.AIProviderOpenAI: func(s domain.LLMSettings) (driven.LLMService, error) {
		return openaillm.NewLLMService(openaillm.LLMConfig{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
	domain.AIProviderAnthropic: func(s domain.LLMSettings) (driven.LLMService, error) {
		return anthropicllm.NewLLMService(anthropicllm.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
}

// InitResult is what the binary needs from the LLM layer at startup.
type InitResult struct {
	// LLMService is nil when no provider is configured or it is unreachable.
	LLMService  driven.LLMService
	PromptStore driven.PromptStore
	// Warnings explain why LLMService is nil.
	Warnings []string
}

// Close releases the LLM service, if any.
func (r *InitResult) Close() {
	if r.LLMService != nil {
		_ = r.LLMService.Close()
	}
}

// Init connects to the configured provider. Failures become warnings so
// that validation and search keep working without a model.
func Init(settings *domain.LLMSettings, prompts driven.PromptStore) *InitResult {
	result := &InitResult{PromptStore: prompts}
	if settings == nil {
		return result
	}
	if settings.MissingCredential() {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%s is selected but has no API key. %s", settings.Provider, fixHint))
		return result
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultPingTimeout)
	defer cancel()

	svc, err := Connect(ctx, *settings)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		return result
	}
	result.LLMService = svc
	return result
}

// New builds the service for settings without contacting it. It returns
// nil, nil when settings name no usable provider.
func New(settings domain.LLMSettings) (driven.LLMService, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}
	build, ok := providers[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
	return build(settings)
}

// Connect builds the service and pings it. Every failure wraps
// domain.ErrLLMUnavailable.
func Connect(ctx context.Context, settings domain.LLMSettings) (driven.LLMService, error) {
	svc, err := New(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, fixHint)
	}
	if svc == nil {
		return nil, nil
	}
	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: %s unreachable (%w). %s",
			domain.ErrLLMUnavailable, settings.Provider.Description(), err, fixHint)
	}
	return svc, nil
}
