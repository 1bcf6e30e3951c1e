package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/didakt/internal/core/domain"
	"github.com/custodia-labs/didakt/internal/core/ports/driven"
	"github.com/custodia-labs/didakt/internal/core/ports/driving"
	"github.com/custodia-labs/didakt/internal/logger"
)

// Ensure TemplateWorkflowService implements the interface.
var _ driving.TemplateService = (*TemplateWorkflowService)(nil)

const (
	templateMaxTokens   = 8192
	templateSystem      = "You are an expert instructional designer. Respond with a single JSON document only."
	defaultInstructions = "Fill in every empty section consistently with the existing content."
)

// TemplateWorkflowService runs whole-document completion and flow generation.
// Both workflows pass the model output through the template validator.
type TemplateWorkflowService struct {
	llm         driven.LLMService
	validator   driving.TemplateValidator
	promptStore driven.PromptStore
}

// NewTemplateWorkflowService creates a new template workflow service.
// llmService may be nil; the workflows then report ErrLLMUnavailable.
func NewTemplateWorkflowService(llmService driven.LLMService, validator driving.TemplateValidator) *TemplateWorkflowService {
	if validator == nil {
		validator = NewTemplateValidator()
	}
	return &TemplateWorkflowService{llm: llmService, validator: validator}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *TemplateWorkflowService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// Complete returns the model's completed version of tmpl.
func (s *TemplateWorkflowService) Complete(
	ctx context.Context,
	tmpl *domain.Template,
	instructions string,
	status domain.StatusFunc,
) (*domain.Template, error) {
	if strings.TrimSpace(instructions) == "" {
		instructions = defaultInstructions
	}
	doc, err := encodeTemplate(tmpl)
	if err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(loadPrompt(s.promptStore, driven.PromptTemplateComplete), doc, instructions)
	return s.run(ctx, prompt, "completion", status)
}

// GenerateFlow asks the model for a teaching flow and replaces only the
// solution section of a copy of tmpl.
func (s *TemplateWorkflowService) GenerateFlow(
	ctx context.Context,
	tmpl *domain.Template,
	status domain.StatusFunc,
) (*domain.Template, error) {
	doc, err := encodeTemplate(tmpl)
	if err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(loadPrompt(s.promptStore, driven.PromptFlowGenerate), doc)
	generated, err := s.run(ctx, prompt, "flow generation", status)
	if err != nil {
		return nil, err
	}

	out := tmpl.Clone()
	out.Solution = generated.Solution
	status.Emit("Solution section replaced")
	return out, nil
}

func (s *TemplateWorkflowService) run(
	ctx context.Context,
	prompt, what string,
	status domain.StatusFunc,
) (*domain.Template, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.ContextError(err)
	}

	status.Emit(fmt.Sprintf("Requesting %s from %s...", what, s.llm.ModelName()))
	raw, err := s.llm.Complete(ctx, driven.CompletionRequest{
		System:      templateSystem,
		Prompt:      prompt,
		JSON:        true,
		MaxTokens:   templateMaxTokens,
		Temperature: 0.4,
	})
	if err != nil {
		if domain.IsCancelled(err) || ctx.Err() != nil {
			status.Emit(fmt.Sprintf("%s cancelled", capitalise(what)))
			return nil, domain.ContextError(firstErr(ctx.Err(), err))
		}
		status.Emit(fmt.Sprintf("%s failed: %v", capitalise(what), err))
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	logger.Debug("template: %s returned %d bytes", what, len(raw))

	tmpl, err := s.validator.Validate(raw)
	if err != nil {
		status.Emit(fmt.Sprintf("Model output rejected: %v", err))
		return nil, err
	}
	status.Emit("Model output validated")
	return tmpl, nil
}

func encodeTemplate(tmpl *domain.Template) (string, error) {
	if tmpl == nil {
		return "", fmt.Errorf("%w: template is nil", domain.ErrInvalidInput)
	}
	data, err := json.MarshalIndent(tmpl, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode template: %w", err)
	}
	return string(data), nil
}

func capitalise(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
