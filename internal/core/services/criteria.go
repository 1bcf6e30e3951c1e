package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/didakt/internal/core/domain"
	"github.com/custodia-labs/didakt/internal/core/ports/driven"
	"github.com/custodia-labs/didakt/internal/core/ports/driving"
	"github.com/custodia-labs/didakt/internal/logger"
)

// Ensure CriteriaService implements the interface.
var _ driving.CriteriaGenerator = (*CriteriaService)(nil)

// criteriaMaxTokens bounds each classification answer.
const criteriaMaxTokens = 60

// CriteriaService generates filter criteria with one independent model call per filter type.
type CriteriaService struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
}

// NewCriteriaService creates a new criteria generator.
// llmService may be nil; Generate then reports ErrLLMUnavailable.
func NewCriteriaService(llmService driven.LLMService) *CriteriaService {
	return &CriteriaService{llm: llmService}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *CriteriaService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// Generate produces criteria for each requested filter type. Soft failures
// (empty, malformed or off-list answers, provider errors) omit the key.
func (s *CriteriaService) Generate(
	ctx context.Context,
	fc domain.FilterContext,
	types []domain.FilterType,
	status domain.StatusFunc,
) (map[domain.FilterType]string, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if len(types) == 0 {
		types = domain.DefaultFilterTypes()
	}

	result := make(map[domain.FilterType]string, len(types))
	for _, ft := range types {
		if err := ctx.Err(); err != nil {
			return nil, domain.ContextError(err)
		}

		var (
			value string
			err   error
		)
		switch ft {
		case domain.FilterTitle:
			value, err = s.searchTerm(ctx, fc, status)
		case domain.FilterContentType:
			value, err = s.contentType(ctx, fc, status)
		case domain.FilterDiscipline:
			value, err = s.discipline(ctx, fc, status)
		case domain.FilterEducationalContext:
			value, err = s.educationalContext(ctx, fc, status)
		default:
			logger.Debug("criteria: skipping unknown filter type %q", ft)
			continue
		}

		if err != nil {
			if domain.IsCancelled(err) {
				return nil, domain.Cancelled(err)
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, domain.ContextError(ctxErr)
			}
			status.Emit(fmt.Sprintf("Could not determine %s for '%s': %v", ft, fc.ItemName, err))
			continue
		}
		if value != "" {
			result[ft] = value
		}
	}
	return result, nil
}

func (s *CriteriaService) searchTerm(
	ctx context.Context, fc domain.FilterContext, status domain.StatusFunc,
) (string, error) {
	status.Emit(fmt.Sprintf("Extracting search term for '%s'...", fc.ItemName))

	prompt := fmt.Sprintf(s.loadPrompt(driven.PromptSearchTerm),
		fc.ItemName, orUnknown(fc.ItemType), orUnknown(fc.Subject),
		orUnknown(fc.EducationalLevel), describeTask(fc.Task))
	answer, err := s.ask(ctx, prompt)
	if err != nil {
		return "", err
	}

	term := limitWords(answer, 2)
	if term == "" {
		term = strings.TrimSpace(fc.ItemName)
		status.Emit(fmt.Sprintf("No search term returned, using name '%s'", term))
		return term, nil
	}
	status.Emit(fmt.Sprintf("Search term: '%s'", term))
	return term, nil
}

func (s *CriteriaService) contentType(
	ctx context.Context, fc domain.FilterContext, status domain.StatusFunc,
) (string, error) {
	if label, ok := domain.LookupContentType(fc.ItemType); ok {
		status.Emit(fmt.Sprintf("Content type for '%s' from type '%s': %s", fc.ItemName, fc.ItemType, label))
		return label, nil
	}

	status.Emit(fmt.Sprintf("Classifying content type of '%s'...", fc.ItemName))
	options := domain.ContentTypeOptions()
	prompt := fmt.Sprintf(s.loadPrompt(driven.PromptContentType),
		fc.ItemName, orUnknown(fc.ItemType), describeTask(fc.Task), bulletList(options))
	return s.choose(ctx, prompt, options, "content type", fc.ItemName, status)
}

func (s *CriteriaService) discipline(
	ctx context.Context, fc domain.FilterContext, status domain.StatusFunc,
) (string, error) {
	if label, ok := domain.LookupDiscipline(fc.Subject); ok {
		status.Emit(fmt.Sprintf("Discipline for '%s' from subject '%s': %s", fc.ItemName, fc.Subject, label))
		return label, nil
	}

	status.Emit(fmt.Sprintf("Classifying discipline of '%s'...", fc.ItemName))
	options := domain.DisciplineOptions()
	prompt := fmt.Sprintf(s.loadPrompt(driven.PromptDiscipline),
		fc.ItemName, orUnknown(fc.Subject), describeTask(fc.Task), bulletList(options))
	return s.choose(ctx, prompt, options, "discipline", fc.ItemName, status)
}

func (s *CriteriaService) educationalContext(
	ctx context.Context, fc domain.FilterContext, status domain.StatusFunc,
) (string, error) {
	options := domain.EducationalContextOptions()
	if label, ok := domain.MatchOption(fc.EducationalLevel, options); ok {
		status.Emit(fmt.Sprintf("Educational level for '%s': %s", fc.ItemName, label))
		return label, nil
	}

	status.Emit(fmt.Sprintf("Classifying educational level of '%s'...", fc.ItemName))
	prompt := fmt.Sprintf(s.loadPrompt(driven.PromptEducationalContext),
		fc.ItemName, orUnknown(fc.EducationalLevel), bulletList(options))
	return s.choose(ctx, prompt, options, "educational level", fc.ItemName, status)
}

// choose asks the model for one option; an answer outside the list yields "".
func (s *CriteriaService) choose(
	ctx context.Context,
	prompt string,
	options []string,
	what, itemName string,
	status domain.StatusFunc,
) (string, error) {
	answer, err := s.ask(ctx, prompt)
	if err != nil {
		return "", err
	}
	label, ok := domain.MatchOption(answer, options)
	if !ok {
		status.Emit(fmt.Sprintf("No valid %s for '%s' (model answered %q)", what, itemName, answer))
		return "", nil
	}
	status.Emit(fmt.Sprintf("Chosen %s for '%s': %s", what, itemName, label))
	return label, nil
}

func (s *CriteriaService) ask(ctx context.Context, prompt string) (string, error) {
	raw, err := s.llm.Complete(ctx, driven.CompletionRequest{
		Prompt:      prompt,
		MaxTokens:   criteriaMaxTokens,
		Temperature: 0.1,
		JSON:        true,
	})
	if err != nil {
		return "", err
	}
	answer := parseAnswer(raw)
	logger.Debug("criteria: model answered %q (raw %q)", answer, raw)
	return answer, nil
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func (s *CriteriaService) loadPrompt(name string) string {
	return loadPrompt(s.promptStore, name)
}

func loadPrompt(store driven.PromptStore, name string) string {
	fallback := driven.DefaultPrompts()[name]
	if store == nil {
		return fallback
	}
	prompt, err := store.Load(name)
	if err != nil || prompt == "" {
		return fallback
	}
	return prompt
}

func describeTask(t domain.TaskContext) string {
	parts := make([]string, 0, 3)
	if t.ActivityName != "" {
		parts = append(parts, "activity "+t.ActivityName)
	}
	if t.RoleName != "" {
		parts = append(parts, "role "+t.RoleName)
	}
	if t.TaskDescription != "" {
		parts = append(parts, "task: "+t.TaskDescription)
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, ", ")
}

func bulletList(options []string) string {
	return "- " + strings.Join(options, "\n- ")
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}

func limitWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
