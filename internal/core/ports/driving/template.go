package driving

import (
	"context"

	"github.com/custodia-labs/didakt/internal/core/domain"
)

// TemplateValidator turns language-model output into a template document.
type TemplateValidator interface {
	// Validate parses raw text, unwrapping a fenced JSON block if needed, and
	// checks it against the template schema. Failures are *domain.ValidationError.
	Validate(raw string) (*domain.Template, error)
}

// TemplateService runs the language-model workflows on whole documents.
type TemplateService interface {
	// Complete asks the model to complete the template following instructions.
	Complete(
		ctx context.Context,
		tmpl *domain.Template,
		instructions string,
		status domain.StatusFunc,
	) (*domain.Template, error)

	// GenerateFlow asks the model for the solution tree and replaces only the
	// solution section of the returned copy.
	GenerateFlow(
		ctx context.Context,
		tmpl *domain.Template,
		status domain.StatusFunc,
	) (*domain.Template, error)
}
