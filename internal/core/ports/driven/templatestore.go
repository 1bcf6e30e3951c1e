package driven

import (
	"context"

	"github.com/custodia-labs/didakt/internal/core/domain"
)

// TemplateStore loads and saves template documents.
type TemplateStore interface {
	// Load reads the raw bytes of a template document.
	Load(path string) ([]byte, error)

	// Save writes a template document.
	Save(path string, tmpl *domain.Template) error

	// Watch calls onChange with the file's bytes after every write until ctx is done.
	Watch(ctx context.Context, path string, onChange func([]byte)) error
}
