package driven

import "context"

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptSearchTerm extracts a 1-2 word core topic from a resource.
	// Placeholders: %s item name, %s item type, %s subject, %s level, %s task context.
	PromptSearchTerm = "search_term"

	// PromptContentType picks a content type label from an option list.
	// Placeholders: %s item name, %s item type, %s task context, %s options.
	PromptContentType = "content_type"

	// PromptDiscipline picks a discipline label from an option list.
	// Placeholders: %s item name, %s subject, %s task context, %s options.
	PromptDiscipline = "discipline"

	// PromptEducationalContext picks an educational level label from an option list.
	// Placeholders: %s item name, %s level, %s options.
	PromptEducationalContext = "educational_context"

	// PromptTemplateComplete completes a template document.
	// Placeholders: %s current template JSON, %s user instructions.
	PromptTemplateComplete = "template_complete"

	// PromptFlowGenerate generates the sequence/phase/activity/role tree.
	// Placeholders: %s current template JSON.
	PromptFlowGenerate = "flow_generate"
)

// PromptStoreAware is implemented by services whose prompts can be
// overridden. Without a store they use DefaultPrompts.
type PromptStoreAware interface {
	SetPromptStore(store PromptStore)
}

// PromptWatcher is implemented by stores that can notice prompt edits
// while a long-running server is up. Watch blocks until ctx is done.
type PromptWatcher interface {
	Watch(ctx context.Context) error
}
