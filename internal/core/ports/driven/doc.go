// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ContentRepository: Searches the external educational content repository
//   - ConfigStore: Application configuration
//   - TemplateStore: Loads and saves template documents
//   - IDGenerator: Allocates identifiers for resources that lack one
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Language model completion. Without it, criteria generation,
//     completion and flow generation report ErrLLMUnavailable.
//   - PromptStore: User-editable prompts. Without it, embedded defaults are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
