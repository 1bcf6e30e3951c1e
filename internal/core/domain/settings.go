package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an LLM service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// MissingCredential reports a valid provider that lacks its API key.
func (l LLMSettings) MissingCredential() bool {
	return l.Provider.IsValid() && l.Provider.RequiresAPIKey() && l.APIKey == ""
}

// RepositoryEnvironment selects one of the well-known search endpoints.
type RepositoryEnvironment string

// Available repository environments.
const (
	RepositoryProduction RepositoryEnvironment = "production"
	RepositoryStaging    RepositoryEnvironment = "staging"
)

// IsValid returns true if the environment is recognised.
func (e RepositoryEnvironment) IsValid() bool {
	return e == RepositoryProduction || e == RepositoryStaging
}

// String returns the string representation.
func (e RepositoryEnvironment) String() string {
	return string(e)
}

// Description returns a human-readable description of the environment.
func (e RepositoryEnvironment) Description() string {
	switch e {
	case RepositoryProduction:
		return "Production"
	case RepositoryStaging:
		return "Staging"
	default:
		return unknownDescription
	}
}

// RepositorySettings configures the content repository search client.
type RepositorySettings struct {
	// Environment picks the production or staging endpoint.
	Environment RepositoryEnvironment

	// BaseURL overrides the environment's endpoint when set.
	BaseURL string

	// ProxyURL routes search calls through an explicit HTTP proxy.
	ProxyURL string

	// MaxItems caps results per resource.
	MaxItems int

	// CombineMode joins filter constraints.
	CombineMode CombineMode

	// RequestsPerSecond is the sustained search request rate.
	RequestsPerSecond float64
}

// EnrichmentSettings configures the batch orchestrator.
type EnrichmentSettings struct {
	// BatchSize is the number of resources enriched concurrently.
	BatchSize int

	// ItemTimeout bounds a single resource's enrichment. Zero disables it.
	ItemTimeout time.Duration

	// FilterTypes are generated for each resource.
	FilterTypes []FilterType
}

// AppSettings holds all application settings.
type AppSettings struct {
	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Repository holds content repository settings.
	Repository RepositorySettings

	// Enrichment holds batch orchestration settings.
	Enrichment EnrichmentSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The LLM is left unconfigured by default.
// Users must explicitly configure it via settings llm.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{},
		Repository: RepositorySettings{
			Environment:       RepositoryProduction,
			MaxItems:          DefaultMaxItems,
			CombineMode:       CombineAnd,
			RequestsPerSecond: 5,
		},
		Enrichment: EnrichmentSettings{
			BatchSize:   5,
			ItemTimeout: 60 * time.Second,
			FilterTypes: DefaultFilterTypes(),
		},
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EnrichOptions configures one enrichment run.
type EnrichOptions struct {
	// Endpoint overrides the repository base URL for this run.
	Endpoint string

	// MaxItems caps results per resource.
	MaxItems int

	// CombineMode joins filter constraints.
	CombineMode CombineMode

	// BatchSize overrides the default batch size when positive.
	BatchSize int

	// ItemTimeout bounds each resource's enrichment. Zero disables it.
	ItemTimeout time.Duration

	// GenerateCriteria fills empty filter criteria before searching.
	GenerateCriteria bool

	// FilterTypes are generated when GenerateCriteria is set.
	FilterTypes []FilterType

	// Subject and EducationalLevel seed each resource's FilterContext.
	Subject          string
	EducationalLevel string

	// Tasks maps resource IDs to the activity/role that uses them.
	Tasks map[string]TaskContext
}

// EnrichOptions returns run options seeded from the stored settings.
// Callers override single fields for one run.
func (s AppSettings) EnrichOptions() EnrichOptions {
	return EnrichOptions{
		MaxItems:    s.Repository.MaxItems,
		CombineMode: s.Repository.CombineMode,
		BatchSize:   s.Enrichment.BatchSize,
		ItemTimeout: s.Enrichment.ItemTimeout,
		FilterTypes: append([]FilterType(nil), s.Enrichment.FilterTypes...),
	}
}
