package driving

import "github.com/custodia-labs/didakt/internal/core/domain"

// SettingsService reads and updates the persisted settings. Unset keys
// read as domain.DefaultAppSettings.
type SettingsService interface {
	Get() (*domain.AppSettings, error)
	Save(settings *domain.AppSettings) error

	// SetLLMProvider stores provider, model and key. An empty model selects
	// the provider default; cloud providers require apiKey.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// SetRepository stores endpoint and search defaults; zero fields keep
	// their stored values.
	SetRepository(repo domain.RepositorySettings) error

	// Validate reports settings that cannot work, such as a cloud provider
	// without a key.
	Validate() error
	GetDefaults() domain.AppSettings

	// ValidateLLMConfig contacts the configured provider once.
	ValidateLLMConfig() error
}
