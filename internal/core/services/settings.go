package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/didakt/internal/core/domain"
	"github.com/custodia-labs/didakt/internal/core/ports/driven"
	"github.com/custodia-labs/didakt/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyRepoEnvironment  = "repository.environment"
	keyRepoBaseURL      = "repository.base_url"
	keyRepoProxyURL     = "repository.proxy_url"
	keyRepoMaxItems     = "repository.max_items"
	keyRepoCombineMode  = "repository.combine_mode"
	keyRepoRate         = "repository.requests_per_second"
	keyEnrichBatchSize  = "enrichment.batch_size"
	keyEnrichTimeout    = "enrichment.item_timeout_seconds"
	keyEnrichFilterType = "enrichment.filter_types"
)

const ollamaDefaultURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Repository: domain.RepositorySettings{
			Environment:       s.getEnvironment(defaults.Repository.Environment),
			BaseURL:           s.configStore.GetString(keyRepoBaseURL),
			ProxyURL:          s.configStore.GetString(keyRepoProxyURL),
			MaxItems:          s.getInt(keyRepoMaxItems, defaults.Repository.MaxItems),
			CombineMode:       s.getCombineMode(defaults.Repository.CombineMode),
			RequestsPerSecond: s.getFloat(keyRepoRate, defaults.Repository.RequestsPerSecond),
		},
		Enrichment: domain.EnrichmentSettings{
			BatchSize:   s.getInt(keyEnrichBatchSize, defaults.Enrichment.BatchSize),
			ItemTimeout: s.getSeconds(keyEnrichTimeout, defaults.Enrichment.ItemTimeout),
			FilterTypes: s.getFilterTypes(defaults.Enrichment.FilterTypes),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	// Save LLM settings
	if err := s.configStore.Set(keyLLMProvider, settings.LLM.Provider.String()); err != nil {
		return fmt.Errorf("save llm provider: %w", err)
	}
	if err := s.configStore.Set(keyLLMModel, settings.LLM.Model); err != nil {
		return fmt.Errorf("save llm model: %w", err)
	}
	if err := s.configStore.Set(keyLLMBaseURL, settings.LLM.BaseURL); err != nil {
		return fmt.Errorf("save llm base_url: %w", err)
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	// Save repository settings
	repo := settings.Repository
	if err := s.configStore.Set(keyRepoEnvironment, repo.Environment.String()); err != nil {
		return fmt.Errorf("save repository environment: %w", err)
	}
	if err := s.configStore.Set(keyRepoBaseURL, repo.BaseURL); err != nil {
		return fmt.Errorf("save repository base_url: %w", err)
	}
	if err := s.configStore.Set(keyRepoProxyURL, repo.ProxyURL); err != nil {
		return fmt.Errorf("save repository proxy_url: %w", err)
	}
	if err := s.configStore.Set(keyRepoMaxItems, repo.MaxItems); err != nil {
		return fmt.Errorf("save repository max_items: %w", err)
	}
	if err := s.configStore.Set(keyRepoCombineMode, string(repo.CombineMode)); err != nil {
		return fmt.Errorf("save repository combine_mode: %w", err)
	}
	if err := s.configStore.Set(keyRepoRate, repo.RequestsPerSecond); err != nil {
		return fmt.Errorf("save repository requests_per_second: %w", err)
	}

	// Save enrichment settings
	enrich := settings.Enrichment
	if err := s.configStore.Set(keyEnrichBatchSize, enrich.BatchSize); err != nil {
		return fmt.Errorf("save enrichment batch_size: %w", err)
	}
	if err := s.configStore.Set(keyEnrichTimeout, int(enrich.ItemTimeout/time.Second)); err != nil {
		return fmt.Errorf("save enrichment item_timeout_seconds: %w", err)
	}
	types := make([]string, len(enrich.FilterTypes))
	for i, ft := range enrich.FilterTypes {
		types[i] = ft.String()
	}
	if err := s.configStore.Set(keyEnrichFilterType, types); err != nil {
		return fmt.Errorf("save enrichment filter_types: %w", err)
	}

	return nil
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrMissingCredential, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider

	if model != "" {
		settings.LLM.Model = model
	} else {
		defaults := domain.DefaultLLMModels()
		if defaultModel, ok := defaults[provider]; ok {
			settings.LLM.Model = defaultModel
		}
	}

	// A base URL only makes sense for the local server; switching to a
	// cloud provider drops it.
	switch {
	case !provider.IsLocal():
		settings.LLM.BaseURL = ""
	case settings.LLM.BaseURL == "":
		settings.LLM.BaseURL = ollamaDefaultURL
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetRepository configures the content repository endpoint and search defaults.
// Zero values keep the current setting.
func (s *SettingsService) SetRepository(repo domain.RepositorySettings) error {
	if repo.Environment != "" && !repo.Environment.IsValid() {
		return fmt.Errorf("invalid repository environment: %s", repo.Environment)
	}
	if repo.CombineMode != "" && !repo.CombineMode.IsValid() {
		return fmt.Errorf("invalid combine mode: %s", repo.CombineMode)
	}
	if repo.MaxItems < 0 {
		return fmt.Errorf("invalid max items: %d", repo.MaxItems)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if repo.Environment != "" {
		settings.Repository.Environment = repo.Environment
	}
	if repo.BaseURL != "" {
		settings.Repository.BaseURL = repo.BaseURL
	}
	if repo.ProxyURL != "" {
		settings.Repository.ProxyURL = repo.ProxyURL
	}
	if repo.MaxItems > 0 {
		settings.Repository.MaxItems = repo.MaxItems
	}
	if repo.CombineMode != "" {
		settings.Repository.CombineMode = repo.CombineMode
	}
	if repo.RequestsPerSecond > 0 {
		settings.Repository.RequestsPerSecond = repo.RequestsPerSecond
	}

	return s.Save(settings)
}

// Validate checks if current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Repository.Environment.IsValid() && settings.Repository.BaseURL == "" {
		return fmt.Errorf("invalid repository environment: %s", settings.Repository.Environment)
	}
	if settings.Enrichment.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", settings.Enrichment.BatchSize)
	}

	// A provider without its key is reported before any network call.
	if settings.LLM.MissingCredential() {
		return fmt.Errorf("%w: LLM provider %s requires an API key",
			domain.ErrMissingCredential, settings.LLM.Provider.Description())
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

// getFloat falls back to defaultVal for missing or non-positive values.
func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if f := s.configStore.GetFloat(key); f > 0 {
		return f
	}
	return defaultVal
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	secs := s.configStore.GetInt(key)
	if secs < 0 {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getEnvironment(defaultVal domain.RepositoryEnvironment) domain.RepositoryEnvironment {
	env := domain.RepositoryEnvironment(s.configStore.GetString(keyRepoEnvironment))
	if !env.IsValid() {
		return defaultVal
	}
	return env
}

func (s *SettingsService) getCombineMode(defaultVal domain.CombineMode) domain.CombineMode {
	val := s.configStore.GetString(keyRepoCombineMode)
	if val == "" {
		return defaultVal
	}
	mode, ok := domain.ParseCombineMode(val)
	if !ok {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getFilterTypes(defaultVal []domain.FilterType) []domain.FilterType {
	types := domain.ParseFilterTypes(s.configStore.GetStringSlice(keyEnrichFilterType))
	if len(types) == 0 {
		return defaultVal
	}
	return types
}
