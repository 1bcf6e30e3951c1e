// Command didakt validates didactic templates and enriches their resources
// with content from the WirLernenOnline repository.
package main

import (
	"fmt"
	"os"

	"github.com/custodia-labs/didakt/internal/adapters/driven/ai"
	"github.com/custodia-labs/didakt/internal/adapters/driven/config/file"
	"github.com/custodia-labs/didakt/internal/adapters/driven/idgen"
	"github.com/custodia-labs/didakt/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/didakt/internal/adapters/driven/templatefile"
	"github.com/custodia-labs/didakt/internal/adapters/driven/wlo"
	"github.com/custodia-labs/didakt/internal/adapters/driving/cli"
	"github.com/custodia-labs/didakt/internal/core/domain"
	"github.com/custodia-labs/didakt/internal/core/ports/driven"
	"github.com/custodia-labs/didakt/internal/core/services"
	"github.com/custodia-labs/didakt/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	var store driven.ConfigStore
	fileStore, err := file.NewConfigStore("")
	if err != nil {
		logger.Warn("config directory unavailable, settings will not persist: %v", err)
		store = memory.NewConfigStore()
	} else {
		store = fileStore
	}

	settingsService := services.NewSettingsService(store, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	var prompts driven.PromptStore
	if promptStore, err := file.NewPromptStore(""); err != nil {
		logger.Warn("prompt directory unavailable, using built-in prompts: %v", err)
	} else {
		prompts = promptStore
	}

	llm := ai.Init(&settings.LLM, prompts)
	defer llm.Close()
	for _, w := range llm.Warnings {
		fmt.Fprintln(os.Stderr, "Warning:", w)
	}

	repo, err := wlo.NewClient(wloConfig(settings.Repository))
	if err != nil {
		return fmt.Errorf("failed to create repository client: %w", err)
	}

	validator := services.NewTemplateValidator()
	criteria := services.NewCriteriaService(llm.LLMService)
	templates := services.NewTemplateWorkflowService(llm.LLMService, validator)
	if llm.PromptStore != nil {
		for _, svc := range []driven.PromptStoreAware{criteria, templates} {
			svc.SetPromptStore(llm.PromptStore)
		}
	}
	searcher := services.NewResourceSearchService(repo)

	cli.SetServices(cli.Services{
		Validator: validator,
		Criteria:  criteria,
		Enricher:  services.NewEnrichmentService(criteria, searcher, idgen.UUIDGenerator{}),
		Searcher:  searcher,
		Templates: templates,
		Settings:  settingsService,
		Files:     templatefile.NewStore(),
		Prompts:   llm.PromptStore,
	})
	cli.SetVersion(version)

	return cli.Execute()
}

// wloConfig maps the stored repository settings onto the client config.
func wloConfig(repo domain.RepositorySettings) wlo.Config {
	baseURL := repo.BaseURL
	if baseURL == "" {
		baseURL = wlo.BaseURLFor(repo.Environment)
	}
	return wlo.Config{
		BaseURL:           baseURL,
		ProxyURL:          repo.ProxyURL,
		RequestsPerSecond: repo.RequestsPerSecond,
	}
}
