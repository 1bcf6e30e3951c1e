package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/didakt/internal/core/domain"
)

type repositoryFlags struct {
	environment string
	baseURL     string
	proxyURL    string
	maxItems    int
	combine     string
	rps         float64
}

var repoFlags repositoryFlags

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the language model, the content repository and the
enrichment defaults.

Use subcommands to configure specific settings or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure all settings step by step.`,
	RunE:  runSettingsWizard,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider used for criteria generation, completion and flow generation.`,
	RunE:  runSettingsLLM,
}

var settingsRepositoryCmd = &cobra.Command{
	Use:   "repository",
	Short: "Configure the content repository",
	Long: `Configure the WirLernenOnline search endpoint and search defaults.

Without flags an interactive prompt is shown. With flags only the given
values are changed.`,
	RunE: runSettingsRepository,
}

func init() {
	f := settingsRepositoryCmd.Flags()
	f.StringVar(&repoFlags.environment, "environment", "", "production or staging")
	f.StringVar(&repoFlags.baseURL, "base-url", "", "explicit endpoint overriding the environment")
	f.StringVar(&repoFlags.proxyURL, "proxy", "", "HTTP proxy for search requests")
	f.IntVar(&repoFlags.maxItems, "max-items", 0, "maximum results per resource")
	f.StringVar(&repoFlags.combine, "combine", "", "combine criteria with AND or OR")
	f.Float64Var(&repoFlags.rps, "rate", 0, "search requests per second")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsRepositoryCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	// LLM settings
	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	if settings.LLM.Provider.RequiresAPIKey() {
		if settings.LLM.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.LLM.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !settings.LLM.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	// Repository settings
	repo := settings.Repository
	cmd.Println("[Repository]")
	cmd.Printf("  Environment: %s\n", repo.Environment.Description())
	if repo.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", repo.BaseURL)
	}
	if repo.ProxyURL != "" {
		cmd.Printf("  Proxy: %s\n", repo.ProxyURL)
	}
	cmd.Printf("  Max items: %d\n", repo.MaxItems)
	cmd.Printf("  Combine mode: %s\n", repo.CombineMode)
	cmd.Printf("  Requests per second: %g\n", repo.RequestsPerSecond)
	cmd.Println()

	// Enrichment settings
	cmd.Println("[Enrichment]")
	cmd.Printf("  Batch size: %d\n", settings.Enrichment.BatchSize)
	cmd.Printf("  Item timeout: %s\n", settings.Enrichment.ItemTimeout)
	names := make([]string, len(settings.Enrichment.FilterTypes))
	for i, ft := range settings.Enrichment.FilterTypes {
		names[i] = ft.String()
	}
	cmd.Printf("  Filter types: %s\n", strings.Join(names, ", "))
	cmd.Println()

	// Validation
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'didakt settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("didakt Settings Wizard")
	cmd.Println("======================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Configure LLM Provider")
	cmd.Println("------------------------------")
	cmd.Println("Criteria generation, completion and flow generation need a language model.")
	cmd.Println()
	if err := configureLLMProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Step 2: Configure Content Repository")
	cmd.Println("------------------------------------")
	if err := configureRepository(cmd, reader); err != nil {
		return err
	}

	// Final validation
	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureLLMProvider(cmd, reader)
}

func runSettingsRepository(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if repoFlags == (repositoryFlags{}) {
		reader := bufio.NewReader(cmd.InOrStdin())
		return configureRepository(cmd, reader)
	}

	repo := domain.RepositorySettings{
		Environment:       domain.RepositoryEnvironment(repoFlags.environment),
		BaseURL:           repoFlags.baseURL,
		ProxyURL:          repoFlags.proxyURL,
		MaxItems:          repoFlags.maxItems,
		RequestsPerSecond: repoFlags.rps,
	}
	if repoFlags.combine != "" {
		mode, ok := domain.ParseCombineMode(repoFlags.combine)
		if !ok {
			return fmt.Errorf("%w: --combine must be AND or OR, got %q", domain.ErrInvalidInput, repoFlags.combine)
		}
		repo.CombineMode = mode
	}
	if err := settingsService.SetRepository(repo); err != nil {
		return fmt.Errorf("failed to configure repository: %w", err)
	}
	cmd.Println("Repository settings saved.")
	return nil
}

func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultLLMModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

func configureRepository(cmd *cobra.Command, reader *bufio.Reader) error {
	current, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Select Repository Environment")
	envs := []domain.RepositoryEnvironment{domain.RepositoryProduction, domain.RepositoryStaging}
	defaultEnv := 1
	for i, env := range envs {
		cmd.Printf("  %d. %s\n", i+1, env.Description())
		if env == current.Repository.Environment {
			defaultEnv = i + 1
		}
	}
	cmd.Printf("\nEnter choice [%d]: ", defaultEnv)
	env := envs[parseChoice(readLine(reader), len(envs), defaultEnv)-1]

	cmd.Printf("Maximum results per resource [%d]: ", current.Repository.MaxItems)
	maxItems := current.Repository.MaxItems
	if input := readLine(reader); input != "" {
		n, err := strconv.Atoi(input)
		if err != nil || n < 1 {
			return fmt.Errorf("%w: max items must be a positive number", domain.ErrInvalidInput)
		}
		maxItems = n
	}

	cmd.Printf("Combine criteria with AND or OR [%s]: ", current.Repository.CombineMode)
	mode := current.Repository.CombineMode
	if input := readLine(reader); input != "" {
		parsed, ok := domain.ParseCombineMode(input)
		if !ok {
			return fmt.Errorf("%w: combine mode must be AND or OR", domain.ErrInvalidInput)
		}
		mode = parsed
	}

	cmd.Print("HTTP proxy (empty for a direct connection): ")
	proxy := readLine(reader)

	repo := domain.RepositorySettings{
		Environment: env,
		ProxyURL:    proxy,
		MaxItems:    maxItems,
		CombineMode: mode,
	}
	if err := settingsService.SetRepository(repo); err != nil {
		return fmt.Errorf("failed to configure repository: %w", err)
	}

	cmd.Printf("Repository configured: %s, %d result(s), %s\n\n", env.Description(), maxItems, mode)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo from a terminal and falls back to reader.
func readPassword(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
