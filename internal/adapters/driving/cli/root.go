// Package cli provides the cobra command tree for didakt.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/didakt/internal/core/ports/driven"
	"github.com/custodia-labs/didakt/internal/core/ports/driving"
	"github.com/custodia-labs/didakt/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

// Services used by the commands. Set once by SetServices before Execute.
var (
	validatorService driving.TemplateValidator
	criteriaService  driving.CriteriaGenerator
	enrichService    driving.ResourceEnricher
	searchService    driving.ResourceSearcher
	templateService  driving.TemplateService
	settingsService  driving.SettingsService
	templateStore    driven.TemplateStore
	promptStore      driven.PromptStore
)

// Services bundles the driving ports and the stores the commands use.
// Prompts may be nil; when it is a driven.PromptWatcher, mcp serve reloads
// edited prompts while running.
type Services struct {
	Validator driving.TemplateValidator
	Criteria  driving.CriteriaGenerator
	Enricher  driving.ResourceEnricher
	Searcher  driving.ResourceSearcher
	Templates driving.TemplateService
	Settings  driving.SettingsService
	Files     driven.TemplateStore
	Prompts   driven.PromptStore
}

// SetServices installs the services used by the commands.
func SetServices(s Services) {
	validatorService = s.Validator
	criteriaService = s.Criteria
	enrichService = s.Enricher
	searchService = s.Searcher
	templateService = s.Templates
	settingsService = s.Settings
	templateStore = s.Files
	promptStore = s.Prompts
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "didakt",
	Short: "Enrich didactic templates with open educational resources",
	Long: `didakt works on didactic template documents: JSON descriptions of a lesson
with its learning environments and the materials, tools and services they use.

It validates templates, asks a language model to complete them or to generate
their learning sequence, derives search criteria for each resource and attaches
matching content from the WirLernenOnline repository.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output to stderr")
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
