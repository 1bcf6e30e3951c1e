package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/didakt/internal/adapters/driven/wlo"
	"github.com/custodia-labs/didakt/internal/core/domain"
)

// runFlags are the per-run overrides shared by enrich, criteria and search.
type runFlags struct {
	staging     bool
	maxItems    int
	combine     string
	batchSize   int
	itemTimeout time.Duration
	filters     []string
}

var (
	enrichFlags            runFlags
	enrichGenerateCriteria bool
	enrichOutput           string

	criteriaFlags  runFlags
	criteriaOutput string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich [file]",
	Short: "Attach repository content to a template",
	Long: `Searches the WirLernenOnline repository for every resource whose source is
"filter" and attaches the matches as wlo_metadata.

Resources are processed in batches: the items of one batch run concurrently,
batches run one after another. Ctrl+C stops after the current batch; the
results of finished batches are still written.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnrich,
}

var criteriaCmd = &cobra.Command{
	Use:   "criteria [file]",
	Short: "Generate search criteria for a template",
	Long: `Asks the language model for filter criteria (title, content type,
discipline, educational context) for every resource whose source is "filter"
and that has no criteria yet. Nothing is searched.`,
	Args: cobra.ExactArgs(1),
	RunE: runCriteria,
}

func init() {
	addRunFlags(enrichCmd, &enrichFlags, true)
	enrichCmd.Flags().BoolVarP(&enrichGenerateCriteria, "generate-criteria", "g", false,
		"generate criteria for resources that have none before searching")
	enrichCmd.Flags().StringVarP(&enrichOutput, "output", "o", "", "write the result to this file instead of stdout")

	criteriaCmd.Flags().IntVar(&criteriaFlags.batchSize, "batch-size", 0, "resources processed concurrently (default from settings)")
	criteriaCmd.Flags().StringSliceVar(&criteriaFlags.filters, "filters", nil,
		"filter types to generate: title, content_type, discipline, educational_context")
	criteriaCmd.Flags().StringVarP(&criteriaOutput, "output", "o", "", "write the result to this file instead of stdout")

	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(criteriaCmd)
}

// addRunFlags registers the search overrides on cmd. Batch flags are only
// added to commands that run the batch orchestrator.
func addRunFlags(cmd *cobra.Command, f *runFlags, batch bool) {
	cmd.Flags().BoolVar(&f.staging, "staging", false, "search the staging repository")
	cmd.Flags().IntVarP(&f.maxItems, "max-items", "n", 0, "maximum results per resource (default from settings)")
	cmd.Flags().StringVar(&f.combine, "combine", "", "combine criteria with AND or OR (default from settings)")
	if batch {
		cmd.Flags().IntVar(&f.batchSize, "batch-size", 0, "resources processed concurrently (default from settings)")
		cmd.Flags().DurationVar(&f.itemTimeout, "item-timeout", 0, "time limit per resource, e.g. 90s (default from settings)")
		cmd.Flags().StringSliceVar(&f.filters, "filters", nil,
			"filter types to generate: title, content_type, discipline, educational_context")
	}
}

// options merges the stored settings with the flags of a single run.
func (f runFlags) options() (domain.EnrichOptions, error) {
	settings := domain.DefaultAppSettings()
	if settingsService != nil {
		stored, err := settingsService.Get()
		if err != nil {
			return domain.EnrichOptions{}, fmt.Errorf("failed to get settings: %w", err)
		}
		settings = *stored
	}
	opts := settings.EnrichOptions()

	if f.staging {
		opts.Endpoint = wlo.StagingBaseURL
	}
	if f.maxItems > 0 {
		opts.MaxItems = f.maxItems
	}
	if f.combine != "" {
		mode, ok := domain.ParseCombineMode(f.combine)
		if !ok {
			return opts, fmt.Errorf("%w: --combine must be AND or OR, got %q", domain.ErrInvalidInput, f.combine)
		}
		opts.CombineMode = mode
	}
	if f.batchSize > 0 {
		opts.BatchSize = f.batchSize
	}
	if f.itemTimeout > 0 {
		opts.ItemTimeout = f.itemTimeout
	}
	if len(f.filters) > 0 {
		types := domain.ParseFilterTypes(f.filters)
		if len(types) == 0 {
			return opts, fmt.Errorf("%w: no known filter type in %v", domain.ErrInvalidInput, f.filters)
		}
		opts.FilterTypes = types
	}
	return opts, nil
}

func runEnrich(cmd *cobra.Command, args []string) error {
	if enrichService == nil {
		return errors.New("enrichment service not configured")
	}
	opts, err := enrichFlags.options()
	if err != nil {
		return err
	}
	opts.GenerateCriteria = enrichGenerateCriteria

	tmpl, err := loadTemplate(args[0])
	if err != nil {
		return err
	}

	out, err := enrichService.EnrichTemplate(cmd.Context(), tmpl, statusSink(cmd), opts)
	return finishRun(cmd, out, err, enrichOutput, "enrichment")
}

func runCriteria(cmd *cobra.Command, args []string) error {
	if enrichService == nil {
		return errors.New("enrichment service not configured")
	}
	opts, err := criteriaFlags.options()
	if err != nil {
		return err
	}

	tmpl, err := loadTemplate(args[0])
	if err != nil {
		return err
	}

	out, err := enrichService.GenerateCriteria(cmd.Context(), tmpl, statusSink(cmd), opts)
	return finishRun(cmd, out, err, criteriaOutput, "criteria generation")
}

// finishRun writes the result of a batch run. A cancelled run still writes
// the batches that completed before reporting the cancellation.
func finishRun(cmd *cobra.Command, out *domain.Template, runErr error, output, what string) error {
	if runErr != nil && !(domain.IsCancelled(runErr) && out != nil) {
		return fmt.Errorf("%s failed: %w", what, runErr)
	}
	if err := writeTemplate(cmd, out, output); err != nil {
		return err
	}
	if runErr != nil {
		cmd.PrintErrf("%s cancelled; completed batches were kept\n", what)
		return runErr
	}
	return nil
}
