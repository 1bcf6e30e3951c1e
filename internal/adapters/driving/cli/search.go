package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/didakt/internal/core/domain"
	"github.com/custodia-labs/didakt/internal/core/services"
)

var (
	searchFlags       runFlags
	searchJSON        bool
	searchContentType string
	searchDiscipline  string
	searchEducational string
	searchProperties  map[string]string
)

var searchCmd = &cobra.Command{
	Use:   "search [title]",
	Short: "Search the WirLernenOnline repository",
	Long: `Searches the WirLernenOnline repository directly, without a template.

The optional argument is matched against titles. The other criteria are
repository vocabulary URIs or labels, or raw properties given as
--property name=value.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	addRunFlags(searchCmd, &searchFlags, false)
	searchCmd.Flags().StringVar(&searchContentType, "content-type", "", "content type criterion")
	searchCmd.Flags().StringVar(&searchDiscipline, "discipline", "", "discipline criterion")
	searchCmd.Flags().StringVar(&searchEducational, "educational-context", "", "educational context criterion")
	searchCmd.Flags().StringToStringVarP(&searchProperties, "property", "p", nil, "raw repository property criterion (name=value)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	criteria := searchCriteria(args)
	if len(criteria) == 0 {
		return fmt.Errorf("%w: give a title or at least one criterion flag", domain.ErrNoCriteria)
	}
	opts, err := searchFlags.options()
	if err != nil {
		return err
	}

	result, err := searchService.Search(cmd.Context(), criteria, opts, statusSink(cmd))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	results := make([]domain.Metadata, len(result.Nodes))
	for i, node := range result.Nodes {
		results[i] = services.ExtractMetadata(node)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

// searchCriteria builds the property-keyed criteria from args and flags.
func searchCriteria(args []string) map[string]string {
	filters := make(map[domain.FilterType]string)
	if len(args) == 1 {
		filters[domain.FilterTitle] = args[0]
	}
	filters[domain.FilterContentType] = searchContentType
	filters[domain.FilterDiscipline] = searchDiscipline
	filters[domain.FilterEducationalContext] = searchEducational

	criteria := domain.CriteriaFromFilters(filters)
	for name, value := range searchProperties {
		if name != "" && value != "" {
			criteria[name] = value
		}
	}
	return criteria
}

func outputSearchJSON(cmd *cobra.Command, results []domain.Metadata) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.Metadata) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		md := &results[i]
		cmd.Printf("  [%d] %s\n", i+1, md.Title)
		cmd.Printf("      Type: %s\n", md.ResourceType)
		if md.Subject != "" {
			cmd.Printf("      Subject: %s\n", md.Subject)
		}
		if desc := descriptionPreview(md.Description, descriptionPreviewRunes); desc != "" {
			cmd.Printf("      %s\n", desc)
		}
		if md.WWWURL != nil {
			cmd.Printf("      URL: %s\n", *md.WWWURL)
		}
		cmd.Println()
	}
	return nil
}
