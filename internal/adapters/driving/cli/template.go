package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/didakt/internal/core/domain"
	"github.com/custodia-labs/didakt/internal/logger"
)

var (
	validateWatch        bool
	completeInstructions string
	templateOutput       string
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a template document",
	Long: `Parses a template file and checks it against the template schema.

The file may hold raw JSON or a model response with the JSON inside a fenced
code block. With --watch the file is re-validated after every save.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var completeCmd = &cobra.Command{
	Use:   "complete [file]",
	Short: "Complete a template with the language model",
	Long: `Sends the template to the configured language model, validates the answer
and prints the completed document.`,
	Args: cobra.ExactArgs(1),
	RunE: runComplete,
}

var flowCmd = &cobra.Command{
	Use:   "flow [file]",
	Short: "Generate the learning sequence of a template",
	Long: `Asks the language model for the learning sequences, phases, activities and
roles of the template. Only the solution section is replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runFlow,
}

func init() {
	validateCmd.Flags().BoolVarP(&validateWatch, "watch", "w", false, "re-validate whenever the file changes")

	completeCmd.Flags().StringVarP(&completeInstructions, "instructions", "i", "", "what the model should add or change")
	completeCmd.Flags().StringVarP(&templateOutput, "output", "o", "", "write the result to this file instead of stdout")
	flowCmd.Flags().StringVarP(&templateOutput, "output", "o", "", "write the result to this file instead of stdout")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(flowCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if templateStore == nil || validatorService == nil {
		return errors.New("template validator not configured")
	}
	path := args[0]

	data, err := templateStore.Load(path)
	if err != nil {
		return err
	}
	if !validateWatch {
		return reportValidation(cmd, data)
	}

	_ = reportValidation(cmd, data) //nolint:errcheck // reported, keep watching
	cmd.Printf("Watching %s for changes (Ctrl+C to stop)\n", path)
	return templateStore.Watch(cmd.Context(), path, func(data []byte) {
		cmd.Println()
		cmd.Printf("%s changed\n", path)
		_ = reportValidation(cmd, data) //nolint:errcheck // reported, keep watching
	})
}

// reportValidation prints the outcome of validating raw and returns the
// validation error, if any.
func reportValidation(cmd *cobra.Command, raw []byte) error {
	tmpl, err := validatorService.Validate(string(raw))
	if err != nil {
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		cmd.Printf("Invalid template (%s): %s\n", verr.Kind, verr.Message)
		for _, issue := range verr.Issues {
			cmd.Printf("  - %s: %s\n", issue.Path, issue.Message)
		}
		return err
	}

	counts := make(map[domain.ResourceKind]int)
	for _, env := range tmpl.Environments {
		for _, kind := range domain.AllResourceKinds() {
			counts[kind] += len(env.Resources(kind))
		}
	}
	cmd.Println("Template is valid.")
	if title := tmpl.Info().Title; title != "" {
		cmd.Printf("  Title: %s\n", title)
	}
	cmd.Printf("  Environments: %d\n", len(tmpl.Environments))
	cmd.Printf("  Materials: %d, Tools: %d, Services: %d\n",
		counts[domain.KindMaterial], counts[domain.KindTool], counts[domain.KindService])
	return nil
}

func runComplete(cmd *cobra.Command, args []string) error {
	if templateService == nil {
		return errors.New("template service not configured")
	}
	tmpl, err := loadTemplate(args[0])
	if err != nil {
		return err
	}

	out, err := templateService.Complete(cmd.Context(), tmpl, completeInstructions, statusSink(cmd))
	if err != nil {
		return fmt.Errorf("completion failed: %w", err)
	}
	return writeTemplate(cmd, out, templateOutput)
}

func runFlow(cmd *cobra.Command, args []string) error {
	if templateService == nil {
		return errors.New("template service not configured")
	}
	tmpl, err := loadTemplate(args[0])
	if err != nil {
		return err
	}

	out, err := templateService.GenerateFlow(cmd.Context(), tmpl, statusSink(cmd))
	if err != nil {
		return fmt.Errorf("flow generation failed: %w", err)
	}
	return writeTemplate(cmd, out, templateOutput)
}

// loadTemplate reads and validates a template file.
func loadTemplate(path string) (*domain.Template, error) {
	if templateStore == nil || validatorService == nil {
		return nil, errors.New("template validator not configured")
	}
	data, err := templateStore.Load(path)
	if err != nil {
		return nil, err
	}
	tmpl, err := validatorService.Validate(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tmpl, nil
}

// writeTemplate saves tmpl to output, or prints it as indented JSON when
// output is empty.
func writeTemplate(cmd *cobra.Command, tmpl *domain.Template, output string) error {
	if output != "" {
		if err := templateStore.Save(output, tmpl); err != nil {
			return err
		}
		cmd.PrintErrf("Wrote %s\n", output)
		return nil
	}

	data, err := json.MarshalIndent(tmpl, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// statusSink writes status lines to the command's error stream.
func statusSink(cmd *cobra.Command) domain.StatusFunc {
	return logger.StatusWriter(cmd.ErrOrStderr())
}
