package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/didakt/internal/adapters/driven/wlo"
	"github.com/custodia-labs/didakt/internal/core/domain"
)

func resetEnrichFlags() {
	enrichFlags = runFlags{}
	enrichGenerateCriteria = false
	enrichOutput = ""
	criteriaFlags = runFlags{}
	criteriaOutput = ""
}

func TestEnrichCmd_Flags(t *testing.T) {
	for _, name := range []string{
		"staging", "max-items", "combine", "batch-size", "item-timeout", "filters", "generate-criteria", "output",
	} {
		assert.NotNil(t, enrichCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "g", enrichCmd.Flags().Lookup("generate-criteria").Shorthand)
}

func TestEnrichCmd_UsesSettingsDefaults(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	path := writeTemplateFile(t, testTemplateJSON)

	out := new(bytes.Buffer)
	status := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(status)
	rootCmd.SetArgs([]string{"enrich", path})
	defer func() {
		rootCmd.SetArgs(nil)
		resetEnrichFlags()
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings().EnrichOptions(), testEnricher.opts)
	assert.Contains(t, out.String(), `"wlo_metadata"`)
	assert.Contains(t, out.String(), "Vulkanismus")
	assert.Contains(t, status.String(), "[Karte] Found 1 result(s)")
}

func TestEnrichCmd_FlagsOverrideSettings(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	path := writeTemplateFile(t, testTemplateJSON)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{
		"enrich", path,
		"--staging", "--max-items", "8", "--combine", "OR", "--batch-size", "2",
		"--item-timeout", "90s", "--filters", "title,educational_context", "-g",
	})
	defer func() {
		rootCmd.SetArgs(nil)
		resetEnrichFlags()
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	opts := testEnricher.opts
	assert.Equal(t, wlo.StagingBaseURL, opts.Endpoint)
	assert.Equal(t, 8, opts.MaxItems)
	assert.Equal(t, domain.CombineOr, opts.CombineMode)
	assert.Equal(t, 2, opts.BatchSize)
	assert.Equal(t, 90*time.Second, opts.ItemTimeout)
	assert.Equal(t, []domain.FilterType{domain.FilterTitle, domain.FilterEducationalContext}, opts.FilterTypes)
	assert.True(t, opts.GenerateCriteria)
}

func TestEnrichCmd_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"combine", []string{"--combine", "XOR"}},
		{"filters", []string{"--filters", "colour,size"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestServices()
			defer cleanup()
			path := writeTemplateFile(t, testTemplateJSON)

			buf := new(bytes.Buffer)
			rootCmd.SetOut(buf)
			rootCmd.SetErr(buf)
			rootCmd.SetArgs(append([]string{"enrich", path}, tt.args...))
			defer func() {
				rootCmd.SetArgs(nil)
				resetEnrichFlags()
			}()

			err := rootCmd.Execute()

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Equal(t, 0, testEnricher.calls)
		})
	}
}

func TestEnrichCmd_WritesOutputFile(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	path := writeTemplateFile(t, testTemplateJSON)
	output := filepath.Join(t.TempDir(), "enriched.json")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"enrich", path, "-o", output})
	defer func() {
		rootCmd.SetArgs(nil)
		resetEnrichFlags()
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Vulkanismus")
	assert.NotContains(t, buf.String(), `"environments"`)
}

func TestEnrichCmd_CancelledKeepsCompletedBatches(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testEnricher.err = domain.Cancelled(context.Canceled)
	testEnricher.partial = true
	path := writeTemplateFile(t, testTemplateJSON)
	output := filepath.Join(t.TempDir(), "partial.json")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"enrich", path, "-o", output})
	defer func() {
		rootCmd.SetArgs(nil)
		resetEnrichFlags()
	}()

	err := rootCmd.Execute()

	assert.True(t, domain.IsCancelled(err))
	data, readErr := os.ReadFile(output)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "Vulkanismus")
	assert.Contains(t, buf.String(), "enrichment cancelled")
}

func TestEnrichCmd_Failure(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testEnricher.err = errors.New("boom")
	path := writeTemplateFile(t, testTemplateJSON)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"enrich", path})
	defer func() {
		rootCmd.SetArgs(nil)
		resetEnrichFlags()
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "enrichment failed: boom")
}

func TestEnrichCmd_SettingsError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testSettings.err = errors.New("config unreadable")
	path := writeTemplateFile(t, testTemplateJSON)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"enrich", path})
	defer func() {
		rootCmd.SetArgs(nil)
		resetEnrichFlags()
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "config unreadable")
	assert.Equal(t, 0, testEnricher.calls)
}

func TestCriteriaCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	path := writeTemplateFile(t, testTemplateJSON)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"criteria", path, "--filters", "discipline", "--batch-size", "3"})
	defer func() {
		rootCmd.SetArgs(nil)
		resetEnrichFlags()
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"filter_criteria"`)
	assert.Contains(t, buf.String(), `"cclom:title": "Vulkane"`)
	assert.Equal(t, []domain.FilterType{domain.FilterDiscipline}, testEnricher.opts.FilterTypes)
	assert.Equal(t, 3, testEnricher.opts.BatchSize)
}

func TestCriteriaCmd_LLMUnavailable(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testEnricher.err = domain.ErrLLMUnavailable
	path := writeTemplateFile(t, testTemplateJSON)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"criteria", path})
	defer func() {
		rootCmd.SetArgs(nil)
		resetEnrichFlags()
	}()

	err := rootCmd.Execute()

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, err.Error(), "criteria generation failed")
}

func TestRunFlagsOptions_WithoutSettingsService(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	settingsService = nil

	opts, err := runFlags{maxItems: 4}.options()

	require.NoError(t, err)
	assert.Equal(t, 4, opts.MaxItems)
	assert.Equal(t, domain.DefaultAppSettings().Enrichment.BatchSize, opts.BatchSize)
}
