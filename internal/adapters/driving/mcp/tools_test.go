package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/didakt/internal/core/domain"
	"github.com/custodia-labs/didakt/internal/core/services"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	if ports.Validator == nil {
		ports.Validator = services.NewTemplateValidator()
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func templateArg(t *testing.T) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(testTemplateJSON), &doc))
	return doc
}

func TestHandleValidate_Valid(t *testing.T) {
	server := newTestServer(t, &Ports{})

	_, out, err := server.handleValidate(context.Background(), nil, ValidateInput{
		Text: "```json\n" + testTemplateJSON + "\n```",
	})

	require.NoError(t, err)
	assert.True(t, out.Valid)
	assert.Nil(t, out.Error)
	doc, ok := out.Template.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, doc, "environments")
}

func TestHandleValidate_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantKind string
	}{
		{"not json", "no template here", string(domain.ValidationParse)},
		{"missing sections", `{"metadata": {}}`, string(domain.ValidationSchema)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, &Ports{})

			_, out, err := server.handleValidate(context.Background(), nil, ValidateInput{Text: tt.text})

			require.NoError(t, err)
			assert.False(t, out.Valid)
			assert.Nil(t, out.Template)
			require.NotNil(t, out.Error)
			assert.Equal(t, tt.wantKind, out.Error.Kind)
			assert.NotEmpty(t, out.Error.Message)
		})
	}
}

func TestHandleValidate_ReportsIssues(t *testing.T) {
	server := newTestServer(t, &Ports{})

	_, out, err := server.handleValidate(context.Background(), nil, ValidateInput{Text: `{"metadata": {}}`})

	require.NoError(t, err)
	require.NotNil(t, out.Error)
	paths := make([]string, len(out.Error.Issues))
	for i, issue := range out.Error.Issues {
		paths[i] = issue.Path
	}
	assert.Contains(t, paths, domain.SectionEnvironments)
	assert.NotContains(t, paths, domain.SectionMetadata)
}

func TestHandleGenerateCriteria(t *testing.T) {
	criteria := &mockCriteria{filters: map[domain.FilterType]string{
		domain.FilterTitle:      "Vulkane",
		domain.FilterDiscipline: "http://w3id.org/openeduhub/vocabs/discipline/220",
	}}
	server := newTestServer(t, &Ports{Criteria: criteria})

	_, out, err := server.handleGenerateCriteria(context.Background(), nil, CriteriaInput{
		Name:        "Vulkankarte",
		Type:        "Arbeitsblatt",
		Kind:        "tool",
		Subject:     "Geografie",
		Activity:    "Einstieg",
		FilterTypes: []string{"title", "discipline", "bogus"},
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		domain.PropertyTitle:      "Vulkane",
		domain.PropertyDiscipline: "http://w3id.org/openeduhub/vocabs/discipline/220",
	}, out.Criteria)
	assert.Equal(t, []string{"generating criteria for Vulkankarte"}, out.Status)
	assert.Equal(t, domain.KindTool, criteria.gotCtx.Kind)
	assert.Equal(t, "Einstieg", criteria.gotCtx.Task.ActivityName)
	assert.Equal(t, []domain.FilterType{domain.FilterTitle, domain.FilterDiscipline}, criteria.gotType)
}

func TestHandleGenerateCriteria_Defaults(t *testing.T) {
	criteria := &mockCriteria{}
	server := newTestServer(t, &Ports{Criteria: criteria})

	_, out, err := server.handleGenerateCriteria(context.Background(), nil, CriteriaInput{Name: "Karte"})

	require.NoError(t, err)
	assert.NotNil(t, out.Criteria)
	assert.Empty(t, out.Criteria)
	assert.Equal(t, domain.KindMaterial, criteria.gotCtx.Kind)
	assert.Equal(t, domain.DefaultFilterTypes(), criteria.gotType)
}

func TestHandleGenerateCriteria_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input CriteriaInput
	}{
		{"missing name", CriteriaInput{}},
		{"unknown kind", CriteriaInput{Name: "Karte", Kind: "gadget"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, &Ports{Criteria: &mockCriteria{}})

			_, _, err := server.handleGenerateCriteria(context.Background(), nil, tt.input)

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestHandleGenerateCriteria_Error(t *testing.T) {
	server := newTestServer(t, &Ports{Criteria: &mockCriteria{err: domain.ErrMissingCredential}})

	_, _, err := server.handleGenerateCriteria(context.Background(), nil, CriteriaInput{Name: "Karte"})

	assert.ErrorIs(t, err, domain.ErrMissingCredential)
}

func TestHandleEnrich(t *testing.T) {
	enricher := &mockEnricher{}
	server := newTestServer(t, &Ports{Enricher: enricher, Settings: &mockSettings{}})

	_, out, err := server.handleEnrich(context.Background(), nil, EnrichInput{
		Template:         templateArg(t),
		MaxItems:         3,
		CombineMode:      "or",
		GenerateCriteria: true,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, enricher.enrichCalls)
	assert.Equal(t, 3, enricher.opts.MaxItems)
	assert.Equal(t, domain.CombineOr, enricher.opts.CombineMode)
	assert.True(t, enricher.opts.GenerateCriteria)
	assert.Equal(t, 5, enricher.opts.BatchSize)
	assert.Equal(t, []string{"enriched"}, out.Status)

	data, err := json.Marshal(out.Template)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"wlo_metadata"`)
	assert.Contains(t, string(data), "Vulkanismus")
}

func TestHandleEnrich_CriteriaOnly(t *testing.T) {
	enricher := &mockEnricher{}
	server := newTestServer(t, &Ports{Enricher: enricher})

	_, out, err := server.handleEnrich(context.Background(), nil, EnrichInput{
		Template:     templateArg(t),
		CriteriaOnly: true,
		FilterTypes:  []string{"educational_context"},
	})

	require.NoError(t, err)
	assert.Equal(t, 0, enricher.enrichCalls)
	assert.Equal(t, 1, enricher.criteriaOnly)
	assert.Equal(t, []domain.FilterType{domain.FilterEducationalContext}, enricher.opts.FilterTypes)
	assert.NotNil(t, out.Status)
}

func TestHandleEnrich_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input EnrichInput
	}{
		{"missing template", EnrichInput{}},
		{"schema violation", EnrichInput{Template: map[string]any{"metadata": map[string]any{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, &Ports{Enricher: &mockEnricher{}})

			_, _, err := server.handleEnrich(context.Background(), nil, tt.input)

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestHandleEnrich_BadCombineMode(t *testing.T) {
	enricher := &mockEnricher{}
	server := newTestServer(t, &Ports{Enricher: enricher})

	_, _, err := server.handleEnrich(context.Background(), nil, EnrichInput{
		Template:    templateArg(t),
		CombineMode: "XOR",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, enricher.enrichCalls)
}

func TestHandleEnrich_Cancelled(t *testing.T) {
	server := newTestServer(t, &Ports{Enricher: &mockEnricher{err: domain.Cancelled(context.Canceled)}})

	_, _, err := server.handleEnrich(context.Background(), nil, EnrichInput{Template: templateArg(t)})

	assert.True(t, domain.IsCancelled(err))
}

func TestHandleSearch(t *testing.T) {
	searcher := &mockSearcher{result: &domain.SearchResult{Nodes: []domain.SearchNode{
		{
			Ref:        domain.SearchNodeRef{ID: "n1"},
			Properties: map[string][]string{"cclom:title": {"Vulkane der Erde"}},
		},
		{Ref: domain.SearchNodeRef{ID: "n2"}, Title: "Plattentektonik"},
	}}}
	server := newTestServer(t, &Ports{Searcher: searcher})

	_, out, err := server.handleSearch(context.Background(), nil, SearchInput{
		Criteria:    map[string]string{domain.PropertyTitle: "Vulkane"},
		MaxItems:    500,
		CombineMode: "AND",
	})

	require.NoError(t, err)
	require.Equal(t, 2, out.Count)
	assert.Equal(t, "Vulkane der Erde", out.Results[0].Title)
	assert.Equal(t, "n1", out.Results[0].NodeID)
	assert.NotNil(t, out.Results[0].Keywords)
	assert.Equal(t, "Plattentektonik", out.Results[1].Title)
	assert.Equal(t, maxSearchItemsAllowed, searcher.gotOpts.MaxItems)
	assert.Equal(t, "Vulkane", searcher.gotCriteria[domain.PropertyTitle])
}

func TestHandleSearch_NoCriteria(t *testing.T) {
	tests := []struct {
		name     string
		criteria map[string]string
	}{
		{"nil", nil},
		{"blank values", map[string]string{domain.PropertyTitle: "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &mockSearcher{}
			server := newTestServer(t, &Ports{Searcher: searcher})

			_, _, err := server.handleSearch(context.Background(), nil, SearchInput{Criteria: tt.criteria})

			assert.ErrorIs(t, err, domain.ErrNoCriteria)
			assert.Nil(t, searcher.gotCriteria)
		})
	}
}

func TestHandleSearch_Error(t *testing.T) {
	server := newTestServer(t, &Ports{Searcher: &mockSearcher{err: domain.ErrRateLimited}})

	_, _, err := server.handleSearch(context.Background(), nil, SearchInput{
		Criteria: map[string]string{domain.PropertyTitle: "Vulkane"},
	})

	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestHandleComplete(t *testing.T) {
	templates := &mockTemplates{}
	server := newTestServer(t, &Ports{Templates: templates})

	_, out, err := server.handleComplete(context.Background(), nil, CompleteInput{
		Template:     templateArg(t),
		Instructions: "Füge eine Lernphase hinzu",
	})

	require.NoError(t, err)
	assert.Equal(t, "Füge eine Lernphase hinzu", templates.gotInstructions)
	assert.NotNil(t, out.Template)
	assert.NotNil(t, out.Status)
}

func TestHandleGenerateFlow(t *testing.T) {
	templates := &mockTemplates{}
	server := newTestServer(t, &Ports{Templates: templates})

	_, out, err := server.handleGenerateFlow(context.Background(), nil, FlowInput{Template: templateArg(t)})

	require.NoError(t, err)
	assert.Equal(t, 1, templates.flowCalls)
	assert.NotNil(t, out.Template)
}

func TestHandleGenerateFlow_Error(t *testing.T) {
	server := newTestServer(t, &Ports{Templates: &mockTemplates{err: domain.ErrLLMUnavailable}})

	_, _, err := server.handleGenerateFlow(context.Background(), nil, FlowInput{Template: templateArg(t)})

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestBaseOptions_SettingsError(t *testing.T) {
	server := newTestServer(t, &Ports{Settings: &mockSettings{err: errors.New("disk on fire")}})

	opts := server.baseOptions()

	assert.Equal(t, domain.DefaultAppSettings().EnrichOptions(), opts)
}

func TestBaseOptions_StoredSettings(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Repository.MaxItems = 9
	settings.Repository.CombineMode = domain.CombineOr
	server := newTestServer(t, &Ports{Settings: &mockSettings{settings: &settings}})

	opts := server.baseOptions()

	assert.Equal(t, 9, opts.MaxItems)
	assert.Equal(t, domain.CombineOr, opts.CombineMode)
}

func TestStatusSink_WithoutRequest(t *testing.T) {
	var log domain.StatusLog

	sink := statusSink(context.Background(), nil, &log)
	sink("one")
	sink("two")

	assert.Equal(t, []string{"one", "two"}, log.Lines())
}
