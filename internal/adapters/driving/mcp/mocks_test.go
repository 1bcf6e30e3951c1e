package mcp

import (
	"context"

	"github.com/custodia-labs/didakt/internal/core/domain"
)

const testTemplateJSON = `{
  "metadata": {"title": "Vulkane erkunden"},
  "problem": {"description": "Wie entstehen Vulkane?"},
  "context": {"subject": "Geografie"},
  "influence_factors": [],
  "solution": {"didactic_template": {"learning_sequences": []}},
  "consequences": {},
  "implementation_notes": [],
  "related_patterns": [],
  "feedback": {},
  "sources": [],
  "actors": [],
  "environments": [
    {
      "environment_id": "env-1",
      "name": "Klassenraum",
      "materials": [{"material_id": "m1", "name": "Karte", "source": "filter"}],
      "tools": [],
      "services": []
    }
  ]
}`

// mockCriteria is a mock implementation of driving.CriteriaGenerator.
type mockCriteria struct {
	filters map[domain.FilterType]string
	err     error
	gotCtx  domain.FilterContext
	gotType []domain.FilterType
}

func (m *mockCriteria) Generate(
	_ context.Context,
	fc domain.FilterContext,
	types []domain.FilterType,
	status domain.StatusFunc,
) (map[domain.FilterType]string, error) {
	m.gotCtx = fc
	m.gotType = types
	status.Emit("generating criteria for " + fc.ItemName)
	return m.filters, m.err
}

// mockEnricher is a mock implementation of driving.ResourceEnricher.
type mockEnricher struct {
	err          error
	opts         domain.EnrichOptions
	enrichCalls  int
	criteriaOnly int
}

func (m *mockEnricher) Process(
	_ context.Context,
	resources []domain.Resource,
	_ domain.ResourceKind,
	_ domain.StatusFunc,
	opts domain.EnrichOptions,
) ([]domain.Resource, error) {
	m.opts = opts
	return resources, m.err
}

func (m *mockEnricher) EnrichTemplate(
	_ context.Context,
	tmpl *domain.Template,
	status domain.StatusFunc,
	opts domain.EnrichOptions,
) (*domain.Template, error) {
	m.enrichCalls++
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	status.Emit("enriched")
	out := tmpl.Clone()
	for i := range out.Environments {
		for j := range out.Environments[i].Materials {
			out.Environments[i].Materials[j].WLOMetadata = []domain.Metadata{{Title: "Vulkanismus", Keywords: []string{}}}
		}
	}
	return out, nil
}

func (m *mockEnricher) GenerateCriteria(
	_ context.Context,
	tmpl *domain.Template,
	_ domain.StatusFunc,
	opts domain.EnrichOptions,
) (*domain.Template, error) {
	m.criteriaOnly++
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	return tmpl.Clone(), nil
}

// mockSearcher is a mock implementation of driving.ResourceSearcher.
type mockSearcher struct {
	result      *domain.SearchResult
	err         error
	gotCriteria map[string]string
	gotOpts     domain.EnrichOptions
}

func (m *mockSearcher) Search(
	_ context.Context,
	criteria map[string]string,
	opts domain.EnrichOptions,
	_ domain.StatusFunc,
) (*domain.SearchResult, error) {
	m.gotCriteria = criteria
	m.gotOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &domain.SearchResult{}, nil
	}
	return m.result, nil
}

// mockTemplates is a mock implementation of driving.TemplateService.
type mockTemplates struct {
	err             error
	gotInstructions string
	flowCalls       int
}

func (m *mockTemplates) Complete(
	_ context.Context,
	tmpl *domain.Template,
	instructions string,
	_ domain.StatusFunc,
) (*domain.Template, error) {
	m.gotInstructions = instructions
	if m.err != nil {
		return nil, m.err
	}
	return tmpl.Clone(), nil
}

func (m *mockTemplates) GenerateFlow(
	_ context.Context,
	tmpl *domain.Template,
	_ domain.StatusFunc,
) (*domain.Template, error) {
	m.flowCalls++
	if m.err != nil {
		return nil, m.err
	}
	return tmpl.Clone(), nil
}

// mockSettings is a mock implementation of driving.SettingsService.
type mockSettings struct {
	settings *domain.AppSettings
	err      error
}

func (m *mockSettings) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.settings == nil {
		defaults := domain.DefaultAppSettings()
		return &defaults, nil
	}
	return m.settings, nil
}

func (m *mockSettings) Save(settings *domain.AppSettings) error {
	m.settings = settings
	return m.err
}

func (m *mockSettings) SetLLMProvider(_ domain.AIProvider, _, _ string) error {
	return m.err
}

func (m *mockSettings) SetRepository(_ domain.RepositorySettings) error {
	return m.err
}

func (m *mockSettings) Validate() error {
	return m.err
}

func (m *mockSettings) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettings) ValidateLLMConfig() error {
	return m.err
}
