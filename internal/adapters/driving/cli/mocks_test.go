package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/didakt/internal/adapters/driven/templatefile"
	"github.com/custodia-labs/didakt/internal/core/domain"
	"github.com/custodia-labs/didakt/internal/core/services"
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
      "materials": [
        {"material_id": "m1", "name": "Karte", "source": "filter"},
        {"material_id": "m2", "name": "Buch", "source": "manual"}
      ],
      "tools": [{"tool_id": "t1", "name": "Tablet", "source": "manual"}],
      "services": []
    }
  ]
}`

// Mocks installed by setupTestServices.
var (
	testSearcher  *mockSearcher
	testEnricher  *mockEnricher
	testTemplates *mockTemplates
	testSettings  *mockSettings
)

// setupTestServices installs mock services and returns a function that
// restores the previous ones.
func setupTestServices() func() {
	prev := Services{
		Validator: validatorService,
		Criteria:  criteriaService,
		Enricher:  enrichService,
		Searcher:  searchService,
		Templates: templateService,
		Settings:  settingsService,
		Files:     templateStore,
		Prompts:   promptStore,
	}

	testSearcher = &mockSearcher{}
	testEnricher = &mockEnricher{}
	testTemplates = &mockTemplates{}
	testSettings = &mockSettings{}

	SetServices(Services{
		Validator: services.NewTemplateValidator(),
		Enricher:  testEnricher,
		Searcher:  testSearcher,
		Templates: testTemplates,
		Settings:  testSettings,
		Files:     templatefile.NewStore(),
	})

	return func() {
		SetServices(prev)
	}
}

// writeTemplateFile writes content to a file in a temporary directory.
func writeTemplateFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "template.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// syncBuffer is a bytes.Buffer safe for a command running in another goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}

// mockSearcher is a mock implementation of driving.ResourceSearcher.
type mockSearcher struct {
	nodes       []domain.SearchNode
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
	return &domain.SearchResult{Nodes: m.nodes}, nil
}

// mockEnricher is a mock implementation of driving.ResourceEnricher.
// It marks filter-sourced materials with one metadata record.
type mockEnricher struct {
	err     error
	partial bool
	opts    domain.EnrichOptions
	calls   int
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
	m.calls++
	m.opts = opts
	if m.err != nil && !m.partial {
		return nil, m.err
	}
	status.Emit("[Karte] Found 1 result(s)")
	out := tmpl.Clone()
	for i := range out.Environments {
		for j, r := range out.Environments[i].Materials {
			if r.Source == domain.SourceFilter {
				out.Environments[i].Materials[j].WLOMetadata = []domain.Metadata{
					{Title: "Vulkanismus", Keywords: []string{}, EducationalContext: []string{}},
				}
			}
		}
	}
	return out, m.err
}

func (m *mockEnricher) GenerateCriteria(
	_ context.Context,
	tmpl *domain.Template,
	_ domain.StatusFunc,
	opts domain.EnrichOptions,
) (*domain.Template, error) {
	m.calls++
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	out := tmpl.Clone()
	for i := range out.Environments {
		for j, r := range out.Environments[i].Materials {
			if r.Source == domain.SourceFilter {
				out.Environments[i].Materials[j].FilterCriteria = map[string]string{domain.PropertyTitle: "Vulkane"}
			}
		}
	}
	return out, nil
}

// mockTemplates is a mock implementation of driving.TemplateService.
type mockTemplates struct {
	err             error
	gotInstructions string
}

func (m *mockTemplates) Complete(
	_ context.Context,
	tmpl *domain.Template,
	instructions string,
	status domain.StatusFunc,
) (*domain.Template, error) {
	m.gotInstructions = instructions
	if m.err != nil {
		return nil, m.err
	}
	status.Emit("Template completed")
	return tmpl.Clone(), nil
}

func (m *mockTemplates) GenerateFlow(
	_ context.Context,
	tmpl *domain.Template,
	_ domain.StatusFunc,
) (*domain.Template, error) {
	if m.err != nil {
		return nil, m.err
	}
	return tmpl.Clone(), nil
}

// mockSettings is a mock implementation of driving.SettingsService.
type mockSettings struct {
	settings    *domain.AppSettings
	err         error
	validateErr error
	provider    domain.AIProvider
	model       string
	apiKey      string
	repo        *domain.RepositorySettings
}

func (m *mockSettings) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.settings == nil {
		defaults := domain.DefaultAppSettings()
		m.settings = &defaults
	}
	return m.settings, nil
}

func (m *mockSettings) Save(settings *domain.AppSettings) error {
	m.settings = settings
	return m.err
}

func (m *mockSettings) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.provider = provider
	m.model = model
	m.apiKey = apiKey
	return m.err
}

func (m *mockSettings) SetRepository(repo domain.RepositorySettings) error {
	m.repo = &repo
	return m.err
}

func (m *mockSettings) Validate() error {
	return m.validateErr
}

func (m *mockSettings) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettings) ValidateLLMConfig() error {
	return m.validateErr
}
