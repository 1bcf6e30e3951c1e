package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/didakt/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for didakt resources.
	uriScheme = "didakt://"

	mimeJSON = "application/json"
)

// Vocabulary names served under didakt://vocabulary/{name}.
const (
	VocabularyContentTypes        = "content_types"
	VocabularyDisciplines         = "disciplines"
	VocabularyEducationalContexts = "educational_contexts"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Settings != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "settings",
			Name:        "settings",
			Description: "Current LLM, repository and enrichment settings (API key masked)",
			MIMEType:    mimeJSON,
		}, s.handleSettingsResource)
	}

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "vocabulary/{name}",
		Name:        "vocabulary",
		Description: "Controlled vocabulary: content_types, disciplines or educational_contexts",
		MIMEType:    mimeJSON,
	}, s.handleVocabularyResource)
}

// settingsView is the JSON shape of the settings resource.
type settingsView struct {
	LLM struct {
		Provider string `json:"provider"`
		Model    string `json:"model"`
		BaseURL  string `json:"base_url,omitempty"`
		APIKey   string `json:"api_key,omitempty"`
	} `json:"llm"`
	Repository struct {
		Environment       string  `json:"environment"`
		BaseURL           string  `json:"base_url,omitempty"`
		ProxyURL          string  `json:"proxy_url,omitempty"`
		MaxItems          int     `json:"max_items"`
		CombineMode       string  `json:"combine_mode"`
		RequestsPerSecond float64 `json:"requests_per_second"`
	} `json:"repository"`
	Enrichment struct {
		BatchSize   int      `json:"batch_size"`
		ItemTimeout string   `json:"item_timeout"`
		FilterTypes []string `json:"filter_types"`
	} `json:"enrichment"`
}

// handleSettingsResource returns the current settings.
func (s *Server) handleSettingsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	settings, err := s.ports.Settings.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	data, err := json.MarshalIndent(newSettingsView(settings), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling settings: %w", err)
	}
	return jsonResult(req.Params.URI, data), nil
}

// handleVocabularyResource returns one controlled vocabulary as a JSON array.
func (s *Server) handleVocabularyResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	options, ok := vocabulary(extractVocabularyName(req.Params.URI))
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	data, err := json.MarshalIndent(options, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling vocabulary: %w", err)
	}
	return jsonResult(req.Params.URI, data), nil
}

func newSettingsView(settings *domain.AppSettings) settingsView {
	var v settingsView
	v.LLM.Provider = settings.LLM.Provider.String()
	v.LLM.Model = settings.LLM.Model
	v.LLM.BaseURL = settings.LLM.BaseURL
	v.LLM.APIKey = maskSecret(settings.LLM.APIKey)

	v.Repository.Environment = settings.Repository.Environment.String()
	v.Repository.BaseURL = settings.Repository.BaseURL
	v.Repository.ProxyURL = settings.Repository.ProxyURL
	v.Repository.MaxItems = settings.Repository.MaxItems
	v.Repository.CombineMode = settings.Repository.CombineMode.String()
	v.Repository.RequestsPerSecond = settings.Repository.RequestsPerSecond

	v.Enrichment.BatchSize = settings.Enrichment.BatchSize
	v.Enrichment.ItemTimeout = settings.Enrichment.ItemTimeout.String()
	v.Enrichment.FilterTypes = make([]string, len(settings.Enrichment.FilterTypes))
	for i, ft := range settings.Enrichment.FilterTypes {
		v.Enrichment.FilterTypes[i] = ft.String()
	}
	return v
}

func vocabulary(name string) ([]string, bool) {
	switch name {
	case VocabularyContentTypes:
		return domain.ContentTypeOptions(), true
	case VocabularyDisciplines:
		return domain.DisciplineOptions(), true
	case VocabularyEducationalContexts:
		return domain.EducationalContextOptions(), true
	default:
		return nil, false
	}
}

// extractVocabularyName extracts the name from a URI like didakt://vocabulary/{name}.
func extractVocabularyName(uri string) string {
	const prefix = uriScheme + "vocabulary/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}

// maskSecret keeps the last four characters of a secret.
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

func jsonResult(uri string, data []byte) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     string(data),
		}},
	}
}
