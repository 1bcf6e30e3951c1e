package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/didakt/internal/core/domain"
	"github.com/custodia-labs/didakt/internal/core/services"
	"github.com/custodia-labs/didakt/internal/logger"
)

// Tool names.
const (
	ToolValidateTemplate  = "validate_template"
	ToolGenerateCriteria  = "generate_criteria"
	ToolEnrichResources   = "enrich_resources"
	ToolSearchRepository  = "search_repository"
	ToolCompleteTemplate  = "complete_template"
	ToolGenerateFlow      = "generate_flow"
	defaultResourceKind   = domain.KindMaterial
	maxSearchItemsAllowed = 50
)

// ValidateInput is the input schema for the validate_template tool.
type ValidateInput struct {
	Text string `json:"text" jsonschema:"template JSON, optionally wrapped in a fenced code block"`
}

// IssueOutput is one schema violation.
type IssueOutput struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationOutput describes why a document was rejected.
type ValidationOutput struct {
	Kind    string        `json:"kind"`
	Message string        `json:"message"`
	Issues  []IssueOutput `json:"issues,omitempty"`
}

// ValidateOutput is the output schema for the validate_template tool.
type ValidateOutput struct {
	Valid    bool              `json:"valid"`
	Template any               `json:"template,omitempty"`
	Error    *ValidationOutput `json:"error,omitempty"`
}

// CriteriaInput is the input schema for the generate_criteria tool.
type CriteriaInput struct {
	Name             string   `json:"name" jsonschema:"resource name"`
	Type             string   `json:"type,omitempty" jsonschema:"material, tool or service type, e.g. Arbeitsblatt"`
	Kind             string   `json:"kind,omitempty" jsonschema:"material, tool or service (default material)"`
	Subject          string   `json:"subject,omitempty" jsonschema:"school subject of the lesson"`
	EducationalLevel string   `json:"educational_level,omitempty" jsonschema:"educational level or target group"`
	Activity         string   `json:"activity,omitempty" jsonschema:"activity that uses the resource"`
	Role             string   `json:"role,omitempty" jsonschema:"role that uses the resource"`
	Task             string   `json:"task,omitempty" jsonschema:"task description of that role"`
	FilterTypes      []string `json:"filter_types,omitempty" jsonschema:"subset of title, content_type, discipline, educational_context"`
}

// CriteriaOutput is the output schema for the generate_criteria tool.
type CriteriaOutput struct {
	Criteria map[string]string `json:"criteria"`
	Status   []string          `json:"status"`
}

// EnrichInput is the input schema for the enrich_resources tool.
type EnrichInput struct {
	Template         map[string]any `json:"template" jsonschema:"the template document"`
	MaxItems         int            `json:"max_items,omitempty" jsonschema:"result cap per resource"`
	CombineMode      string         `json:"combine_mode,omitempty" jsonschema:"AND or OR"`
	GenerateCriteria bool           `json:"generate_criteria,omitempty" jsonschema:"generate criteria for resources that have none before searching"`
	CriteriaOnly     bool           `json:"criteria_only,omitempty" jsonschema:"only fill filter_criteria, do not search"`
	FilterTypes      []string       `json:"filter_types,omitempty" jsonschema:"filter types to generate"`
}

// TemplateOutput is the output schema for tools returning a template.
type TemplateOutput struct {
	Template any      `json:"template"`
	Status   []string `json:"status"`
}

// SearchInput is the input schema for the search_repository tool.
type SearchInput struct {
	Criteria    map[string]string `json:"criteria" jsonschema:"repository property name to value, e.g. cclom:title"`
	MaxItems    int               `json:"max_items,omitempty" jsonschema:"maximum number of results (default 5)"`
	CombineMode string            `json:"combine_mode,omitempty" jsonschema:"AND or OR"`
}

// SearchOutput is the output schema for the search_repository tool.
type SearchOutput struct {
	Results []domain.Metadata `json:"results"`
	Count   int               `json:"count"`
}

// CompleteInput is the input schema for the complete_template tool.
type CompleteInput struct {
	Template     map[string]any `json:"template" jsonschema:"the template document"`
	Instructions string         `json:"instructions,omitempty" jsonschema:"what the model should add or change"`
}

// FlowInput is the input schema for the generate_flow tool.
type FlowInput struct {
	Template map[string]any `json:"template" jsonschema:"the template document"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	s.addTool(ToolValidateTemplate, func() {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        ToolValidateTemplate,
			Description: "Parse and schema-check a didactic template document",
		}, s.handleValidate)
	})

	if s.ports.Criteria != nil {
		s.addTool(ToolGenerateCriteria, func() {
			mcp.AddTool(s.server, &mcp.Tool{
				Name:        ToolGenerateCriteria,
				Description: "Generate repository search criteria for one resource",
			}, s.handleGenerateCriteria)
		})
	}

	if s.ports.Enricher != nil {
		s.addTool(ToolEnrichResources, func() {
			mcp.AddTool(s.server, &mcp.Tool{
				Name:        ToolEnrichResources,
				Description: "Attach matching repository content to every filter-sourced resource of a template",
			}, s.handleEnrich)
		})
	}

	if s.ports.Searcher != nil {
		s.addTool(ToolSearchRepository, func() {
			mcp.AddTool(s.server, &mcp.Tool{
				Name:        ToolSearchRepository,
				Description: "Search the WirLernenOnline repository by property criteria",
			}, s.handleSearch)
		})
	}

	if s.ports.Templates != nil {
		s.addTool(ToolCompleteTemplate, func() {
			mcp.AddTool(s.server, &mcp.Tool{
				Name:        ToolCompleteTemplate,
				Description: "Ask the language model to complete a template",
			}, s.handleComplete)
		})
		s.addTool(ToolGenerateFlow, func() {
			mcp.AddTool(s.server, &mcp.Tool{
				Name:        ToolGenerateFlow,
				Description: "Generate the learning sequence of a template",
			}, s.handleGenerateFlow)
		})
	}
}

func (s *Server) addTool(name string, register func()) {
	register()
	s.tools = append(s.tools, name)
}

// handleValidate reports validation failures in the result, not as tool errors.
func (s *Server) handleValidate(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ValidateInput,
) (*mcp.CallToolResult, ValidateOutput, error) {
	tmpl, err := s.ports.Validator.Validate(input.Text)
	if err != nil {
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			return nil, ValidateOutput{}, err
		}
		return nil, ValidateOutput{Error: validationOutput(verr)}, nil
	}

	doc, err := templateValue(tmpl)
	if err != nil {
		return nil, ValidateOutput{}, err
	}
	return nil, ValidateOutput{Valid: true, Template: doc}, nil
}

// handleGenerateCriteria handles the generate_criteria tool invocation.
func (s *Server) handleGenerateCriteria(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CriteriaInput,
) (*mcp.CallToolResult, CriteriaOutput, error) {
	if input.Name == "" {
		return nil, CriteriaOutput{}, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	kind := defaultResourceKind
	if input.Kind != "" {
		kind = domain.ResourceKind(input.Kind)
		if !kind.IsValid() {
			return nil, CriteriaOutput{}, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidInput, input.Kind)
		}
	}
	types := domain.ParseFilterTypes(input.FilterTypes)
	if len(types) == 0 {
		types = s.baseOptions().FilterTypes
	}

	var log domain.StatusLog
	fc := domain.FilterContext{
		ItemName:         input.Name,
		ItemType:         input.Type,
		Kind:             kind,
		Subject:          input.Subject,
		EducationalLevel: input.EducationalLevel,
		Task: domain.TaskContext{
			ActivityName:    input.Activity,
			RoleName:        input.Role,
			TaskDescription: input.Task,
		},
	}
	filters, err := s.ports.Criteria.Generate(ctx, fc, types, statusSink(ctx, req, &log))
	if err != nil {
		return nil, CriteriaOutput{}, err
	}

	return nil, CriteriaOutput{
		Criteria: domain.CriteriaFromFilters(filters),
		Status:   log.Lines(),
	}, nil
}

// handleEnrich handles the enrich_resources tool invocation.
func (s *Server) handleEnrich(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input EnrichInput,
) (*mcp.CallToolResult, TemplateOutput, error) {
	tmpl, err := s.parseTemplate(input.Template)
	if err != nil {
		return nil, TemplateOutput{}, err
	}
	opts, err := s.runOptions(input.MaxItems, input.CombineMode, input.FilterTypes)
	if err != nil {
		return nil, TemplateOutput{}, err
	}
	opts.GenerateCriteria = input.GenerateCriteria

	var log domain.StatusLog
	status := statusSink(ctx, req, &log)
	var out *domain.Template
	if input.CriteriaOnly {
		out, err = s.ports.Enricher.GenerateCriteria(ctx, tmpl, status, opts)
	} else {
		out, err = s.ports.Enricher.EnrichTemplate(ctx, tmpl, status, opts)
	}
	if err != nil {
		return nil, TemplateOutput{}, err
	}
	return templateOutput(out, &log)
}

// handleSearch handles the search_repository tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if !hasCriteria(input.Criteria) {
		return nil, SearchOutput{}, fmt.Errorf("%w: give at least one property with a value", domain.ErrNoCriteria)
	}
	if input.MaxItems > maxSearchItemsAllowed {
		input.MaxItems = maxSearchItemsAllowed
	}
	opts, err := s.runOptions(input.MaxItems, input.CombineMode, nil)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	var log domain.StatusLog
	result, err := s.ports.Searcher.Search(ctx, input.Criteria, opts, statusSink(ctx, req, &log))
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]domain.Metadata, len(result.Nodes)),
		Count:   len(result.Nodes),
	}
	for i, node := range result.Nodes {
		output.Results[i] = services.ExtractMetadata(node)
	}
	return nil, output, nil
}

func hasCriteria(criteria map[string]string) bool {
	for _, value := range criteria {
		if strings.TrimSpace(value) != "" {
			return true
		}
	}
	return false
}

// handleComplete handles the complete_template tool invocation.
func (s *Server) handleComplete(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CompleteInput,
) (*mcp.CallToolResult, TemplateOutput, error) {
	tmpl, err := s.parseTemplate(input.Template)
	if err != nil {
		return nil, TemplateOutput{}, err
	}

	var log domain.StatusLog
	out, err := s.ports.Templates.Complete(ctx, tmpl, input.Instructions, statusSink(ctx, req, &log))
	if err != nil {
		return nil, TemplateOutput{}, err
	}
	return templateOutput(out, &log)
}

// handleGenerateFlow handles the generate_flow tool invocation.
func (s *Server) handleGenerateFlow(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input FlowInput,
) (*mcp.CallToolResult, TemplateOutput, error) {
	tmpl, err := s.parseTemplate(input.Template)
	if err != nil {
		return nil, TemplateOutput{}, err
	}

	var log domain.StatusLog
	out, err := s.ports.Templates.GenerateFlow(ctx, tmpl, statusSink(ctx, req, &log))
	if err != nil {
		return nil, TemplateOutput{}, err
	}
	return templateOutput(out, &log)
}

// parseTemplate runs a tool's template argument through the validator.
func (s *Server) parseTemplate(doc map[string]any) (*domain.Template, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: template is required", domain.ErrInvalidInput)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding template: %w", err)
	}
	return s.ports.Validator.Validate(string(data))
}

// baseOptions returns run options from the stored settings.
func (s *Server) baseOptions() domain.EnrichOptions {
	settings := domain.DefaultAppSettings()
	if s.ports.Settings != nil {
		if stored, err := s.ports.Settings.Get(); err == nil && stored != nil {
			settings = *stored
		} else if err != nil {
			logger.Warn("mcp: using default settings: %v", err)
		}
	}
	return settings.EnrichOptions()
}

// runOptions applies per-call overrides to the stored defaults.
func (s *Server) runOptions(maxItems int, combine string, filterTypes []string) (domain.EnrichOptions, error) {
	opts := s.baseOptions()
	if maxItems > 0 {
		opts.MaxItems = maxItems
	}
	if combine != "" {
		mode, ok := domain.ParseCombineMode(combine)
		if !ok {
			return opts, fmt.Errorf("%w: combine_mode must be AND or OR, got %q", domain.ErrInvalidInput, combine)
		}
		opts.CombineMode = mode
	}
	if types := domain.ParseFilterTypes(filterTypes); len(types) > 0 {
		opts.FilterTypes = types
	}
	return opts, nil
}

// statusSink collects status lines and, when the caller sent a progress
// token, forwards each line as a progress notification.
func statusSink(ctx context.Context, req *mcp.CallToolRequest, log *domain.StatusLog) domain.StatusFunc {
	if req == nil || req.Session == nil || req.Params == nil {
		return log.Add
	}
	token := req.Params.GetProgressToken()
	if token == nil {
		return log.Add
	}

	var (
		mu       sync.Mutex
		progress float64
	)
	return func(message string) {
		log.Add(message)
		mu.Lock()
		progress++
		current := progress
		mu.Unlock()
		err := req.Session.NotifyProgress(ctx, &mcp.ProgressNotificationParams{
			ProgressToken: token,
			Message:       message,
			Progress:      current,
		})
		if err != nil {
			logger.Debug("mcp: progress notification failed: %v", err)
		}
	}
}

func templateOutput(tmpl *domain.Template, log *domain.StatusLog) (*mcp.CallToolResult, TemplateOutput, error) {
	doc, err := templateValue(tmpl)
	if err != nil {
		return nil, TemplateOutput{}, err
	}
	return nil, TemplateOutput{Template: doc, Status: log.Lines()}, nil
}

// templateValue converts a template into a generic JSON value so that the
// output schema does not depend on the template's Go shape.
func templateValue(tmpl *domain.Template) (any, error) {
	data, err := json.Marshal(tmpl)
	if err != nil {
		return nil, fmt.Errorf("encoding template: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding template: %w", err)
	}
	return doc, nil
}

func validationOutput(verr *domain.ValidationError) *ValidationOutput {
	out := &ValidationOutput{Kind: string(verr.Kind), Message: verr.Message}
	for _, issue := range verr.Issues {
		out.Issues = append(out.Issues, IssueOutput{Path: issue.Path, Message: issue.Message})
	}
	return out
}
