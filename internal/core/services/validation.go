package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/custodia-labs/didakt/internal/core/domain"
	"github.com/custodia-labs/didakt/internal/core/ports/driving"
	"github.com/custodia-labs/didakt/internal/logger"
)

// Ensure TemplateValidatorService implements the interface.
var _ driving.TemplateValidator = (*TemplateValidatorService)(nil)

// TemplateValidatorService extracts and checks template documents from model output.
// The schema is structural: top-level sections must exist with the right kind,
// free-form sections accept any nested shape.
type TemplateValidatorService struct {
	schemas *templateSchemas
}

// NewTemplateValidator creates a validator using the built-in template schema.
func NewTemplateValidator() *TemplateValidatorService {
	return &TemplateValidatorService{schemas: loadTemplateSchemas()}
}

// Validate parses raw as JSON, falling back to a fenced block and then to the
// outermost braces, and checks the result against the template schema.
func (v *TemplateValidatorService) Validate(raw string) (*domain.Template, error) {
	body, doc, err := decodeDocument(raw)
	if err != nil {
		return nil, &domain.ValidationError{
			Kind:    domain.ValidationParse,
			Message: err.Error(),
		}
	}

	if issues := v.schemas.check(doc); len(issues) > 0 {
		logger.Debug("validate: %d schema issue(s)", len(issues))
		return nil, &domain.ValidationError{
			Kind:    domain.ValidationSchema,
			Message: fmt.Sprintf("%d schema violation(s)", len(issues)),
			Issues:  issues,
		}
	}

	var tmpl domain.Template
	if err := json.Unmarshal(body, &tmpl); err != nil {
		return nil, &domain.ValidationError{
			Kind:    domain.ValidationSchema,
			Message: "document does not decode as a template",
			Issues:  []domain.FieldIssue{{Path: domain.SectionEnvironments, Message: err.Error()}},
		}
	}
	return &tmpl, nil
}

// decodeDocument returns the JSON text that parsed and its generic form.
// The first parse error is reported when every attempt fails.
func decodeDocument(raw string) ([]byte, map[string]any, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, nil, fmt.Errorf("empty response")
	}

	candidates := []string{text}
	if body, ok := extractFenced(text); ok {
		candidates = append(candidates, body)
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		candidates = append(candidates, text[start:end+1])
	}

	var firstErr error
	for i, c := range candidates {
		var doc map[string]any
		err := json.Unmarshal([]byte(c), &doc)
		if err == nil && doc == nil {
			err = fmt.Errorf("document is not a JSON object")
		}
		if err == nil {
			if i > 0 {
				logger.Debug("validate: recovered JSON on attempt %d", i+1)
			}
			return []byte(c), doc, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, nil, firstErr
}

// sectionSchema pairs a top-level key with its resolved schema.
type sectionSchema struct {
	key    string
	schema *jsonschema.Resolved
}

type templateSchemas struct {
	sections    []sectionSchema
	environment *jsonschema.Resolved
	resource    *jsonschema.Resolved
}

var loadTemplateSchemas = sync.OnceValue(func() *templateSchemas {
	object := []string{"object"}
	array := []string{"array"}
	freeForm := []string{"object", "array", "string"}

	sections := []struct {
		key    string
		schema *jsonschema.Schema
	}{
		{domain.SectionMetadata, &jsonschema.Schema{
			Types:      object,
			Properties: map[string]*jsonschema.Schema{"title": {Type: "string"}},
		}},
		{domain.SectionProblem, &jsonschema.Schema{Types: freeForm}},
		{domain.SectionContext, &jsonschema.Schema{Types: freeForm}},
		{domain.SectionInfluenceFactors, &jsonschema.Schema{Types: []string{"array", "object"}}},
		{domain.SectionSolution, &jsonschema.Schema{Types: object}},
		{domain.SectionConsequences, &jsonschema.Schema{Types: freeForm}},
		{domain.SectionImplementationNotes, &jsonschema.Schema{Types: freeForm}},
		{domain.SectionRelatedPatterns, &jsonschema.Schema{Types: array}},
		{domain.SectionFeedback, &jsonschema.Schema{Types: []string{"object", "array"}}},
		{domain.SectionSources, &jsonschema.Schema{Types: array}},
		{domain.SectionActors, &jsonschema.Schema{Types: array, Items: &jsonschema.Schema{Type: "object"}}},
		{domain.SectionEnvironments, &jsonschema.Schema{Types: array}},
	}

	out := &templateSchemas{}
	for _, s := range sections {
		out.sections = append(out.sections, sectionSchema{key: s.key, schema: mustResolve(s.schema)})
	}

	// Resolve requires a tree, so each list gets its own schema value.
	resourceList := func() *jsonschema.Schema { return &jsonschema.Schema{Type: "array"} }
	out.environment = mustResolve(&jsonschema.Schema{
		Type:     "object",
		Required: []string{"name"},
		Properties: map[string]*jsonschema.Schema{
			"environment_id": {Type: "string"},
			"name":           {Type: "string"},
			"materials":      resourceList(),
			"tools":          resourceList(),
			"services":       resourceList(),
		},
	})

	sources := []any{}
	for _, src := range []domain.ResourceSource{domain.SourceManual, domain.SourceFilter, domain.SourceDatabase} {
		sources = append(sources, string(src))
	}
	out.resource = mustResolve(&jsonschema.Schema{
		Type:     "object",
		Required: []string{"name"},
		Properties: map[string]*jsonschema.Schema{
			"name":            {Type: "string"},
			"source":          {Type: "string", Enum: sources},
			"filter_criteria": {Type: "object"},
		},
	})
	return out
})

func mustResolve(s *jsonschema.Schema) *jsonschema.Resolved {
	resolved, err := s.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("template schema: %v", err))
	}
	return resolved
}

// check returns every violation in section order.
func (t *templateSchemas) check(doc map[string]any) []domain.FieldIssue {
	var issues []domain.FieldIssue
	for _, s := range t.sections {
		value, ok := doc[s.key]
		if !ok {
			issues = append(issues, domain.FieldIssue{Path: s.key, Message: "required section is missing"})
			continue
		}
		if err := s.schema.Validate(value); err != nil {
			issues = append(issues, domain.FieldIssue{Path: s.key, Message: schemaMessage(err)})
			continue
		}
		if s.key == domain.SectionEnvironments {
			issues = append(issues, t.checkEnvironments(value)...)
		}
	}
	return issues
}

func (t *templateSchemas) checkEnvironments(value any) []domain.FieldIssue {
	envs, _ := value.([]any)
	var issues []domain.FieldIssue
	for i, env := range envs {
		path := fmt.Sprintf("%s[%d]", domain.SectionEnvironments, i)
		if err := t.environment.Validate(env); err != nil {
			issues = append(issues, domain.FieldIssue{Path: path, Message: schemaMessage(err)})
			continue
		}
		fields, _ := env.(map[string]any)
		for _, kind := range domain.AllResourceKinds() {
			key := string(kind) + "s"
			list, _ := fields[key].([]any)
			for j, item := range list {
				if err := t.resource.Validate(item); err != nil {
					issues = append(issues, domain.FieldIssue{
						Path:    fmt.Sprintf("%s.%s[%d]", path, key, j),
						Message: schemaMessage(err),
					})
				}
			}
		}
	}
	return issues
}

var (
	validatingPrefix = regexp.MustCompile(`^(validating [^:]*: )+`)
	typeMismatch     = regexp.MustCompile(`(?s)^type: .*(has type "[a-z]+", want .*)$`)
)

// schemaMessage drops the library's nested "validating <path>: " prefixes
// and the echoed instance of type mismatches.
func schemaMessage(err error) string {
	msg := validatingPrefix.ReplaceAllString(err.Error(), "")
	if m := typeMismatch.FindStringSubmatch(msg); m != nil {
		return m[1]
	}
	return msg
}
