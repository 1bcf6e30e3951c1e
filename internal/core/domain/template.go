package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Top-level template section keys.
const (
	SectionMetadata            = "metadata"
	SectionProblem             = "problem"
	SectionContext             = "context"
	SectionInfluenceFactors    = "influence_factors"
	SectionSolution            = "solution"
	SectionConsequences        = "consequences"
	SectionImplementationNotes = "implementation_notes"
	SectionRelatedPatterns     = "related_patterns"
	SectionFeedback            = "feedback"
	SectionSources             = "sources"
	SectionActors              = "actors"
	SectionEnvironments        = "environments"
)

// Template is a didactic template document.
//
// Free-form sections are kept as raw JSON so that a workflow replacing one
// section leaves every other section byte-for-byte untouched. Environments
// are typed because enrichment rewrites their resource arrays.
type Template struct {
	Metadata            json.RawMessage `json:"metadata"`
	Problem             json.RawMessage `json:"problem"`
	Context             json.RawMessage `json:"context"`
	InfluenceFactors    json.RawMessage `json:"influence_factors"`
	Solution            json.RawMessage `json:"solution"`
	Consequences        json.RawMessage `json:"consequences"`
	ImplementationNotes json.RawMessage `json:"implementation_notes"`
	RelatedPatterns     json.RawMessage `json:"related_patterns"`
	Feedback            json.RawMessage `json:"feedback"`
	Sources             json.RawMessage `json:"sources"`
	Actors              json.RawMessage `json:"actors"`
	Environments        []Environment   `json:"environments"`
}

// Clone returns a deep copy of the template.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	out := *t
	out.Environments = make([]Environment, len(t.Environments))
	for i, env := range t.Environments {
		out.Environments[i] = env.Clone()
	}
	return &out
}

// Info is a read-only view of the fields criteria generation needs.
type Info struct {
	Title            string
	Subject          string
	EducationalLevel string
}

// Info extracts title, subject and educational level from metadata and context.
// Missing or malformed sections yield empty strings.
func (t *Template) Info() Info {
	var meta struct {
		Title            string `json:"title"`
		Subject          string `json:"subject"`
		EducationalLevel string `json:"educational_level"`
	}
	var ctx struct {
		Subject          string `json:"subject"`
		EducationalLevel string `json:"educational_level"`
		TargetGroup      string `json:"target_group"`
	}
	_ = json.Unmarshal(t.Metadata, &meta) //nolint:errcheck // best-effort view
	_ = json.Unmarshal(t.Context, &ctx)   //nolint:errcheck // best-effort view

	info := Info{
		Title:            meta.Title,
		Subject:          firstNonEmpty(ctx.Subject, meta.Subject),
		EducationalLevel: firstNonEmpty(ctx.EducationalLevel, meta.EducationalLevel, ctx.TargetGroup),
	}
	return info
}

// Tasks walks solution.didactic_template and returns, for every resource ID
// selected by a role, the first activity/role/task that references it.
func (t *Template) Tasks() map[string]TaskContext {
	var sol solutionView
	out := make(map[string]TaskContext)
	if err := json.Unmarshal(t.Solution, &sol); err != nil {
		return out
	}
	for _, seq := range sol.DidacticTemplate.LearningSequences {
		for _, phase := range seq.Phases {
			for _, act := range phase.Activities {
				for _, role := range act.Roles {
					task := TaskContext{
						ActivityName:    act.Name,
						RoleName:        role.RoleName,
						TaskDescription: role.TaskDescription,
					}
					env := role.LearningEnvironment
					for _, ids := range [][]string{env.SelectedMaterials, env.SelectedTools, env.SelectedServices} {
						for _, id := range ids {
							if _, seen := out[id]; !seen {
								out[id] = task
							}
						}
					}
				}
			}
		}
	}
	return out
}

type solutionView struct {
	DidacticTemplate struct {
		LearningSequences []struct {
			Phases []struct {
				Activities []struct {
					Name  string `json:"name"`
					Roles []struct {
						RoleName            string `json:"role_name"`
						TaskDescription     string `json:"task_description"`
						LearningEnvironment struct {
							SelectedMaterials []string `json:"selected_materials"`
							SelectedTools     []string `json:"selected_tools"`
							SelectedServices  []string `json:"selected_services"`
						} `json:"learning_environment"`
					} `json:"roles"`
				} `json:"activities"`
			} `json:"phases"`
		} `json:"learning_sequences"`
	} `json:"didactic_template"`
}

// Environment is a learning environment owning three resource lists.
type Environment struct {
	ID          string
	Name        string
	Description string
	Materials   []Resource
	Tools       []Resource
	Services    []Resource

	// Extra holds keys that are not modelled here, written back unchanged.
	Extra map[string]json.RawMessage
}

// Resources returns the list for a kind.
func (e *Environment) Resources(kind ResourceKind) []Resource {
	switch kind {
	case KindMaterial:
		return e.Materials
	case KindTool:
		return e.Tools
	case KindService:
		return e.Services
	default:
		return nil
	}
}

// SetResources replaces the list for a kind, re-tagging every entry.
func (e *Environment) SetResources(kind ResourceKind, resources []Resource) {
	tagged := make([]Resource, len(resources))
	for i, r := range resources {
		r.Kind = kind
		tagged[i] = r
	}
	switch kind {
	case KindMaterial:
		e.Materials = tagged
	case KindTool:
		e.Tools = tagged
	case KindService:
		e.Services = tagged
	}
}

// Clone returns a copy whose slices and maps are not shared.
func (e Environment) Clone() Environment {
	out := e
	out.Materials = cloneResources(e.Materials)
	out.Tools = cloneResources(e.Tools)
	out.Services = cloneResources(e.Services)
	out.Extra = cloneExtra(e.Extra)
	return out
}

func cloneResources(in []Resource) []Resource {
	if in == nil {
		return nil
	}
	out := make([]Resource, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

// Clone returns a copy whose criteria map and metadata slice are not shared.
func (r Resource) Clone() Resource {
	out := r
	if r.FilterCriteria != nil {
		out.FilterCriteria = make(map[string]string, len(r.FilterCriteria))
		for k, v := range r.FilterCriteria {
			out.FilterCriteria[k] = v
		}
	}
	if r.WLOMetadata != nil {
		out.WLOMetadata = make([]Metadata, len(r.WLOMetadata))
		for i, md := range r.WLOMetadata {
			out.WLOMetadata[i] = md.Clone()
		}
	}
	out.Extra = cloneExtra(r.Extra)
	return out
}

// MarshalJSON writes the three lists, always as arrays.
func (e Environment) MarshalJSON() ([]byte, error) {
	fields := []jsonField{
		{"environment_id", e.ID},
		{"name", e.Name},
	}
	if e.Description != "" {
		fields = append(fields, jsonField{"description", e.Description})
	}
	fields = append(fields,
		jsonField{"materials", nonNil(e.Materials)},
		jsonField{"tools", nonNil(e.Tools)},
		jsonField{"services", nonNil(e.Services)},
	)
	return marshalOrdered(appendExtra(fields, e.Extra))
}

// UnmarshalJSON decodes each list with its kind fixed, so that
// material_id/tool_id/service_id are read from the right key.
func (e *Environment) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var env Environment
	var legacyID string
	if err := readString(raw, "environment_id", &env.ID); err != nil {
		return err
	}
	if err := readString(raw, "id", &legacyID); err != nil {
		return err
	}
	env.ID = firstNonEmpty(env.ID, legacyID)
	if err := readString(raw, "name", &env.Name); err != nil {
		return err
	}
	if err := readString(raw, "description", &env.Description); err != nil {
		return err
	}

	known := []string{"environment_id", "name", "materials", "tools", "services"}
	if env.Description != "" {
		known = append(known, "description")
	}
	for _, kind := range AllResourceKinds() {
		key := string(kind) + "s"
		var items []json.RawMessage
		if v, ok := raw[key]; ok && !isNull(v) {
			if err := json.Unmarshal(v, &items); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
		}
		resources := make([]Resource, len(items))
		for i, item := range items {
			res := Resource{Kind: kind}
			if err := json.Unmarshal(item, &res); err != nil {
				return fmt.Errorf("%s[%d]: %w", key, i, err)
			}
			resources[i] = res
		}
		env.SetResources(kind, resources)
	}
	env.Extra = extraKeys(raw, known...)

	*e = env
	return nil
}

func nonNil(r []Resource) []Resource {
	if r == nil {
		return []Resource{}
	}
	return r
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
