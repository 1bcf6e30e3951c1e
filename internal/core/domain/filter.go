package domain

import "strings"

// FilterType names one kind of search criterion the generator can produce.
type FilterType string

// Available filter types.
const (
	// FilterTitle is a 1-2 word core-topic search term.
	FilterTitle FilterType = "title"

	// FilterContentType is a learning resource type label.
	FilterContentType FilterType = "content_type"

	// FilterDiscipline is a school subject label.
	FilterDiscipline FilterType = "discipline"

	// FilterEducationalContext is an educational level label.
	FilterEducationalContext FilterType = "educational_context"
)

// Repository property names used as filter criteria keys.
const (
	PropertyTitle              = "cclom:title"
	PropertyContentType        = "ccm:oeh_lrt_aggregated"
	PropertyDiscipline         = "ccm:taxonid"
	PropertyEducationalContext = "ccm:educationalcontext"
)

// DefaultFilterTypes returns the filter types generated when none are configured.
func DefaultFilterTypes() []FilterType {
	return []FilterType{FilterTitle, FilterContentType, FilterDiscipline}
}

// AllFilterTypes returns every supported filter type.
func AllFilterTypes() []FilterType {
	return []FilterType{FilterTitle, FilterContentType, FilterDiscipline, FilterEducationalContext}
}

// ParseFilterTypes parses names, skipping unknown ones.
func ParseFilterTypes(names []string) []FilterType {
	out := make([]FilterType, 0, len(names))
	for _, name := range names {
		ft := FilterType(strings.TrimSpace(strings.ToLower(name)))
		if ft.IsValid() {
			out = append(out, ft)
		}
	}
	return out
}

// IsValid returns true if the filter type is recognised.
func (f FilterType) IsValid() bool {
	switch f {
	case FilterTitle, FilterContentType, FilterDiscipline, FilterEducationalContext:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (f FilterType) String() string {
	return string(f)
}

// Property returns the repository property this filter type searches on.
func (f FilterType) Property() string {
	switch f {
	case FilterTitle:
		return PropertyTitle
	case FilterContentType:
		return PropertyContentType
	case FilterDiscipline:
		return PropertyDiscipline
	case FilterEducationalContext:
		return PropertyEducationalContext
	default:
		return ""
	}
}

// CriteriaFromFilters converts generator output into property-keyed filter criteria.
func CriteriaFromFilters(filters map[FilterType]string) map[string]string {
	criteria := make(map[string]string, len(filters))
	for ft, value := range filters {
		if prop := ft.Property(); prop != "" && value != "" {
			criteria[prop] = value
		}
	}
	return criteria
}

// TaskContext describes where in the solution tree a resource is used.
type TaskContext struct {
	ActivityName    string
	RoleName        string
	TaskDescription string
}

// FilterContext is the per-resource input to criteria generation.
// It is built immediately before the call and discarded after.
type FilterContext struct {
	ItemName         string
	ItemType         string
	Kind             ResourceKind
	EducationalLevel string
	Subject          string
	Task             TaskContext
}
