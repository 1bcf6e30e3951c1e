package domain

import "strings"

// DefaultMaxItems is the default result cap per resource.
const DefaultMaxItems = 5

// CombineMode selects AND or OR semantics across filter constraints.
type CombineMode string

// Available combine modes.
const (
	CombineAnd CombineMode = "AND"
	CombineOr  CombineMode = "OR"
)

// ParseCombineMode accepts "and"/"or" in any case. Empty input yields AND.
func ParseCombineMode(s string) (CombineMode, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "AND":
		return CombineAnd, true
	case "OR":
		return CombineOr, true
	default:
		return "", false
	}
}

// IsValid returns true if the mode is recognised.
func (m CombineMode) IsValid() bool {
	return m == CombineAnd || m == CombineOr
}

// String returns the string representation.
func (m CombineMode) String() string {
	return string(m)
}

// SearchRequest is a query against the content repository.
type SearchRequest struct {
	// Endpoint overrides the client's configured base URL when set.
	Endpoint string

	// Properties and Values are parallel: Properties[i] = Values[i].
	Properties []string
	Values     []string

	// MaxItems is a hard cap on returned nodes.
	MaxItems int

	// CombineMode joins the constraints.
	CombineMode CombineMode
}

// SearchNodeRef identifies a node in the repository.
type SearchNodeRef struct {
	ID       string `json:"id"`
	Repo     string `json:"repo,omitempty"`
	Protocol string `json:"storeProtocol,omitempty"`
	StoreID  string `json:"storeId,omitempty"`
}

// SearchNodePreview is the inline preview block of a node, when present.
type SearchNodePreview struct {
	URL string `json:"url"`
}

// SearchNode is a raw matched node. Properties is a bag of namespaced
// property names mapped to value arrays. It is consumed by metadata
// extraction and never retained.
type SearchNode struct {
	Ref        SearchNodeRef       `json:"ref"`
	Name       string              `json:"name,omitempty"`
	Title      string              `json:"title,omitempty"`
	Preview    *SearchNodePreview  `json:"preview,omitempty"`
	Properties map[string][]string `json:"properties,omitempty"`
}

// First returns the first value of a property, or "" when absent.
func (n SearchNode) First(property string) string {
	values := n.Properties[property]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// All returns a copy of a property's values, never nil.
func (n SearchNode) All(property string) []string {
	values := n.Properties[property]
	out := make([]string, len(values))
	copy(out, values)
	return out
}

// SearchResult is the list of nodes returned for one query.
type SearchResult struct {
	Nodes []SearchNode `json:"nodes"`
}
