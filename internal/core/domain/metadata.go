package domain

import (
	"encoding/json"
	"fmt"
	"slices"
)

// DefaultResourceType is the label used when a node carries no type information.
const DefaultResourceType = "Learning resource"

// PreviewURLTemplate builds a preview image URL from a node identifier.
const PreviewURLTemplate = "https://redaktion.openeduhub.net/edu-sharing/preview" +
	"?storeProtocol=workspace&storeId=SpacesStore&nodeId=%s"

// PreviewURLFor returns the preview URL for a node identifier.
func PreviewURLFor(nodeID string) string {
	return fmt.Sprintf(PreviewURLTemplate, nodeID)
}

// Metadata is the normalised record extracted from a repository node.
// It is immutable once produced.
type Metadata struct {
	// Title is the display title.
	Title string `json:"title"`

	// Keywords keeps the repository's order. Never nil after extraction.
	Keywords []string `json:"keywords"`

	// Description is the free-text description.
	Description string `json:"description"`

	// Subject is the discipline display name.
	Subject string `json:"subject"`

	// EducationalContext lists educational level tags. Never nil after extraction.
	EducationalContext []string `json:"educational_context"`

	// WWWURL is the external location, nil when unknown.
	WWWURL *string `json:"www_url"`

	// PreviewURL is the preview image, nil when no identifier is available.
	PreviewURL *string `json:"preview_url"`

	// ResourceType is the best-effort learning resource type label.
	ResourceType string `json:"resource_type"`

	// NodeID is the repository identifier the record was extracted from.
	NodeID string `json:"node_id,omitempty"`

	// Extra holds keys that are not modelled here, written back unchanged.
	Extra map[string]json.RawMessage `json:"-"`

	// camelCase records that the record was read with camelCase keys
	// (previewUrl, resourceType) and is written back the same way.
	camelCase bool
}

// metadataKeys maps each modelled field to its snake_case and camelCase key.
var metadataKeys = []struct{ snake, camel string }{
	{"title", "title"},
	{"keywords", "keywords"},
	{"description", "description"},
	{"subject", "subject"},
	{"educational_context", "educationalContext"},
	{"www_url", "wwwUrl"},
	{"preview_url", "previewUrl"},
	{"resource_type", "resourceType"},
	{"node_id", "nodeId"},
}

// Clone returns a copy whose slices and extra keys are not shared.
func (m Metadata) Clone() Metadata {
	out := m
	out.Keywords = slices.Clone(m.Keywords)
	out.EducationalContext = slices.Clone(m.EducationalContext)
	out.Extra = cloneExtra(m.Extra)
	return out
}

// MarshalJSON writes lists as arrays, never null.
func (m Metadata) MarshalJSON() ([]byte, error) {
	key := func(i int) string {
		if m.camelCase {
			return metadataKeys[i].camel
		}
		return metadataKeys[i].snake
	}
	fields := []jsonField{
		{key(0), m.Title},
		{key(1), nonNilStrings(m.Keywords)},
		{key(2), m.Description},
		{key(3), m.Subject},
		{key(4), nonNilStrings(m.EducationalContext)},
		{key(5), m.WWWURL},
		{key(6), m.PreviewURL},
		{key(7), m.ResourceType},
	}
	if m.NodeID != "" {
		fields = append(fields, jsonField{key(8), m.NodeID})
	}
	return marshalOrdered(appendExtra(fields, m.Extra))
}

// UnmarshalJSON accepts snake_case and camelCase keys. Missing lists
// decode as empty.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var md Metadata
	var known []string
	pick := func(i int) (json.RawMessage, bool) {
		k := metadataKeys[i]
		if v, ok := raw[k.snake]; ok {
			known = append(known, k.snake)
			return v, !isNull(v)
		}
		if v, ok := raw[k.camel]; ok {
			known = append(known, k.camel)
			if k.camel != k.snake {
				md.camelCase = true
			}
			return v, !isNull(v)
		}
		return nil, false
	}

	targets := []any{
		&md.Title, &md.Keywords, &md.Description, &md.Subject, &md.EducationalContext,
		&md.WWWURL, &md.PreviewURL, &md.ResourceType, &md.NodeID,
	}
	for i, dst := range targets {
		v, ok := pick(i)
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return fmt.Errorf("%s: %w", metadataKeys[i].snake, err)
		}
	}
	md.Keywords = nonNilStrings(md.Keywords)
	md.EducationalContext = nonNilStrings(md.EducationalContext)
	md.Extra = extraKeys(raw, known...)

	*m = md
	return nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
