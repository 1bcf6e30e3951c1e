package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// ResourceKind tags a resource as a material, tool or service.
type ResourceKind string

// Available resource kinds.
const (
	KindMaterial ResourceKind = "material"
	KindTool     ResourceKind = "tool"
	KindService  ResourceKind = "service"
)

// AllResourceKinds returns the kinds in template order.
func AllResourceKinds() []ResourceKind {
	return []ResourceKind{KindMaterial, KindTool, KindService}
}

// IsValid returns true if the kind is recognised.
func (k ResourceKind) IsValid() bool {
	switch k {
	case KindMaterial, KindTool, KindService:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k ResourceKind) String() string {
	return string(k)
}

// Label returns a capitalised label for status lines.
func (k ResourceKind) Label() string {
	switch k {
	case KindMaterial:
		return "Material"
	case KindTool:
		return "Tool"
	case KindService:
		return "Service"
	default:
		return "Resource"
	}
}

// idKey is the JSON key holding the identifier for this kind.
func (k ResourceKind) idKey() string {
	return string(k) + "_id"
}

// typeKey is the JSON key holding the kind-specific type for this kind.
func (k ResourceKind) typeKey() string {
	return string(k) + "_type"
}

// ResourceSource says where a resource came from.
type ResourceSource string

// Available resource sources.
const (
	// SourceManual resources were entered by hand and are never enriched.
	SourceManual ResourceSource = "manual"

	// SourceFilter resources carry filter criteria and wait for enrichment.
	SourceFilter ResourceSource = "filter"

	// SourceDatabase resources have been resolved against the content repository.
	SourceDatabase ResourceSource = "database"
)

// IsValid returns true if the source is recognised.
func (s ResourceSource) IsValid() bool {
	switch s {
	case SourceManual, SourceFilter, SourceDatabase:
		return true
	default:
		return false
	}
}

// Resource is a material, tool or service in a learning environment.
// The three kinds share one shape; Kind decides the JSON keys used for ID and Type.
type Resource struct {
	// Kind is the tagged-union discriminator.
	Kind ResourceKind

	// ID is the identifier (material_id, tool_id or service_id on the wire).
	ID string

	// Name is the display name.
	Name string

	// Type is the kind-specific type (material_type, tool_type or service_type).
	Type string

	// Source is manual, filter or database.
	Source ResourceSource

	// AccessLink points to the resource when known.
	AccessLink string

	// FilterCriteria maps filter property names to values.
	FilterCriteria map[string]string

	// DatabaseID is the comma-joined list of matched node identifiers.
	DatabaseID string

	// WLOMetadata holds one normalised record per matched node, in search order.
	// Only set on resources whose Source is SourceDatabase.
	WLOMetadata []Metadata

	// Extra holds keys the editor stores that are not modelled here.
	// They are written back unchanged after the known keys.
	Extra map[string]json.RawMessage
}

// HasCriteria reports whether the resource carries at least one filter criterion.
func (r Resource) HasCriteria() bool {
	return len(r.FilterCriteria) > 0
}

// Label returns "Kind 'Name'" for status lines.
func (r Resource) Label() string {
	return fmt.Sprintf("%s '%s'", r.Kind.Label(), r.Name)
}

// MarshalJSON writes the kind-specific keys.
func (r Resource) MarshalJSON() ([]byte, error) {
	kind := r.Kind
	if !kind.IsValid() {
		kind = KindMaterial
	}

	fields := []jsonField{
		{kind.idKey(), r.ID},
		{"name", r.Name},
		{kind.typeKey(), r.Type},
	}
	if r.Source != "" {
		fields = append(fields, jsonField{"source", r.Source})
	}
	if r.AccessLink != "" {
		fields = append(fields, jsonField{"access_link", r.AccessLink})
	}
	if len(r.FilterCriteria) > 0 {
		fields = append(fields, jsonField{"filter_criteria", r.FilterCriteria})
	}
	if r.DatabaseID != "" {
		fields = append(fields, jsonField{"database_id", r.DatabaseID})
	}
	if len(r.WLOMetadata) > 0 {
		fields = append(fields, jsonField{"wlo_metadata", r.WLOMetadata})
	}
	return marshalOrdered(appendExtra(fields, r.Extra))
}

// UnmarshalJSON reads kind-specific keys. The kind is inferred from which
// *_id or *_type key is present; Environment re-tags it per list afterwards.
func (r *Resource) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	res := Resource{Kind: r.Kind}
	if !res.Kind.IsValid() {
		res.Kind = inferKind(raw)
	}

	known := []string{
		res.Kind.idKey(), "name", res.Kind.typeKey(), "source",
		"access_link", "database_id", "filter_criteria", "wlo_metadata",
	}
	if err := readString(raw, res.Kind.idKey(), &res.ID); err != nil {
		return err
	}
	if res.ID == "" {
		if err := readString(raw, "id", &res.ID); err != nil {
			return err
		}
	}
	if err := readString(raw, "name", &res.Name); err != nil {
		return err
	}
	if err := readString(raw, res.Kind.typeKey(), &res.Type); err != nil {
		return err
	}
	var source string
	if err := readString(raw, "source", &source); err != nil {
		return err
	}
	res.Source = ResourceSource(source)
	if err := readString(raw, "access_link", &res.AccessLink); err != nil {
		return err
	}
	if err := readString(raw, "database_id", &res.DatabaseID); err != nil {
		return err
	}
	if v, ok := raw["filter_criteria"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &res.FilterCriteria); err != nil {
			return fmt.Errorf("filter_criteria: %w", err)
		}
	}
	if v, ok := raw["wlo_metadata"]; ok && !isNull(v) {
		md, err := unmarshalMetadataList(v)
		if err != nil {
			return fmt.Errorf("wlo_metadata: %w", err)
		}
		res.WLOMetadata = md
	}
	res.Extra = extraKeys(raw, known...)

	*r = res
	return nil
}

func inferKind(raw map[string]json.RawMessage) ResourceKind {
	for _, k := range AllResourceKinds() {
		if _, ok := raw[k.idKey()]; ok {
			return k
		}
		if _, ok := raw[k.typeKey()]; ok {
			return k
		}
	}
	return KindMaterial
}

// unmarshalMetadataList accepts a single record or an ordered list of them.
func unmarshalMetadataList(data []byte) ([]Metadata, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var single Metadata
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, err
		}
		return []Metadata{single}, nil
	}
	var list []Metadata
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func readString(raw map[string]json.RawMessage, key string, dst *string) error {
	v, ok := raw[key]
	if !ok || isNull(v) {
		return nil
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// extraKeys returns the compacted entries of raw not named in known, or nil.
func extraKeys(raw map[string]json.RawMessage, known ...string) map[string]json.RawMessage {
	var extra map[string]json.RawMessage
	for key, value := range raw {
		if slices.Contains(known, key) {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, value); err != nil {
			extra[key] = value
			continue
		}
		extra[key] = json.RawMessage(buf.Bytes())
	}
	return extra
}

// appendExtra adds extra keys in sorted order, skipping any already written.
func appendExtra(fields []jsonField, extra map[string]json.RawMessage) []jsonField {
	if len(extra) == 0 {
		return fields
	}
	keys := make([]string, 0, len(extra))
	for key := range extra {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if hasField(fields, key) {
			continue
		}
		fields = append(fields, jsonField{key, extra[key]})
	}
	return fields
}

func hasField(fields []jsonField, key string) bool {
	for _, f := range fields {
		if f.key == key {
			return true
		}
	}
	return false
}

func cloneExtra(in map[string]json.RawMessage) map[string]json.RawMessage {
	if in == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(in))
	for key, value := range in {
		out[key] = append(json.RawMessage(nil), value...)
	}
	return out
}

type jsonField struct {
	key   string
	value any
}

// marshalOrdered writes an object with keys in the given order.
func marshalOrdered(fields []jsonField) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
