package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResource_MarshalJSON_KindSpecificKeys(t *testing.T) {
	tests := []struct {
		name string
		res  Resource
		want string
	}{
		{
			name: "material",
			res:  Resource{Kind: KindMaterial, ID: "m1", Name: "Map", Type: "Arbeitsblatt", Source: SourceManual},
			want: `{"material_id":"m1","name":"Map","material_type":"Arbeitsblatt","source":"manual"}`,
		},
		{
			name: "tool with criteria",
			res: Resource{
				Kind: KindTool, ID: "t1", Name: "Pad", Type: "Editor", Source: SourceFilter,
				FilterCriteria: map[string]string{PropertyTitle: "Pad"},
			},
			want: `{"tool_id":"t1","name":"Pad","tool_type":"Editor","source":"filter",` +
				`"filter_criteria":{"cclom:title":"Pad"}}`,
		},
		{
			name: "unknown kind falls back to material",
			res:  Resource{ID: "x", Name: "n"},
			want: `{"material_id":"x","name":"n","material_type":""}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.res)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestResource_MarshalJSON_KeyOrder(t *testing.T) {
	res := Resource{Kind: KindService, ID: "s1", Name: "Chat", Type: "Forum", Source: SourceDatabase, DatabaseID: "a,b"}

	data, err := json.Marshal(res)

	require.NoError(t, err)
	assert.Equal(t,
		`{"service_id":"s1","name":"Chat","service_type":"Forum","source":"database","database_id":"a,b"}`,
		string(data))
}

func TestResource_UnmarshalJSON_InfersKind(t *testing.T) {
	var res Resource
	err := json.Unmarshal([]byte(`{"tool_id": "t9", "name": "Board", "tool_type": "Whiteboard",
		"source": "filter", "filter_criteria": {"cclom:title": "Whiteboard"}}`), &res)

	require.NoError(t, err)
	assert.Equal(t, KindTool, res.Kind)
	assert.Equal(t, "t9", res.ID)
	assert.Equal(t, "Whiteboard", res.Type)
	assert.Equal(t, SourceFilter, res.Source)
	assert.True(t, res.HasCriteria())
	assert.Equal(t, "Tool 'Board'", res.Label())
}

func TestResource_UnmarshalJSON_GenericID(t *testing.T) {
	res := Resource{Kind: KindMaterial}
	err := json.Unmarshal([]byte(`{"id": "legacy", "name": "Old"}`), &res)

	require.NoError(t, err)
	assert.Equal(t, "legacy", res.ID)
	assert.Equal(t, KindMaterial, res.Kind)
}

func TestResource_UnmarshalJSON_MetadataSingleOrList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		count int
	}{
		{"single object", `{"material_id":"m","wlo_metadata":{"title":"A","keywords":[]}}`, 1},
		{"list", `{"material_id":"m","wlo_metadata":[{"title":"A"},{"title":"B"}]}`, 2},
		{"null", `{"material_id":"m","wlo_metadata":null}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res Resource
			require.NoError(t, json.Unmarshal([]byte(tt.input), &res))
			assert.Len(t, res.WLOMetadata, tt.count)
		})
	}
}

func TestResource_UnmarshalJSON_WrongType(t *testing.T) {
	var res Resource
	err := json.Unmarshal([]byte(`{"material_id": 5}`), &res)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "material_id")
}

func TestResource_Clone(t *testing.T) {
	original := Resource{
		FilterCriteria: map[string]string{"k": "v"},
		WLOMetadata:    []Metadata{{Title: "A"}},
	}

	clone := original.Clone()
	clone.FilterCriteria["k"] = "changed"
	clone.WLOMetadata[0].Title = "B"

	assert.Equal(t, "v", original.FilterCriteria["k"])
	assert.Equal(t, "A", original.WLOMetadata[0].Title)
}

func TestResourceKind(t *testing.T) {
	assert.Equal(t, []ResourceKind{KindMaterial, KindTool, KindService}, AllResourceKinds())
	assert.Equal(t, "Service", KindService.Label())
	assert.Equal(t, "Resource", ResourceKind("x").Label())
	assert.False(t, ResourceKind("x").IsValid())
	assert.True(t, SourceDatabase.IsValid())
	assert.False(t, ResourceSource("import").IsValid())
}

func TestPreviewURLFor(t *testing.T) {
	assert.Equal(t,
		"https://redaktion.openeduhub.net/edu-sharing/preview?storeProtocol=workspace&storeId=SpacesStore&nodeId=abc",
		PreviewURLFor("abc"))
}

func TestResource_RoundTripKeepsUnknownKeys(t *testing.T) {
	input := `{"material_id":"m1","name":"Atlas","material_type":"Buch","source":"manual",` +
		`"description":"keep me","tags":["a", "b"],"id":"legacy"}`

	var res Resource
	require.NoError(t, json.Unmarshal([]byte(input), &res))

	assert.Equal(t, "m1", res.ID)
	assert.Equal(t, json.RawMessage(`"keep me"`), res.Extra["description"])
	assert.Equal(t, json.RawMessage(`["a","b"]`), res.Extra["tags"])
	assert.Equal(t, json.RawMessage(`"legacy"`), res.Extra["id"])

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(data))
	assert.Equal(t,
		`{"material_id":"m1","name":"Atlas","material_type":"Buch","source":"manual",`+
			`"description":"keep me","id":"legacy","tags":["a","b"]}`,
		string(data), "extra keys follow the known keys in sorted order")
}

func TestResource_MarshalJSON_KnownFieldsWinOverExtra(t *testing.T) {
	res := Resource{
		Kind:  KindMaterial,
		ID:    "m1",
		Name:  "New",
		Extra: map[string]json.RawMessage{"name": json.RawMessage(`"Old"`)},
	}

	data, err := json.Marshal(res)

	require.NoError(t, err)
	assert.JSONEq(t, `{"material_id":"m1","name":"New","material_type":""}`, string(data))
}

func TestResource_CloneIsolatesExtra(t *testing.T) {
	original := Resource{Extra: map[string]json.RawMessage{"note": json.RawMessage(`"a"`)}}

	clone := original.Clone()
	clone.Extra["note"][1] = 'b'
	clone.Extra["other"] = json.RawMessage(`1`)

	assert.Equal(t, json.RawMessage(`"a"`), original.Extra["note"])
	assert.NotContains(t, original.Extra, "other")
}

func TestMetadata_UnmarshalJSON_KeySpellings(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name: "snake_case",
			input: `{"title":"Vulkane","preview_url":"http://p","resource_type":"Video",` +
				`"www_url":"http://w","educational_context":["Sek I"],"node_id":"n1"}`,
		},
		{
			name: "camelCase",
			input: `{"title":"Vulkane","previewUrl":"http://p","resourceType":"Video",` +
				`"wwwUrl":"http://w","educationalContext":["Sek I"],"nodeId":"n1"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var md Metadata
			require.NoError(t, json.Unmarshal([]byte(tt.input), &md))

			assert.Equal(t, "Vulkane", md.Title)
			require.NotNil(t, md.PreviewURL)
			assert.Equal(t, "http://p", *md.PreviewURL)
			require.NotNil(t, md.WWWURL)
			assert.Equal(t, "http://w", *md.WWWURL)
			assert.Equal(t, "Video", md.ResourceType)
			assert.Equal(t, []string{"Sek I"}, md.EducationalContext)
			assert.Equal(t, "n1", md.NodeID)
			assert.NotNil(t, md.Keywords)
			assert.Empty(t, md.Keywords)
			assert.Nil(t, md.Extra)
		})
	}
}

func TestMetadata_UnmarshalJSON_MissingListsAreEmpty(t *testing.T) {
	var md Metadata
	require.NoError(t, json.Unmarshal([]byte(`{"title":"A","keywords":null}`), &md))

	assert.NotNil(t, md.Keywords)
	assert.NotNil(t, md.EducationalContext)
	assert.Nil(t, md.PreviewURL)

	data, err := json.Marshal(md)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"keywords":[]`)
	assert.Contains(t, string(data), `"educational_context":[]`)
}

func TestMetadata_MarshalJSON_KeepsSpellingAndExtra(t *testing.T) {
	input := `{"title":"A","previewUrl":"http://p","resourceType":"Video","license":"CC BY"}`

	var md Metadata
	require.NoError(t, json.Unmarshal([]byte(input), &md))
	data, err := json.Marshal(md)

	require.NoError(t, err)
	assert.JSONEq(t,
		`{"title":"A","keywords":[],"description":"","subject":"","educationalContext":[],`+
			`"wwwUrl":null,"previewUrl":"http://p","resourceType":"Video","license":"CC BY"}`,
		string(data))
}

func TestMetadata_UnmarshalJSON_WrongType(t *testing.T) {
	var md Metadata
	err := json.Unmarshal([]byte(`{"resourceType": 3}`), &md)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "resource_type")
}
