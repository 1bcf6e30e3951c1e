package templatefile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/didakt/internal/core/domain"
)

const sampleTemplate = `{
  "metadata": {"title": "Bruchrechnung"},
  "environments": [
    {"environment_id": "env-1", "name": "Klassenraum",
     "materials": [{"material_id": "m1", "name": "Arbeitsblatt", "source": "manual"}]}
  ]
}`

func TestStore_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleTemplate), 0644))

	data, err := NewStore().Load(path)

	require.NoError(t, err)
	assert.Equal(t, sampleTemplate, string(data))
}

func TestStore_Load_NotFound(t *testing.T) {
	_, err := NewStore().Load(filepath.Join(t.TempDir(), "missing.json"))

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_Save_RoundTrip(t *testing.T) {
	var tmpl domain.Template
	require.NoError(t, json.Unmarshal([]byte(sampleTemplate), &tmpl))
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	store := NewStore()

	require.NoError(t, store.Save(path, &tmpl))

	data, err := store.Load(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"metadata\"")
	assert.Contains(t, string(data), `"environment_id": "env-1"`)

	var loaded domain.Template
	require.NoError(t, json.Unmarshal(data, &loaded))
	require.Len(t, loaded.Environments, 1)
	assert.Equal(t, "m1", loaded.Environments[0].Materials[0].ID)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

const sampleYAML = `metadata:
  title: Bruchrechnung
environments:
  - environment_id: env-1
    name: Klassenraum
    materials:
      - material_id: m1
        name: Arbeitsblatt
        source: filter
        filter_criteria:
          cclom:title: Brüche
`

func TestStore_Load_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0644))

	data, err := NewStore().Load(path)

	require.NoError(t, err)
	var tmpl domain.Template
	require.NoError(t, json.Unmarshal(data, &tmpl))
	require.Len(t, tmpl.Environments, 1)
	material := tmpl.Environments[0].Materials[0]
	assert.Equal(t, "m1", material.ID)
	assert.Equal(t, domain.SourceFilter, material.Source)
	assert.Equal(t, "Brüche", material.FilterCriteria["cclom:title"])
	assert.JSONEq(t, `{"title": "Bruchrechnung"}`, string(tmpl.Metadata))
}

func TestStore_Load_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.yaml")
	require.NoError(t, os.WriteFile(path, []byte("metadata: [unclosed"), 0644))

	_, err := NewStore().Load(path)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_Save_YAMLRoundTrip(t *testing.T) {
	var tmpl domain.Template
	require.NoError(t, json.Unmarshal([]byte(sampleTemplate), &tmpl))
	path := filepath.Join(t.TempDir(), "out.yaml")
	store := NewStore()

	require.NoError(t, store.Save(path, &tmpl))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "environment_id: env-1")

	data, err := store.Load(path)
	require.NoError(t, err)
	var loaded domain.Template
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, "m1", loaded.Environments[0].Materials[0].ID)
}

func TestStore_Save_Nil(t *testing.T) {
	err := NewStore().Save(filepath.Join(t.TempDir(), "x.json"), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_Watch(t *testing.T) {
	t.Run("reports writes", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "template.json")
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes := make(chan []byte, 8)
		done := make(chan error, 1)
		go func() {
			done <- NewStore().Watch(ctx, path, func(data []byte) { changes <- data })
		}()

		go func() {
			time.Sleep(100 * time.Millisecond)
			_ = os.WriteFile(path, []byte(sampleTemplate), 0644)
		}()

		select {
		case data := <-changes:
			assert.NotEmpty(t, data)
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for change")
		}

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("watch did not stop after cancel")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		err := NewStore().Watch(context.Background(), filepath.Join(t.TempDir(), "nope.json"), func([]byte) {})

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestIsTemplateWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "template.json")

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write", fsnotify.Event{Name: path, Op: fsnotify.Write}, true},
		{"create by rename-over", fsnotify.Event{Name: path, Op: fsnotify.Create}, true},
		{"write and chmod", fsnotify.Event{Name: path, Op: fsnotify.Write | fsnotify.Chmod}, true},
		{"chmod only", fsnotify.Event{Name: path, Op: fsnotify.Chmod}, false},
		{"remove", fsnotify.Event{Name: path, Op: fsnotify.Remove}, false},
		{"other file", fsnotify.Event{Name: filepath.Join(dir, "other.json"), Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTemplateWrite(tt.event, path))
		})
	}
}
