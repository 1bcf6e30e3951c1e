// Package templatefile loads, saves and watches template documents on disk.
//
// Templates are JSON. Files ending in .yaml or .yml are accepted as well:
// they are converted to JSON on load and written as YAML on save.
package templatefile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/didakt/internal/core/domain"
	"github.com/custodia-labs/didakt/internal/core/ports/driven"
	"github.com/custodia-labs/didakt/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.TemplateStore = (*Store)(nil)

// Store reads and writes template files.
type Store struct{}

// NewStore creates a new template file store.
func NewStore() *Store {
	return &Store{}
}

// Load returns the document at path as JSON text.
func (s *Store) Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("read template: %w", err)
	}
	return asJSON(path, data)
}

// Save writes tmpl as indented JSON, or as YAML for a .yaml/.yml path.
// The file is replaced atomically.
func (s *Store) Save(path string, tmpl *domain.Template) error {
	if tmpl == nil {
		return fmt.Errorf("%w: template is nil", domain.ErrInvalidInput)
	}
	data, err := encode(path, tmpl)
	if err != nil {
		return fmt.Errorf("encode template: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".template-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write template: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write template: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write template: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace template: %w", err)
	}
	return nil
}

// Watch calls onChange with the file's contents after every write until ctx
// is done. The parent directory is watched so that editors which save by
// renaming a new file over the old one are still seen.
func (s *Store) Watch(ctx context.Context, path string, onChange func([]byte)) error {
	path = filepath.Clean(path)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return fmt.Errorf("stat template: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isTemplateWrite(event, path) {
				continue
			}
			data, err := os.ReadFile(path)
			if err == nil {
				data, err = asJSON(path, data)
			}
			if err != nil {
				// The file may be mid-replace; the next event delivers it.
				logger.Debug("templatefile: skip %s: %v", event, err)
				continue
			}
			onChange(data)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("templatefile: watcher error: %v", err)
		}
	}
}

// isTemplateWrite reports whether event changed the contents of path.
func isTemplateWrite(event fsnotify.Event, path string) bool {
	if filepath.Clean(event.Name) != path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// asJSON converts YAML documents to JSON text; anything else is returned
// untouched so the validator reports JSON syntax errors itself.
func asJSON(path string, data []byte) ([]byte, error) {
	if !isYAML(path) {
		return data, nil
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, path, err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a JSON-compatible document: %w", domain.ErrInvalidInput, path, err)
	}
	return out, nil
}

func encode(path string, tmpl *domain.Template) ([]byte, error) {
	data, err := json.MarshalIndent(tmpl, "", "  ")
	if err != nil {
		return nil, err
	}
	if !isYAML(path) {
		return append(data, '\n'), nil
	}

	// Going through a generic value keeps the JSON field names.
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}
