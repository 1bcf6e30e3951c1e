package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/didakt/internal/core/ports/driven"
	"github.com/custodia-labs/didakt/internal/logger"
)

var (
	_ driven.PromptStore   = (*PromptStore)(nil)
	_ driven.PromptWatcher = (*PromptStore)(nil)
)

const promptExt = ".txt"

// PromptStore serves prompts from <dir>/<name>.txt, seeding the directory
// with the built-in prompts on first use. A file that is missing or whose
// %s placeholder count differs from the built-in prompt is ignored in
// favour of the built-in text.
type PromptStore struct {
	dir      string
	defaults map[string]string

	seedOnce sync.Once
	seedErr  error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore returns a store rooted at promptDir, or ~/.didakt/prompts
// when promptDir is empty. Nothing is written until the first Load.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locate home directory: %w", err)
		}
		promptDir = filepath.Join(home, ConfigDirName, "prompts")
	}
	return &PromptStore{
		dir:      promptDir,
		defaults: driven.DefaultPrompts(),
		cache:    map[string]string{},
	}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the prompt called name.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(func() { s.seedErr = s.seed() })

	s.mu.RLock()
	cached, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	builtin, known := s.defaults[name]
	prompt, err := s.read(name)
	switch {
	case err != nil && !known:
		if s.seedErr != nil {
			return "", fmt.Errorf("prompt %q: %w", name, s.seedErr)
		}
		return "", fmt.Errorf("prompt %q: %w", name, err)
	case err != nil:
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("prompts: %v; using built-in %s prompt", err, name)
		}
		prompt = builtin
	case known && placeholders(prompt) != placeholders(builtin):
		logger.Warn("prompts: %s%s has %d placeholders, expected %d; using built-in prompt",
			name, promptExt, placeholders(prompt), placeholders(builtin))
		prompt = builtin
	}

	s.mu.Lock()
	if first, ok := s.cache[name]; ok {
		prompt = first
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()
	return prompt, nil
}

// Reload drops cached prompts so the next Load reads the files again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
}

// Watch reloads prompts whenever a file in the prompt directory changes.
// It returns nil once ctx is done.
func (s *PromptStore) Watch(ctx context.Context) error {
	s.seedOnce.Do(func() { s.seedErr = s.seed() })
	if s.seedErr != nil {
		return s.seedErr
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create prompt watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != promptExt || event.Op == fsnotify.Chmod {
				continue
			}
			logger.Debug("prompts: %s changed, reloading", filepath.Base(event.Name))
			s.Reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("prompts: watcher error: %v", err)
		}
	}
}

func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name+promptExt))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// seed writes the built-in prompts and a README without touching files the
// user already has.
func (s *PromptStore) seed() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	files := map[string]string{"README.md": promptReadme}
	for name, text := range s.defaults {
		files[name+promptExt] = text + "\n"
	}
	for file, content := range files {
		err := writeNew(filepath.Join(s.dir, file), content)
		if err != nil && !errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("seed %s: %w", file, err)
		}
	}
	return nil
}

func writeNew(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// placeholders counts %s verbs; a literal "%%" does not count.
func placeholders(prompt string) int {
	return strings.Count(strings.ReplaceAll(prompt, "%%", ""), "%s")
}

const promptReadme = `# didakt prompts

Each .txt file here overrides one of the prompts didakt sends to the
language model. Delete a file to get the built-in version back on the
next run.

| File                      | Used for                                      |
|---------------------------|-----------------------------------------------|
| search_term.txt           | core topic of a resource, used as search term |
| content_type.txt          | content type label                            |
| discipline.txt            | school subject label                          |
| educational_context.txt   | educational level label                       |
| template_complete.txt     | completing a whole template                   |
| flow_generate.txt         | generating the solution flow                  |

Prompts are Go format strings. Keep the number and order of %s
placeholders; a file with a different count is ignored with a warning.
Criteria prompts must still ask for {"value": "..."} as the answer.

A running "didakt mcp serve" picks up edits without a restart.
`
