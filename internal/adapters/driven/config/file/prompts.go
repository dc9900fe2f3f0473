package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
	"github.com/custodia-labs/chunkwise/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed defaults
var defaultFiles embed.FS

const (
	defaultsRoot = "defaults"
	promptExt    = ".txt"
	placeholder  = "%s"
)

// PromptStore serves system prompts from a directory of user-editable
// files. Built-in defaults are written there on first use and stand in for
// files that are missing or lack the context placeholder.
type PromptStore struct {
	dir string

	seed    sync.Once
	seedErr error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore creates a store over dir, or ~/.chunkwise/prompts when dir
// is empty. Nothing touches the disk until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".chunkwise", "prompts")
	}
	return &PromptStore{dir: dir, cache: map[string]string{}}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the named prompt.
func (s *PromptStore) Load(name string) (string, error) {
	fallback, known := builtinPrompt(name)

	s.seed.Do(func() { s.seedErr = s.writeDefaults() })
	if s.seedErr != nil {
		if known {
			return fallback, nil
		}
		return "", fmt.Errorf("prompt %q: %w", name, s.seedErr)
	}

	s.mu.RLock()
	cached, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	prompt, err := s.readUserPrompt(name)
	switch {
	case err == nil:
	case known:
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("prompt %s: %v; using the built-in prompt", name, err)
		}
		prompt = fallback
	default:
		return "", fmt.Errorf("prompt %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache[name]; ok {
		return cached, nil
	}
	s.cache[name] = prompt
	return prompt, nil
}

// Reload forgets cached prompts so the next Load reads the files again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = map[string]string{}
	s.mu.Unlock()
}

func (s *PromptStore) readUserPrompt(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name+promptExt))
	if err != nil {
		return "", err
	}
	prompt := strings.TrimSpace(string(data))
	if _, known := builtinPrompt(name); known && strings.Count(prompt, placeholder) != 1 {
		return "", fmt.Errorf("want exactly one %s placeholder", placeholder)
	}
	return prompt, nil
}

// writeDefaults copies every embedded file that does not exist yet.
func (s *PromptStore) writeDefaults() error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	entries, err := defaultFiles.ReadDir(defaultsRoot)
	if err != nil {
		return err
	}
	for _, e := range entries {
		target := filepath.Join(s.dir, e.Name())
		if _, err := os.Stat(target); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		data, err := defaultFiles.ReadFile(path.Join(defaultsRoot, e.Name()))
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0600); err != nil {
			return fmt.Errorf("write %s: %w", e.Name(), err)
		}
	}
	return nil
}

// builtinPrompt returns the embedded default for name.
func builtinPrompt(name string) (string, bool) {
	data, err := defaultFiles.ReadFile(path.Join(defaultsRoot, name+promptExt))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}
