package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/chunkwise/internal/adapters/driven/config"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

const configFile = "config.toml"

// ConfigStore keeps settings in a TOML file. Tables are flattened to
// dot-separated keys on load and nested again on save, so the file stays
// hand-editable.
type ConfigStore struct {
	*config.Values
	path string
}

// NewConfigStore opens dir/config.toml, creating dir if needed. An empty
// dir means ~/.chunkwise. A missing file is an empty config.
func NewConfigStore(dir string) (*ConfigStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".chunkwise")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	s := &ConfigStore{Values: config.NewValues(), path: filepath.Join(dir, configFile)}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces the in-memory values with the file's contents.
func (s *ConfigStore) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.Replace(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}

	var tables map[string]any
	if err := toml.Unmarshal(data, &tables); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}
	flat := map[string]any{}
	flatten(tables, "", flat)
	s.Replace(flat)
	return nil
}

// Save writes the values to disk, replacing the file atomically.
func (s *ConfigStore) Save() error {
	data, err := toml.Marshal(nestMap(s.Snapshot()))
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".config-*.toml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Path returns the config file location.
func (s *ConfigStore) Path() string {
	return s.path
}

// flatten writes {"a": {"b": 1}} into out as {"a.b": 1}.
func flatten(m map[string]any, prefix string, out map[string]any) {
	for k, v := range m {
		if prefix != "" {
			k = prefix + "." + k
		}
		if table, ok := v.(map[string]any); ok {
			flatten(table, k, out)
			continue
		}
		out[k] = v
	}
}

// nestMap is the inverse of flatten.
func nestMap(flat map[string]any) map[string]any {
	root := map[string]any{}
	for key, value := range flat {
		parts := strings.Split(key, ".")
		table := root
		for _, p := range parts[:len(parts)-1] {
			next, ok := table[p].(map[string]any)
			if !ok {
				next = map[string]any{}
				table[p] = next
			}
			table = next
		}
		table[parts[len(parts)-1]] = value
	}
	return root
}
