package memory

import (
	"github.com/custodia-labs/chunkwise/internal/adapters/driven/config"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in process only. Save and Load do nothing.
type ConfigStore struct {
	*config.Values
}

// NewConfigStore creates an empty store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{Values: config.NewValues()}
}

// Save is a no-op.
func (s *ConfigStore) Save() error { return nil }

// Load is a no-op.
func (s *ConfigStore) Load() error { return nil }

// Path reports that nothing is on disk.
func (s *ConfigStore) Path() string { return ":memory:" }
