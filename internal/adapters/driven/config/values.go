// Package config holds the key/value map shared by the config store
// adapters. Keys are dot-separated; file.ConfigStore persists the map as
// nested TOML tables and memory.ConfigStore keeps it in process.
package config

import (
	"errors"
	"math"
	"sync"
)

// ErrEmptyKey is returned by Set for a blank key.
var ErrEmptyKey = errors.New("config: empty key")

// Values is a concurrency-safe map with typed, lenient getters. A getter
// returns the zero value for a missing key or a value of the wrong kind.
type Values struct {
	mu sync.RWMutex
	m  map[string]any
}

// NewValues creates an empty map.
func NewValues() *Values {
	return &Values{m: map[string]any{}}
}

// Get returns the raw value for key.
func (v *Values) Get(key string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.m[key]
	return val, ok
}

// GetString returns key as a string.
func (v *Values) GetString(key string) string {
	s, _ := v.lookup(key).(string)
	return s
}

// GetBool returns key as a bool.
func (v *Values) GetBool(key string) bool {
	b, _ := v.lookup(key).(bool)
	return b
}

// GetInt returns key as an int. Floats count only when they are whole,
// since JSON decoding yields float64 for every number.
func (v *Values) GetInt(key string) int {
	switch n := v.lookup(key).(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == math.Trunc(n) {
			return int(n)
		}
	}
	return 0
}

// GetFloat returns key as a float64. TOML integers are accepted, so
// "temperature = 1" reads as 1.0.
func (v *Values) GetFloat(key string) float64 {
	switch n := v.lookup(key).(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// Set stores value under key.
func (v *Values) Set(key string, value any) error {
	if key == "" {
		return ErrEmptyKey
	}
	v.mu.Lock()
	v.m[key] = value
	v.mu.Unlock()
	return nil
}

// Replace swaps in a new set of values.
func (v *Values) Replace(m map[string]any) {
	if m == nil {
		m = map[string]any{}
	}
	v.mu.Lock()
	v.m = m
	v.mu.Unlock()
}

// Snapshot returns a copy of every value.
func (v *Values) Snapshot() map[string]any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]any, len(v.m))
	for k, val := range v.m {
		out[k] = val
	}
	return out
}

func (v *Values) lookup(key string) any {
	val, _ := v.Get(key)
	return val
}
