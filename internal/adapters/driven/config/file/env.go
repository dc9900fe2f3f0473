package file

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// DotEnvFiles are loaded in order. Variables already set in the
// environment are never overwritten, so earlier files win over later ones.
var DotEnvFiles = []string{".env.local", ".env"}

// LoadDotEnv loads the dotenv files from dir. Missing files are skipped.
func LoadDotEnv(dir string) error {
	for _, name := range DotEnvFiles {
		path := filepath.Join(dir, name)
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// envKeys maps well-known provider variables to configuration keys.
// A key is only overridden when the matching provider is selected.
var envKeys = []struct {
	env      string
	key      string
	provider string
}{
	{"OPENAI_API_KEY", "api_key", "openai"},
	{"ANTHROPIC_API_KEY", "api_key", "anthropic"},
	{"GEMINI_API_KEY", "api_key", "gemini"},
	{"OLLAMA_HOST", "base_url", "ollama"},
}

// EnvPrefix marks variables that override any configuration key.
// CHUNKWISE_RETRIEVAL_TOP_K overrides "retrieval.top_k".
const EnvPrefix = "CHUNKWISE_"

// ProviderEnv returns the value of the provider's well-known variable for
// field ("api_key" or "base_url"), or "".
func ProviderEnv(provider, field string) string {
	for _, e := range envKeys {
		if e.provider == provider && e.key == field {
			return os.Getenv(e.env)
		}
	}
	return ""
}

// EnvOverrides returns configuration keys set through CHUNKWISE_* variables.
// The first underscore after the prefix separates the section from the field.
func EnvOverrides() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		rest := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
		section, field, ok := strings.Cut(rest, "_")
		if !ok || section == "" || field == "" {
			continue
		}
		out[section+"."+field] = value
	}
	return out
}
