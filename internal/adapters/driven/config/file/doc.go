// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML configuration at ~/.chunkwise/config.toml
//   - PromptStore: user-editable system prompts in ~/.chunkwise/prompts
//
// env.go loads .env files and resolves environment overrides.
package file
