package postprocessors

import (
	"fmt"
	"maps"
	"slices"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
)

// BuilderFunc creates a stage from loosely typed config, as decoded from
// TOML settings or a JSON request.
type BuilderFunc func(cfg map[string]any) (driven.PostProcessor, error)

// Registry is the closed set of stages a pipeline may be built from.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: map[string]BuilderFunc{}}
}

// Register binds name to builder, replacing any earlier binding.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build constructs the stage called name. Unknown names are a
// configuration error; so is any error from the builder itself.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PostProcessor, error) {
	builder := r.builders[name]
	if builder == nil {
		return nil, fmt.Errorf("%w: no stage named %q (have %v)", domain.ErrConfiguration, name, r.Names())
	}
	stage, err := builder(cfg)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", name, err)
	}
	return stage, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	return r.builders[name] != nil
}

// Names lists the registered stages alphabetically.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.builders))
}
