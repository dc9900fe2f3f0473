package driven

// ConfigStore is the persisted key/value configuration.
//
// Keys are dot paths such as "embedding.provider" or
// "chunking.chunk_size". The typed getters return the zero value when a
// key is absent or holds another type.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool

	// Set changes the in-memory value only; Save writes it out.
	Set(key string, value any) error

	Save() error
	Load() error

	// Path is where Save writes, or ":memory:" for stores without a file.
	Path() string
}
