package driven

// ConfigStore holds persisted settings under dotted keys such as
// "llm.provider" or "enrichment.batch_size".
//
// The typed getters return the zero value when a key is missing or holds
// a value of another type; use Get to tell the two apart.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	// GetFloat also accepts integer values.
	GetFloat(key string) float64
	GetBool(key string) bool
	// GetStringSlice returns a copy the caller may modify.
	GetStringSlice(key string) []string

	// Set stores a value and persists it before returning.
	Set(key string, value any) error
	Save() error
	Load() error

	// Path identifies the backing file, or ":memory:".
	Path() string
}
