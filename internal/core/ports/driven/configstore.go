package driven

import "time"

// ConfigStore holds settings under dotted keys such as "proxy.max_age".
// Typed getters return the zero value when a key is absent or holds a
// value of another type; callers that need to tell the two apart use Get.
type ConfigStore interface {
	// Get returns the raw value and whether the key exists.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// GetDuration parses a string value such as "90s" or "24h". It reports
	// false when the key is absent or the value does not parse.
	GetDuration(key string) (time.Duration, bool)

	// Set stores a value in memory; Save makes it durable.
	Set(key string, value any) error

	Save() error
	Load() error

	// Path returns the backing file, or an empty string when there is none.
	Path() string
}
