package domain

import "time"

const unknownDescription = "Unknown"

// StorageBackend selects the session and artifact persistence adapter.
type StorageBackend string

// Available storage backends.
const (
	// StorageSQLite persists state in a SQLite database and survives restarts.
	StorageSQLite StorageBackend = "sqlite"

	// StorageMemory keeps state in process memory only.
	StorageMemory StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageSQLite, StorageMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b StorageBackend) Description() string {
	switch b {
	case StorageSQLite:
		return "SQLite (durable)"
	case StorageMemory:
		return "In-memory (lost on exit)"
	default:
		return unknownDescription
	}
}

// StorageSettings configures persistence.
type StorageSettings struct {
	Backend StorageBackend
	DataDir string
}

// CatalogSettings configures where templates and styles are loaded from.
type CatalogSettings struct {
	// Dir holds template and style definition files. Empty uses the built-in catalog only.
	Dir string

	// Watch reloads the catalog when files in Dir change.
	Watch bool
}

// RenderSettings configures the rendering pipeline.
type RenderSettings struct {
	DefaultStyle string
}

// ProxySettings configures proxy artifact retention.
type ProxySettings struct {
	// MaxAge is the age after which the sweep purges an artifact.
	MaxAge time.Duration

	// TTL sets ExpiresAt on new artifacts; zero disables per-artifact expiry.
	TTL time.Duration

	// SweepInterval is how often the sweep runs.
	SweepInterval time.Duration
}

// EmbedSettings bounds the fetch performed when a URL parameter is embedded.
type EmbedSettings struct {
	Enabled      bool
	Timeout      time.Duration
	MaxBytes     int64
	RequireHTTPS bool

	// Rate is the sustained fetches per second; Burst the bucket size.
	Rate  float64
	Burst int
}

// ServerSettings configures the HTTP surface.
type ServerSettings struct {
	Addr string
}

// AuthSettings configures the static bearer-token group resolver.
type AuthSettings struct {
	Enabled bool

	// Tokens maps bearer tokens to groups.
	Tokens map[string]string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Storage StorageSettings
	Catalog CatalogSettings
	Render  RenderSettings
	Proxy   ProxySettings
	Embed   EmbedSettings
	Server  ServerSettings
	Auth    AuthSettings
}

// DefaultAppSettings returns sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Storage: StorageSettings{
			Backend: StorageSQLite,
		},
		Render: RenderSettings{
			DefaultStyle: DefaultStyleID,
		},
		Proxy: ProxySettings{
			MaxAge:        24 * time.Hour,
			SweepInterval: 10 * time.Minute,
		},
		Embed: EmbedSettings{
			Enabled:      true,
			Timeout:      5 * time.Second,
			MaxBytes:     2 << 20,
			RequireHTTPS: true,
			Rate:         4,
			Burst:        8,
		},
		Server: ServerSettings{
			Addr: "127.0.0.1:8420",
		},
	}
}
