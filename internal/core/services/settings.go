package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driven"
	"github.com/custodia-labs/docforge/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyStorageBackend     = "storage.backend"
	keyStorageDataDir     = "storage.data_dir"
	keyCatalogDir         = "catalog.dir"
	keyCatalogWatch       = "catalog.watch"
	keyRenderDefaultStyle = "render.default_style"
	keyProxyMaxAge        = "proxy.max_age"
	keyProxyTTL           = "proxy.ttl"
	keyProxySweep         = "proxy.sweep_interval"
	keyEmbedEnabled       = "embed.enabled"
	keyEmbedTimeout       = "embed.timeout"
	keyEmbedMaxBytes      = "embed.max_bytes"
	keyEmbedRequireHTTPS  = "embed.require_https"
	keyEmbedRate          = "embed.rate"
	keyEmbedBurst         = "embed.burst"
	keyServerAddr         = "server.addr"
	keyAuthEnabled        = "auth.enabled"
	keyAuthTokens         = "auth.tokens"
	keySchedulerEnabled   = "scheduler.enabled"
)

// settingKind drives how Set parses the textual value.
type settingKind int

const (
	kindString settingKind = iota
	kindBool
	kindInt
	kindFloat
	kindDuration
	kindBackend
	kindTokens
)

var settingKinds = map[string]settingKind{
	keyStorageBackend:     kindBackend,
	keyStorageDataDir:     kindString,
	keyCatalogDir:         kindString,
	keyCatalogWatch:       kindBool,
	keyRenderDefaultStyle: kindString,
	keyProxyMaxAge:        kindDuration,
	keyProxyTTL:           kindDuration,
	keyProxySweep:         kindDuration,
	keyEmbedEnabled:       kindBool,
	keyEmbedTimeout:       kindDuration,
	keyEmbedMaxBytes:      kindInt,
	keyEmbedRequireHTTPS:  kindBool,
	keyEmbedRate:          kindFloat,
	keyEmbedBurst:         kindInt,
	keyServerAddr:         kindString,
	keyAuthEnabled:        kindBool,
	keyAuthTokens:         kindTokens,
	keySchedulerEnabled:   kindBool,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings, falling back to defaults for
// missing or malformed values.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Storage: domain.StorageSettings{
			Backend: s.getBackend(d.Storage.Backend),
			DataDir: s.getString(keyStorageDataDir, d.Storage.DataDir),
		},
		Catalog: domain.CatalogSettings{
			Dir:   s.getString(keyCatalogDir, d.Catalog.Dir),
			Watch: s.getBool(keyCatalogWatch, d.Catalog.Watch),
		},
		Render: domain.RenderSettings{
			DefaultStyle: s.getString(keyRenderDefaultStyle, d.Render.DefaultStyle),
		},
		Proxy: domain.ProxySettings{
			MaxAge:        s.getDuration(keyProxyMaxAge, d.Proxy.MaxAge),
			TTL:           s.getDuration(keyProxyTTL, d.Proxy.TTL),
			SweepInterval: s.getDuration(keyProxySweep, d.Proxy.SweepInterval),
		},
		Embed: domain.EmbedSettings{
			Enabled:      s.getBool(keyEmbedEnabled, d.Embed.Enabled),
			Timeout:      s.getDuration(keyEmbedTimeout, d.Embed.Timeout),
			MaxBytes:     int64(s.getInt(keyEmbedMaxBytes, int(d.Embed.MaxBytes))),
			RequireHTTPS: s.getBool(keyEmbedRequireHTTPS, d.Embed.RequireHTTPS),
			Rate:         s.getFloat(keyEmbedRate, d.Embed.Rate),
			Burst:        s.getInt(keyEmbedBurst, d.Embed.Burst),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, d.Server.Addr),
		},
		Auth: domain.AuthSettings{
			Enabled: s.getBool(keyAuthEnabled, d.Auth.Enabled),
			Tokens:  s.getTokens(),
		},
	}

	return settings, nil
}

// Set parses value according to key and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	parsed, err := parseSetting(kind, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return s.configStore.Save()
}

// Keys returns the recognised setting keys in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// GetSchedulerConfig returns the scheduler configuration.
// The sweep interval follows proxy.sweep_interval.
func (s *SettingsService) GetSchedulerConfig() domain.SchedulerConfig {
	cfg := domain.DefaultSchedulerConfig()

	if _, exists := s.configStore.Get(keySchedulerEnabled); exists {
		cfg.Enabled = s.configStore.GetBool(keySchedulerEnabled)
	}

	task := cfg.TaskConfigs[domain.TaskIDProxySweep]
	task.Interval = s.getDuration(keyProxySweep, task.Interval)
	task.Enabled = task.Interval > 0
	cfg.TaskConfigs[domain.TaskIDProxySweep] = task

	return cfg
}

func parseSetting(kind settingKind, value string) (any, error) {
	switch kind {
	case kindBool:
		return strconv.ParseBool(value)
	case kindInt:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("must not be negative")
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, err
		}
		if f < 0 {
			return nil, fmt.Errorf("must not be negative")
		}
		return f, nil
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, err
		}
		if d < 0 {
			return nil, fmt.Errorf("must not be negative")
		}
		return d.String(), nil
	case kindBackend:
		b := domain.StorageBackend(value)
		if !b.IsValid() {
			return nil, fmt.Errorf("unknown backend %q", value)
		}
		return b.String(), nil
	case kindTokens:
		if value == "" {
			return []string{}, nil
		}
		var entries []string
		for _, entry := range strings.Split(value, ",") {
			entry = strings.TrimSpace(entry)
			token, group, ok := strings.Cut(entry, "=")
			if !ok || token == "" || group == "" {
				return nil, fmt.Errorf("token entry %q must be token=group", entry)
			}
			entries = append(entries, entry)
		}
		return entries, nil
	default:
		return value, nil
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	d, ok := s.configStore.GetDuration(key)
	if !ok || d < 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	b := domain.StorageBackend(s.configStore.GetString(keyStorageBackend))
	if !b.IsValid() {
		return defaultVal
	}
	return b
}

// getTokens reads "token=group" entries, skipping malformed ones.
func (s *SettingsService) getTokens() map[string]string {
	entries := s.configStore.GetStringSlice(keyAuthTokens)
	if len(entries) == 0 {
		return nil
	}
	tokens := make(map[string]string, len(entries))
	for _, entry := range entries {
		token, group, ok := strings.Cut(entry, "=")
		if !ok || token == "" || group == "" {
			continue
		}
		tokens[token] = group
	}
	return tokens
}
