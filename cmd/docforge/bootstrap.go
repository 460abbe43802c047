package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/docforge/internal/adapters/driven/auth"
	"github.com/custodia-labs/docforge/internal/adapters/driven/catalog"
	"github.com/custodia-labs/docforge/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docforge/internal/adapters/driven/fetch"
	"github.com/custodia-labs/docforge/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docforge/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docforge/internal/adapters/driving/cli"
	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driven"
	"github.com/custodia-labs/docforge/internal/core/services"
	"github.com/custodia-labs/docforge/internal/logger"
	"github.com/custodia-labs/docforge/internal/render"
	"github.com/custodia-labs/docforge/internal/validation"
)

// stores groups the persistence adapters selected by storage.backend.
type stores struct {
	sessions  driven.SessionStore
	artifacts driven.ArtifactStore
	scheduler driven.SchedulerStore
	close     func() error
}

// bootstrap wires adapters and services from the persisted settings.
func bootstrap(opts cli.Options) (*cli.Services, error) {
	configStore, err := openConfig(opts)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	st, err := openStores(opts, settings.Storage)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.New(settings.Catalog.Dir)
	if err != nil {
		st.close() //nolint:errcheck
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	fetcher := fetch.New(nil, fetch.Config{
		RequestsPerSecond: settings.Embed.Rate,
		BurstSize:         settings.Embed.Burst,
	})
	validator := validation.New(fetcher, validation.Options{
		Embed:        settings.Embed.Enabled,
		FetchTimeout: settings.Embed.Timeout,
		MaxBytes:     settings.Embed.MaxBytes,
		RequireHTTPS: settings.Embed.RequireHTTPS,
	})

	proxyService := services.NewProxyService(st.artifacts, settings.Proxy.MaxAge, settings.Proxy.TTL)
	sessionService := services.NewSessionService(st.sessions, st.artifacts, cat, validator)
	renderService := services.NewRenderService(
		sessionService, cat, render.New(cat), proxyService, settings.Render.DefaultStyle,
	)

	n, err := sessionService.Load(context.Background())
	if err != nil {
		st.close() //nolint:errcheck
		return nil, fmt.Errorf("restoring sessions: %w", err)
	}
	logger.Debug("restored %d session(s)", n)

	schedulerConfig := settingsService.GetSchedulerConfig()

	svc := &cli.Services{
		Sessions:        sessionService,
		Render:          renderService,
		Proxy:           proxyService,
		Catalog:         services.NewCatalogService(cat, cat),
		Settings:        settingsService,
		Scheduler:       services.NewScheduler(schedulerConfig, st.scheduler, proxyService),
		SchedulerConfig: schedulerConfig,
		Resolver:        auth.FromSettings(settings.Auth),
		ServerAddr:      settings.Server.Addr,
		Close:           st.close,
	}
	if settings.Catalog.Watch && settings.Catalog.Dir != "" {
		svc.Watch = cat.Watch
	}
	return svc, nil
}

func openConfig(opts cli.Options) (driven.ConfigStore, error) {
	if opts.Ephemeral {
		return memory.NewConfigStore(), nil
	}
	return file.NewConfigStore(opts.ConfigDir)
}

func openStores(opts cli.Options, s domain.StorageSettings) (*stores, error) {
	if opts.Ephemeral || s.Backend == domain.StorageMemory {
		logger.Debug("storage: in-memory")
		return &stores{
			sessions:  memory.NewSessionStore(),
			artifacts: memory.NewArtifactStore(),
			scheduler: memory.NewSchedulerStore(),
			close:     func() error { return nil },
		}, nil
	}

	dataDir := s.DataDir
	if dataDir == "" && opts.ConfigDir != "" {
		dataDir = filepath.Join(opts.ConfigDir, "data")
	}
	db, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	logger.Debug("storage: %s", db.Path())
	return &stores{
		sessions:  db.SessionStore(),
		artifacts: db.ArtifactStore(),
		scheduler: db.SchedulerStore(),
		close:     db.Close,
	}, nil
}
