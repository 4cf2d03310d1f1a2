// Package app wires the application's dependencies together: config,
// logger, local store, and the remote service client.
package app

import (
	"context"
	"fmt"

	"marginalia/internal/config"
	"marginalia/internal/logger"
	"marginalia/internal/remote"
	"marginalia/internal/scrape"
	"marginalia/internal/store"
	synceng "marginalia/internal/sync"
)

// App holds the application's core dependencies and configuration.
type App struct {
	Config *config.Config
	Logger *logger.Logger
	Store  *store.Store

	// Remote is nil when no credentials are configured; the local store
	// still works, only syncing is unavailable.
	Remote remote.Service
}

// Option is a functional option for configuring the App.
type Option func(*App)

// NewApp creates a new App instance with the given options.
func NewApp(opts ...Option) *App {
	app := &App{}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// WithConfig sets the application configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *App) {
		a.Config = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(a *App) {
		a.Logger = log
	}
}

// WithStore sets the local store.
func WithStore(st *store.Store) Option {
	return func(a *App) {
		a.Store = st
	}
}

// WithRemote sets the remote service client.
func WithRemote(svc remote.Service) Option {
	return func(a *App) {
		a.Remote = svc
	}
}

// Load builds a fully wired App from the configuration file at path.
func Load(ctx context.Context, path string) (*App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log := logger.New(level)

	st, err := store.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	var svc remote.Service
	if cfg.Remote.Configured() {
		client, err := remote.NewClient(cfg.Remote.Host, cfg.Remote.Token)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		svc = client
	}

	return NewApp(
		WithConfig(cfg),
		WithLogger(log),
		WithStore(st),
		WithRemote(svc),
	), nil
}

// Close releases the App's resources.
func (a *App) Close() {
	if a.Store == nil {
		return
	}
	if err := a.Store.Close(); err != nil && a.Logger != nil {
		a.Logger.Errorf("closing store: %v", err)
	}
}

// NewSyncer creates a sync engine over the App's store and remote
// service, with the configured per-folder limits applied.
func (a *App) NewSyncer() *synceng.Syncer {
	syncer := synceng.New(a.Store, a.Remote, a.Logger)
	if a.Config != nil {
		if a.Config.Sync.DefaultBookmarkLimit > 0 {
			syncer.DefaultBookmarkLimit = a.Config.Sync.DefaultBookmarkLimit
		}
		if len(a.Config.Sync.PerFolderBookmarkLimits) > 0 {
			syncer.PerFolderBookmarkLimits = a.Config.Sync.PerFolderBookmarkLimits
		}
	}
	return syncer
}

// CaptureURL records a URL for later reading. When title is empty the
// page is fetched and its <title> used; a failed scrape is logged and
// the capture proceeds untitled.
func (a *App) CaptureURL(ctx context.Context, rawURL, title string) (*store.PendingBookmarkEdit, error) {
	if title == "" {
		scraped, err := scrape.Title(ctx, nil, rawURL)
		if err != nil {
			a.Logger.Warnf("could not scrape a title for %s: %v", rawURL, err)
		} else {
			title = scraped
		}
	}
	return a.Store.AddURL(ctx, rawURL, title)
}
