package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/notebox/internal/noteservice"
	"github.com/starford/notebox/internal/prefs"
	"github.com/starford/notebox/internal/storage"
)

// StorageTypeKey is the preference key holding the last selected backend kind.
const StorageTypeKey = "storage_type"

// Events receives note mutations and backend switches. *sse.Broker implements it.
type Events interface {
	noteservice.Notifier
	PublishBackendSwitch(from, to, label string, migrated, failed int)
}

// Runtime holds the opened preference store, the storage manager and the
// note service built on top of them.
type Runtime struct {
	Prefs    prefs.Store
	Manager  *storage.Manager
	Service  *noteservice.Service
	FilePath string
}

// NewLogger builds the JSON logger used by every entry point.
func NewLogger(cfg *Config, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

// Open opens the preference store, initializes the storage manager with the
// remembered (or configured) backend and returns the wired runtime. events
// may be nil.
func Open(ctx context.Context, cfg *Config, logger *slog.Logger, events Events) (*Runtime, error) {
	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	store, err := openPrefs(ctx, cfg.Prefs)
	if err != nil {
		return nil, fmt.Errorf("open preference store: %w", err)
	}

	filePath, err := storage.FilePath(cfg.Storage.DataDir, cfg.Storage.FileName)
	if err != nil {
		store.Close()
		return nil, err
	}
	rt := &Runtime{
		Prefs:    store,
		FilePath: filePath,
	}

	factory := func(_ context.Context, kind storage.Kind) (storage.Backend, error) {
		if kind == storage.KindFile {
			return storage.NewFileBackend(cfg.Storage.DataDir, cfg.Storage.FileName, logger)
		}
		return storage.NewPrefsBackend(store, logger), nil
	}

	opts := []storage.ManagerOption{
		storage.WithLogger(logger),
		storage.WithStrictMigration(cfg.Storage.StrictMigration),
	}
	if cfg.Storage.RememberBackend {
		opts = append(opts, storage.WithSwitchHook(func(_, to storage.Kind, _ storage.MigrationReport) {
			if err := store.Put(context.Background(), StorageTypeKey, to.String()); err != nil {
				logger.Warn("persist backend kind failed", slog.String("error", err.Error()))
			}
		}))
	}
	if events != nil {
		opts = append(opts, storage.WithSwitchHook(func(from, to storage.Kind, report storage.MigrationReport) {
			events.PublishBackendSwitch(from.String(), to.String(), report.Label, report.Migrated, report.Failed)
		}))
	}
	rt.Manager = storage.NewManager(factory, opts...)

	kind := cfg.Storage.Kind()
	if cfg.Storage.RememberBackend {
		kind = rememberedKind(ctx, store, kind, logger)
	}
	if err := rt.Manager.Initialize(ctx, kind); err != nil {
		store.Close()
		return nil, err
	}

	var notify noteservice.Notifier
	if events != nil {
		notify = events
	}
	rt.Service = noteservice.NewService(rt.Manager, notify)
	return rt, nil
}

// Close releases the preference store.
func (rt *Runtime) Close() error {
	return rt.Prefs.Close()
}

func openPrefs(ctx context.Context, cfg PrefsConfig) (prefs.Store, error) {
	switch cfg.Driver {
	case prefs.DriverRedis:
		return prefs.NewRedis(ctx, cfg.Redis, cfg.Namespace)
	case prefs.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, err
		}
		return prefs.OpenSQLite(cfg.SQLitePath, cfg.Namespace)
	}
	return nil, fmt.Errorf("unknown preference driver %q", cfg.Driver)
}

func rememberedKind(ctx context.Context, store prefs.Store, fallback storage.Kind, logger *slog.Logger) storage.Kind {
	v, ok, err := store.Get(ctx, StorageTypeKey)
	if err != nil {
		logger.Warn("read remembered backend failed", slog.String("error", err.Error()))
		return fallback
	}
	if !ok {
		return fallback
	}
	kind, err := storage.ParseKind(v)
	if err != nil {
		logger.Warn("ignoring remembered backend", slog.String("value", v))
		return fallback
	}
	return kind
}
