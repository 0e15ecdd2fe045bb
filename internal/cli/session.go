package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"todosync/internal/backend/googletasks"
	"todosync/internal/backend/rest"
	"todosync/internal/commands"
	"todosync/internal/config"
	"todosync/internal/service"
	"todosync/internal/storage"
	"todosync/internal/tasksync"
)

// watchDelay is the quiet period before an outside change to the storage
// file is reported.
const watchDelay = 150 * time.Millisecond

// OpenSession is the EngineFactory used by the todosync binary. It opens
// file or SQLite storage, the configured remote if any, and starts the engine.
func OpenSession(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*commands.Session, error) {
	store, watch, closeStore, err := openStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	remote, err := openRemote(ctx, cfg, logger)
	if err != nil {
		closeStore()
		return nil, err
	}

	s, err := commands.StartSession(ctx, tasksync.Options{
		Remote:  remote,
		Storage: store,
		Logger:  logger,
	})
	if err != nil {
		closeStore()
		return nil, err
	}
	s.Watch = watch
	s.OnClose(closeStore)
	return s, nil
}

func openStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, func(func()) (func(), error), func(), error) {
	path := cfg.DataPath()
	if cfg.Storage == config.StorageSQLite {
		db, err := storage.OpenSQLite(path, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				logger.Warn("failed to close database", "path", path, "error", err)
			}
		}
		return db, nil, closeDB, nil
	}

	fs := storage.NewFileStorage(path, logger)
	watch := func(onChange func()) (func(), error) {
		w, err := storage.NewWatcher(fs.Path(), watchDelay, func() {
			if fs.ExternallyModified() {
				onChange()
			}
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := w.Start(); err != nil {
			w.Stop()
			return nil, err
		}
		return func() { w.Stop() }, nil
	}
	return fs, watch, func() {}, nil
}

// openRemote returns the configured remote, or nil for local mode.
func openRemote(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.Remote, error) {
	switch {
	case cfg.Backend == config.BackendGoogleTasks:
		if !cfg.HasToken() {
			return nil, fmt.Errorf("not logged in to Google Tasks (run: todosync login)")
		}
		client, err := googletasks.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case cfg.APIURL != "":
		client, err := rest.New(rest.Options{
			BaseURL: cfg.APIURL,
			Token:   cfg.APIToken,
			Timeout: cfg.RequestTimeout,
			Retries: cfg.Retries,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, nil
	}
}
