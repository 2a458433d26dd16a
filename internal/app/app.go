// Package app initializes and holds long-lived scanner services, acting as a
// dependency injection container.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/api"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/checkpoint"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/config"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/metrics"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/progress"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/progress/sinks"
)

// App holds the shared, long-lived services of the scanner: the logger, the
// checkpoint store, the progress recorder and the optional status server.
// It is initialized once at startup and handed to the commands that need it.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	store    checkpoint.Store
	recorder *progress.Recorder
	snapshot *sinks.SnapshotSink
	server   *api.Server
}

// GetConfig returns the loaded configuration.
func (a *App) GetConfig() config.Config {
	return a.cfg
}

// GetLogger returns the shared zap logger instance.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetStore exposes the configured checkpoint store.
func (a *App) GetStore() checkpoint.Store {
	return a.store
}

// GetRecorder returns the progress recorder commands emit scan events to.
func (a *App) GetRecorder() *progress.Recorder {
	return a.recorder
}

// GetServer returns the status HTTP server, or nil when it is disabled.
func (a *App) GetServer() *api.Server {
	return a.server
}

// New creates and initializes an App from the loaded configuration. It is the
// central point for service initialization and fails fast if any critical
// service cannot be built.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	zap.ReplaceGlobals(logger)
	logger.Info("initializing scanner services")
	metrics.Init()

	// 1. Checkpoint store
	// The store persists per-card results so interrupted scans resume where
	// they left off.
	var store checkpoint.Store
	var err error
	switch cfg.Scan.Store {
	case "file":
		path := filepath.Join(cfg.Scan.DataDir, "checkpoint.json")
		logger.Info("using file checkpoint store", zap.String("path", path))
		store, err = checkpoint.NewFileStore(path, logger.Named("checkpoint"))
	case "sqlite":
		path := filepath.Join(cfg.Scan.DataDir, "checkpoint.db")
		logger.Info("using sqlite checkpoint store", zap.String("path", path))
		store, err = checkpoint.OpenSQLite(path, logger.Named("checkpoint"))
	case "postgres":
		logger.Info("connecting to postgres checkpoint store")
		store, err = checkpoint.NewPostgresStore(ctx, checkpoint.PostgresConfig{
			DSN:      cfg.DB.DSN,
			MaxConns: int32(cfg.DB.MaxOpenConns),
		}, logger.Named("checkpoint"))
	default:
		return nil, fmt.Errorf("unknown checkpoint store: %s", cfg.Scan.Store)
	}
	if err != nil {
		return nil, fmt.Errorf("initialize checkpoint store: %w", err)
	}

	// 2. Progress sinks
	// Every run logs its events; the Prometheus and snapshot sinks only
	// matter when the status server is there to expose them.
	sinkList := []progress.Sink{sinks.NewLogSink(logger.Named("progress"))}
	var snapshot *sinks.SnapshotSink
	var server *api.Server
	if cfg.Server.Enabled {
		promSink, sinkErr := sinks.NewPrometheusSink(nil)
		if sinkErr != nil {
			return nil, fmt.Errorf("initialize prometheus sink: %w", sinkErr)
		}
		snapshot = sinks.NewSnapshotSink()
		sinkList = append(sinkList, promSink, snapshot)
		server = api.NewServer(cfg.Server.Port, snapshot, logger.Named("api"))
		logger.Info("status server enabled", zap.Int("port", cfg.Server.Port))
	}
	recorder := progress.NewRecorder(progress.Config{Logger: logger.Named("progress")}, sinkList...)

	logger.Info("scanner services initialized")
	return &App{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		recorder: recorder,
		snapshot: snapshot,
		server:   server,
	}, nil
}

// Close gracefully shuts down the services in the App container. It is called
// by a Cobra hook after the command finishes execution.
func (a *App) Close() {
	a.GetLogger().Info("shutting down scanner services")
	if err := a.recorder.Close(context.Background()); err != nil {
		a.GetLogger().Warn("error closing progress recorder", zap.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.GetLogger().Warn("error closing checkpoint store", zap.Error(err))
	}
	// Flushing the logger is best effort; logging itself may be failing.
	if err := a.GetLogger().Sync(); err != nil {
		a.GetLogger().Warn("error syncing logger on shutdown", zap.Error(err))
	}
}
