package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Robotvalley19/Geocaching-App/internal/repository/tilestore"
	"github.com/Robotvalley19/Geocaching-App/pkg/config"
	"github.com/Robotvalley19/Geocaching-App/pkg/logger"
	"github.com/Robotvalley19/Geocaching-App/pkg/telemetry"
)

func newStore(ctx context.Context, cfg config.Store, l logger.Logger) (tilestore.TileStore, error) {
	switch cfg.Backend {
	case config.StoreBackendFilesystem, "":
		return tilestore.NewFilesystemStore(cfg.Root, l)
	case config.StoreBackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		return tilestore.NewSQLiteStore(cfg.SQLitePath, l)
	case config.StoreBackendBlob:
		if cfg.BlobURL == "" {
			return tilestore.OpenDirBlobStore(cfg.Root, l)
		}
		return tilestore.OpenBlobStore(ctx, cfg.BlobURL, l)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func initTelemetry(cfg config.Telemetry, l logger.Logger) func() {
	if !cfg.Enabled {
		return func() {}
	}

	shutdown, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
	}, l)
	if err != nil {
		// tracing is optional, the run goes on without it
		l.Error("failed to initialize telemetry", "error", err)
		return func() {}
	}
	l.Info("telemetry initialized", "service", cfg.ServiceName)

	return func() {
		if err := shutdown(context.Background()); err != nil {
			l.Error("failed to shutdown telemetry", "error", err)
		}
	}
}
