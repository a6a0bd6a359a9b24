package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Robotvalley19/Geocaching-App/internal/entity"
	"github.com/Robotvalley19/Geocaching-App/internal/progress"
	"github.com/Robotvalley19/Geocaching-App/internal/usecase"
	"github.com/Robotvalley19/Geocaching-App/pkg/config"
	"github.com/Robotvalley19/Geocaching-App/pkg/http_server"
	"github.com/Robotvalley19/Geocaching-App/pkg/logger"
)

// Process exit codes of the downloader.
const (
	ExitOK          = 0
	ExitFailedTiles = 1
	ExitUsage       = 2
	ExitInterrupted = 130
)

// RunDownloader downloads the configured zoom range and returns the exit code.
// SIGINT and SIGTERM stop submitting new tiles and let in-flight ones finish.
func RunDownloader(cfg *config.Config) int {
	l, err := logger.NewZapLogger(cfg.Logger)
	if err != nil {
		log.Println(err)
		return ExitUsage
	}
	defer l.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry := initTelemetry(cfg.Telemetry, l)
	defer shutdownTelemetry()

	if addr := cfg.Download.MetricsAddr; addr != "" {
		srv := http_server.NewMetricsServer(addr)
		go func() {
			l.Info("starting metrics server", "address", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				l.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	return runDownload(ctx, cfg, l, progress.NewBarReporter(progress.Options{}))
}

func runDownload(ctx context.Context, cfg *config.Config, l logger.Logger, rep progress.Reporter) int {
	ctx = logger.WithLogger(ctx, l)

	store, err := newStore(ctx, cfg.Store, l)
	if err != nil {
		l.Error("failed to initialize tile store", "backend", cfg.Store.Backend, "error", err)
		return ExitUsage
	}
	defer func() {
		if err := store.Close(); err != nil {
			l.Error("failed to close tile store", "error", err)
		}
	}()

	client := usecase.NewHTTPClient(cfg.Download.UserAgent, cfg.Download.Timeout, l)

	fetcher := usecase.NewTileFetcher(client, store, usecase.FetcherOptions{
		URLTemplate: cfg.Upstream.TileURLTemplate,
		Delay:       cfg.Download.Delay,
	}, l)

	scheduler := usecase.NewDownloadScheduler(fetcher, usecase.SchedulerOptions{
		Workers:             cfg.Download.Workers,
		LargeRangeThreshold: cfg.Download.LargeRangeThreshold,
		LargeRangePause:     cfg.Download.LargeRangePause,
		Progress:            rep,
	}, l)

	r := entity.Range{MinZoom: cfg.Download.MinZoom, MaxZoom: cfg.Download.MaxZoom}

	summary, err := scheduler.Run(ctx, r)
	switch {
	case errors.Is(err, context.Canceled):
		l.Warn("download interrupted", "done", summary.Done(), "total", r.Count())
		return ExitInterrupted
	case err != nil:
		l.Error("download failed", "error", err)
		return ExitFailedTiles
	}

	if summary.Failed > 0 {
		l.Warn("some tiles failed, re-run to retry them",
			"failed", summary.Failed,
			"listed", len(summary.FailedTiles),
			"truncated", summary.FailedTilesTruncated(),
		)
		return ExitFailedTiles
	}

	return ExitOK
}
