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

	v1 "github.com/Robotvalley19/Geocaching-App/internal/infrastructure/http/v1"
	"github.com/Robotvalley19/Geocaching-App/internal/infrastructure/http/v1/handler"
	"github.com/Robotvalley19/Geocaching-App/internal/repository/tilestore"
	"github.com/Robotvalley19/Geocaching-App/internal/usecase"
	"github.com/Robotvalley19/Geocaching-App/pkg/config"
	"github.com/Robotvalley19/Geocaching-App/pkg/http_server"
	"github.com/Robotvalley19/Geocaching-App/pkg/logger"
	"github.com/gin-gonic/gin"
)

// RunServer serves downloaded tiles until SIGINT or SIGTERM.
func RunServer(cfg *config.Config) {
	l, err := logger.NewZapLogger(cfg.Logger)
	if err != nil {
		log.Fatalln(err)
	}
	defer l.Sync()

	l.Info("starting tile server", "store", cfg.Store.Backend, "root", cfg.Store.Root)

	shutdownTelemetry := initTelemetry(cfg.Telemetry, l)
	defer shutdownTelemetry()

	ctx := logger.WithLogger(context.Background(), l)

	store, err := newServerStore(ctx, cfg, l)
	if err != nil {
		l.Fatal("failed to initialize tile store", "error", err)
	}
	defer store.Close()

	gin.SetMode(gin.ReleaseMode)

	tileUseCase := usecase.NewTileUseCase(store, l)
	h := handler.NewHandler(tileUseCase)
	router := v1.NewRouter(h, l, cfg.Telemetry.Enabled)

	server := http_server.NewServer(cfg.HTTP.Server, router)

	go func() {
		l.Info("starting http server", "port", cfg.HTTP.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Error("server forced to shutdown", "error", err)
		return
	}

	l.Info("server stopped")
}

// newServerStore opens the read side, fronted by redis when enabled. An
// unreachable redis is logged and skipped.
func newServerStore(ctx context.Context, cfg *config.Config, l logger.Logger) (tilestore.TileStore, error) {
	store, err := newStore(ctx, cfg.Store, l)
	if err != nil {
		return nil, err
	}

	if !cfg.Redis.Enabled {
		return store, nil
	}

	client, err := tilestore.NewRedisClient(ctx, tilestore.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Redis.TTL,
	})
	if err != nil {
		l.Error("redis unavailable, serving from the store directly", "addr", cfg.Redis.Addr, "error", err)
		return store, nil
	}
	l.Info("redis cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)

	return tilestore.NewRedisCache(store, client, cfg.Redis.TTL, l), nil
}
