package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	StoreBackendFilesystem = "fs"
	StoreBackendSQLite     = "sqlite"
	StoreBackendBlob       = "blob"
)

var ErrMissingPlaceholder = errors.New("tile url template must contain {z}, {x} and {y}")

type (
	Config struct {
		HTTP      HTTP      `envPrefix:"HTTP_"`
		Logger    Logger    `envPrefix:"LOGGER_"`
		Telemetry Telemetry `envPrefix:"TELEMETRY_"`
		Redis     Redis     `envPrefix:"REDIS_"`
		Store     Store     `envPrefix:"STORE_"`
		Download  Download  `envPrefix:"DOWNLOAD_"`
		Upstream  Upstream  `envPrefix:"UPSTREAM_"`
	}

	HTTP struct {
		Server Server `envPrefix:"SERVER_"`
	}

	Server struct {
		Port         string        `env:"PORT" envDefault:"5012" validate:"required,numeric"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
		IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	}

	Logger struct {
		Level string `env:"LEVEL" envDefault:"info"`
	}

	Telemetry struct {
		Enabled        bool   `env:"ENABLED" envDefault:"false"`
		ServiceName    string `env:"SERVICE_NAME" envDefault:"geocache-tiles"`
		ServiceVersion string `env:"SERVICE_VERSION" envDefault:"1.0.0"`
		Environment    string `env:"ENVIRONMENT" envDefault:"development"`
		OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"localhost:4317"`
	}

	Redis struct {
		Enabled  bool          `env:"ENABLED" envDefault:"false"`
		Addr     string        `env:"ADDR" envDefault:"localhost:6379"`
		Password string        `env:"PASSWORD" envDefault:""`
		DB       int           `env:"DB" envDefault:"0"`
		TTL      time.Duration `env:"TTL" envDefault:"24h"`
	}

	Store struct {
		Backend    string `env:"BACKEND" envDefault:"fs" validate:"oneof=fs sqlite blob"`
		Root       string `env:"ROOT" envDefault:"./static/tiles" validate:"required"`
		SQLitePath string `env:"SQLITE_PATH" envDefault:"./static/tiles.db"`
		// BlobURL selects a gocloud bucket; empty means a fileblob bucket on Root.
		BlobURL    string `env:"BLOB_URL" envDefault:""`
	}

	Download struct {
		MinZoom             int           `env:"MIN_ZOOM" envDefault:"0" validate:"gte=0,lte=30"`
		MaxZoom             int           `env:"MAX_ZOOM" envDefault:"8" validate:"gte=0,lte=30,gtefield=MinZoom"`
		Workers             int           `env:"WORKERS" envDefault:"8" validate:"gt=0,lte=1024"`
		Delay               time.Duration `env:"DELAY" envDefault:"100ms" validate:"gte=0"`
		Timeout             time.Duration `env:"TIMEOUT" envDefault:"30s" validate:"gt=0"`
		UserAgent           string        `env:"USER_AGENT" envDefault:"MyGeocacheOfflineDownloader/1.0" validate:"required"`
		LargeRangeThreshold uint64        `env:"LARGE_RANGE_THRESHOLD" envDefault:"1000000"`
		LargeRangePause     time.Duration `env:"LARGE_RANGE_PAUSE" envDefault:"3s"`
		MetricsAddr         string        `env:"METRICS_ADDR" envDefault:""`
	}

	Upstream struct {
		TileURLTemplate string `env:"TILE_URL_TEMPLATE" envDefault:"https://a.tile.openstreetmap.org/{z}/{x}/{y}.png" validate:"required,startswith=http"`
	}
)

func New() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the config after flags have been applied.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	for _, p := range []string{"{z}", "{x}", "{y}"} {
		if !strings.Contains(c.Upstream.TileURLTemplate, p) {
			return fmt.Errorf("invalid config: %w", ErrMissingPlaceholder)
		}
	}

	return nil
}
