package config

import (
	"errors"
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if cfg.Download.MinZoom != 0 || cfg.Download.MaxZoom != 8 {
		t.Errorf("zooms = %d..%d, want 0..8", cfg.Download.MinZoom, cfg.Download.MaxZoom)
	}
	if cfg.Download.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Download.Workers)
	}
	if cfg.Download.Delay != 100*time.Millisecond {
		t.Errorf("Delay = %v, want 100ms", cfg.Download.Delay)
	}
	if cfg.Download.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Download.Timeout)
	}
	if cfg.Store.Root != "./static/tiles" {
		t.Errorf("Store.Root = %q", cfg.Store.Root)
	}
	if cfg.Upstream.TileURLTemplate != "https://a.tile.openstreetmap.org/{z}/{x}/{y}.png" {
		t.Errorf("TileURLTemplate = %q", cfg.Upstream.TileURLTemplate)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DOWNLOAD_MAX_ZOOM", "12")
	t.Setenv("DOWNLOAD_WORKERS", "2")
	t.Setenv("STORE_BACKEND", "sqlite")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if cfg.Download.MaxZoom != 12 || cfg.Download.Workers != 2 {
		t.Errorf("env not applied: %+v", cfg.Download)
	}
	if cfg.Store.Backend != StoreBackendSQLite {
		t.Errorf("Store.Backend = %q", cfg.Store.Backend)
	}
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero workers", func(c *Config) { c.Download.Workers = 0 }, true},
		{"negative min zoom", func(c *Config) { c.Download.MinZoom = -1 }, true},
		{"max below min", func(c *Config) { c.Download.MinZoom = 5; c.Download.MaxZoom = 4 }, true},
		{"zoom too deep", func(c *Config) { c.Download.MaxZoom = 31 }, true},
		{"unknown backend", func(c *Config) { c.Store.Backend = "s3" }, true},
		{"non http template", func(c *Config) { c.Upstream.TileURLTemplate = "ftp://x/{z}/{x}/{y}" }, true},
		{"missing placeholder", func(c *Config) { c.Upstream.TileURLTemplate = "https://x/{z}/{x}.png" }, true},
		{"negative delay", func(c *Config) { c.Download.Delay = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := New()
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			tt.mutate(cfg)

			err = cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateMissingPlaceholder(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cfg.Upstream.TileURLTemplate = "https://tiles.example/{z}/{y}.png"

	if err := cfg.Validate(); !errors.Is(err, ErrMissingPlaceholder) {
		t.Errorf("got %v, want ErrMissingPlaceholder", err)
	}
}
