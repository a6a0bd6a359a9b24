package main

import (
	"errors"
	"flag"
	"io"
	"testing"
	"time"

	"github.com/Robotvalley19/Geocaching-App/pkg/config"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, err := config.New()
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	return cfg
}

func TestParseFlagsDefaults(t *testing.T) {
	cfg := defaultConfig(t)

	if err := parseFlags(cfg, nil, io.Discard); err != nil {
		t.Fatalf("parseFlags: %v", err)
	}

	if cfg.Download.MinZoom != 0 || cfg.Download.MaxZoom != 8 {
		t.Errorf("zooms = %d..%d", cfg.Download.MinZoom, cfg.Download.MaxZoom)
	}
	if cfg.Download.Workers != 8 {
		t.Errorf("threads = %d", cfg.Download.Workers)
	}
	if cfg.Download.Delay != 100*time.Millisecond {
		t.Errorf("delay = %v", cfg.Download.Delay)
	}
	if cfg.Store.Root != "./static/tiles" {
		t.Errorf("out = %q", cfg.Store.Root)
	}
}

func TestParseFlagsOverride(t *testing.T) {
	cfg := defaultConfig(t)

	args := []string{
		"-minz", "3",
		"-maxz", "5",
		"-out", "/tmp/tiles",
		"-threads", "2",
		"-delay", "0.25",
		"-server", "https://tiles.example/{z}/{x}/{y}.png",
	}
	if err := parseFlags(cfg, args, io.Discard); err != nil {
		t.Fatalf("parseFlags: %v", err)
	}

	if cfg.Download.MinZoom != 3 || cfg.Download.MaxZoom != 5 {
		t.Errorf("zooms = %d..%d", cfg.Download.MinZoom, cfg.Download.MaxZoom)
	}
	if cfg.Store.Root != "/tmp/tiles" || cfg.Download.Workers != 2 {
		t.Errorf("out = %q, threads = %d", cfg.Store.Root, cfg.Download.Workers)
	}
	if cfg.Download.Delay != 250*time.Millisecond {
		t.Errorf("delay = %v", cfg.Download.Delay)
	}
	if cfg.Upstream.TileURLTemplate != "https://tiles.example/{z}/{x}/{y}.png" {
		t.Errorf("server = %q", cfg.Upstream.TileURLTemplate)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParseFlagsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"non numeric zoom", []string{"-minz", "low"}},
		{"unknown flag", []string{"-zoom", "3"}},
		{"positional argument", []string{"extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			if err := parseFlags(cfg, tt.args, io.Discard); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseFlagsHelp(t *testing.T) {
	cfg := defaultConfig(t)
	if err := parseFlags(cfg, []string{"-h"}, io.Discard); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("err = %v, want flag.ErrHelp", err)
	}
}

func TestRealMainRejectsInvalidRange(t *testing.T) {
	t.Chdir(t.TempDir())
	if code := realMain([]string{"-minz", "5", "-maxz", "2"}); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}
