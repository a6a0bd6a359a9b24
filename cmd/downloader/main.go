package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/Robotvalley19/Geocaching-App/internal/app"
	"github.com/Robotvalley19/Geocaching-App/pkg/config"
)

func main() {
	os.Exit(realMain(os.Args[1:]))
}

func realMain(args []string) int {
	cfg, err := config.New()
	if err != nil {
		log.Println("failed to load config: ", err)
		return app.ExitUsage
	}

	if err := parseFlags(cfg, args, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return app.ExitOK
		}
		return app.ExitUsage
	}

	if err := cfg.Validate(); err != nil {
		log.Println(err)
		return app.ExitUsage
	}

	return app.RunDownloader(cfg)
}

// parseFlags overrides cfg with command line flags. Flag defaults are the
// values loaded from the environment.
func parseFlags(cfg *config.Config, args []string, output io.Writer) error {
	fs := flag.NewFlagSet("downloader", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: downloader [flags]\n\nDownloads OSM tiles for a zoom range into {out}/{z}/{x}/{y}.png.\n\n")
		fs.PrintDefaults()
	}

	fs.IntVar(&cfg.Download.MinZoom, "minz", cfg.Download.MinZoom, "minimum zoom level")
	fs.IntVar(&cfg.Download.MaxZoom, "maxz", cfg.Download.MaxZoom, "maximum zoom level")
	fs.StringVar(&cfg.Store.Root, "out", cfg.Store.Root, "output directory")
	fs.IntVar(&cfg.Download.Workers, "threads", cfg.Download.Workers, "number of concurrent downloads")
	delay := fs.Float64("delay", cfg.Download.Delay.Seconds(), "pause in seconds after each downloaded tile")
	fs.StringVar(&cfg.Upstream.TileURLTemplate, "server", cfg.Upstream.TileURLTemplate, "tile URL template with {z}, {x} and {y}")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		err := fmt.Errorf("unexpected arguments: %v", fs.Args())
		fmt.Fprintln(output, err)
		fs.Usage()
		return err
	}

	cfg.Download.Delay = time.Duration(*delay * float64(time.Second))

	return nil
}
