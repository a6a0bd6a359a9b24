package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Robotvalley19/Geocaching-App/internal/entity"
	"github.com/Robotvalley19/Geocaching-App/internal/progress"
	"github.com/Robotvalley19/Geocaching-App/pkg/logger"
	"github.com/Robotvalley19/Geocaching-App/pkg/metrics"
	"github.com/panjf2000/ants/v2"
	"github.com/paulmach/orb/maptile"
)

const (
	DefaultWorkers             = 8
	DefaultLargeRangeThreshold = 1_000_000
	DefaultLargeRangePause     = 3 * time.Second
)

// Fetcher resolves one tile. Implementations report failures in the result
// instead of returning errors.
type Fetcher interface {
	Fetch(ctx context.Context, t maptile.Tile) entity.Result
}

type SchedulerOptions struct {
	// Workers bounds the number of fetches in flight.
	// Default: 8
	Workers int

	// Ranges above LargeRangeThreshold tiles log a warning and wait
	// LargeRangePause before the first request.
	// Defaults: 1,000,000 and 3s
	LargeRangeThreshold uint64
	LargeRangePause     time.Duration

	// Default: progress.Nop()
	Progress progress.Reporter
}

// DownloadScheduler fetches a zoom range one zoom at a time, each zoom with
// its own bounded pool that fully drains before the next zoom starts.
type DownloadScheduler struct {
	fetcher Fetcher
	opts    SchedulerOptions
	logger  logger.Logger
}

func NewDownloadScheduler(f Fetcher, opts SchedulerOptions, l logger.Logger) *DownloadScheduler {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.LargeRangeThreshold == 0 {
		opts.LargeRangeThreshold = DefaultLargeRangeThreshold
	}
	if opts.LargeRangePause < 0 {
		opts.LargeRangePause = 0
	}
	if opts.Progress == nil {
		opts.Progress = progress.Nop()
	}

	return &DownloadScheduler{
		fetcher: f,
		opts:    opts,
		logger:  l,
	}
}

// Run downloads every tile of r. Failed tiles do not stop the run; they are
// counted and listed in the summary. When ctx is cancelled no new tiles are
// submitted, in-flight fetches finish, and the partial summary is returned
// together with the context error.
func (s *DownloadScheduler) Run(ctx context.Context, r entity.Range) (entity.Summary, error) {
	var summary entity.Summary

	total := r.Count()
	s.logger.Info("starting download",
		"min_zoom", r.MinZoom,
		"max_zoom", r.MaxZoom,
		"tiles", total,
		"workers", s.opts.Workers,
	)

	if total > s.opts.LargeRangeThreshold {
		s.logger.Warn("more than the safe number of tiles requested, respect the tile server usage policy",
			"tiles", total,
			"threshold", s.opts.LargeRangeThreshold,
			"pause", s.opts.LargeRangePause,
		)
		if err := sleepContext(ctx, s.opts.LargeRangePause); err != nil {
			return summary, err
		}
	}

	for _, z := range r.Zooms() {
		zs, err := s.runZoom(ctx, z)
		summary.Merge(zs)
		if err != nil {
			return summary, err
		}
	}

	s.logger.Info("download finished",
		"tiles", summary.Total,
		"new", summary.Succeeded,
		"cached", summary.Cached,
		"failed", summary.Failed,
		"bytes", summary.Bytes,
	)

	return summary, nil
}

func (s *DownloadScheduler) runZoom(ctx context.Context, z maptile.Zoom) (entity.Summary, error) {
	zs := entity.Summary{Total: entity.ZoomCount(z)}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	pool, err := ants.NewPoolWithFunc(s.opts.Workers, func(arg any) {
		defer wg.Done()

		t := arg.(maptile.Tile)

		metrics.InFlightFetches.Inc()
		res := s.fetcher.Fetch(ctx, t)
		metrics.InFlightFetches.Dec()

		if res.Outcome == entity.OutcomeFailed {
			s.logger.Warn("tile failed", "z", t.Z, "x", t.X, "y", t.Y, "error", res.Err)
		}

		mu.Lock()
		zs.Add(res)
		mu.Unlock()

		s.opts.Progress.TileDone(res)
	})
	if err != nil {
		return zs, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	s.opts.Progress.ZoomStarted(z, zs.Total)

	var submitErr error
	for t := range entity.ZoomTiles(z) {
		if err := ctx.Err(); err != nil {
			submitErr = err
			break
		}

		wg.Add(1)
		if err := pool.Invoke(t); err != nil {
			wg.Done()
			submitErr = fmt.Errorf("submit tile: %w", err)
			break
		}
	}

	wg.Wait()

	s.opts.Progress.ZoomFinished(z, zs)

	if submitErr != nil {
		s.logger.Warn("zoom interrupted", "z", z, "done", zs.Done(), "total", zs.Total, "error", submitErr)
		return zs, submitErr
	}

	metrics.ZoomsCompleted.Inc()
	s.logger.Info("zoom finished", "z", z, "new", zs.Succeeded, "cached", zs.Cached, "failed", zs.Failed)

	return zs, nil
}
