package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Robotvalley19/Geocaching-App/internal/entity"
	"github.com/Robotvalley19/Geocaching-App/internal/repository/tilestore"
	"github.com/Robotvalley19/Geocaching-App/pkg/logger"
	"github.com/Robotvalley19/Geocaching-App/pkg/metrics"
	"github.com/Robotvalley19/Geocaching-App/pkg/telemetry"
	"github.com/go-resty/resty/v2"
	"github.com/paulmach/orb/maptile"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrUnexpectedStatus = errors.New("unexpected upstream status")

type FetcherOptions struct {
	// URLTemplate has literal {z}, {x} and {y} placeholders.
	URLTemplate string

	// Delay is slept after every tile actually downloaded.
	Delay time.Duration
}

// TileFetcher downloads single tiles into a store. A tile already in the
// store is never requested again, so re-running a range resumes it.
type TileFetcher struct {
	client   *resty.Client
	store    tilestore.TileStore
	template string
	delay    time.Duration
	logger   logger.Logger
}

func NewTileFetcher(client *resty.Client, store tilestore.TileStore, opts FetcherOptions, l logger.Logger) *TileFetcher {
	return &TileFetcher{
		client:   client,
		store:    store,
		template: opts.URLTemplate,
		delay:    opts.Delay,
		logger:   l,
	}
}

// URL substitutes the tile coordinates into the template.
func (f *TileFetcher) URL(t maptile.Tile) string {
	return strings.NewReplacer(
		"{z}", strconv.FormatUint(uint64(t.Z), 10),
		"{x}", strconv.FormatUint(uint64(t.X), 10),
		"{y}", strconv.FormatUint(uint64(t.Y), 10),
	).Replace(f.template)
}

// Fetch never returns an error; failures are reported in the result.
func (f *TileFetcher) Fetch(ctx context.Context, t maptile.Tile) entity.Result {
	ctx, span := telemetry.Tracer().Start(ctx, "fetch tile",
		trace.WithAttributes(
			attribute.Int("tile.z", int(t.Z)),
			attribute.Int("tile.x", int(t.X)),
			attribute.Int("tile.y", int(t.Y)),
		),
	)
	defer span.End()

	res := f.fetch(ctx, t)

	metrics.TileFetches.WithLabelValues(res.Outcome.String()).Inc()
	span.SetAttributes(attribute.String("tile.outcome", res.Outcome.String()))
	if res.Outcome == entity.OutcomeFailed {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
	}

	return res
}

func (f *TileFetcher) fetch(ctx context.Context, t maptile.Tile) entity.Result {
	has, err := f.store.Has(ctx, t)
	if err != nil {
		return entity.Failed(t, fmt.Errorf("check store: %w", err), 0)
	}
	if has {
		f.logger.Debug("tile already stored", "z", t.Z, "x", t.X, "y", t.Y)
		return entity.Cached(t)
	}

	url := f.URL(t)
	start := time.Now()
	resp, err := f.client.R().SetContext(ctx).Get(url)
	elapsed := time.Since(start)
	metrics.UpstreamLatency.Observe(elapsed.Seconds())

	if err != nil {
		return entity.Failed(t, fmt.Errorf("get %s: %w", url, err), elapsed)
	}
	if resp.StatusCode() != http.StatusOK {
		return entity.Failed(t, fmt.Errorf("%w: %s from %s", ErrUnexpectedStatus, resp.Status(), url), elapsed)
	}

	body := resp.Body()
	err = f.store.Set(ctx, t, body)
	if errors.Is(err, tilestore.ErrTileExists) {
		// another worker stored the same tile first
		return entity.Cached(t)
	}
	if err != nil {
		return entity.Failed(t, fmt.Errorf("store tile: %w", err), elapsed)
	}

	metrics.TileFetchBytes.Add(float64(len(body)))
	f.logger.Debug("fetched tile", "z", t.Z, "x", t.X, "y", t.Y, "size", len(body), "duration", elapsed)

	sleepContext(ctx, f.delay)

	return entity.Succeeded(t, len(body), elapsed)
}

// sleepContext sleeps for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
