package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/Robotvalley19/Geocaching-App/internal/entity"
	"github.com/paulmach/orb/maptile"
	"github.com/schollz/progressbar/v3"
)

type Reporter interface {
	ZoomStarted(z maptile.Zoom, total uint64)
	TileDone(r entity.Result)
	ZoomFinished(z maptile.Zoom, s entity.Summary)
}

type nopReporter struct{}

func (nopReporter) ZoomStarted(maptile.Zoom, uint64)          {}
func (nopReporter) TileDone(entity.Result)                    {}
func (nopReporter) ZoomFinished(maptile.Zoom, entity.Summary) {}

// Nop returns a reporter that discards everything.
func Nop() Reporter {
	return nopReporter{}
}

// Options configures the bar reporter.
type Options struct {
	// Output is where the bar is drawn.
	// Default: os.Stderr
	Output io.Writer

	// Throttle limits how often the bar is redrawn.
	// Default: 100ms
	Throttle time.Duration
}

// BarReporter draws one progress bar per zoom level.
type BarReporter struct {
	opts Options

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func NewBarReporter(opts Options) *BarReporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.Throttle == 0 {
		opts.Throttle = 100 * time.Millisecond
	}

	return &BarReporter{opts: opts}
}

func (r *BarReporter) ZoomStarted(z maptile.Zoom, total uint64) {
	fmt.Fprintf(r.opts.Output, "Zoom %d: %d tiles\n", z, total)

	bar := progressbar.NewOptions64(int64(total),
		progressbar.OptionSetDescription(fmt.Sprintf("z=%d", z)),
		progressbar.OptionSetWriter(r.opts.Output),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("tile"),
		progressbar.OptionThrottle(r.opts.Throttle),
		progressbar.OptionSetWidth(30),
	)

	r.mu.Lock()
	r.bar = bar
	r.mu.Unlock()
}

func (r *BarReporter) TileDone(entity.Result) {
	r.mu.Lock()
	bar := r.bar
	r.mu.Unlock()

	if bar != nil {
		_ = bar.Add(1)
	}
}

func (r *BarReporter) ZoomFinished(z maptile.Zoom, s entity.Summary) {
	r.mu.Lock()
	bar := r.bar
	r.bar = nil
	r.mu.Unlock()

	if bar != nil {
		_ = bar.Finish()
	}

	fmt.Fprintf(r.opts.Output, "\nz=%d: %d new, %d cached, %d failed\n",
		z, s.Succeeded, s.Cached, s.Failed)
}
