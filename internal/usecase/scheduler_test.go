package usecase

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Robotvalley19/Geocaching-App/internal/entity"
	"github.com/Robotvalley19/Geocaching-App/internal/repository/tilestore"
	"github.com/Robotvalley19/Geocaching-App/pkg/logger"
	"github.com/paulmach/orb/maptile"
)

type fakeFetcher struct {
	delay  time.Duration
	result func(t maptile.Tile) entity.Result
	onCall func(n int)

	mu    sync.Mutex
	calls []maptile.Tile

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeFetcher) Fetch(ctx context.Context, t maptile.Tile) entity.Result {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, t)
	calls := len(f.calls)
	f.mu.Unlock()

	if f.onCall != nil {
		f.onCall(calls)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.result != nil {
		return f.result(t)
	}
	return entity.Succeeded(t, 1, f.delay)
}

func (f *fakeFetcher) Calls() []maptile.Tile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

type recordingReporter struct {
	mu       sync.Mutex
	started  map[maptile.Zoom]uint64
	done     int
	finished []maptile.Zoom
}

func (r *recordingReporter) ZoomStarted(z maptile.Zoom, total uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started == nil {
		r.started = make(map[maptile.Zoom]uint64)
	}
	r.started[z] = total
}

func (r *recordingReporter) TileDone(entity.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done++
}

func (r *recordingReporter) ZoomFinished(z maptile.Zoom, _ entity.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, z)
}

func TestSchedulerVisitsEveryTile(t *testing.T) {
	f := &fakeFetcher{}
	rep := &recordingReporter{}
	s := NewDownloadScheduler(f, SchedulerOptions{Workers: 2, Progress: rep}, logger.NewNoOp())

	summary, err := s.Run(context.Background(), entity.Range{MinZoom: 0, MaxZoom: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := f.Calls()
	slices.SortFunc(got, func(a, b maptile.Tile) int {
		return int(a.Z)*1e6 + int(a.X)*1e3 + int(a.Y) - (int(b.Z)*1e6 + int(b.X)*1e3 + int(b.Y))
	})
	want := []maptile.Tile{
		maptile.New(0, 0, 0),
		maptile.New(0, 0, 1),
		maptile.New(0, 1, 1),
		maptile.New(1, 0, 1),
		maptile.New(1, 1, 1),
	}
	if !slices.Equal(got, want) {
		t.Errorf("fetched %v, want %v", got, want)
	}

	if summary.Total != 5 || summary.Succeeded != 5 || summary.Failed != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if rep.started[0] != 1 || rep.started[1] != 4 {
		t.Errorf("ZoomStarted totals = %v", rep.started)
	}
	if rep.done != 5 {
		t.Errorf("TileDone called %d times, want 5", rep.done)
	}
	if !slices.Equal(rep.finished, []maptile.Zoom{0, 1}) {
		t.Errorf("ZoomFinished order = %v", rep.finished)
	}
}

func TestSchedulerBoundsConcurrency(t *testing.T) {
	const workers = 3
	f := &fakeFetcher{delay: 2 * time.Millisecond}
	s := NewDownloadScheduler(f, SchedulerOptions{Workers: workers}, logger.NewNoOp())

	summary, err := s.Run(context.Background(), entity.Range{MinZoom: 0, MaxZoom: 3})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Done() != 85 {
		t.Errorf("Done() = %d, want 85", summary.Done())
	}
	if m := f.maxInFlight.Load(); m > workers {
		t.Errorf("max in flight = %d, want <= %d", m, workers)
	}
}

func TestSchedulerDrainsZoomBeforeNext(t *testing.T) {
	f := &fakeFetcher{delay: time.Millisecond}
	s := NewDownloadScheduler(f, SchedulerOptions{Workers: 4}, logger.NewNoOp())

	if _, err := s.Run(context.Background(), entity.Range{MinZoom: 1, MaxZoom: 3}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	calls := f.Calls()
	for i := 1; i < len(calls); i++ {
		if calls[i].Z < calls[i-1].Z {
			t.Fatalf("zoom %d fetched after zoom %d", calls[i].Z, calls[i-1].Z)
		}
	}
}

func TestSchedulerContinuesAfterFailures(t *testing.T) {
	f := &fakeFetcher{
		result: func(t maptile.Tile) entity.Result {
			if t.X == 0 {
				return entity.Failed(t, errors.New("boom"), 0)
			}
			return entity.Succeeded(t, 1, 0)
		},
	}
	s := NewDownloadScheduler(f, SchedulerOptions{Workers: 2}, logger.NewNoOp())

	summary, err := s.Run(context.Background(), entity.Range{MinZoom: 0, MaxZoom: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// x == 0 is 1 + 2 + 4 tiles
	if summary.Failed != 7 || summary.Succeeded != 14 {
		t.Errorf("summary = %+v", summary)
	}
	if len(summary.FailedTiles) != 7 {
		t.Errorf("FailedTiles = %v", summary.FailedTiles)
	}
}

func TestSchedulerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &fakeFetcher{
		delay: time.Millisecond,
		onCall: func(n int) {
			if n == 10 {
				cancel()
			}
		},
	}
	s := NewDownloadScheduler(f, SchedulerOptions{Workers: 2}, logger.NewNoOp())
	r := entity.Range{MinZoom: 0, MaxZoom: 5}

	summary, err := s.Run(ctx, r)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if summary.Done() >= r.Count() {
		t.Errorf("all %d tiles processed despite cancellation", summary.Done())
	}
	if uint64(len(f.Calls())) != summary.Done() {
		t.Errorf("%d fetches started but %d results recorded", len(f.Calls()), summary.Done())
	}
}

func TestSchedulerLargeRangePause(t *testing.T) {
	f := &fakeFetcher{}
	pause := 100 * time.Millisecond
	s := NewDownloadScheduler(f, SchedulerOptions{
		Workers:             2,
		LargeRangeThreshold: 3,
		LargeRangePause:     pause,
	}, logger.NewNoOp())

	start := time.Now()
	if _, err := s.Run(context.Background(), entity.Range{MinZoom: 0, MaxZoom: 1}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed < pause {
		t.Errorf("run took %v, want at least the %v pause", elapsed, pause)
	}
	if len(f.Calls()) != 5 {
		t.Errorf("got %d fetches, want 5", len(f.Calls()))
	}
}

func TestSchedulerLargeRangePauseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeFetcher{}
	s := NewDownloadScheduler(f, SchedulerOptions{
		LargeRangeThreshold: 1,
		LargeRangePause:     time.Minute,
	}, logger.NewNoOp())

	_, err := s.Run(ctx, entity.Range{MinZoom: 0, MaxZoom: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(f.Calls()) != 0 {
		t.Errorf("fetched %d tiles after cancellation", len(f.Calls()))
	}
}

func TestSchedulerEmptyRange(t *testing.T) {
	f := &fakeFetcher{}
	s := NewDownloadScheduler(f, SchedulerOptions{}, logger.NewNoOp())

	summary, err := s.Run(context.Background(), entity.Range{MinZoom: 3, MaxZoom: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Total != 0 || len(f.Calls()) != 0 {
		t.Errorf("summary = %+v, calls = %d", summary, len(f.Calls()))
	}
}

// End to end: real fetcher, real store, HTTP test server.
func TestDownloadWritesExactlyTheRange(t *testing.T) {
	server, _ := tileServer(t, nil)
	l := logger.NewNoOp()

	dir := t.TempDir()
	store, err := tilestore.NewFilesystemStore(dir, l)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	f := NewTileFetcher(
		NewHTTPClient(testUserAgent, 30*time.Second, l),
		store,
		FetcherOptions{URLTemplate: server.URL + "/{z}/{x}/{y}.png"},
		l,
	)
	s := NewDownloadScheduler(f, SchedulerOptions{Workers: 2}, l)

	summary, err := s.Run(context.Background(), entity.Range{MinZoom: 0, MaxZoom: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded != 5 {
		t.Errorf("summary = %+v", summary)
	}

	files := countFiles(t, dir)
	slices.Sort(files)
	want := []string{"0/0/0.png", "1/0/0.png", "1/0/1.png", "1/1/0.png", "1/1/1.png"}
	if !slices.Equal(files, want) {
		t.Errorf("files = %v, want %v", files, want)
	}

	// a second run is served entirely from the store
	summary, err = s.Run(context.Background(), entity.Range{MinZoom: 0, MaxZoom: 1})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if summary.Cached != 5 || summary.Succeeded != 0 {
		t.Errorf("second run summary = %+v", summary)
	}
}

func TestDownload404DoesNotAbort(t *testing.T) {
	server, _ := tileServer(t, map[string]int{"/0/0/0.png": http.StatusNotFound})
	l := logger.NewNoOp()

	dir := t.TempDir()
	store, err := tilestore.NewFilesystemStore(dir, l)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	f := NewTileFetcher(
		NewHTTPClient(testUserAgent, 30*time.Second, l),
		store,
		FetcherOptions{URLTemplate: server.URL + "/{z}/{x}/{y}.png"},
		l,
	)
	s := NewDownloadScheduler(f, SchedulerOptions{Workers: 2}, l)

	summary, err := s.Run(context.Background(), entity.Range{MinZoom: 0, MaxZoom: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Failed != 1 || summary.Succeeded != 4 {
		t.Errorf("summary = %+v", summary)
	}
	if len(summary.FailedTiles) != 1 || summary.FailedTiles[0] != maptile.New(0, 0, 0) {
		t.Errorf("FailedTiles = %v", summary.FailedTiles)
	}
	if has, _ := store.Has(context.Background(), maptile.New(0, 0, 0)); has {
		t.Error("tile stored for a 404")
	}
	if got := len(countFiles(t, dir)); got != 4 {
		t.Errorf("got %d files, want 4", got)
	}
}
