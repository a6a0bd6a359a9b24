package entity

import (
	"time"

	"github.com/paulmach/orb/maptile"
)

// Outcome is what happened to a single tile during a run.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeAlreadyCached
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeAlreadyCached:
		return "cached"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is produced once per tile per run.
type Result struct {
	Tile     maptile.Tile
	Outcome  Outcome
	Err      error // set only for OutcomeFailed
	Bytes    int
	Duration time.Duration
}

func Succeeded(t maptile.Tile, n int, d time.Duration) Result {
	return Result{Tile: t, Outcome: OutcomeSuccess, Bytes: n, Duration: d}
}

func Cached(t maptile.Tile) Result {
	return Result{Tile: t, Outcome: OutcomeAlreadyCached}
}

func Failed(t maptile.Tile, err error, d time.Duration) Result {
	return Result{Tile: t, Outcome: OutcomeFailed, Err: err, Duration: d}
}

// MaxFailedTiles caps Summary.FailedTiles. Failed keeps counting past it;
// every failure is logged as it happens.
const MaxFailedTiles = 1000

// Summary aggregates the results of a run or of one zoom.
type Summary struct {
	Total     uint64
	Succeeded uint64
	Cached    uint64
	Failed    uint64
	Bytes     int64
	// FailedTiles holds the first MaxFailedTiles failed addresses.
	FailedTiles []maptile.Tile
}

func (s *Summary) Add(r Result) {
	switch r.Outcome {
	case OutcomeSuccess:
		s.Succeeded++
		s.Bytes += int64(r.Bytes)
	case OutcomeAlreadyCached:
		s.Cached++
	case OutcomeFailed:
		s.Failed++
		if len(s.FailedTiles) < MaxFailedTiles {
			s.FailedTiles = append(s.FailedTiles, r.Tile)
		}
	}
}

// Merge folds other into s.
func (s *Summary) Merge(other Summary) {
	s.Total += other.Total
	s.Succeeded += other.Succeeded
	s.Cached += other.Cached
	s.Failed += other.Failed
	s.Bytes += other.Bytes
	if room := MaxFailedTiles - len(s.FailedTiles); room > 0 {
		s.FailedTiles = append(s.FailedTiles, other.FailedTiles[:min(room, len(other.FailedTiles))]...)
	}
}

// FailedTilesTruncated reports whether some failed addresses were not kept.
func (s Summary) FailedTilesTruncated() bool {
	return s.Failed > uint64(len(s.FailedTiles))
}

// Done is the number of tiles that produced a result.
func (s Summary) Done() uint64 {
	return s.Succeeded + s.Cached + s.Failed
}
