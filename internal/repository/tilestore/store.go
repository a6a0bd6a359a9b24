package tilestore

import (
	"context"
	"errors"
	"path"
	"strconv"

	"github.com/paulmach/orb/maptile"
)

var (
	// ErrTileExists is returned by Set when the tile is already stored.
	ErrTileExists = errors.New("tile already stored")
	// ErrInvalidTile is returned for addresses outside the grid of their zoom.
	ErrInvalidTile = errors.New("tile outside zoom grid")
)

// TileStore holds downloaded tiles. Tiles are write-once: Set never replaces
// existing content, and a reader never observes a partially written tile.
type TileStore interface {
	Has(ctx context.Context, t maptile.Tile) (bool, error)
	// Get reports a missing tile as (nil, false, nil).
	Get(ctx context.Context, t maptile.Tile) ([]byte, bool, error)
	Set(ctx context.Context, t maptile.Tile, data []byte) error
	Close() error
}

// TilePath is the slash separated location of t relative to the store root:
// {z}/{x}/{y}.png.
func TilePath(t maptile.Tile) string {
	return path.Join(
		strconv.FormatUint(uint64(t.Z), 10),
		strconv.FormatUint(uint64(t.X), 10),
		strconv.FormatUint(uint64(t.Y), 10)+".png",
	)
}
