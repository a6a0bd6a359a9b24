package entity

import (
	"iter"

	"github.com/paulmach/orb/maptile"
)

// MaxZoom is the deepest zoom a Range expands to. Deeper zooms overflow the
// uint64 tile count.
const MaxZoom maptile.Zoom = 30

// Range is an inclusive span of zoom levels.
type Range struct {
	MinZoom int
	MaxZoom int
}

// Empty reports whether the range has no zoom levels.
func (r Range) Empty() bool {
	return r.MinZoom < 0 || r.MinZoom > r.MaxZoom || r.MinZoom > int(MaxZoom)
}

// Zooms returns the zoom levels of the range in ascending order.
func (r Range) Zooms() []maptile.Zoom {
	if r.Empty() {
		return nil
	}

	hi := min(r.MaxZoom, int(MaxZoom))
	zooms := make([]maptile.Zoom, 0, hi-r.MinZoom+1)
	for z := r.MinZoom; z <= hi; z++ {
		zooms = append(zooms, maptile.Zoom(z))
	}
	return zooms
}

// Count returns the number of tiles in the range.
func (r Range) Count() uint64 {
	var total uint64
	for _, z := range r.Zooms() {
		total += ZoomCount(z)
	}
	return total
}

// Tiles yields every tile of the range, zoom by zoom.
func (r Range) Tiles() iter.Seq[maptile.Tile] {
	return func(yield func(maptile.Tile) bool) {
		for _, z := range r.Zooms() {
			for t := range ZoomTiles(z) {
				if !yield(t) {
					return
				}
			}
		}
	}
}

// ZoomSize is the number of tiles along one axis at zoom z.
func ZoomSize(z maptile.Zoom) uint32 {
	return uint32(1) << z
}

// ZoomCount is the number of tiles at zoom z.
func ZoomCount(z maptile.Zoom) uint64 {
	n := uint64(ZoomSize(z))
	return n * n
}

// ZoomTiles yields all tiles of zoom z, ascending x then y.
func ZoomTiles(z maptile.Zoom) iter.Seq[maptile.Tile] {
	return func(yield func(maptile.Tile) bool) {
		if z > MaxZoom {
			return
		}
		n := ZoomSize(z)
		for x := uint32(0); x < n; x++ {
			for y := uint32(0); y < n; y++ {
				if !yield(maptile.New(x, y, z)) {
					return
				}
			}
		}
	}
}

// ValidTile reports whether t lies inside the grid of its zoom.
func ValidTile(t maptile.Tile) bool {
	if t.Z > MaxZoom {
		return false
	}
	n := ZoomSize(t.Z)
	return t.X < n && t.Y < n
}

// ParseTile builds a tile from signed coordinates, as they arrive from URLs
// and flags. ok is false for anything outside the grid.
func ParseTile(z, x, y int) (maptile.Tile, bool) {
	if z < 0 || z > int(MaxZoom) {
		return maptile.Tile{}, false
	}
	n := int(ZoomSize(maptile.Zoom(z)))
	if x < 0 || x >= n || y < 0 || y >= n {
		return maptile.Tile{}, false
	}
	return maptile.New(uint32(x), uint32(y), maptile.Zoom(z)), true
}
