package tilestore

import (
	"context"
	"sync"

	"github.com/Robotvalley19/Geocaching-App/internal/entity"
	"github.com/paulmach/orb/maptile"
)

// MapStore is an in-memory TileStore.
type MapStore struct {
	m *TypedSyncMap
}

type TypedSyncMap struct {
	m sync.Map
}

func (c *TypedSyncMap) Load(k maptile.Tile) ([]byte, bool) {
	v, exists := c.m.Load(k)
	if !exists {
		return nil, false
	}
	return v.([]byte), exists
}

// LoadOrStore reports whether k was already present.
func (c *TypedSyncMap) LoadOrStore(k maptile.Tile, v []byte) bool {
	_, loaded := c.m.LoadOrStore(k, v)
	return loaded
}

func (c *TypedSyncMap) Len() int {
	n := 0
	c.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func NewMapStore() *MapStore {
	return &MapStore{
		m: &TypedSyncMap{},
	}
}

var _ TileStore = (*MapStore)(nil)

func (s *MapStore) Has(_ context.Context, t maptile.Tile) (bool, error) {
	if !entity.ValidTile(t) {
		return false, ErrInvalidTile
	}
	_, exists := s.m.Load(t)
	return exists, nil
}

func (s *MapStore) Get(_ context.Context, t maptile.Tile) ([]byte, bool, error) {
	v, exists := s.m.Load(t)
	return v, exists, nil
}

func (s *MapStore) Set(_ context.Context, t maptile.Tile, data []byte) error {
	if !entity.ValidTile(t) {
		return ErrInvalidTile
	}

	// copy so callers may reuse their buffer
	v := append([]byte(nil), data...)
	if s.m.LoadOrStore(t, v) {
		return ErrTileExists
	}
	return nil
}

// Len is the number of stored tiles.
func (s *MapStore) Len() int {
	return s.m.Len()
}

func (s *MapStore) Close() error {
	return nil
}
