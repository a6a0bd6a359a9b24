package tilestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/Robotvalley19/Geocaching-App/internal/entity"
	"github.com/Robotvalley19/Geocaching-App/pkg/logger"
	"github.com/paulmach/orb/maptile"
)

// FilesystemStore keeps tiles under {dir}/{z}/{x}/{y}.png. All access goes
// through an os.Root, so nothing outside dir is ever read or written.
type FilesystemStore struct {
	dir    string
	root   *os.Root
	logger logger.Logger
}

var _ TileStore = (*FilesystemStore)(nil)

func NewFilesystemStore(dir string, l logger.Logger) (*FilesystemStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create tile root: %w", err)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open tile root: %w", err)
	}

	l.Info("filesystem tile store initialized", "root", dir)

	return &FilesystemStore{
		dir:    dir,
		root:   root,
		logger: l,
	}, nil
}

// Path returns the on-disk location of t.
func (s *FilesystemStore) Path(t maptile.Tile) string {
	return filepath.Join(s.dir, filepath.FromSlash(TilePath(t)))
}

func (s *FilesystemStore) Has(_ context.Context, t maptile.Tile) (bool, error) {
	if !entity.ValidTile(t) {
		return false, ErrInvalidTile
	}

	info, err := s.root.Stat(filepath.FromSlash(TilePath(t)))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat tile: %w", err)
	}

	return info.Mode().IsRegular(), nil
}

func (s *FilesystemStore) Get(_ context.Context, t maptile.Tile) ([]byte, bool, error) {
	if !entity.ValidTile(t) {
		return nil, false, nil
	}

	data, err := s.root.ReadFile(filepath.FromSlash(TilePath(t)))
	if err != nil {
		// Anything the root refuses to resolve (missing, a directory, a
		// symlink leaving the root) is simply not a downloaded tile.
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			s.logger.Debug("tile not readable", "z", t.Z, "x", t.X, "y", t.Y, "error", err)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read tile: %w", err)
	}

	return data, true, nil
}

// Set writes data to a temporary file next to the final path and hard links
// it into place, so the tile appears complete or not at all. Linking fails if
// the tile already exists, which makes concurrent writers of the same tile
// harmless.
func (s *FilesystemStore) Set(_ context.Context, t maptile.Tile, data []byte) error {
	if !entity.ValidTile(t) {
		return ErrInvalidTile
	}

	name := filepath.FromSlash(TilePath(t))
	if err := s.root.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("create tile dir: %w", err)
	}

	tmp := fmt.Sprintf("%s.%016x.tmp", name, rand.Uint64())
	f, err := s.root.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create temp tile: %w", err)
	}
	defer s.root.Remove(tmp)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write temp tile: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp tile: %w", err)
	}

	if err := s.root.Link(tmp, name); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrTileExists
		}
		return fmt.Errorf("link tile: %w", err)
	}

	return nil
}

func (s *FilesystemStore) Close() error {
	return s.root.Close()
}
