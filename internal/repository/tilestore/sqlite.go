package tilestore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/Robotvalley19/Geocaching-App/internal/entity"
	"github.com/Robotvalley19/Geocaching-App/pkg/logger"
	_ "github.com/mattn/go-sqlite3"
	"github.com/paulmach/orb/maptile"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore keeps all tiles in a single database file, which is easier to
// copy onto a device than a directory tree.
type SQLiteStore struct {
	db     *sql.DB
	logger logger.Logger
}

var _ TileStore = (*SQLiteStore)(nil)

func NewSQLiteStore(path string, l logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// sqlite allows one writer; queue the workers in the pool instead of
	// failing them with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{
		db:     db,
		logger: l,
	}

	err = s.runMigrations()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	l.Info("sqlite tile store initialized", "path", path)

	return s, nil
}

func (s *SQLiteStore) runMigrations() error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	err := goose.SetDialect("sqlite3")
	if err != nil {
		return err
	}

	return goose.Up(s.db, "migrations")
}

func (s *SQLiteStore) Has(ctx context.Context, t maptile.Tile) (bool, error) {
	if !entity.ValidTile(t) {
		return false, ErrInvalidTile
	}

	query := `SELECT 1 FROM tiles WHERE z = ? AND x = ? AND y = ?`

	var one int
	err := s.db.QueryRowContext(ctx, query, t.Z, t.X, t.Y).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func (s *SQLiteStore) Get(ctx context.Context, t maptile.Tile) ([]byte, bool, error) {
	if !entity.ValidTile(t) {
		return nil, false, nil
	}

	s.logger.Debug("sqlite tile get", "z", t.Z, "x", t.X, "y", t.Y)

	query := `SELECT tile_data
	FROM tiles
	WHERE z = ? AND x = ? AND y = ?`

	var tileData []byte
	err := s.db.QueryRowContext(ctx, query, t.Z, t.X, t.Y).Scan(&tileData)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		s.logger.Error("sqlite tile get failed", "z", t.Z, "x", t.X, "y", t.Y, "error", err)
		return nil, false, err
	}

	return tileData, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, t maptile.Tile, data []byte) error {
	if !entity.ValidTile(t) {
		return ErrInvalidTile
	}

	query := `INSERT INTO tiles (z, x, y, tile_data)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(z, x, y) DO NOTHING`

	res, err := s.db.ExecContext(ctx, query, t.Z, t.X, t.Y, data)
	if err != nil {
		s.logger.Error("sqlite tile set failed", "z", t.Z, "x", t.X, "y", t.Y, "error", err)
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTileExists
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
