package usecase

import (
	"context"

	"github.com/Robotvalley19/Geocaching-App/internal/entity"
	"github.com/Robotvalley19/Geocaching-App/internal/repository/tilestore"
	"github.com/Robotvalley19/Geocaching-App/pkg/logger"
)

// TileUseCase is the read side used by the tile server.
type TileUseCase struct {
	store  tilestore.TileStore
	logger logger.Logger
}

func NewTileUseCase(store tilestore.TileStore, l logger.Logger) *TileUseCase {
	return &TileUseCase{
		store:  store,
		logger: l,
	}
}

// GetTile returns the stored tile. Addresses outside the grid of their zoom
// and tiles not downloaded yet both report exists=false.
func (uc *TileUseCase) GetTile(ctx context.Context, z, x, y int) ([]byte, bool, error) {
	t, ok := entity.ParseTile(z, x, y)
	if !ok {
		uc.logger.Debug("tile outside zoom grid", "z", z, "x", x, "y", y)
		return nil, false, nil
	}

	data, exists, err := uc.store.Get(ctx, t)
	if err != nil {
		uc.logger.Error("tile lookup failed", "z", z, "x", x, "y", y, "error", err)
		return nil, false, err
	}

	return data, exists, nil
}
