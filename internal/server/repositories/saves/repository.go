package saves

import (
	"context"

	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
)

type Repository interface {
	// Upsert writes the save for (user, game mode, difficulty), replacing
	// the existing one. The save name of an existing row is kept.
	Upsert(ctx context.Context, s *models.SaveGame) (*models.SaveGame, error)
	// List returns the user's saves without piece data, newest first.
	List(ctx context.Context, userID int64) ([]models.SaveGame, error)
	FindLatest(ctx context.Context, userID int64, filter models.SaveFilter) (*models.SaveGame, error)
	Delete(ctx context.Context, userID int64, gameMode, difficulty string) (int64, error)
	DeleteByDifficulty(ctx context.Context, userID int64, difficulty string) error
}
