package achievements

import (
	"context"

	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, userID int64) ([]models.UserAchievement, error)
	// Unlock records the achievement; common.ErrConflict when already unlocked.
	Unlock(ctx context.Context, userID int64, achievementID string) (*models.UserAchievement, error)
}
