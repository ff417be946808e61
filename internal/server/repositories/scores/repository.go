package scores

import (
	"context"

	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Score) (*models.Score, error)
	// Leaderboard lists best scores first, faster times breaking ties. An
	// empty difficulty lists all difficulties.
	Leaderboard(ctx context.Context, difficulty string, limit int) ([]models.LeaderboardEntry, error)
	ProfileStats(ctx context.Context, userID int64) (models.ProfileStats, error)
	ScoreStats(ctx context.Context, userID int64) (models.ScoreStats, error)
}
