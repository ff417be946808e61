package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/jigsawhub/internal/common"
	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/repomanager"
)

type Profile struct {
	User  *models.User        `json:"user"`
	Stats models.ProfileStats `json:"stats"`
}

type Achievements struct {
	Completed []models.UserAchievement `json:"completed_achievements"`
	Stats     models.AchievementStats  `json:"user_stats"`
}

type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager) *ProfileService {
	return &ProfileService{db: db, repomanager: m}
}

func (s *ProfileService) Profile(ctx context.Context, userID int64) (*Profile, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, notFoundError("user not found")
		}
		return nil, storageError("loading user", err)
	}

	stats, err := s.repomanager.Scores(s.db).ProfileStats(ctx, userID)
	if err != nil {
		return nil, storageError("loading stats", err)
	}
	return &Profile{User: u, Stats: stats}, nil
}

// Achievements returns unlocked achievements plus the aggregates the client
// evaluates achievement rules against.
func (s *ProfileService) Achievements(ctx context.Context, userID int64) (*Achievements, error) {
	completed, err := s.repomanager.Achievements(s.db).List(ctx, userID)
	if err != nil {
		return nil, storageError("loading achievements", err)
	}
	scoreStats, err := s.repomanager.Scores(s.db).ScoreStats(ctx, userID)
	if err != nil {
		return nil, storageError("loading score stats", err)
	}
	matchStats, err := s.repomanager.Matches(s.db).Stats(ctx, userID)
	if err != nil {
		return nil, storageError("loading match stats", err)
	}

	return &Achievements{
		Completed: completed,
		Stats:     models.AchievementStats{ScoreStats: scoreStats, MatchStats: matchStats},
	}, nil
}

func (s *ProfileService) Unlock(ctx context.Context, userID int64, achievementID string) (*models.UserAchievement, error) {
	achievementID = strings.TrimSpace(achievementID)
	if achievementID == "" {
		return nil, validationError("achievement_id is required")
	}

	a, err := s.repomanager.Achievements(s.db).Unlock(ctx, userID, achievementID)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, fmt.Errorf("%w: achievement already unlocked", common.ErrConflict)
		}
		return nil, storageError("unlocking achievement", err)
	}
	return a, nil
}
