package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/jigsawhub/internal/common"
	"github.com/dmitrijs2005/jigsawhub/internal/dbx"
	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/repomanager"
)

const (
	DifficultyAll = "all"

	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

type ScoreService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewScoreService(db *sql.DB, m repomanager.RepositoryManager) *ScoreService {
	return &ScoreService{db: db, repomanager: m}
}

// Leaderboard lists the top scores of one difficulty, or of all of them when
// difficulty is empty or "all". The limit defaults to 10 and is capped at 100.
func (s *ScoreService) Leaderboard(ctx context.Context, difficulty string, limit int) ([]models.LeaderboardEntry, error) {
	if difficulty == DifficultyAll {
		difficulty = ""
	}
	if difficulty != "" && !common.IsDifficulty(difficulty) {
		return nil, validationError("difficulty must be easy, medium, hard, master or all")
	}
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	entries, err := s.repomanager.Scores(s.db).Leaderboard(ctx, difficulty, limit)
	if err != nil {
		return nil, storageError("loading leaderboard", err)
	}
	return entries, nil
}

// Submit records a finished game. The player's save-games of the same
// difficulty are dropped in the same transaction.
func (s *ScoreService) Submit(ctx context.Context, userID, score int64, difficulty string, timeTaken int64) (*models.Score, error) {
	if difficulty == "" {
		difficulty = "easy"
	}
	switch {
	case score < 0:
		return nil, validationError("score must be a non-negative integer")
	case timeTaken < 0:
		return nil, validationError("time must be a non-negative integer")
	case !common.IsDifficulty(difficulty):
		return nil, validationError("difficulty must be easy, medium, hard or master")
	}

	rec := &models.Score{UserID: userID, Score: score, Difficulty: difficulty, TimeTaken: timeTaken}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Scores(tx).Create(ctx, rec); err != nil {
			return err
		}
		return s.repomanager.Saves(tx).DeleteByDifficulty(ctx, userID, difficulty)
	})
	if err != nil {
		return nil, storageError("submitting score", err)
	}
	return rec, nil
}
