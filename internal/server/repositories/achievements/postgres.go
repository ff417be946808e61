package achievements

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/jigsawhub/internal/common"
	"github.com/dmitrijs2005/jigsawhub/internal/dbx"
	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID int64) ([]models.UserAchievement, error) {
	query :=
		`SELECT achievement_id, completed_at FROM user_achievements
		 WHERE user_id = $1
		 ORDER BY completed_at
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	list := make([]models.UserAchievement, 0)
	for rows.Next() {
		var a models.UserAchievement
		if err := rows.Scan(&a.AchievementID, &a.CompletedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}

func (r *PostgresRepository) Unlock(ctx context.Context, userID int64, achievementID string) (*models.UserAchievement, error) {
	query :=
		`INSERT INTO user_achievements (user_id, achievement_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, achievement_id) DO NOTHING
		 RETURNING achievement_id, completed_at
		 `

	a := &models.UserAchievement{}
	err := r.db.QueryRowContext(ctx, query, userID, achievementID).Scan(&a.AchievementID, &a.CompletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}
