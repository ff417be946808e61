package scores

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/jigsawhub/internal/dbx"
	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Score) (*models.Score, error) {
	query :=
		`INSERT INTO scores (user_id, score, difficulty, time_taken)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	if err := r.db.QueryRowContext(ctx, query, s.UserID, s.Score, s.Difficulty, s.TimeTaken).Scan(&s.ID, &s.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) Leaderboard(ctx context.Context, difficulty string, limit int) ([]models.LeaderboardEntry, error) {
	query :=
		`SELECT s.id, s.score, s.difficulty, s.time_taken, s.created_at, u.username
		 FROM scores s
		 JOIN users u ON s.user_id = u.id
		 WHERE ($1 = '' OR s.difficulty = $1)
		 ORDER BY s.score DESC, s.time_taken ASC
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, difficulty, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	entries := make([]models.LeaderboardEntry, 0)
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.ID, &e.Score, &e.Difficulty, &e.TimeTaken, &e.CreatedAt, &e.Username); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return entries, nil
}

func (r *PostgresRepository) ProfileStats(ctx context.Context, userID int64) (models.ProfileStats, error) {
	query :=
		`SELECT COUNT(*),
		        COALESCE(MAX(score), 0),
		        COALESCE(AVG(score), 0)::float8,
		        COALESCE(MIN(time_taken), 0)
		 FROM scores
		 WHERE user_id = $1
		 `

	var s models.ProfileStats
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.GamesPlayed, &s.BestScore, &s.AvgScore, &s.BestTime); err != nil {
		return models.ProfileStats{}, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) ScoreStats(ctx context.Context, userID int64) (models.ScoreStats, error) {
	query :=
		`SELECT COUNT(*),
		        COALESCE(MAX(score), 0),
		        COALESCE(SUM(score), 0),
		        COALESCE(AVG(score), 0)::float8,
		        COALESCE(MIN(time_taken), 0),
		        COALESCE(MAX(time_taken), 0),
		        COALESCE(AVG(time_taken), 0)::float8,
		        COUNT(*) FILTER (WHERE difficulty = 'easy'),
		        COUNT(*) FILTER (WHERE difficulty = 'medium'),
		        COUNT(*) FILTER (WHERE difficulty = 'hard'),
		        COUNT(*) FILTER (WHERE difficulty = 'master'),
		        COUNT(*) FILTER (WHERE time_taken <= 15),
		        COUNT(*) FILTER (WHERE time_taken <= 30),
		        COUNT(*) FILTER (WHERE time_taken <= 60),
		        COUNT(*) FILTER (WHERE time_taken >= 300),
		        COUNT(*) FILTER (WHERE time_taken >= 600),
		        COUNT(*) FILTER (WHERE difficulty = 'easy' AND time_taken <= 30),
		        COUNT(*) FILTER (WHERE difficulty = 'easy' AND time_taken <= 15),
		        COUNT(*) FILTER (WHERE difficulty = 'medium' AND time_taken <= 60),
		        COUNT(*) FILTER (WHERE difficulty = 'hard' AND time_taken <= 120),
		        COUNT(*) FILTER (WHERE score >= 1000),
		        COUNT(*) FILTER (WHERE score >= 5000),
		        COUNT(*) FILTER (WHERE score >= 10000),
		        MIN(created_at),
		        MAX(created_at)
		 FROM scores
		 WHERE user_id = $1
		 `

	var s models.ScoreStats
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&s.TotalGames, &s.BestScore, &s.TotalScore, &s.AvgScore,
		&s.BestTime, &s.LongestTime, &s.AvgTime,
		&s.EasyCompleted, &s.MediumCompleted, &s.HardCompleted, &s.MasterCompleted,
		&s.GamesUnder15s, &s.GamesUnder30s, &s.GamesUnder60s, &s.GamesOver5Min, &s.GamesOver10Min,
		&s.EasyUnder30s, &s.EasyUnder15s, &s.MediumUnder60s, &s.HardUnder120s,
		&s.HighScoreGames, &s.VeryHighScoreGames, &s.UltraHighScoreGames,
		&s.FirstGameDate, &s.LastGameDate,
	)
	if err != nil {
		return models.ScoreStats{}, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}
