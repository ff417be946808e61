package matches

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/jigsawhub/internal/common"
	"github.com/dmitrijs2005/jigsawhub/internal/dbx"
	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
)

const matchColumns = `id, challenger_id, opponent_id, difficulty, image_source, status,
		 challenger_time_ms, opponent_time_ms, winner_id, created_at, started_at, completed_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(s scanner) (*models.Match, error) {
	m := &models.Match{}
	err := s.Scan(&m.ID, &m.ChallengerID, &m.OpponentID, &m.Difficulty, &m.ImageSource, &m.Status,
		&m.ChallengerTimeMs, &m.OpponentTimeMs, &m.WinnerID, &m.CreatedAt, &m.StartedAt, &m.CompletedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *PostgresRepository) Create(ctx context.Context, m *models.Match) (*models.Match, error) {
	query :=
		`INSERT INTO matches (challenger_id, opponent_id, difficulty, image_source, status)
		 VALUES ($1, $2, $3, $4, 'pending')
		 RETURNING ` + matchColumns

	created, err := scanMatch(r.db.QueryRowContext(ctx, query, m.ChallengerID, m.OpponentID, m.Difficulty, m.ImageSource))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	m, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

// transition runs a conditional UPDATE ... RETURNING and maps "no row" to
// common.ErrTransitionRejected.
func (r *PostgresRepository) transition(ctx context.Context, query string, args ...any) (*models.Match, error) {
	m, err := scanMatch(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrTransitionRejected
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) Accept(ctx context.Context, id, opponentID int64) (*models.Match, error) {
	query :=
		`UPDATE matches SET status = 'in_progress', started_at = now()
		 WHERE id = $1 AND opponent_id = $2 AND status = 'pending'
		 RETURNING ` + matchColumns

	return r.transition(ctx, query, id, opponentID)
}

func (r *PostgresRepository) Decline(ctx context.Context, id, opponentID int64) (*models.Match, error) {
	query :=
		`UPDATE matches SET status = 'declined'
		 WHERE id = $1 AND opponent_id = $2 AND status = 'pending'
		 RETURNING ` + matchColumns

	return r.transition(ctx, query, id, opponentID)
}

func (r *PostgresRepository) Finish(ctx context.Context, id, userID, timeMs int64) (*models.Match, error) {
	query :=
		`UPDATE matches SET status = 'completed', winner_id = $2, completed_at = now(),
		     challenger_time_ms = CASE WHEN challenger_id = $2 THEN $3 ELSE challenger_time_ms END,
		     opponent_time_ms = CASE WHEN opponent_id = $2 THEN $3 ELSE opponent_time_ms END
		 WHERE id = $1 AND status = 'in_progress' AND (challenger_id = $2 OR opponent_id = $2)
		 RETURNING ` + matchColumns

	return r.transition(ctx, query, id, userID, timeMs)
}

func (r *PostgresRepository) ExpireIdle(ctx context.Context, cutoff time.Time) ([]*models.Match, error) {
	query :=
		`UPDATE matches SET status = 'expired', completed_at = now()
		 WHERE (status = 'pending' AND created_at < $1)
		    OR (status = 'in_progress' AND started_at < $1)
		 RETURNING ` + matchColumns

	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var expired []*models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		expired = append(expired, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return expired, nil
}

func (r *PostgresRepository) History(ctx context.Context, userID int64, limit int) ([]models.MatchHistoryEntry, error) {
	query :=
		`SELECT m.id, m.difficulty, m.completed_at, m.winner_id, opp.id, opp.username
		 FROM matches m
		 JOIN users opp ON opp.id = CASE WHEN m.challenger_id = $1 THEN m.opponent_id ELSE m.challenger_id END
		 WHERE (m.challenger_id = $1 OR m.opponent_id = $1) AND m.status = 'completed'
		 ORDER BY m.completed_at DESC
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	history := make([]models.MatchHistoryEntry, 0)
	for rows.Next() {
		var e models.MatchHistoryEntry
		if err := rows.Scan(&e.ID, &e.Difficulty, &e.CompletedAt, &e.WinnerID, &e.OpponentID, &e.OpponentUsername); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		e.Result = models.ResultFor(e.WinnerID, userID)
		history = append(history, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return history, nil
}

func (r *PostgresRepository) Stats(ctx context.Context, userID int64) (models.MatchStats, error) {
	query :=
		`SELECT
		     COUNT(DISTINCT CASE WHEN challenger_id = $1 THEN opponent_id ELSE challenger_id END),
		     COUNT(CASE WHEN winner_id = $1 THEN 1 END),
		     COUNT(*)
		 FROM matches
		 WHERE (challenger_id = $1 OR opponent_id = $1) AND status = 'completed'
		 `

	var s models.MatchStats
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.UniqueOpponents, &s.MatchesWon, &s.TotalMatches); err != nil {
		return models.MatchStats{}, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}
