package saves

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

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

func (r *PostgresRepository) Upsert(ctx context.Context, s *models.SaveGame) (*models.SaveGame, error) {
	query :=
		`INSERT INTO game_saves (user_id, save_name, game_mode, difficulty, elapsed_seconds, current_score,
		                         image_source, placed_pieces_ids, available_pieces_ids, master_pieces, progress)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (user_id, game_mode, difficulty) DO UPDATE SET
		     elapsed_seconds = EXCLUDED.elapsed_seconds,
		     current_score = EXCLUDED.current_score,
		     image_source = EXCLUDED.image_source,
		     placed_pieces_ids = EXCLUDED.placed_pieces_ids,
		     available_pieces_ids = EXCLUDED.available_pieces_ids,
		     master_pieces = EXCLUDED.master_pieces,
		     progress = EXCLUDED.progress,
		     updated_at = now()
		 RETURNING id, save_name, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		s.UserID, s.SaveName, s.GameMode, s.Difficulty, s.ElapsedSeconds, s.CurrentScore, s.ImageSource,
		dbx.JSONArg(s.PlacedPiecesIDs), dbx.JSONArg(s.AvailablePiecesIDs), dbx.JSONArg(s.MasterPieces), s.Progress,
	).Scan(&s.ID, &s.SaveName, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID int64) ([]models.SaveGame, error) {
	query :=
		`SELECT id, save_name, game_mode, difficulty, elapsed_seconds, current_score,
		        image_source, progress, created_at, updated_at
		 FROM game_saves
		 WHERE user_id = $1
		 ORDER BY updated_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	list := make([]models.SaveGame, 0)
	for rows.Next() {
		s := models.SaveGame{UserID: userID}
		if err := rows.Scan(&s.ID, &s.SaveName, &s.GameMode, &s.Difficulty, &s.ElapsedSeconds, &s.CurrentScore,
			&s.ImageSource, &s.Progress, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}

func (r *PostgresRepository) FindLatest(ctx context.Context, userID int64, filter models.SaveFilter) (*models.SaveGame, error) {
	conds := []string{"user_id = $1"}
	args := []any{userID}
	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("game_mode", filter.GameMode)
	add("difficulty", filter.Difficulty)
	add("save_name", filter.SaveName)

	query :=
		`SELECT id, save_name, game_mode, difficulty, elapsed_seconds, current_score, image_source,
		        placed_pieces_ids, available_pieces_ids, master_pieces, progress, created_at, updated_at
		 FROM game_saves
		 WHERE ` + strings.Join(conds, " AND ") + `
		 ORDER BY updated_at DESC
		 LIMIT 1
		 `

	s := &models.SaveGame{UserID: userID}
	var placed, available, master []byte
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.SaveName, &s.GameMode, &s.Difficulty,
		&s.ElapsedSeconds, &s.CurrentScore, &s.ImageSource, &placed, &available, &master,
		&s.Progress, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	s.PlacedPiecesIDs = orEmptyArray(placed)
	s.AvailablePiecesIDs = orEmptyArray(available)
	s.MasterPieces = orEmptyArray(master)
	return s, nil
}

func orEmptyArray(b []byte) []byte {
	if len(b) == 0 {
		return []byte("[]")
	}
	return b
}

func (r *PostgresRepository) Delete(ctx context.Context, userID int64, gameMode, difficulty string) (int64, error) {
	query := `DELETE FROM game_saves WHERE user_id = $1 AND game_mode = $2 AND difficulty = $3`

	res, err := r.db.ExecContext(ctx, query, userID, gameMode, difficulty)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) DeleteByDifficulty(ctx context.Context, userID int64, difficulty string) error {
	query := `DELETE FROM game_saves WHERE user_id = $1 AND difficulty = $2`

	if _, err := r.db.ExecContext(ctx, query, userID, difficulty); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
