package friendships

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

func (r *PostgresRepository) Create(ctx context.Context, f *models.Friendship) (*models.Friendship, error) {
	query :=
		`INSERT INTO friendships (user_one_id, user_two_id, action_user_id, status)
		 VALUES ($1, $2, $3, 'pending')
		 RETURNING id, status, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, f.UserOneID, f.UserTwoID, f.ActionUserID).
		Scan(&f.ID, &f.Status, &f.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) GetPendingForResponder(ctx context.Context, id, userID int64) (*models.Friendship, error) {
	query :=
		`SELECT id, user_one_id, user_two_id, status, action_user_id, created_at
		 FROM friendships
		 WHERE id = $1 AND (user_one_id = $2 OR user_two_id = $2)
		   AND action_user_id <> $2 AND status = 'pending'
		 `

	f := &models.Friendship{}
	err := r.db.QueryRowContext(ctx, query, id, userID).
		Scan(&f.ID, &f.UserOneID, &f.UserTwoID, &f.Status, &f.ActionUserID, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) Accept(ctx context.Context, id, responderID int64) (*models.Friendship, error) {
	query :=
		`UPDATE friendships SET status = 'accepted', action_user_id = $2
		 WHERE id = $1 AND (user_one_id = $2 OR user_two_id = $2)
		   AND action_user_id <> $2 AND status = 'pending'
		 RETURNING id, user_one_id, user_two_id, status, action_user_id, created_at
		 `

	f := &models.Friendship{}
	err := r.db.QueryRowContext(ctx, query, id, responderID).
		Scan(&f.ID, &f.UserOneID, &f.UserTwoID, &f.Status, &f.ActionUserID, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrTransitionRejected
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) Decline(ctx context.Context, id, responderID int64) error {
	query :=
		`DELETE FROM friendships
		 WHERE id = $1 AND (user_one_id = $2 OR user_two_id = $2)
		   AND action_user_id <> $2 AND status = 'pending'
		 `

	res, err := r.db.ExecContext(ctx, query, id, responderID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrTransitionRejected
	}
	return nil
}

func (r *PostgresRepository) ListFriends(ctx context.Context, userID int64) ([]models.Friend, error) {
	query :=
		`SELECT u.id, u.username
		 FROM friendships f
		 JOIN users u ON u.id = CASE WHEN f.user_one_id = $1 THEN f.user_two_id ELSE f.user_one_id END
		 WHERE (f.user_one_id = $1 OR f.user_two_id = $1) AND f.status = 'accepted'
		 ORDER BY u.username
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	friends := make([]models.Friend, 0)
	for rows.Next() {
		var f models.Friend
		if err := rows.Scan(&f.ID, &f.Username); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		friends = append(friends, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return friends, nil
}

func (r *PostgresRepository) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	query :=
		`SELECT CASE WHEN user_one_id = $1 THEN user_two_id ELSE user_one_id END
		 FROM friendships
		 WHERE (user_one_id = $1 OR user_two_id = $1) AND status = 'accepted'
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ids, nil
}

func (r *PostgresRepository) ListIncoming(ctx context.Context, userID int64) ([]models.FriendRequest, error) {
	query :=
		`SELECT f.id, u.id, u.username, f.status
		 FROM friendships f
		 JOIN users u ON u.id = f.action_user_id
		 WHERE (f.user_one_id = $1 OR f.user_two_id = $1)
		   AND f.status = 'pending' AND f.action_user_id <> $1
		 ORDER BY f.created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	requests := make([]models.FriendRequest, 0)
	for rows.Next() {
		var fr models.FriendRequest
		if err := rows.Scan(&fr.FriendshipID, &fr.UserID, &fr.Username, &fr.Status); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		requests = append(requests, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return requests, nil
}
