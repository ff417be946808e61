package users

import (
	"context"

	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	// GetByLogin finds a user by username or by (lower-cased) email.
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Search(ctx context.Context, callerID int64, query string, limit int) ([]models.UserSearchResult, error)
}
