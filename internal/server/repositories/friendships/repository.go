package friendships

import (
	"context"

	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
)

type Repository interface {
	// Create inserts a pending friendship. The pair must already be ordered;
	// an existing row for the pair yields common.ErrConflict.
	Create(ctx context.Context, f *models.Friendship) (*models.Friendship, error)
	// GetPendingForResponder returns a pending friendship in which userID
	// participates and did not initiate.
	GetPendingForResponder(ctx context.Context, id, userID int64) (*models.Friendship, error)
	Accept(ctx context.Context, id, responderID int64) (*models.Friendship, error)
	Decline(ctx context.Context, id, responderID int64) error

	ListFriends(ctx context.Context, userID int64) ([]models.Friend, error)
	FriendIDs(ctx context.Context, userID int64) ([]int64, error)
	ListIncoming(ctx context.Context, userID int64) ([]models.FriendRequest, error)
}
