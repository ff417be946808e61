package matches

import (
	"context"
	"time"

	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
)

// Repository persists matches. Every state transition is a single
// conditional update; when the row is not in the expected state the method
// returns common.ErrTransitionRejected and nothing changes.
type Repository interface {
	Create(ctx context.Context, m *models.Match) (*models.Match, error)
	GetByID(ctx context.Context, id int64) (*models.Match, error)

	// Accept moves a pending match addressed to opponentID to in_progress.
	Accept(ctx context.Context, id, opponentID int64) (*models.Match, error)
	// Decline moves a pending match addressed to opponentID to declined.
	Decline(ctx context.Context, id, opponentID int64) (*models.Match, error)
	// Finish completes an in_progress match with userID as the winner and
	// records timeMs on the winner's side only.
	Finish(ctx context.Context, id, userID, timeMs int64) (*models.Match, error)
	// ExpireIdle expires pending matches created and in_progress matches
	// started before cutoff.
	ExpireIdle(ctx context.Context, cutoff time.Time) ([]*models.Match, error)

	History(ctx context.Context, userID int64, limit int) ([]models.MatchHistoryEntry, error)
	Stats(ctx context.Context, userID int64) (models.MatchStats, error)
}
