// Package services contains the server-side business logic shared by the REST
// API and the realtime hub: accounts, matches, friendships, scores, profiles,
// save-games and puzzle images.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/jigsawhub/internal/common"
)

// Notifier delivers realtime events to online users.
type Notifier interface {
	IsOnline(userID int64) bool
	NotifyUser(ctx context.Context, userID int64, event string, payload any)
}

// ErrOpponentOffline is returned by Invite when the match was stored but the
// opponent could not be told about it.
var ErrOpponentOffline = errors.New("invitation failed, player is offline")

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", common.ErrValidation, msg)
}

func notFoundError(msg string) error {
	return fmt.Errorf("%w: %s", common.ErrorNotFound, msg)
}

// storageError hides driver details behind ErrStorageUnavailable while
// letting repository sentinels through untouched.
func storageError(op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrConflict) ||
		errors.Is(err, common.ErrTransitionRejected) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", common.ErrStorageUnavailable, op, err)
}

// internalError wraps failures that are not about storage, such as hashing
// or token signing.
func internalError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", common.ErrorInternal, op, err)
}
