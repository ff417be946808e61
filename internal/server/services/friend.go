package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/jigsawhub/internal/common"
	"github.com/dmitrijs2005/jigsawhub/internal/logging"
	"github.com/dmitrijs2005/jigsawhub/internal/server/auth"
	"github.com/dmitrijs2005/jigsawhub/internal/server/events"
	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/repomanager"
)

const (
	FriendActionAccept  = "accept"
	FriendActionDecline = "decline"

	searchLimit    = 10
	searchMinChars = 2
)

// FriendGraph answers who is friends with whom. The session registry uses it
// for presence fan-out, so it carries no notifier of its own.
type FriendGraph struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewFriendGraph(db *sql.DB, m repomanager.RepositoryManager) *FriendGraph {
	return &FriendGraph{db: db, repomanager: m}
}

// FriendIDs returns the ids of the user's accepted friends.
func (g *FriendGraph) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids, err := g.repomanager.Friendships(g.db).FriendIDs(ctx, userID)
	if err != nil {
		return nil, storageError("loading friends", err)
	}
	return ids, nil
}

type FriendService struct {
	*FriendGraph
	notifier Notifier
	log      logging.Logger
}

func NewFriendService(graph *FriendGraph, notifier Notifier, log logging.Logger) *FriendService {
	return &FriendService{FriendGraph: graph, notifier: notifier, log: log.With("module", "friends")}
}

func (s *FriendService) SendRequest(ctx context.Context, from auth.Principal, toID int64) (*models.Friendship, error) {
	if toID == 0 {
		return nil, validationError("target_user_id is required")
	}
	if toID == from.UserID {
		return nil, validationError("cannot add yourself as a friend")
	}

	if _, err := s.repomanager.Users(s.db).GetByID(ctx, toID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, notFoundError("user not found")
		}
		return nil, storageError("loading user", err)
	}

	one, two := models.OrderedPair(from.UserID, toID)
	f, err := s.repomanager.Friendships(s.db).Create(ctx, &models.Friendship{
		UserOneID:    one,
		UserTwoID:    two,
		ActionUserID: from.UserID,
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, fmt.Errorf("%w: request already sent or already friends", common.ErrConflict)
		}
		return nil, storageError("creating friend request", err)
	}

	if s.notifier.IsOnline(toID) {
		s.notifier.NotifyUser(ctx, toID, events.NewFriendRequest, events.NewFriendRequestPayload{
			FromUserID:   from.UserID,
			FromUsername: from.Username,
		})
	}
	return f, nil
}

// Respond lets the non-initiating side of a pending request accept or
// decline it. Declined requests are deleted.
func (s *FriendService) Respond(ctx context.Context, user auth.Principal, friendshipID int64, action string) error {
	if friendshipID == 0 || (action != FriendActionAccept && action != FriendActionDecline) {
		return validationError("invalid request")
	}

	repo := s.repomanager.Friendships(s.db)

	pending, err := repo.GetPendingForResponder(ctx, friendshipID, user.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return notFoundError("friend request not found")
		}
		return storageError("loading friend request", err)
	}

	if action == FriendActionDecline {
		if err := repo.Decline(ctx, friendshipID, user.UserID); err != nil {
			if errors.Is(err, common.ErrTransitionRejected) {
				return notFoundError("friend request not found")
			}
			return storageError("declining friend request", err)
		}
		return nil
	}

	if _, err := repo.Accept(ctx, friendshipID, user.UserID); err != nil {
		if errors.Is(err, common.ErrTransitionRejected) {
			return notFoundError("friend request not found")
		}
		return storageError("accepting friend request", err)
	}

	requester := pending.ActionUserID
	if s.notifier.IsOnline(requester) {
		s.notifier.NotifyUser(ctx, requester, events.FriendRequestAccepted, events.FriendRequestAcceptedPayload{Username: user.Username})
	}
	return nil
}

// ListFriends returns accepted friends with their current presence.
func (s *FriendService) ListFriends(ctx context.Context, userID int64) ([]models.Friend, error) {
	friends, err := s.repomanager.Friendships(s.db).ListFriends(ctx, userID)
	if err != nil {
		return nil, storageError("loading friends", err)
	}
	for i := range friends {
		friends[i].Status = models.PresenceOffline
		if s.notifier.IsOnline(friends[i].ID) {
			friends[i].Status = models.PresenceOnline
		}
	}
	return friends, nil
}

func (s *FriendService) ListIncomingRequests(ctx context.Context, userID int64) ([]models.FriendRequest, error) {
	reqs, err := s.repomanager.Friendships(s.db).ListIncoming(ctx, userID)
	if err != nil {
		return nil, storageError("loading friend requests", err)
	}
	return reqs, nil
}

func (s *FriendService) SearchUsers(ctx context.Context, userID int64, query string) ([]models.UserSearchResult, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < searchMinChars {
		return nil, validationError("query must be at least 2 characters")
	}

	found, err := s.repomanager.Users(s.db).Search(ctx, userID, query, searchLimit)
	if err != nil {
		return nil, storageError("searching users", err)
	}
	return found, nil
}
