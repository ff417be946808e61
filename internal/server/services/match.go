package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/dmitrijs2005/jigsawhub/internal/common"
	"github.com/dmitrijs2005/jigsawhub/internal/logging"
	"github.com/dmitrijs2005/jigsawhub/internal/server/auth"
	"github.com/dmitrijs2005/jigsawhub/internal/server/events"
	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/repomanager"
)

const (
	ResponseAccepted = "accepted"
	ResponseDeclined = "declined"

	historyLimit = 50
)

// MatchService drives the match lifecycle
//
//	pending -> in_progress -> completed
//	pending -> declined
//	pending | in_progress -> expired (reaper only)
//
// Each transition is a single conditional update in the database, so the
// outcome does not depend on the order in which concurrent events arrive.
type MatchService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	notifier    Notifier
	log         logging.Logger
	now         func() time.Time
}

func NewMatchService(db *sql.DB, m repomanager.RepositoryManager, notifier Notifier, log logging.Logger) *MatchService {
	return &MatchService{
		db:          db,
		repomanager: m,
		notifier:    notifier,
		log:         log.With("module", "matches"),
		now:         time.Now,
	}
}

// Invite stores a pending match and pushes it to the opponent. When the
// opponent is offline the match stays pending and ErrOpponentOffline is
// returned together with it.
func (s *MatchService) Invite(ctx context.Context, challenger auth.Principal, opponentID int64, difficulty, imageSource string) (*models.Match, error) {
	if opponentID == 0 || difficulty == "" || imageSource == "" {
		return nil, validationError("invitation is incomplete")
	}
	if opponentID == challenger.UserID {
		return nil, validationError("cannot invite yourself")
	}

	if _, err := s.repomanager.Users(s.db).GetByID(ctx, opponentID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, notFoundError("player not found")
		}
		return nil, storageError("loading opponent", err)
	}

	m, err := s.repomanager.Matches(s.db).Create(ctx, &models.Match{
		ChallengerID: challenger.UserID,
		OpponentID:   opponentID,
		Difficulty:   difficulty,
		ImageSource:  imageSource,
	})
	if err != nil {
		return nil, storageError("creating match", err)
	}

	if !s.notifier.IsOnline(opponentID) {
		s.log.Info(ctx, "invite not delivered, opponent offline", "match_id", m.ID, "opponent_id", opponentID)
		return m, ErrOpponentOffline
	}

	s.notifier.NotifyUser(ctx, opponentID, events.NewMatchInvite, events.NewMatchInvitePayload{
		MatchID:            m.ID,
		ChallengerID:       challenger.UserID,
		ChallengerUsername: challenger.Username,
		Difficulty:         m.Difficulty,
		ImageSource:        m.ImageSource,
	})
	return m, nil
}

// Respond accepts or declines a pending invitation addressed to responder.
// Only the first response counts; later ones get "invalid or expired invitation".
func (s *MatchService) Respond(ctx context.Context, responder auth.Principal, matchID int64, response string) (*models.Match, error) {
	if matchID == 0 {
		return nil, validationError("match_id is required")
	}

	repo := s.repomanager.Matches(s.db)

	var (
		m   *models.Match
		err error
	)
	switch response {
	case ResponseAccepted:
		m, err = repo.Accept(ctx, matchID, responder.UserID)
	case ResponseDeclined:
		m, err = repo.Decline(ctx, matchID, responder.UserID)
	default:
		return nil, validationError("response must be accepted or declined")
	}
	if err != nil {
		if errors.Is(err, common.ErrTransitionRejected) {
			return nil, notFoundError("invalid or expired invitation")
		}
		return nil, storageError("responding to invite", err)
	}

	if m.Status == models.MatchInProgress {
		payload := events.MatchPayload{Match: m}
		s.notifier.NotifyUser(ctx, m.ChallengerID, events.MatchStarted, payload)
		s.notifier.NotifyUser(ctx, m.OpponentID, events.MatchStarted, payload)
	} else {
		s.notifier.NotifyUser(ctx, m.ChallengerID, events.InviteDeclined, events.InviteDeclinedPayload{
			MatchID:          m.ID,
			OpponentUsername: responder.Username,
		})
	}

	s.log.Info(ctx, "invite answered", "match_id", m.ID, "status", m.Status)
	return m, nil
}

// participantMatch loads a match the user takes part in. Participants never
// change, so a plain read is enough for the ownership check.
func (s *MatchService) participantMatch(ctx context.Context, userID, matchID int64) (*models.Match, error) {
	if matchID == 0 {
		return nil, validationError("match_id is required")
	}
	m, err := s.repomanager.Matches(s.db).GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, notFoundError("match not found")
		}
		return nil, storageError("loading match", err)
	}
	if !m.IsParticipant(userID) {
		return nil, notFoundError("match not found")
	}
	return m, nil
}

// ReportProgress forwards the player's progress to the opponent as is.
func (s *MatchService) ReportProgress(ctx context.Context, userID, matchID int64, progress json.RawMessage) error {
	m, err := s.participantMatch(ctx, userID, matchID)
	if err != nil {
		return err
	}

	opponentID := m.OpponentOf(userID)
	if s.notifier.IsOnline(opponentID) {
		s.notifier.NotifyUser(ctx, opponentID, events.OpponentProgressUpdate, events.OpponentProgressPayload{Progress: progress})
	}
	return nil
}

// Finish declares userID the winner of an in_progress match. A finish that
// arrives after the match was decided returns common.ErrTransitionRejected and
// changes nothing.
func (s *MatchService) Finish(ctx context.Context, userID, matchID, timeMs int64) (*models.Match, error) {
	if timeMs < 0 {
		return nil, validationError("time_ms must not be negative")
	}

	m, err := s.participantMatch(ctx, userID, matchID)
	if err != nil {
		return nil, err
	}
	if m.Status != models.MatchInProgress {
		return nil, common.ErrTransitionRejected
	}

	done, err := s.repomanager.Matches(s.db).Finish(ctx, matchID, userID, timeMs)
	if err != nil {
		return nil, storageError("finishing match", err)
	}

	payload := events.MatchOverPayload{Result: done}
	s.notifier.NotifyUser(ctx, done.ChallengerID, events.MatchOver, payload)
	s.notifier.NotifyUser(ctx, done.OpponentID, events.MatchOver, payload)

	s.log.Info(ctx, "match completed", "match_id", done.ID, "winner_id", userID, "time_ms", timeMs)
	return done, nil
}

func (s *MatchService) History(ctx context.Context, userID int64) ([]models.MatchHistoryEntry, error) {
	h, err := s.repomanager.Matches(s.db).History(ctx, userID, historyLimit)
	if err != nil {
		return nil, storageError("loading history", err)
	}
	return h, nil
}

// ExpireIdle expires matches idle for longer than olderThan and tells the
// participants about it.
func (s *MatchService) ExpireIdle(ctx context.Context, olderThan time.Duration) ([]*models.Match, error) {
	expired, err := s.repomanager.Matches(s.db).ExpireIdle(ctx, s.now().Add(-olderThan))
	if err != nil {
		return nil, storageError("expiring matches", err)
	}

	for _, m := range expired {
		payload := events.MatchPayload{Match: m}
		s.notifier.NotifyUser(ctx, m.ChallengerID, events.MatchExpired, payload)
		s.notifier.NotifyUser(ctx, m.OpponentID, events.MatchExpired, payload)
	}
	if len(expired) > 0 {
		s.log.Info(ctx, "idle matches expired", "count", len(expired))
	}
	return expired, nil
}
