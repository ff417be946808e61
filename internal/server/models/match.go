package models

import "time"

type MatchStatus string

const (
	MatchPending    MatchStatus = "pending"
	MatchInProgress MatchStatus = "in_progress"
	MatchDeclined   MatchStatus = "declined"
	MatchCompleted  MatchStatus = "completed"
	MatchExpired    MatchStatus = "expired"
)

// Match is a head-to-head puzzle race between two players. When the match is
// completed only the winner's time field is set.
type Match struct {
	ID               int64       `json:"id"`
	ChallengerID     int64       `json:"challenger_id"`
	OpponentID       int64       `json:"opponent_id"`
	Difficulty       string      `json:"difficulty"`
	ImageSource      string      `json:"image_source"`
	Status           MatchStatus `json:"status"`
	ChallengerTimeMs *int64      `json:"challenger_time_ms"`
	OpponentTimeMs   *int64      `json:"opponent_time_ms"`
	WinnerID         *int64      `json:"winner_id"`
	CreatedAt        time.Time   `json:"created_at"`
	StartedAt        *time.Time  `json:"started_at"`
	CompletedAt      *time.Time  `json:"completed_at"`
}

func (m *Match) IsParticipant(userID int64) bool {
	return m.ChallengerID == userID || m.OpponentID == userID
}

// OpponentOf returns the other participant. The caller must be a participant.
func (m *Match) OpponentOf(userID int64) int64 {
	if m.ChallengerID == userID {
		return m.OpponentID
	}
	return m.ChallengerID
}

type MatchResult string

const (
	ResultWin  MatchResult = "win"
	ResultLoss MatchResult = "loss"
	ResultDraw MatchResult = "draw"
)

// MatchHistoryEntry is a completed match seen from one player's side.
type MatchHistoryEntry struct {
	ID               int64       `json:"id"`
	Difficulty       string      `json:"difficulty"`
	CompletedAt      *time.Time  `json:"completed_at"`
	WinnerID         *int64      `json:"winner_id"`
	OpponentID       int64       `json:"opponent_id"`
	OpponentUsername string      `json:"opponent_username"`
	Result           MatchResult `json:"result"`
}

// ResultFor computes the outcome of a finished match for userID.
func ResultFor(winnerID *int64, userID int64) MatchResult {
	switch {
	case winnerID == nil:
		return ResultDraw
	case *winnerID == userID:
		return ResultWin
	default:
		return ResultLoss
	}
}

// MatchStats summarises completed matches of one player.
type MatchStats struct {
	UniqueOpponents int64 `json:"unique_opponents"`
	MatchesWon      int64 `json:"matches_won"`
	TotalMatches    int64 `json:"total_matches"`
}
