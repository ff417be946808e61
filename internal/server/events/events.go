// Package events names the realtime events and their payloads. Every frame on
// the wire is an Envelope; payload fields are snake_case.
package events

import (
	"encoding/json"

	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
)

// Inbound.
const (
	Authenticate         = "authenticate"
	InviteToMatch        = "invite_to_match"
	RespondToInvite      = "respond_to_invite"
	PlayerProgressUpdate = "player_progress_update"
	PlayerFinished       = "player_finished"
)

// Outbound.
const (
	AuthenticationSuccess  = "authentication_success"
	AuthenticationFailed   = "authentication_failed"
	FriendStatusUpdate     = "friend_status_update"
	NewMatchInvite         = "new_match_invite"
	MatchStarted           = "match_started"
	InviteDeclined         = "invite_declined"
	OpponentProgressUpdate = "opponent_progress_update"
	MatchOver              = "match_over"
	MatchExpired           = "match_expired"
	NewFriendRequest       = "new_friend_request"
	FriendRequestAccepted  = "friend_request_accepted"
	Error                  = "error"
)

type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode wraps payload into an envelope.
func Encode(event string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: data}, nil
}

type AuthenticatePayload struct {
	Token string `json:"token"`
}

type InviteToMatchPayload struct {
	OpponentID  int64  `json:"opponent_id"`
	Difficulty  string `json:"difficulty"`
	ImageSource string `json:"image_source"`
}

type RespondToInvitePayload struct {
	MatchID  int64  `json:"match_id"`
	Response string `json:"response"`
}

type PlayerProgressPayload struct {
	MatchID  int64           `json:"match_id"`
	Progress json.RawMessage `json:"progress"`
}

type PlayerFinishedPayload struct {
	MatchID int64  `json:"match_id"`
	TimeMs  *int64 `json:"time_ms"`
}

type AuthenticationSuccessPayload struct {
	UserID int64 `json:"user_id"`
}

type AuthenticationFailedPayload struct {
	Error string `json:"error"`
}

type FriendStatusPayload struct {
	UserID int64           `json:"user_id"`
	Status models.Presence `json:"status"`
}

type NewMatchInvitePayload struct {
	MatchID            int64  `json:"match_id"`
	ChallengerID       int64  `json:"challenger_id"`
	ChallengerUsername string `json:"challenger_username"`
	Difficulty         string `json:"difficulty"`
	ImageSource        string `json:"image_source"`
}

type MatchPayload struct {
	Match *models.Match `json:"match"`
}

type InviteDeclinedPayload struct {
	MatchID          int64  `json:"match_id"`
	OpponentUsername string `json:"opponent_username"`
}

type OpponentProgressPayload struct {
	Progress json.RawMessage `json:"progress"`
}

type MatchOverPayload struct {
	Result *models.Match `json:"result"`
}

type NewFriendRequestPayload struct {
	FromUserID   int64  `json:"from_user_id"`
	FromUsername string `json:"from_username"`
}

type FriendRequestAcceptedPayload struct {
	Username string `json:"username"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
