package models

import "time"

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

// Friendship stores a pair with UserOneID < UserTwoID. ActionUserID is the
// user who performed the last action on the row.
type Friendship struct {
	ID           int64            `json:"id"`
	UserOneID    int64            `json:"user_one_id"`
	UserTwoID    int64            `json:"user_two_id"`
	Status       FriendshipStatus `json:"status"`
	ActionUserID int64            `json:"action_user_id"`
	CreatedAt    time.Time        `json:"created_at"`
}

// OrderedPair returns a and b sorted ascending.
func OrderedPair(a, b int64) (int64, int64) {
	if a < b {
		return a, b
	}
	return b, a
}

// Other returns the participant that is not userID.
func (f *Friendship) Other(userID int64) int64 {
	if f.UserOneID == userID {
		return f.UserTwoID
	}
	return f.UserOneID
}

type Presence string

const (
	PresenceOnline  Presence = "online"
	PresenceOffline Presence = "offline"
)

type Friend struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Status   Presence `json:"status"`
}

type FriendRequest struct {
	FriendshipID int64            `json:"friendship_id"`
	UserID       int64            `json:"user_id"`
	Username     string           `json:"username"`
	Status       FriendshipStatus `json:"status"`
}
