package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserSearchResult is a user found by search together with the caller's
// relation to them, if any.
type UserSearchResult struct {
	ID           int64   `json:"id"`
	Username     string  `json:"username"`
	Status       *string `json:"status"`
	ActionUserID *int64  `json:"action_user_id"`
}
