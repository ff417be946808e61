// Package common defines shared constants and sentinel errors used across
// the jigsawhub server layers. Callers should use errors.Is to match these
// values; services wrap them with fmt.Errorf("%w: ...") to add a message.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrConflict is returned when a unique resource already exists
	// (username, email, friendship pair, unlocked achievement).
	ErrConflict = errors.New("already exists")

	// ErrTransitionRejected is returned by conditional updates that matched
	// no row: the entity is no longer in the state the caller expected.
	ErrTransitionRejected = errors.New("state transition rejected")

	// Service-level errors.
	ErrorInternal         = errors.New("internal error")
	ErrorUnauthorized     = errors.New("unauthorized")
	ErrValidation         = errors.New("validation error")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Message returns the part of a wrapped sentinel error meant for the client.
// For "validation error: username too short" it returns "username too short".
func Message(err error, sentinel error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
