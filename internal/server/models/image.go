package models

import "time"

// PresignedURL is a time-limited link to an object in the puzzle image bucket.
type PresignedURL struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}
