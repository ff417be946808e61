package models

import (
	"encoding/json"
	"time"
)

const (
	GameModeClassic = "classic"
	GameModeMaster  = "master"
)

// SaveGame is a player's in-progress puzzle. There is at most one per
// (user, game mode, difficulty). Piece lists are opaque client JSON.
type SaveGame struct {
	ID                 int64           `json:"id"`
	UserID             int64           `json:"-"`
	SaveName           string          `json:"save_name"`
	GameMode           string          `json:"gameMode"`
	Difficulty         string          `json:"difficulty"`
	ElapsedSeconds     int64           `json:"elapsedSeconds"`
	CurrentScore       int64           `json:"currentScore"`
	ImageSource        string          `json:"imageSource"`
	PlacedPiecesIDs    json.RawMessage `json:"placedPiecesIds,omitempty"`
	AvailablePiecesIDs json.RawMessage `json:"availablePiecesIds,omitempty"`
	MasterPieces       json.RawMessage `json:"masterPieces,omitempty"`
	Progress           float64         `json:"progress"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// SaveFilter selects saves. Empty fields are not constrained.
type SaveFilter struct {
	GameMode   string
	Difficulty string
	SaveName   string
}

func (f SaveFilter) IsEmpty() bool {
	return f.GameMode == "" && f.Difficulty == "" && f.SaveName == ""
}
