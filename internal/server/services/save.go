package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/repomanager"
)

const (
	defaultSaveDifficulty = "1"
	defaultImageSource    = "assets/images/default_puzzle.jpg"
)

// SaveInput is what the client sends when saving. Piece lists are kept as
// opaque JSON arrays.
type SaveInput struct {
	SaveName           string
	GameMode           string
	Difficulty         string
	ElapsedSeconds     int64
	CurrentScore       int64
	ImageSource        string
	PlacedPiecesIDs    json.RawMessage
	AvailablePiecesIDs json.RawMessage
	MasterPieces       json.RawMessage
}

type SaveService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewSaveService(db *sql.DB, m repomanager.RepositoryManager) *SaveService {
	return &SaveService{db: db, repomanager: m, now: time.Now}
}

// Save creates or replaces the save for (user, game mode, difficulty).
func (s *SaveService) Save(ctx context.Context, userID int64, in SaveInput) (*models.SaveGame, error) {
	if in.GameMode == "" {
		in.GameMode = models.GameModeClassic
	}
	if in.Difficulty == "" {
		in.Difficulty = defaultSaveDifficulty
	}
	if in.ImageSource == "" {
		in.ImageSource = defaultImageSource
	}
	if in.SaveName == "" {
		in.SaveName = fmt.Sprintf("auto_save_%d", s.now().Unix())
	}

	progress, err := Progress(in.GameMode, in.Difficulty, in.PlacedPiecesIDs, in.AvailablePiecesIDs, in.MasterPieces)
	if err != nil {
		return nil, err
	}

	save, err := s.repomanager.Saves(s.db).Upsert(ctx, &models.SaveGame{
		UserID:             userID,
		SaveName:           in.SaveName,
		GameMode:           in.GameMode,
		Difficulty:         in.Difficulty,
		ElapsedSeconds:     in.ElapsedSeconds,
		CurrentScore:       in.CurrentScore,
		ImageSource:        in.ImageSource,
		PlacedPiecesIDs:    orEmpty(in.PlacedPiecesIDs),
		AvailablePiecesIDs: orEmpty(in.AvailablePiecesIDs),
		MasterPieces:       orEmpty(in.MasterPieces),
		Progress:           progress,
	})
	if err != nil {
		return nil, storageError("saving game", err)
	}
	return save, nil
}

// List returns every save of the user, newest first, without piece data.
func (s *SaveService) List(ctx context.Context, userID int64) ([]models.SaveGame, error) {
	list, err := s.repomanager.Saves(s.db).List(ctx, userID)
	if err != nil {
		return nil, storageError("listing saves", err)
	}
	return list, nil
}

// Latest returns the most recently updated save matching filter.
func (s *SaveService) Latest(ctx context.Context, userID int64, filter models.SaveFilter) (*models.SaveGame, error) {
	save, err := s.repomanager.Saves(s.db).FindLatest(ctx, userID, filter)
	if err != nil {
		return nil, storageError("loading save", err)
	}
	return save, nil
}

func (s *SaveService) Delete(ctx context.Context, userID int64, gameMode, difficulty string) error {
	if gameMode == "" || difficulty == "" {
		return validationError("gameMode and difficulty are required")
	}

	n, err := s.repomanager.Saves(s.db).Delete(ctx, userID, gameMode, difficulty)
	if err != nil {
		return storageError("deleting save", err)
	}
	if n == 0 {
		return notFoundError("save not found")
	}
	return nil
}

// Progress computes completion in percent.
//
// Classic mode: placed (non-null) pieces over placed plus available pieces.
// Master mode: piece groups over difficulty² × 9, capped at 100.
func Progress(gameMode, difficulty string, placed, available, master json.RawMessage) (float64, error) {
	if gameMode == models.GameModeMaster {
		pieces, err := decodeArray("masterPieces", master)
		if err != nil {
			return 0, err
		}
		if len(pieces) == 0 {
			return 0, nil
		}
		d, err := strconv.Atoi(difficulty)
		if err != nil || d < 1 {
			d = 1
		}
		total := float64(d) * float64(d) * 9
		return math.Min(100, float64(len(pieces))/total*100), nil
	}

	placedIDs, err := decodeArray("placedPiecesIds", placed)
	if err != nil {
		return 0, err
	}
	availableIDs, err := decodeArray("availablePiecesIds", available)
	if err != nil {
		return 0, err
	}

	total := len(placedIDs) + len(availableIDs)
	if total == 0 {
		return 0, nil
	}
	count := 0
	for _, p := range placedIDs {
		if string(p) != "null" {
			count++
		}
	}
	return float64(count) / float64(total) * 100, nil
}

func decodeArray(field string, raw json.RawMessage) ([]json.RawMessage, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, validationError(field + " must be an array")
	}
	return items, nil
}

func orEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return json.RawMessage("[]")
	}
	return raw
}
