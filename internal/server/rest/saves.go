package rest

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/jigsawhub/internal/server/auth"
	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
	"github.com/dmitrijs2005/jigsawhub/internal/server/services"
)

func (a *API) saveGame(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var req struct {
		SaveName           string          `json:"save_name"`
		GameMode           string          `json:"gameMode"`
		Difficulty         flexString      `json:"difficulty"`
		ElapsedSeconds     int64           `json:"elapsedSeconds"`
		CurrentScore       int64           `json:"currentScore"`
		ImageSource        string          `json:"imageSource"`
		PlacedPiecesIDs    json.RawMessage `json:"placedPiecesIds"`
		AvailablePiecesIDs json.RawMessage `json:"availablePiecesIds"`
		MasterPieces       json.RawMessage `json:"masterPieces"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	save, err := a.Saves.Save(r.Context(), p.UserID, services.SaveInput{
		SaveName:           req.SaveName,
		GameMode:           req.GameMode,
		Difficulty:         string(req.Difficulty),
		ElapsedSeconds:     req.ElapsedSeconds,
		CurrentScore:       req.CurrentScore,
		ImageSource:        req.ImageSource,
		PlacedPiecesIDs:    req.PlacedPiecesIDs,
		AvailablePiecesIDs: req.AvailablePiecesIDs,
		MasterPieces:       req.MasterPieces,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Message  string  `json:"message"`
		SaveID   int64   `json:"save_id"`
		SaveName string  `json:"save_name"`
		Progress float64 `json:"progress"`
	}{Message: "game saved", SaveID: save.ID, SaveName: save.SaveName, Progress: save.Progress})
}

// loadSave lists every save when no filter is given, otherwise returns the
// newest save matching it.
func (a *API) loadSave(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	q := r.URL.Query()
	filter := models.SaveFilter{
		GameMode:   strings.TrimSpace(q.Get("gameMode")),
		Difficulty: strings.TrimSpace(q.Get("difficulty")),
		SaveName:   strings.TrimSpace(q.Get("save_name")),
	}

	if filter.IsEmpty() {
		list, err := a.Saves.List(r.Context(), p.UserID)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		if list == nil {
			list = []models.SaveGame{}
		}
		writeJSON(w, http.StatusOK, struct {
			Saves []models.SaveGame `json:"saves"`
		}{Saves: list})
		return
	}

	save, err := a.Saves.Latest(r.Context(), p.UserID, filter)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, save)
}

func (a *API) deleteSave(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	q := r.URL.Query()
	err := a.Saves.Delete(r.Context(), p.UserID, strings.TrimSpace(q.Get("gameMode")), strings.TrimSpace(q.Get("difficulty")))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "save deleted"})
}
