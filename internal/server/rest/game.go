package rest

import (
	"net/http"

	"github.com/dmitrijs2005/jigsawhub/internal/server/auth"
)

func (a *API) leaderboard(w http.ResponseWriter, r *http.Request, _ auth.Principal) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		a.fail(w, r, err)
		return
	}

	entries, err := a.Scores.Leaderboard(r.Context(), r.URL.Query().Get("difficulty"), limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// submitScore accepts the duration as "time" or, for older clients,
// "time_taken".
func (a *API) submitScore(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var req struct {
		Score      *int64 `json:"score"`
		Difficulty string `json:"difficulty"`
		Time       *int64 `json:"time"`
		TimeTaken  *int64 `json:"time_taken"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	t := req.Time
	if t == nil {
		t = req.TimeTaken
	}
	if req.Score == nil || t == nil {
		a.fail(w, r, badRequest("score and time are required"))
		return
	}

	s, err := a.Scores.Submit(r.Context(), p.UserID, *req.Score, req.Difficulty, *t)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Message string `json:"message"`
		ScoreID int64  `json:"score_id"`
	}{Message: "score submitted", ScoreID: s.ID})
}

func (a *API) profile(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	prof, err := a.Profiles.Profile(r.Context(), p.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prof)
}

func (a *API) achievements(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	res, err := a.Profiles.Achievements(r.Context(), p.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) unlockAchievement(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var req struct {
		AchievementID string `json:"achievement_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	ach, err := a.Profiles.Unlock(r.Context(), p.UserID, req.AchievementID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Message       string `json:"message"`
		AchievementID string `json:"achievement_id"`
	}{Message: "achievement unlocked", AchievementID: ach.AchievementID})
}

func (a *API) matchHistory(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	h, err := a.Matches.History(r.Context(), p.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}
