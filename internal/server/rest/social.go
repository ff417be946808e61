package rest

import (
	"net/http"

	"github.com/dmitrijs2005/jigsawhub/internal/server/auth"
	"github.com/dmitrijs2005/jigsawhub/internal/server/services"
)

func (a *API) searchUsers(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	found, err := a.Friends.SearchUsers(r.Context(), p.UserID, r.URL.Query().Get("query"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (a *API) listFriends(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	friends, err := a.Friends.ListFriends(r.Context(), p.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, friends)
}

func (a *API) friendRequests(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	reqs, err := a.Friends.ListIncomingRequests(r.Context(), p.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (a *API) sendFriendRequest(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var req struct {
		TargetUserID int64 `json:"target_user_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	if _, err := a.Friends.SendRequest(r.Context(), p, req.TargetUserID); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageBody{Message: "friend request sent"})
}

func (a *API) respondFriendRequest(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var req struct {
		FriendshipID int64  `json:"friendship_id"`
		Action       string `json:"action"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	if err := a.Friends.Respond(r.Context(), p, req.FriendshipID, req.Action); err != nil {
		a.fail(w, r, err)
		return
	}

	msg := "friend added"
	if req.Action == services.FriendActionDecline {
		msg = "request declined"
	}
	writeJSON(w, http.StatusOK, messageBody{Message: msg})
}
