package rest

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/jigsawhub/internal/server/auth"
	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
)

type authResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	res, err := a.Users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Message: "registration successful", Token: res.Token, User: res.User})
}

// login takes the identifier from "email" and falls back to "username";
// either field may hold a username or an email address.
func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	identifier := strings.TrimSpace(req.Email)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Username)
	}

	res, err := a.Users.Login(r.Context(), identifier, req.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Message: "login successful", Token: res.Token, User: res.User})
}

func (a *API) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	if err := a.Users.ResetPassword(r.Context(), req.Email); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "password reset email sent"})
}

func (a *API) validate(w http.ResponseWriter, _ *http.Request, p auth.Principal) {
	type user struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	writeJSON(w, http.StatusOK, struct {
		Valid bool `json:"valid"`
		User  user `json:"user"`
	}{Valid: true, User: user{ID: p.UserID, Username: p.Username, Email: p.Email}})
}
