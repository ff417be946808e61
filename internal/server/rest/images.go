package rest

import (
	"net/http"

	"github.com/dmitrijs2005/jigsawhub/internal/server/auth"
)

func (a *API) uploadURL(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	u, err := a.Images.UploadURL(r.Context(), p.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *API) downloadURL(w http.ResponseWriter, r *http.Request, _ auth.Principal) {
	u, err := a.Images.DownloadURL(r.Context(), r.URL.Query().Get("key"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
