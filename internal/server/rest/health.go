package rest

import (
	"context"
	"net/http"
	"time"
)

const healthTimeout = 2 * time.Second

type healthBody struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Online   *int   `json:"online_players,omitempty"`
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := a.DB.PingContext(ctx); err != nil {
		a.log.Warn(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, healthBody{Status: "unhealthy", Database: "disconnected"})
		return
	}
	body := healthBody{Status: "healthy", Database: "connected"}
	if a.Presence != nil {
		n := a.Presence.OnlineCount()
		body.Online = &n
	}
	writeJSON(w, http.StatusOK, body)
}
