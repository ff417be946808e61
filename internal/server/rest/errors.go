package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/jigsawhub/internal/common"
)

func unauthorized(msg string) error {
	return fmt.Errorf("%w: %s", common.ErrorUnauthorized, msg)
}

func badRequest(msg string) error {
	return fmt.Errorf("%w: %s", common.ErrValidation, msg)
}

// fail writes err as {"error": ...} with the matching status code. Anything
// that is not a known sentinel is logged and reported as a 500.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status int
		msg    string
	)
	switch {
	case errors.Is(err, common.ErrValidation):
		status, msg = http.StatusBadRequest, common.Message(err, common.ErrValidation)
	case errors.Is(err, common.ErrorUnauthorized):
		status, msg = http.StatusUnauthorized, common.Message(err, common.ErrorUnauthorized)
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		status, msg = http.StatusUnauthorized, "invalid token"
	case errors.Is(err, common.ErrorNotFound):
		status, msg = http.StatusNotFound, common.Message(err, common.ErrorNotFound)
	case errors.Is(err, common.ErrConflict):
		status, msg = http.StatusConflict, common.Message(err, common.ErrConflict)
	case errors.Is(err, common.ErrTransitionRejected):
		status, msg = http.StatusConflict, "request is no longer applicable"
	default:
		a.log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		status, msg = http.StatusInternalServerError, "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}
