package rest

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/jigsawhub/internal/common"
	"github.com/dmitrijs2005/jigsawhub/internal/server/auth"
)

// authedHandler is a handler that runs only for a verified caller.
type authedHandler func(w http.ResponseWriter, r *http.Request, p auth.Principal)

// authenticated resolves the caller from the Authorization bearer header or,
// failing that, the token query parameter.
func (a *API) authenticated(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			a.fail(w, r, err)
			return
		}

		p, err := a.Verifier.Verify(token)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				a.fail(w, r, unauthorized("token expired"))
			} else {
				a.fail(w, r, unauthorized("invalid token"))
			}
			return
		}

		h(w, r, p)
	}
}

func bearerToken(r *http.Request) (string, error) {
	if h := r.Header.Get(common.AuthorizationHeaderName); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", unauthorized("malformed authorization header")
		}
		return strings.TrimSpace(token), nil
	}
	if t := r.URL.Query().Get(common.TokenQueryParam); t != "" {
		return t, nil
	}
	return "", unauthorized("missing token")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		a.log.Debug(r.Context(), "request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
