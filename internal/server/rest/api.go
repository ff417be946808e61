// Package rest exposes the JSON API under /api and mounts the realtime
// endpoint on /ws.
package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/jigsawhub/internal/logging"
	"github.com/dmitrijs2005/jigsawhub/internal/server/auth"
	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
	"github.com/dmitrijs2005/jigsawhub/internal/server/services"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

type TokenVerifier interface {
	Verify(token string) (auth.Principal, error)
}

type UserService interface {
	Register(ctx context.Context, username, email, password string) (*services.AuthResult, error)
	Login(ctx context.Context, identifier, password string) (*services.AuthResult, error)
	ResetPassword(ctx context.Context, email string) error
}

type ScoreService interface {
	Leaderboard(ctx context.Context, difficulty string, limit int) ([]models.LeaderboardEntry, error)
	Submit(ctx context.Context, userID, score int64, difficulty string, timeTaken int64) (*models.Score, error)
}

type ProfileService interface {
	Profile(ctx context.Context, userID int64) (*services.Profile, error)
	Achievements(ctx context.Context, userID int64) (*services.Achievements, error)
	Unlock(ctx context.Context, userID int64, achievementID string) (*models.UserAchievement, error)
}

type MatchHistory interface {
	History(ctx context.Context, userID int64) ([]models.MatchHistoryEntry, error)
}

type FriendService interface {
	SendRequest(ctx context.Context, from auth.Principal, toID int64) (*models.Friendship, error)
	Respond(ctx context.Context, user auth.Principal, friendshipID int64, action string) error
	ListFriends(ctx context.Context, userID int64) ([]models.Friend, error)
	ListIncomingRequests(ctx context.Context, userID int64) ([]models.FriendRequest, error)
	SearchUsers(ctx context.Context, userID int64, query string) ([]models.UserSearchResult, error)
}

type SaveService interface {
	Save(ctx context.Context, userID int64, in services.SaveInput) (*models.SaveGame, error)
	List(ctx context.Context, userID int64) ([]models.SaveGame, error)
	Latest(ctx context.Context, userID int64, filter models.SaveFilter) (*models.SaveGame, error)
	Delete(ctx context.Context, userID int64, gameMode, difficulty string) error
}

type ImageService interface {
	UploadURL(ctx context.Context, userID int64) (*models.PresignedURL, error)
	DownloadURL(ctx context.Context, key string) (*models.PresignedURL, error)
}

// Pinger reports whether the database is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// OnlineCounter reports how many players hold a realtime session.
type OnlineCounter interface {
	OnlineCount() int
}

// Deps bundles everything the API calls into.
type Deps struct {
	Verifier TokenVerifier
	Users    UserService
	Scores   ScoreService
	Profiles ProfileService
	Matches  MatchHistory
	Friends  FriendService
	Saves    SaveService
	Images   ImageService
	DB       Pinger
	Realtime http.Handler
	Presence OnlineCounter

	// AllowedOrigins defaults to "*" when empty.
	AllowedOrigins []string
}

type API struct {
	Deps
	log logging.Logger
}

func NewAPI(d Deps, log logging.Logger) *API {
	return &API{Deps: d, log: log.With("module", "rest")}
}

// Routes builds the router with CORS applied.
func (a *API) Routes() http.Handler {
	r := mux.NewRouter()

	if a.Realtime != nil {
		r.Handle("/ws", a.Realtime)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(a.logRequests)

	api.HandleFunc("/health", a.health).Methods(http.MethodGet)

	api.HandleFunc("/auth/register", a.register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", a.login).Methods(http.MethodPost)
	api.HandleFunc("/auth/reset-password", a.resetPassword).Methods(http.MethodPost)
	api.HandleFunc("/auth/validate", a.authenticated(a.validate)).Methods(http.MethodGet)

	api.HandleFunc("/scores", a.authenticated(a.leaderboard)).Methods(http.MethodGet)
	api.HandleFunc("/scores", a.authenticated(a.submitScore)).Methods(http.MethodPost)

	api.HandleFunc("/user/profile", a.authenticated(a.profile)).Methods(http.MethodGet)
	api.HandleFunc("/user/achievements", a.authenticated(a.achievements)).Methods(http.MethodGet)
	api.HandleFunc("/user/achievements", a.authenticated(a.unlockAchievement)).Methods(http.MethodPost)

	api.HandleFunc("/matches/history", a.authenticated(a.matchHistory)).Methods(http.MethodGet)

	api.HandleFunc("/users/search", a.authenticated(a.searchUsers)).Methods(http.MethodGet)
	api.HandleFunc("/friends", a.authenticated(a.listFriends)).Methods(http.MethodGet)
	api.HandleFunc("/friends/requests", a.authenticated(a.friendRequests)).Methods(http.MethodGet)
	api.HandleFunc("/friends/request", a.authenticated(a.sendFriendRequest)).Methods(http.MethodPost)
	api.HandleFunc("/friends/respond", a.authenticated(a.respondFriendRequest)).Methods(http.MethodPost)

	api.HandleFunc("/save-game", a.authenticated(a.saveGame)).Methods(http.MethodPost)
	api.HandleFunc("/load-save", a.authenticated(a.loadSave)).Methods(http.MethodGet)
	api.HandleFunc("/delete-save", a.authenticated(a.deleteSave)).Methods(http.MethodDelete)

	api.HandleFunc("/images/upload-url", a.authenticated(a.uploadURL)).Methods(http.MethodPost)
	api.HandleFunc("/images/download-url", a.authenticated(a.downloadURL)).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})

	origins := a.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)
}

type errorBody struct {
	Error string `json:"error"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
