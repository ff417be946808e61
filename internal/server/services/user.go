package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/jigsawhub/internal/common"
	"github.com/dmitrijs2005/jigsawhub/internal/logging"
	"github.com/dmitrijs2005/jigsawhub/internal/server/auth"
	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/repomanager"
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

// TokenIssuer mints session tokens for an authenticated principal.
type TokenIssuer interface {
	Issue(p auth.Principal) (string, error)
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// UserService handles registration, login and password reset requests.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      TokenIssuer
	log         logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens TokenIssuer, log logging.Logger) *UserService {
	return &UserService{db: db, repomanager: m, tokens: tokens, log: log.With("module", "users")}
}

func (s *UserService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	switch {
	case username == "" || email == "" || password == "":
		return nil, validationError("username, email and password are required")
	case len([]rune(username)) < 3:
		return nil, validationError("username must be at least 3 characters")
	case len(password) < 6:
		return nil, validationError("password must be at least 6 characters")
	case !emailPattern.MatchString(email):
		return nil, validationError("invalid email format")
	}

	repo := s.repomanager.Users(s.db)

	exists, err := repo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, storageError("checking user", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: username or email already exists", common.ErrConflict)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, internalError("hashing password", err)
	}

	u, err := repo.Create(ctx, &models.User{Username: username, Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, fmt.Errorf("%w: username or email already exists", common.ErrConflict)
		}
		return nil, storageError("creating user", err)
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID, "username", u.Username)
	return s.issue(u)
}

// Login accepts either the username or the email as identifier.
func (s *UserService) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, validationError("username and password are required")
	}

	u, err := s.repomanager.Users(s.db).GetByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", common.ErrorUnauthorized)
		}
		return nil, storageError("loading user", err)
	}

	ok, err := auth.CheckPassword(u.PasswordHash, password)
	if err != nil {
		return nil, internalError("checking password", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: invalid credentials", common.ErrorUnauthorized)
	}

	return s.issue(u)
}

// ResetPassword only records the request; no mail transport is configured.
func (s *UserService) ResetPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return validationError("email is required")
	}

	u, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return notFoundError("email is not registered")
		}
		return storageError("loading user", err)
	}

	s.log.Info(ctx, "password reset requested", "user_id", u.ID)
	return nil
}

func (s *UserService) issue(u *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(auth.Principal{UserID: u.ID, Username: u.Username, Email: u.Email})
	if err != nil {
		return nil, internalError("issuing token", err)
	}
	return &AuthResult{Token: token, User: u}, nil
}
