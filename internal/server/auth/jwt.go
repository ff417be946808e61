package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/jigsawhub/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims extend the registered claims with the player identity carried by
// every session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Principal is the authenticated identity handed to handlers.
type Principal struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func GenerateToken(p Principal, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:   p.UserID,
		Username: p.Username,
		Email:    p.Email,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken validates the signature and expiry and returns the principal.
// Expired tokens yield common.ErrTokenExpired, anything else common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (Principal, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, common.ErrTokenExpired
		}
		return Principal{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == 0 {
		return Principal{}, common.ErrInvalidToken
	}

	return Principal{UserID: claims.UserID, Username: claims.Username, Email: claims.Email}, nil
}

// Verifier binds a secret so callers only deal with token strings.
type Verifier struct {
	secret   []byte
	validity time.Duration
}

func NewVerifier(secret []byte, validity time.Duration) *Verifier {
	return &Verifier{secret: secret, validity: validity}
}

func (v *Verifier) Issue(p Principal) (string, error) {
	return GenerateToken(p, v.secret, v.validity)
}

func (v *Verifier) Verify(token string) (Principal, error) {
	return ParseToken(token, v.secret)
}
