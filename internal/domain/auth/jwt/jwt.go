package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type AccessClaims struct {
	jwt.RegisteredClaims
	Username string `json:"uname"`
}

type RefreshClaims struct {
	jwt.RegisteredClaims
	Username string `json:"uname"`
}

// JWTUtil signs and verifies bearer tokens. It never touches a store;
// persisting refresh tokens is the caller's job.
type JWTUtil interface {
	GenerateAccessToken(userID uuid.UUID, username string) (token string, exp time.Time, err error)
	GenerateRefreshToken(userID uuid.UUID, username string) (token string, exp time.Time, err error)
	ValidateAccessToken(token string) (claims AccessClaims, err error)
	ValidateRefreshToken(token string) (claims RefreshClaims, err error)
}
