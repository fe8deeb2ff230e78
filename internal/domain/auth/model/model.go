package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	IsActive     bool
	IsAdmin      bool
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// RefreshToken is one session lineage. The row is rotated in place:
// Token and ExpiresAt are overwritten on every refresh, ID and CreatedAt
// stay fixed for the lifetime of the lineage.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	UserID       uuid.UUID
}
