package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fluxline/workflow-backend/internal/domain/auth/model"
)

type UserRepo interface {
	CreateUser(ctx context.Context, u model.User) (uuid.UUID, error)

	GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error)

	GetUserByUsername(ctx context.Context, username string) (model.User, error)

	GetUserByEmail(ctx context.Context, email string) (model.User, error)

	// UpdateLastLogin stamps the user's last successful login.
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error

	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type RefreshTokenRepo interface {
	Create(ctx context.Context, t model.RefreshToken) error

	GetByToken(ctx context.Context, token string) (model.RefreshToken, error)

	// Rotate overwrites the row's token value and expiry, conditional on
	// the currently stored value still being prevToken. Returns
	// ErrInvalidToken when the row was rotated or revoked concurrently.
	Rotate(ctx context.Context, id uuid.UUID, prevToken, newToken string, expiresAt time.Time) error

	// Revoke marks the row revoked. Revocation never reverts.
	Revoke(ctx context.Context, token string) error
}

// TxManager scopes a group of repository calls to one transaction:
// either every write inside fn commits, or none of them do.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ResetTokenRepo holds short-lived single-use password reset tokens.
type ResetTokenRepo interface {
	Store(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error

	// Consume returns the owning user and deletes the token in one step,
	// so a token can never be redeemed twice.
	Consume(ctx context.Context, token string) (uuid.UUID, error)
}
