package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	customErrors "github.com/fluxline/workflow-backend/internal/domain/auth/errors"
)

const resetKeyPrefix = "pwreset:"

// ResetTokenRepo keeps password reset tokens in Redis. Expiry is
// delegated to the key TTL; single use is guaranteed by GETDEL.
type ResetTokenRepo struct {
	client *redis.Client
}

func NewResetTokenRepo(client *redis.Client) *ResetTokenRepo {
	return &ResetTokenRepo{client: client}
}

func (r *ResetTokenRepo) Store(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return r.client.Set(ctx, resetKeyPrefix+token, userID.String(), ttl).Err()
}

func (r *ResetTokenRepo) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := r.client.GetDel(ctx, resetKeyPrefix+token).Result()
	switch {
	case err == redis.Nil:
		return uuid.Nil, customErrors.ErrNotFound
	case err != nil:
		return uuid.Nil, customErrors.WrapInternal(err, "Consume")
	}

	uid, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, customErrors.ErrInvalidToken
	}
	return uid, nil
}
