package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	customErrors "github.com/fluxline/workflow-backend/internal/domain/auth/errors"
	"github.com/fluxline/workflow-backend/internal/domain/auth/model"
)

type RefreshTokenRepo struct {
	db *gorm.DB
}

func NewRefreshTokenRepo(db *gorm.DB) *RefreshTokenRepo {
	return &RefreshTokenRepo{db: db}
}

func (p *RefreshTokenRepo) Create(ctx context.Context, t model.RefreshToken) error {
	if err := conn(ctx, p.db).Create(&t).Error; err != nil {
		return customErrors.WrapInternal(err, "CreateRefreshToken")
	}
	return nil
}

func (p *RefreshTokenRepo) GetByToken(ctx context.Context, token string) (model.RefreshToken, error) {
	var t model.RefreshToken
	res := conn(ctx, p.db).Where("token = ?", token).First(&t)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.RefreshToken{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.RefreshToken{}, customErrors.WrapInternal(err, "GetByToken")
	}
	return t, nil
}

// Rotate is a single conditional update keyed on the previous token
// value. Two concurrent refreshes of the same value race here and
// exactly one sees RowsAffected == 1; the loser gets ErrInvalidToken.
func (p *RefreshTokenRepo) Rotate(ctx context.Context, id uuid.UUID, prevToken, newToken string, expiresAt time.Time) error {
	res := conn(ctx, p.db).Model(&model.RefreshToken{}).
		Where("id = ? AND token = ? AND revoked = ?", id, prevToken, false).
		Updates(map[string]any{
			"token":      newToken,
			"expires_at": expiresAt,
		})
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "Rotate")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrInvalidToken
	}
	return nil
}

func (p *RefreshTokenRepo) Revoke(ctx context.Context, token string) error {
	res := conn(ctx, p.db).Model(&model.RefreshToken{}).
		Where("token = ?", token).
		Update("revoked", true)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "Revoke")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}
