package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	customErrors "github.com/fluxline/workflow-backend/internal/domain/auth/errors"
	"github.com/fluxline/workflow-backend/internal/domain/auth/model"
)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation as surfaced by the pgx/v5 driver gorm rides on.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (p *UserRepo) CreateUser(ctx context.Context, user model.User) (uuid.UUID, error) {
	res := conn(ctx, p.db).Create(&user)
	if err := res.Error; err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, customErrors.ErrAlreadyExists
		}
		return uuid.Nil, customErrors.WrapInternal(err, "CreateUser")
	}
	return user.ID, nil
}

func (p *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return p.getUser(ctx, "id = ?", id)
}

func (p *UserRepo) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	return p.getUser(ctx, "username = ?", username)
}

func (p *UserRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return p.getUser(ctx, "email = ?", email)
}

func (p *UserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := conn(ctx, p.db).Model(&model.User{}).
		Where("id = ?", id).
		Update("last_login", at)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "UpdateLastLogin")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

func (p *UserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	res := conn(ctx, p.db).Model(&model.User{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "UpdatePasswordHash")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

func (p *UserRepo) getUser(ctx context.Context, query string, arg any) (model.User, error) {
	var u model.User
	res := conn(ctx, p.db).Where(query, arg).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapInternal(err, "GetUser")
	}
	return u, nil
}
