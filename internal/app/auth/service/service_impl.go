package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fluxline/workflow-backend/internal/adapters/transport/http/dto"
	customErrors "github.com/fluxline/workflow-backend/internal/domain/auth/errors"
	"github.com/fluxline/workflow-backend/internal/domain/auth/jwt"
	"github.com/fluxline/workflow-backend/internal/domain/auth/model"
	"github.com/fluxline/workflow-backend/internal/domain/auth/repo"
	"github.com/fluxline/workflow-backend/internal/infra/config"
)

var argonParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

type authService struct {
	userRepo  repo.UserRepo
	tokenRepo repo.RefreshTokenRepo
	resetRepo repo.ResetTokenRepo
	txm       repo.TxManager
	jwtUtil   jwt.JWTUtil
	cfg       *config.Config
	v         *validator.Validate
}

type Service interface {
	Register(context.Context, dto.RegisterDTO) (model.User, error)
	Login(context.Context, dto.LoginDTO) (model.TokenPair, error)
	Refresh(context.Context, dto.RefreshDTO) (model.TokenPair, error)
	Logout(context.Context, dto.LogoutDTO) error
	Validate(context.Context, dto.ValidateDTO) (model.User, error)
	RequestPasswordReset(context.Context, dto.ForgotPasswordDTO) (string, error)
	ResetPassword(context.Context, dto.ResetPasswordDTO) error
}

func New(
	ur repo.UserRepo,
	tr repo.RefreshTokenRepo,
	rr repo.ResetTokenRepo,
	txm repo.TxManager,
	jm jwt.JWTUtil,
	cfg *config.Config,
	v *validator.Validate,
) Service {
	return &authService{
		userRepo: ur, tokenRepo: tr, resetRepo: rr, txm: txm, jwtUtil: jm, cfg: cfg, v: v,
	}
}

func (a *authService) Register(ctx context.Context, in dto.RegisterDTO) (model.User, error) {
	if err := a.validate(in); err != nil {
		return model.User{}, err
	}

	passwordHash, err := argon2id.CreateHash(in.Password+a.cfg.PasswordPepper, argonParams)
	if err != nil {
		return model.User{}, customErrors.WrapInternal(err, "Register")
	}

	user := model.User{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: passwordHash,
		FullName:     in.FullName,
		IsActive:     true,
		IsAdmin:      false,
		CreatedAt:    time.Now(),
	}
	if _, err = a.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			return model.User{}, err
		}
		return model.User{}, customErrors.WrapInternal(err, "Register")
	}

	return user, nil
}

func (a *authService) Login(ctx context.Context, in dto.LoginDTO) (model.TokenPair, error) {
	if err := a.validate(in); err != nil {
		return model.TokenPair{}, err
	}

	// Not-found and bad-password both map to invalid credentials so the
	// caller cannot probe which usernames exist.
	user, err := a.userRepo.GetUserByUsername(ctx, in.Username)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	case err != nil:
		return model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}

	ok, err := argon2id.ComparePasswordAndHash(in.Password+a.cfg.PasswordPepper, user.PasswordHash)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}
	if !ok {
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	}

	// The refresh-token row and the last-login stamp land together or
	// not at all.
	var pair model.TokenPair
	txErr := a.txm.WithinTx(ctx, func(ctx context.Context) error {
		p, err := a.issueTokens(ctx, user)
		if err != nil {
			return err
		}
		if err := a.userRepo.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
			return customErrors.WrapInternal(err, "Login")
		}
		pair = p
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, customErrors.ErrInternal) {
			return model.TokenPair{}, txErr
		}
		return model.TokenPair{}, customErrors.WrapInternal(txErr, "Login")
	}

	return pair, nil
}

func (a *authService) Refresh(ctx context.Context, in dto.RefreshDTO) (model.TokenPair, error) {
	if err := a.validate(in); err != nil {
		return model.TokenPair{}, err
	}

	row, err := a.tokenRepo.GetByToken(ctx, in.RefreshToken)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.TokenPair{}, customErrors.ErrInvalidToken
	case err != nil:
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}

	// Expired and revoked are deliberately indistinguishable to the caller.
	if row.Revoked || !row.ExpiresAt.After(time.Now()) {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	user, err := a.userRepo.GetUserByID(ctx, row.UserID)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.TokenPair{}, customErrors.NewNotFound("user for refresh token")
	case err != nil:
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}

	at, atExp, err := a.jwtUtil.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "GenerateAccessToken")
	}
	rt, rtExp, err := a.jwtUtil.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "GenerateRefreshToken")
	}

	// Rotate in place: the row keeps its identity, the presented value
	// stops working the moment the conditional update lands. Concurrent
	// refreshes of the same value race to a single winner here.
	if err := a.tokenRepo.Rotate(ctx, row.ID, in.RefreshToken, rt, rtExp); err != nil {
		if errors.Is(err, customErrors.ErrInvalidToken) || errors.Is(err, customErrors.ErrNotFound) {
			return model.TokenPair{}, customErrors.ErrInvalidToken
		}
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}

	now := time.Now()
	return model.TokenPair{
		AccessToken:  at,
		RefreshToken: rt,
		TokenType:    "bearer",
		AccessTTL:    atExp.Sub(now),
		RefreshTTL:   rtExp.Sub(now),
		UserID:       user.ID,
	}, nil
}

func (a *authService) Logout(ctx context.Context, in dto.LogoutDTO) error {
	if err := a.validate(in); err != nil {
		return err
	}

	err := a.tokenRepo.Revoke(ctx, in.RefreshToken)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return customErrors.ErrInvalidToken
	case err != nil:
		return customErrors.WrapInternal(err, "Logout")
	}
	return nil
}

func (a *authService) Validate(ctx context.Context, in dto.ValidateDTO) (model.User, error) {
	if err := a.validate(in); err != nil {
		return model.User{}, err
	}

	claims, err := a.jwtUtil.ValidateAccessToken(in.AccessToken)
	if err != nil {
		return model.User{}, customErrors.ErrInvalidToken
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.User{}, customErrors.ErrInvalidToken
	}

	user, err := a.userRepo.GetUserByID(ctx, uid)
	if err != nil {
		return model.User{}, customErrors.ErrInvalidToken
	}
	if !user.IsActive {
		return model.User{}, customErrors.ErrInvalidToken
	}
	return user, nil
}

func (a *authService) RequestPasswordReset(ctx context.Context, in dto.ForgotPasswordDTO) (string, error) {
	if err := a.validate(in); err != nil {
		return "", err
	}

	user, err := a.userRepo.GetUserByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		// Unknown addresses get the same outward answer as known ones.
		return "", nil
	case err != nil:
		return "", customErrors.WrapInternal(err, "RequestPasswordReset")
	}

	token, err := newResetToken()
	if err != nil {
		return "", customErrors.WrapInternal(err, "RequestPasswordReset")
	}

	if err := a.resetRepo.Store(ctx, token, user.ID, a.cfg.ResetTokenTTL); err != nil {
		return "", customErrors.WrapInternal(err, "RequestPasswordReset")
	}
	return token, nil
}

func (a *authService) ResetPassword(ctx context.Context, in dto.ResetPasswordDTO) error {
	if err := a.validate(in); err != nil {
		return err
	}

	uid, err := a.resetRepo.Consume(ctx, in.Token)
	switch {
	case errors.Is(err, customErrors.ErrNotFound), errors.Is(err, customErrors.ErrInvalidToken):
		return customErrors.ErrInvalidToken
	case err != nil:
		return customErrors.WrapInternal(err, "ResetPassword")
	}

	user, err := a.userRepo.GetUserByID(ctx, uid)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return customErrors.NewNotFound("user for reset token")
	case err != nil:
		return customErrors.WrapInternal(err, "ResetPassword")
	}

	hash, err := argon2id.CreateHash(in.NewPassword+a.cfg.PasswordPepper, argonParams)
	if err != nil {
		return customErrors.WrapInternal(err, "ResetPassword")
	}

	if err := a.userRepo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return customErrors.WrapInternal(err, "ResetPassword")
	}
	return nil
}

// issueTokens mints a fresh pair and persists a new refresh-token row.
// Every login gets its own row; existing sessions are left alone.
func (a *authService) issueTokens(ctx context.Context, user model.User) (model.TokenPair, error) {
	at, atExp, err := a.jwtUtil.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "GenerateAccessToken")
	}
	rt, rtExp, err := a.jwtUtil.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "GenerateRefreshToken")
	}

	row := model.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     rt,
		ExpiresAt: rtExp,
		Revoked:   false,
		CreatedAt: time.Now(),
	}
	if err := a.tokenRepo.Create(ctx, row); err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "StoreRefresh")
	}

	now := time.Now()
	return model.TokenPair{
		AccessToken:  at,
		RefreshToken: rt,
		TokenType:    "bearer",
		AccessTTL:    atExp.Sub(now),
		RefreshTTL:   rtExp.Sub(now),
		UserID:       user.ID,
	}, nil
}

// validate runs struct validation and reports only the first failing
// field, in declaration order.
func (a *authService) validate(in any) error {
	err := a.v.Struct(in)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		if fe.Tag() == "required" {
			return customErrors.NewInvalidArgument(strings.ToLower(fe.Field()) + " is required")
		}
		return customErrors.NewInvalidArgument(strings.ToLower(fe.Field()) + " is invalid")
	}
	return customErrors.NewInvalidArgument(err.Error())
}

func newResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
