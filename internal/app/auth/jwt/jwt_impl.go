package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	customErrors "github.com/fluxline/workflow-backend/internal/domain/auth/errors"
	jwt2 "github.com/fluxline/workflow-backend/internal/domain/auth/jwt"
	"github.com/fluxline/workflow-backend/internal/infra/config"
)

type JwtUtilImpl struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   string
}

func NewJWTUtil(cfg *config.Config) (*JwtUtilImpl, error) {
	if cfg.JWTSecret == "" {
		return nil, customErrors.NewInvalidArgument("empty JWT secret")
	}
	return &JwtUtilImpl{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
	}, nil
}

func (j *JwtUtilImpl) GenerateAccessToken(userID uuid.UUID, username string) (string, time.Time, error) {
	now := time.Now()

	claims := jwt2.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    j.issuer,
			Audience:  jwt.ClaimStrings{j.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTTL)),
			ID:        uuid.NewString(),
		},
		Username: username,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "sign access token")
	}

	return signed, claims.ExpiresAt.Time, nil
}

func (j *JwtUtilImpl) GenerateRefreshToken(userID uuid.UUID, username string) (string, time.Time, error) {
	now := time.Now()

	claims := jwt2.RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    j.issuer,
			Audience:  jwt.ClaimStrings{j.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.refreshTTL)),
			ID:        uuid.NewString(),
		},
		Username: username,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "sign refresh token")
	}

	return signed, claims.ExpiresAt.Time, nil
}

func (j *JwtUtilImpl) ValidateAccessToken(raw string) (jwt2.AccessClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt2.AccessClaims{}, j.keyFunc,
		jwt.WithIssuedAt(), jwt.WithLeeway(2*time.Minute))

	if err != nil || !token.Valid {
		return jwt2.AccessClaims{}, customErrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt2.AccessClaims)
	if !ok {
		return jwt2.AccessClaims{}, customErrors.WrapInternal(
			errors.New("claims not AccessClaims"), "ValidateAccessToken",
		)
	}

	if err := j.checkIssuerAudience(claims.Issuer, claims.Audience); err != nil {
		return jwt2.AccessClaims{}, err
	}

	return *claims, nil
}

func (j *JwtUtilImpl) ValidateRefreshToken(raw string) (jwt2.RefreshClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt2.RefreshClaims{}, j.keyFunc,
		jwt.WithIssuedAt(), jwt.WithLeeway(2*time.Minute))

	if err != nil || !token.Valid {
		return jwt2.RefreshClaims{}, customErrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt2.RefreshClaims)
	if !ok {
		return jwt2.RefreshClaims{}, customErrors.WrapInternal(
			errors.New("claims not RefreshClaims"), "ValidateRefreshToken")
	}

	if err := j.checkIssuerAudience(claims.Issuer, claims.Audience); err != nil {
		return jwt2.RefreshClaims{}, err
	}

	return *claims, nil
}

func (j *JwtUtilImpl) keyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, customErrors.ErrInvalidToken
	}
	return j.secret, nil
}

func (j *JwtUtilImpl) checkIssuerAudience(issuer string, audience jwt.ClaimStrings) error {
	if j.issuer != "" && issuer != j.issuer {
		return customErrors.ErrInvalidToken
	}

	if j.audience != "" {
		okAudi := false
		for _, a := range audience {
			if a == j.audience {
				okAudi = true
				break
			}
		}
		if !okAudi {
			return customErrors.ErrInvalidToken
		}
	}
	return nil
}
