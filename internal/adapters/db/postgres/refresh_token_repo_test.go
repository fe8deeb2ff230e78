package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	customErrors "github.com/fluxline/workflow-backend/internal/domain/auth/errors"
	"github.com/fluxline/workflow-backend/internal/domain/auth/model"
)

func newRow(userID uuid.UUID, token string) model.RefreshToken {
	return model.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(time.Hour),
		Revoked:   false,
		CreatedAt: time.Now(),
	}
}

func TestRefreshTokenRepo_CreateAndGet(t *testing.T) {
	repo := NewRefreshTokenRepo(setupDB(t))
	ctx := context.Background()

	row := newRow(uuid.New(), "tok-1")
	if err := repo.Create(ctx, row); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByToken(ctx, "tok-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != row.ID || got.UserID != row.UserID {
		t.Fatal("row mismatch")
	}

	if _, err := repo.GetByToken(ctx, "absent"); !customErrors.IsNotFound(err) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestRefreshTokenRepo_RotateKeepsIdentity(t *testing.T) {
	repo := NewRefreshTokenRepo(setupDB(t))
	ctx := context.Background()

	row := newRow(uuid.New(), "tok-1")
	if err := repo.Create(ctx, row); err != nil {
		t.Fatalf("create: %v", err)
	}

	newExp := time.Now().Add(2 * time.Hour)
	if err := repo.Rotate(ctx, row.ID, "tok-1", "tok-2", newExp); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	if _, err := repo.GetByToken(ctx, "tok-1"); !customErrors.IsNotFound(err) {
		t.Fatal("old value must stop resolving")
	}
	got, err := repo.GetByToken(ctx, "tok-2")
	if err != nil {
		t.Fatalf("get rotated: %v", err)
	}
	if got.ID != row.ID {
		t.Fatal("rotation must not change the row id")
	}
	if got.CreatedAt.Unix() != row.CreatedAt.Unix() {
		t.Fatal("rotation must not change created_at")
	}
}

// The conditional update is the whole concurrency story: a stale
// previous value must never win.
func TestRefreshTokenRepo_RotateStaleValueLoses(t *testing.T) {
	repo := NewRefreshTokenRepo(setupDB(t))
	ctx := context.Background()

	row := newRow(uuid.New(), "tok-1")
	if err := repo.Create(ctx, row); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Rotate(ctx, row.ID, "tok-1", "tok-2", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("first rotate: %v", err)
	}

	err := repo.Rotate(ctx, row.ID, "tok-1", "tok-3", time.Now().Add(time.Hour))
	if !customErrors.IsInvalidToken(err) {
		t.Fatalf("stale rotate must fail with invalid token, got %v", err)
	}

	// the winner's value is intact
	if _, err := repo.GetByToken(ctx, "tok-2"); err != nil {
		t.Fatalf("winner value lost: %v", err)
	}
}

func TestRefreshTokenRepo_RotateRevokedFails(t *testing.T) {
	repo := NewRefreshTokenRepo(setupDB(t))
	ctx := context.Background()

	row := newRow(uuid.New(), "tok-1")
	if err := repo.Create(ctx, row); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Revoke(ctx, "tok-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	err := repo.Rotate(ctx, row.ID, "tok-1", "tok-2", time.Now().Add(time.Hour))
	if !customErrors.IsInvalidToken(err) {
		t.Fatalf("revoked rotate must fail, got %v", err)
	}
}

func TestRefreshTokenRepo_Revoke(t *testing.T) {
	repo := NewRefreshTokenRepo(setupDB(t))
	ctx := context.Background()

	row := newRow(uuid.New(), "tok-1")
	if err := repo.Create(ctx, row); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Revoke(ctx, "tok-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	got, err := repo.GetByToken(ctx, "tok-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Revoked {
		t.Fatal("row must be revoked")
	}

	if err := repo.Revoke(ctx, "absent"); !customErrors.IsNotFound(err) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestRefreshTokenRepo_MultipleRowsPerUser(t *testing.T) {
	repo := NewRefreshTokenRepo(setupDB(t))
	ctx := context.Background()
	userID := uuid.New()

	if err := repo.Create(ctx, newRow(userID, "tok-a")); err != nil {
		t.Fatalf("create a: %v", err)
	}
	if err := repo.Create(ctx, newRow(userID, "tok-b")); err != nil {
		t.Fatalf("create b: %v", err)
	}

	rowA, err := repo.GetByToken(ctx, "tok-a")
	if err != nil {
		t.Fatalf("get a: %v", err)
	}
	if err := repo.Rotate(ctx, rowA.ID, "tok-a", "tok-a2", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("rotate a: %v", err)
	}

	// sibling session untouched
	if _, err := repo.GetByToken(ctx, "tok-b"); err != nil {
		t.Fatalf("sibling lost: %v", err)
	}
}
