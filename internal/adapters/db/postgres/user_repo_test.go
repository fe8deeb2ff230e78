package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	customErrors "github.com/fluxline/workflow-backend/internal/domain/auth/errors"
	"github.com/fluxline/workflow-backend/internal/domain/auth/model"
	wfmodel "github.com/fluxline/workflow-backend/internal/domain/workflow/model"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.RefreshToken{}, &wfmodel.Workflow{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestUserRepo_CreateAndGet(t *testing.T) {
	repo := NewUserRepo(setupDB(t))
	ctx := context.Background()

	user := model.User{
		ID: uuid.New(), Username: "alice", Email: "a@x.com",
		PasswordHash: "h", IsActive: true, CreatedAt: time.Now(),
	}
	id, err := repo.CreateUser(ctx, user)
	if err != nil || id != user.ID {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetUserByUsername(ctx, "alice")
	if err != nil || got.Email != "a@x.com" {
		t.Fatalf("by username: %v", err)
	}
	got, err = repo.GetUserByEmail(ctx, "a@x.com")
	if err != nil || got.Username != "alice" {
		t.Fatalf("by email: %v", err)
	}
	got, err = repo.GetUserByID(ctx, user.ID)
	if err != nil || got.ID != user.ID {
		t.Fatalf("by id: %v", err)
	}
	if got.LastLogin != nil {
		t.Fatal("fresh user must have no last login")
	}
}

// The sqlite test driver cannot raise pgx errors, so the 23505 mapping
// is exercised directly with the error type the postgres driver emits.
func TestIsUniqueViolation(t *testing.T) {
	dup := fmt.Errorf("insert users: %w", &pgconn.PgError{Code: "23505"})
	if !isUniqueViolation(dup) {
		t.Fatal("wrapped 23505 must count as a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("other pg error codes must not match")
	}
	if isUniqueViolation(errors.New("connection reset")) {
		t.Fatal("non-pg errors must not match")
	}
}

func TestUserRepo_NotFound(t *testing.T) {
	repo := NewUserRepo(setupDB(t))
	ctx := context.Background()

	if _, err := repo.GetUserByUsername(ctx, "ghost"); !customErrors.IsNotFound(err) {
		t.Fatalf("want not found, got %v", err)
	}
	if err := repo.UpdateLastLogin(ctx, uuid.New(), time.Now()); !customErrors.IsNotFound(err) {
		t.Fatalf("want not found, got %v", err)
	}
	if err := repo.UpdatePasswordHash(ctx, uuid.New(), "h2"); !customErrors.IsNotFound(err) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestUserRepo_UpdateLastLogin(t *testing.T) {
	repo := NewUserRepo(setupDB(t))
	ctx := context.Background()

	user := model.User{ID: uuid.New(), Username: "alice", Email: "a@x.com", PasswordHash: "h", CreatedAt: time.Now()}
	if _, err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}

	at := time.Now()
	if err := repo.UpdateLastLogin(ctx, user.ID, at); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LastLogin == nil {
		t.Fatal("last login not stamped")
	}
}

func TestUserRepo_UpdatePasswordHash(t *testing.T) {
	repo := NewUserRepo(setupDB(t))
	ctx := context.Background()

	user := model.User{ID: uuid.New(), Username: "alice", Email: "a@x.com", PasswordHash: "old", CreatedAt: time.Now()}
	if _, err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.UpdatePasswordHash(ctx, user.ID, "new"); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := repo.GetUserByID(ctx, user.ID)
	if got.PasswordHash != "new" {
		t.Fatalf("hash not updated: %s", got.PasswordHash)
	}
}
