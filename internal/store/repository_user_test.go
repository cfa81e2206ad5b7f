package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MKhiriev/chat-guard/internal/logger"
	"github.com/MKhiriev/chat-guard/models"
)

var userColumns = []string{
	"uid", "email", "email_verified", "api_key", "created_at", "last_login_at",
	"usage_limit", "is_active", "role", "chat_count", "chat_last_reset",
}

func newTestUserRepo(t *testing.T) (*userRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	l := logger.NewLogger("test")
	repo := &userRepository{
		db:     &DB{DB: db, logger: l},
		logger: l,
	}
	return repo, mock, db
}

func pgError(code string) error {
	return &pgconn.PgError{Code: code}
}

func TestCreateUser_Success(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	ctx := context.Background()
	user := models.User{
		UID:        "uid-1",
		Email:      "encrypted-email",
		APIKey:     "encrypted-key",
		UsageLimit: 20,
		IsActive:   true,
		Role:       models.RoleUser,
	}

	now := time.Now()
	rows := sqlmock.NewRows(userColumns).
		AddRow(user.UID, user.Email, false, user.APIKey, now, time.Unix(0, 0),
			user.UsageLimit, user.IsActive, user.Role, 0, now)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(user.UID, user.Email, "hash-1", user.EmailVerified, user.APIKey,
			user.UsageLimit, user.IsActive, user.Role).
		WillReturnRows(rows)

	created, err := repo.CreateUser(ctx, user, "hash-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.UID != user.UID {
		t.Errorf("expected uid %s, got %s", user.UID, created.UID)
	}
	if created.ChatUsage.Count != 0 {
		t.Errorf("expected zero chat count, got %d", created.ChatUsage.Count)
	}
}

func TestCreateUser_UniqueViolation(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(pgError(pgerrcode.UniqueViolation))

	_, err := repo.CreateUser(context.Background(), models.User{UID: "uid-1"}, "hash-1")
	if !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}
}

func TestCreateUser_UnexpectedDBError(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(errors.New("db network error"))

	_, err := repo.CreateUser(context.Background(), models.User{UID: "uid-1"}, "hash-1")
	if err == nil || !strings.Contains(err.Error(), "unexpected DB error") {
		t.Fatalf("expected wrapped unexpected DB error, got %v", err)
	}
}

func TestGetUser_Success(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(userColumns).
		AddRow("uid-1", "encrypted-email", true, "encrypted-key", now, now,
			20, true, models.RoleUser, 5, now)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("uid-1").
		WillReturnRows(rows)

	found, err := repo.GetUser(context.Background(), "uid-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found.EmailVerified {
		t.Error("expected verified user")
	}
	if found.ChatUsage.Count != 5 {
		t.Errorf("expected chat count 5, got %d", found.ChatUsage.Count)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.GetUser(context.Background(), "missing")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGetUser_QueryError(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("uid-1").
		WillReturnError(errors.New("db network error"))

	_, err := repo.GetUser(context.Background(), "uid-1")
	if !errors.Is(err, ErrExecutingQuery) {
		t.Fatalf("expected ErrExecutingQuery, got %v", err)
	}
}

func TestFindUserByEmailHash_NotFound(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("no-such-hash").
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.FindUserByEmailHash(context.Background(), "no-such-hash")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateVerification_Success(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectExec("UPDATE users").
		WithArgs("uid-1", true, true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateVerification(context.Background(), "uid-1", true, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateVerification_UserNotFound(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectExec("UPDATE users").
		WithArgs("missing", true, true).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateVerification(context.Background(), "missing", true, true)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestIncrementChatUsage_ReturnsNewCount(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectQuery("UPDATE users").
		WithArgs("uid-1").
		WillReturnRows(sqlmock.NewRows([]string{"chat_count"}).AddRow(7))

	count, err := repo.IncrementChatUsage(context.Background(), "uid-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 7 {
		t.Errorf("expected count 7, got %d", count)
	}
}

func TestIncrementChatUsage_UserNotFound(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectQuery("UPDATE users").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"chat_count"}))

	_, err := repo.IncrementChatUsage(context.Background(), "missing")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestResetChatUsage_Success(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	at := time.Now()
	mock.ExpectExec("UPDATE users").
		WithArgs("uid-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ResetChatUsage(context.Background(), "uid-1", at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
