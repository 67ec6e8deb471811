package postgres_test

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/erwinalamdev/secure-login/internal/auth/domain"
	repo "github.com/erwinalamdev/secure-login/internal/auth/repository/postgres"
	autherror "github.com/erwinalamdev/secure-login/internal/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountColumns = []string{
	"id", "email", "password_hash", "full_name", "created_at", "updated_at",
	"last_login_at", "failed_attempts", "locked_until", "is_active",
}

// TestGetByEmail covers the GetByEmail repository method.
func TestGetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()
	email := "test@example.com"
	now := time.Now()

	t.Run("success", func(t *testing.T) {
		lockedUntil := now.Add(10 * time.Minute)
		mock.ExpectQuery("SELECT id, email").
			WithArgs(email).
			WillReturnRows(pgxmock.NewRows(accountColumns).
				AddRow(int64(7), email, "hash", "Ann", now, now, nil, 5, &lockedUntil, true))

		account, err := r.GetByEmail(ctx, email)
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, int64(7), account.ID)
		assert.Equal(t, "Ann", account.FullName)
		assert.Equal(t, 5, account.FailedAttempts)
		assert.Nil(t, account.LastLoginAt)
		require.NotNil(t, account.LockedUntil)
		assert.True(t, account.IsLocked(now))
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email").
			WithArgs(email).
			WillReturnError(pgx.ErrNoRows)

		account, err := r.GetByEmail(ctx, email)
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email").
			WithArgs(email).
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.GetByEmail(ctx, email)
		assert.ErrorContains(t, err, "failed to scan account row")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()
	now := time.Now()

	t.Run("success", func(t *testing.T) {
		lastLogin := now.Add(-time.Hour)
		mock.ExpectQuery("SELECT id, email").
			WithArgs(int64(3)).
			WillReturnRows(pgxmock.NewRows(accountColumns).
				AddRow(int64(3), "b@x.com", "hash", "Bob", now, now, &lastLogin, 0, nil, false))

		account, err := r.GetByID(ctx, 3)
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.False(t, account.IsActive)
		require.NotNil(t, account.LastLoginAt)
		assert.Equal(t, lastLogin, *account.LastLoginAt)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email").
			WithArgs(int64(404)).
			WillReturnError(pgx.ErrNoRows)

		account, err := r.GetByID(ctx, 404)
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCreate covers the Create repository method.
func TestCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewPostgresRepository(mock)
	now := time.Now()

	newAccount := func() *domain.Account {
		return &domain.Account{
			Email:        "new@example.com",
			PasswordHash: "new-hash",
			FullName:     "New User",
			CreatedAt:    now,
			UpdatedAt:    now,
			IsActive:     true,
		}
	}

	t.Run("success", func(t *testing.T) {
		account := newAccount()
		mock.ExpectQuery("INSERT INTO accounts").
			WithArgs(account.Email, account.PasswordHash, account.FullName, account.CreatedAt, account.UpdatedAt, account.IsActive).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

		err := r.Create(ctx, account)
		require.NoError(t, err)
		assert.Equal(t, int64(42), account.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		account := newAccount()
		mock.ExpectQuery("INSERT INTO accounts").
			WithArgs(account.Email, account.PasswordHash, account.FullName, account.CreatedAt, account.UpdatedAt, account.IsActive).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"})

		err := r.Create(ctx, account)
		assert.Same(t, autherror.ErrEmailAlreadyInUse, err)
	})

	t.Run("database error", func(t *testing.T) {
		account := newAccount()
		mock.ExpectQuery("INSERT INTO accounts").
			WithArgs(account.Email, account.PasswordHash, account.FullName, account.CreatedAt, account.UpdatedAt, account.IsActive).
			WillReturnError(fmt.Errorf("db error"))

		err := r.Create(ctx, account)
		assert.ErrorContains(t, err, "failed to insert account")
		assert.NotErrorIs(t, err, autherror.ErrEmailAlreadyInUse)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLoginOutcome(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewPostgresRepository(mock)
	now := time.Now()
	outcome := domain.LoginOutcome{AccountID: 9, FailedAttempts: 0, LastLoginAt: &now}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("UPDATE accounts").
			WithArgs(int64(9), 0, pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, r.UpdateLoginOutcome(ctx, outcome))
	})

	t.Run("no such account", func(t *testing.T) {
		mock.ExpectExec("UPDATE accounts").
			WithArgs(int64(9), 0, pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.ErrorIs(t, r.UpdateLoginOutcome(ctx, outcome), autherror.ErrAccountNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementFailedAttempts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewPostgresRepository(mock)
	lockUntil := time.Now().Add(15 * time.Minute)
	query := regexp.QuoteMeta("SET failed_attempts = failed_attempts + 1")

	t.Run("below threshold", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(int64(1), 5, lockUntil).
			WillReturnRows(pgxmock.NewRows([]string{"failed_attempts", "locked_until"}).AddRow(3, nil))

		outcome, err := r.IncrementFailedAttempts(ctx, 1, 5, lockUntil)
		require.NoError(t, err)
		assert.Equal(t, 3, outcome.FailedAttempts)
		assert.Nil(t, outcome.LockedUntil)
	})

	t.Run("reaches threshold", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(int64(1), 5, lockUntil).
			WillReturnRows(pgxmock.NewRows([]string{"failed_attempts", "locked_until"}).AddRow(5, &lockUntil))

		outcome, err := r.IncrementFailedAttempts(ctx, 1, 5, lockUntil)
		require.NoError(t, err)
		assert.Equal(t, 5, outcome.FailedAttempts)
		require.NotNil(t, outcome.LockedUntil)
		assert.Equal(t, lockUntil, *outcome.LockedUntil)
	})

	t.Run("account vanished", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(int64(1), 5, lockUntil).
			WillReturnError(pgx.ErrNoRows)

		_, err := r.IncrementFailedAttempts(ctx, 1, 5, lockUntil)
		assert.ErrorIs(t, err, autherror.ErrAccountNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewPostgresRepository(mock)
	name := "Ann Lee"
	update := domain.ProfileUpdate{FullName: &name, UpdatedAt: time.Now()}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("UPDATE accounts").
			WithArgs(int64(2), pgxmock.AnyArg(), pgxmock.AnyArg(), update.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, r.UpdateProfile(ctx, 2, update))
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec("UPDATE accounts").
			WithArgs(int64(2), pgxmock.AnyArg(), pgxmock.AnyArg(), update.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.ErrorIs(t, r.UpdateProfile(ctx, 2, update), autherror.ErrAccountNotFound)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec("UPDATE accounts").
			WithArgs(int64(2), pgxmock.AnyArg(), pgxmock.AnyArg(), update.UpdatedAt).
			WillReturnError(fmt.Errorf("db error"))

		assert.ErrorContains(t, r.UpdateProfile(ctx, 2, update), "failed to update profile")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewPostgresRepository(mock)
	at := time.Now()

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET is_active = FALSE")).
			WithArgs(int64(5), at).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, r.Deactivate(ctx, 5, at))
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET is_active = FALSE")).
			WithArgs(int64(5), at).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.ErrorIs(t, r.Deactivate(ctx, 5, at), autherror.ErrAccountNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountStats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewPostgresRepository(mock)
	now := time.Now()
	since := now.Add(-7 * 24 * time.Hour)

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE is_active)")).
			WithArgs(since, now).
			WillReturnRows(pgxmock.NewRows([]string{"total", "active", "recent", "locked"}).AddRow(10, 8, 3, 1))

		stats, err := r.CountStats(ctx, now, since)
		require.NoError(t, err)
		assert.Equal(t, &domain.AccountStats{TotalUsers: 10, ActiveUsers: 8, RecentLogins: 3, LockedUsers: 1}, stats)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE is_active)")).
			WithArgs(since, now).
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.CountStats(ctx, now, since)
		assert.ErrorContains(t, err, "failed to count account stats")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordLoginAttempt(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewPostgresRepository(mock)
	attempt := &domain.LoginAttempt{
		ID:          uuid.New(),
		Email:       "ghost@example.com",
		IPAddress:   "10.0.0.1",
		UserAgent:   "curl/8.0",
		Successful:  false,
		AttemptedAt: time.Now(),
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO login_attempts").
			WithArgs(attempt.ID, attempt.Email, attempt.IPAddress, attempt.UserAgent, attempt.Successful, attempt.AttemptedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		assert.NoError(t, r.RecordLoginAttempt(ctx, attempt))
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO login_attempts").
			WithArgs(attempt.ID, attempt.Email, attempt.IPAddress, attempt.UserAgent, attempt.Successful, attempt.AttemptedAt).
			WillReturnError(fmt.Errorf("db error"))

		assert.ErrorContains(t, r.RecordLoginAttempt(ctx, attempt), "failed to record login attempt")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountRecentFailedAttempts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewPostgresRepository(mock)
	since := time.Now().Add(-15 * time.Minute)

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
			WithArgs("a@x.com", "10.0.0.1", since).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(4))

		count, err := r.CountRecentFailedAttempts(ctx, "a@x.com", "10.0.0.1", since)
		require.NoError(t, err)
		assert.Equal(t, 4, count)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
			WithArgs("a@x.com", "10.0.0.1", since).
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.CountRecentFailedAttempts(ctx, "a@x.com", "10.0.0.1", since)
		assert.ErrorContains(t, err, "failed to count failed login attempts")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecentAttempts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewPostgresRepository(mock)
	columns := []string{"id", "email", "ip_address", "user_agent", "successful", "attempted_at"}
	newer := time.Now()
	older := newer.Add(-time.Minute)

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email, ip_address").
			WithArgs("a@x.com", 20).
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(uuid.New(), "a@x.com", "10.0.0.1", "ua", true, newer).
				AddRow(uuid.New(), "a@x.com", "10.0.0.2", "ua", false, older))

		attempts, err := r.ListRecentAttempts(ctx, "a@x.com", 20)
		require.NoError(t, err)
		require.Len(t, attempts, 2)
		assert.True(t, attempts[0].Successful)
		assert.Equal(t, "10.0.0.2", attempts[1].IPAddress)
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email, ip_address").
			WithArgs("a@x.com", 20).
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.ListRecentAttempts(ctx, "a@x.com", 20)
		assert.ErrorContains(t, err, "failed to query login attempts")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
