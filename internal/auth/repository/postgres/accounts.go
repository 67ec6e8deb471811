package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erwinalamdev/secure-login/internal/auth/domain"
	autherror "github.com/erwinalamdev/secure-login/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const accountColumns = `id, email, password_hash, full_name, created_at, updated_at,
	last_login_at, failed_attempts, locked_until, is_active`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.FullName, &a.CreatedAt, &a.UpdatedAt,
		&a.LastLoginAt, &a.FailedAttempts, &a.LockedUntil, &a.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE email = $1
		LIMIT 1`

	account, err := scanAccount(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan account row: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1`

	account, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan account row: %w", err)
	}
	return account, nil
}

// Create inserts the account and fills in its generated id. A duplicate email
// is reported as autherror.ErrEmailAlreadyInUse.
func (r *PostgresRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `INSERT INTO accounts (email, password_hash, full_name, created_at, updated_at, failed_attempts, is_active)
		VALUES ($1, $2, $3, $4, $5, 0, $6)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		account.Email, account.PasswordHash, account.FullName,
		account.CreatedAt, account.UpdatedAt, account.IsActive,
	).Scan(&account.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return autherror.ErrEmailAlreadyInUse
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateLoginOutcome(ctx context.Context, outcome domain.LoginOutcome) error {
	query := `UPDATE accounts
		SET failed_attempts = $2, locked_until = $3, last_login_at = COALESCE($4, last_login_at)
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, outcome.AccountID, outcome.FailedAttempts, outcome.LockedUntil, outcome.LastLoginAt)
	if err != nil {
		return fmt.Errorf("failed to update login outcome: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return autherror.ErrAccountNotFound
	}
	return nil
}

// IncrementFailedAttempts bumps the counter in a single statement so
// concurrent failures are never lost. The lockout is set once the new count
// reaches threshold.
func (r *PostgresRepository) IncrementFailedAttempts(ctx context.Context, id int64, threshold int, lockUntil time.Time) (*domain.LoginOutcome, error) {
	query := `UPDATE accounts
		SET failed_attempts = failed_attempts + 1,
			locked_until = CASE WHEN failed_attempts + 1 >= $2 THEN $3 ELSE locked_until END
		WHERE id = $1
		RETURNING failed_attempts, locked_until`

	outcome := domain.LoginOutcome{AccountID: id}
	err := r.db.QueryRow(ctx, query, id, threshold, lockUntil).Scan(&outcome.FailedAttempts, &outcome.LockedUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, autherror.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to increment failed attempts: %w", err)
	}
	return &outcome, nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id int64, update domain.ProfileUpdate) error {
	query := `UPDATE accounts
		SET full_name = COALESCE($2, full_name),
			password_hash = COALESCE($3, password_hash),
			updated_at = $4
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, update.FullName, update.PasswordHash, update.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return autherror.ErrAccountNotFound
	}
	return nil
}

func (r *PostgresRepository) Deactivate(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE accounts SET is_active = FALSE, updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to deactivate account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return autherror.ErrAccountNotFound
	}
	return nil
}

// CountStats computes lockout from locked_until on every call; nothing stores
// a locked flag.
func (r *PostgresRepository) CountStats(ctx context.Context, now time.Time, recentSince time.Time) (*domain.AccountStats, error) {
	query := `SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_active),
			COUNT(*) FILTER (WHERE last_login_at > $1),
			COUNT(*) FILTER (WHERE locked_until > $2)
		FROM accounts`

	var stats domain.AccountStats
	err := r.db.QueryRow(ctx, query, recentSince, now).
		Scan(&stats.TotalUsers, &stats.ActiveUsers, &stats.RecentLogins, &stats.LockedUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to count account stats: %w", err)
	}
	return &stats, nil
}
