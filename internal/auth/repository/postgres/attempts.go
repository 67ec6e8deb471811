package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/erwinalamdev/secure-login/internal/auth/domain"
)

func (r *PostgresRepository) RecordLoginAttempt(ctx context.Context, attempt *domain.LoginAttempt) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO login_attempts (id, email, ip_address, user_agent, successful, attempted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, attempt.ID, attempt.Email, attempt.IPAddress, attempt.UserAgent, attempt.Successful, attempt.AttemptedAt)
	if err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CountRecentFailedAttempts(ctx context.Context, email, ip string, since time.Time) (int, error) {
	query := `SELECT COUNT(*)
		FROM login_attempts
		WHERE email = $1 AND ip_address = $2 AND successful = FALSE AND attempted_at > $3`

	var count int
	if err := r.db.QueryRow(ctx, query, email, ip, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count failed login attempts: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) ListRecentAttempts(ctx context.Context, email string, limit int) ([]domain.LoginAttempt, error) {
	query := `SELECT id, email, ip_address, user_agent, successful, attempted_at
		FROM login_attempts
		WHERE email = $1
		ORDER BY attempted_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, email, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query login attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.LoginAttempt
	for rows.Next() {
		var a domain.LoginAttempt
		if err := rows.Scan(&a.ID, &a.Email, &a.IPAddress, &a.UserAgent, &a.Successful, &a.AttemptedAt); err != nil {
			return nil, fmt.Errorf("failed to scan login attempt row: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate login attempts: %w", err)
	}
	return attempts, nil
}
