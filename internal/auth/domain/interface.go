package domain

//go:generate mockgen -destination=../../mocks/mock_account_repository.go -package=mocks github.com/erwinalamdev/secure-login/internal/auth/domain AccountRepository
//go:generate mockgen -destination=../../mocks/mock_attempt_ledger.go -package=mocks github.com/erwinalamdev/secure-login/internal/auth/domain AttemptLedger

import (
	"context"
	"time"
)

// AccountRepository returns (nil, nil) from the Get methods when no account
// matches.
type AccountRepository interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id int64) (*Account, error)
	Create(ctx context.Context, account *Account) error
	UpdateLoginOutcome(ctx context.Context, outcome LoginOutcome) error
	IncrementFailedAttempts(ctx context.Context, id int64, threshold int, lockUntil time.Time) (*LoginOutcome, error)
	UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) error
	Deactivate(ctx context.Context, id int64, at time.Time) error
	CountStats(ctx context.Context, now time.Time, recentSince time.Time) (*AccountStats, error)
}

type AttemptLedger interface {
	RecordLoginAttempt(ctx context.Context, attempt *LoginAttempt) error
	CountRecentFailedAttempts(ctx context.Context, email, ip string, since time.Time) (int, error)
	ListRecentAttempts(ctx context.Context, email string, limit int) ([]LoginAttempt, error)
}
