package service

import (
	"context"
	"time"

	"github.com/erwinalamdev/secure-login/internal/auth/domain"
	autherror "github.com/erwinalamdev/secure-login/internal/errors"
)

// RateLimiter denies logins for an (email, ip) pair once too many failed
// attempts were recorded inside the trailing window. It only reads the
// ledger and never writes to it.
type RateLimiter struct {
	ledger      domain.AttemptLedger
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

func NewRateLimiter(ledger domain.AttemptLedger, maxAttempts int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		ledger:      ledger,
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// Check returns nil when the login may proceed. An empty email bypasses the
// gate.
func (l *RateLimiter) Check(ctx context.Context, email, ip string) error {
	if email == "" {
		return nil
	}

	since := l.now().Add(-l.window)
	count, err := l.ledger.CountRecentFailedAttempts(ctx, email, ip, since)
	if err != nil {
		return autherror.Internal(err)
	}

	if count >= l.maxAttempts {
		return autherror.RateLimited(int(l.window.Seconds()))
	}

	return nil
}
