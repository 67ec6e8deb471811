package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/erwinalamdev/secure-login/config"
	"github.com/erwinalamdev/secure-login/internal/auth/domain"
	"github.com/erwinalamdev/secure-login/internal/auth/dto"
	autherror "github.com/erwinalamdev/secure-login/internal/errors"
)

const maxLoginHistoryLimit = 100

// AccountService serves the self-service operations available to an
// authenticated account.
type AccountService struct {
	accounts domain.AccountRepository
	attempts domain.AttemptLedger
	hasher   PasswordHasher

	historyLimit int
	recentLogins time.Duration
	now          func() time.Time
}

func NewAccountService(
	accounts domain.AccountRepository,
	attempts domain.AttemptLedger,
	hasher PasswordHasher,
	cfg *config.Config,
) *AccountService {
	return &AccountService{
		accounts:     accounts,
		attempts:     attempts,
		hasher:       hasher,
		historyLimit: positiveOr(cfg.LoginHistoryLimit, config.DefaultLoginHistoryLimit),
		recentLogins: time.Duration(positiveOr(cfg.RecentLoginDays, config.DefaultRecentLoginDays)) * 24 * time.Hour,
		now:          time.Now,
	}
}

func (s *AccountService) WithClock(now func() time.Time) *AccountService {
	s.now = now
	return s
}

func (s *AccountService) Profile(ctx context.Context, accountID int64) (*dto.ProfileOutput, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, internalError("profile: lookup account", err)
	}
	if account == nil {
		return nil, autherror.ErrAccountNotFound
	}

	return &dto.ProfileOutput{
		ID:          account.ID,
		Email:       account.Email,
		FullName:    account.FullName,
		CreatedAt:   account.CreatedAt,
		LastLoginAt: account.LastLoginAt,
	}, nil
}

// UpdateProfile changes the display name and/or the password. A password
// change needs the current password; the failure counter and lockout are
// left alone.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID int64, input dto.UpdateProfileInput) (*dto.UpdatedFields, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, internalError("update profile: lookup account", err)
	}
	if account == nil {
		return nil, autherror.ErrAccountNotFound
	}

	update := domain.ProfileUpdate{UpdatedAt: s.now()}
	updated := &dto.UpdatedFields{}

	if input.NewPassword != "" {
		if input.CurrentPassword == "" {
			return nil, autherror.NewValidationError(autherror.FieldIssue{
				Field:   "current_password",
				Message: "current password is required to change password",
			})
		}
		if !s.hasher.Compare(account.PasswordHash, input.CurrentPassword) {
			return nil, autherror.ErrInvalidCurrentPassword
		}

		hashed, err := hashWith(s.hasher, "new_password", input.NewPassword)
		if err != nil {
			return nil, err
		}
		update.PasswordHash = &hashed
		updated.Password = "changed"
	}

	if input.FullName != "" {
		name := input.FullName
		update.FullName = &name
		updated.FullName = name
	}

	if err := s.accounts.UpdateProfile(ctx, accountID, update); err != nil {
		if errors.Is(err, autherror.ErrAccountNotFound) {
			return nil, autherror.ErrAccountNotFound
		}
		return nil, internalError("update profile: write", err)
	}

	if update.PasswordHash != nil {
		log.Printf("info: account %d changed password", accountID)
	}

	return updated, nil
}

// Deactivate soft-deletes the account. Its login history is kept.
func (s *AccountService) Deactivate(ctx context.Context, accountID int64) error {
	if err := s.accounts.Deactivate(ctx, accountID, s.now()); err != nil {
		if errors.Is(err, autherror.ErrAccountNotFound) {
			return autherror.ErrAccountNotFound
		}
		return internalError("deactivate", err)
	}

	log.Printf("info: account %d deactivated", accountID)
	return nil
}

func (s *AccountService) Stats(ctx context.Context) (*dto.StatsOutput, error) {
	now := s.now()

	stats, err := s.accounts.CountStats(ctx, now, now.Add(-s.recentLogins))
	if err != nil {
		return nil, internalError("stats", err)
	}

	return &dto.StatsOutput{
		TotalUsers:   stats.TotalUsers,
		ActiveUsers:  stats.ActiveUsers,
		RecentLogins: stats.RecentLogins,
		LockedUsers:  stats.LockedUsers,
	}, nil
}

// LoginHistory lists the newest attempts made with email. A non-positive
// limit falls back to the configured default; larger limits are capped.
func (s *AccountService) LoginHistory(ctx context.Context, email string, limit int) ([]dto.LoginHistoryEntry, error) {
	if limit <= 0 {
		limit = s.historyLimit
	}
	if limit > maxLoginHistoryLimit {
		limit = maxLoginHistoryLimit
	}

	attempts, err := s.attempts.ListRecentAttempts(ctx, normalizeEmail(email), limit)
	if err != nil {
		return nil, internalError("login history", err)
	}

	history := make([]dto.LoginHistoryEntry, 0, len(attempts))
	for _, a := range attempts {
		history = append(history, dto.LoginHistoryEntry{
			IPAddress:   a.IPAddress,
			UserAgent:   a.UserAgent,
			Success:     a.Successful,
			AttemptedAt: a.AttemptedAt,
		})
	}
	return history, nil
}
