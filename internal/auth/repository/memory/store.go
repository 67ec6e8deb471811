package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/erwinalamdev/secure-login/internal/auth/domain"
	autherror "github.com/erwinalamdev/secure-login/internal/errors"
)

// Store is an in-process implementation of domain.AccountRepository and
// domain.AttemptLedger. Every method takes the same mutex, which gives the
// single-row atomicity the auth core expects from a real database.
type Store struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*domain.Account
	byEmail  map[string]int64
	attempts []domain.LoginAttempt
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[int64]*domain.Account),
		byEmail:  make(map[string]int64),
	}
}

func (s *Store) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, nil
	}
	return copyAccount(s.accounts[id]), nil
}

func (s *Store) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	return copyAccount(account), nil
}

func (s *Store) Create(_ context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[account.Email]; exists {
		return autherror.ErrEmailAlreadyInUse
	}

	s.nextID++
	account.ID = s.nextID
	account.FailedAttempts = 0
	account.LockedUntil = nil

	s.accounts[account.ID] = copyAccount(account)
	s.byEmail[account.Email] = account.ID
	return nil
}

func (s *Store) UpdateLoginOutcome(_ context.Context, outcome domain.LoginOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[outcome.AccountID]
	if !ok {
		return autherror.ErrAccountNotFound
	}
	account.FailedAttempts = outcome.FailedAttempts
	account.LockedUntil = copyTime(outcome.LockedUntil)
	if outcome.LastLoginAt != nil {
		account.LastLoginAt = copyTime(outcome.LastLoginAt)
	}
	return nil
}

func (s *Store) IncrementFailedAttempts(_ context.Context, id int64, threshold int, lockUntil time.Time) (*domain.LoginOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, autherror.ErrAccountNotFound
	}

	account.FailedAttempts++
	if account.FailedAttempts >= threshold {
		account.LockedUntil = copyTime(&lockUntil)
	}

	return &domain.LoginOutcome{
		AccountID:      id,
		FailedAttempts: account.FailedAttempts,
		LockedUntil:    copyTime(account.LockedUntil),
	}, nil
}

func (s *Store) UpdateProfile(_ context.Context, id int64, update domain.ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return autherror.ErrAccountNotFound
	}
	if update.FullName != nil {
		account.FullName = *update.FullName
	}
	if update.PasswordHash != nil {
		account.PasswordHash = *update.PasswordHash
	}
	account.UpdatedAt = update.UpdatedAt
	return nil
}

func (s *Store) Deactivate(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return autherror.ErrAccountNotFound
	}
	account.IsActive = false
	account.UpdatedAt = at
	return nil
}

func (s *Store) CountStats(_ context.Context, now time.Time, recentSince time.Time) (*domain.AccountStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats domain.AccountStats
	for _, a := range s.accounts {
		stats.TotalUsers++
		if a.IsActive {
			stats.ActiveUsers++
		}
		if a.LastLoginAt != nil && a.LastLoginAt.After(recentSince) {
			stats.RecentLogins++
		}
		if a.IsLocked(now) {
			stats.LockedUsers++
		}
	}
	return &stats, nil
}

func (s *Store) RecordLoginAttempt(_ context.Context, attempt *domain.LoginAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts = append(s.attempts, *attempt)
	return nil
}

func (s *Store) CountRecentFailedAttempts(_ context.Context, email, ip string, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, a := range s.attempts {
		if a.Email == email && a.IPAddress == ip && !a.Successful && a.AttemptedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListRecentAttempts(_ context.Context, email string, limit int) ([]domain.LoginAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []domain.LoginAttempt
	for _, a := range s.attempts {
		if a.Email == email {
			matched = append(matched, a)
		}
	}

	// Reversed first so attempts sharing a timestamp list the latest insert first.
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].AttemptedAt.After(matched[j].AttemptedAt)
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// AttemptCount returns the number of ledger rows. Handy in tests that assert
// an attempt was or was not written.
func (s *Store) AttemptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts)
}

func copyAccount(a *domain.Account) *domain.Account {
	c := *a
	c.LastLoginAt = copyTime(a.LastLoginAt)
	c.LockedUntil = copyTime(a.LockedUntil)
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
