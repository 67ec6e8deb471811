package domain

import "time"

type AccountState string

const (
	StateActive      AccountState = "active"
	StateLocked      AccountState = "locked"
	StateDeactivated AccountState = "deactivated"
)

type Account struct {
	ID             int64
	Email          string
	PasswordHash   string
	FullName       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastLoginAt    *time.Time
	FailedAttempts int
	LockedUntil    *time.Time
	IsActive       bool
}

// IsLocked reports whether the lockout is still in force at now. An expired
// lockout is treated as unlocked without being cleared.
func (a *Account) IsLocked(now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}

// State derives the account state from the stored fields. Lockout takes
// precedence over deactivation, matching the order the login path checks them.
func (a *Account) State(now time.Time) AccountState {
	switch {
	case a.IsLocked(now):
		return StateLocked
	case !a.IsActive:
		return StateDeactivated
	default:
		return StateActive
	}
}

// ProfileUpdate carries the columns a profile update may change. Nil fields
// are left untouched.
type ProfileUpdate struct {
	FullName     *string
	PasswordHash *string
	UpdatedAt    time.Time
}

// LoginOutcome is persisted after a login evaluation.
type LoginOutcome struct {
	AccountID      int64
	FailedAttempts int
	LockedUntil    *time.Time
	LastLoginAt    *time.Time
}

type AccountStats struct {
	TotalUsers   int
	ActiveUsers  int
	RecentLogins int
	LockedUsers  int
}
