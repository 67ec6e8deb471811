package domain

import (
	"time"

	"github.com/google/uuid"
)

// LoginAttempt is an append-only record of one login evaluation. It is keyed
// by the email that was tried, which need not belong to an account.
type LoginAttempt struct {
	ID          uuid.UUID
	Email       string
	IPAddress   string
	UserAgent   string
	Successful  bool
	AttemptedAt time.Time
}
