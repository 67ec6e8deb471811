package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/erwinalamdev/secure-login/config"
	"github.com/erwinalamdev/secure-login/internal/auth/domain"
	"github.com/erwinalamdev/secure-login/internal/auth/dto"
	autherror "github.com/erwinalamdev/secure-login/internal/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService runs registration, login, token verification and refresh.
// It keeps no account state between calls: every decision is taken on a
// fresh read from the store.
type AuthService struct {
	accounts domain.AccountRepository
	attempts domain.AttemptLedger
	hasher   PasswordHasher
	tokens   TokenGenerator
	limiter  *RateLimiter

	lockoutThreshold int
	lockoutDuration  time.Duration
	now              func() time.Time

	// unknownDigest is compared against when no account matches, so a login
	// for an unknown email costs one bcrypt comparison like a wrong password.
	unknownCost   int
	unknownOnce   sync.Once
	unknownDigest string
}

const unknownAccountPassword = "secure-login/unknown-account"

func NewAuthService(
	accounts domain.AccountRepository,
	attempts domain.AttemptLedger,
	hasher PasswordHasher,
	tokens TokenGenerator,
	cfg *config.Config,
) *AuthService {
	maxAttempts := positiveOr(cfg.LoginMaxAttempts, config.DefaultLoginMaxAttempts)
	window := time.Duration(positiveOr(cfg.LoginWindowMinutes, config.DefaultLoginWindowMinutes)) * time.Minute

	return &AuthService{
		accounts:         accounts,
		attempts:         attempts,
		hasher:           hasher,
		tokens:           tokens,
		limiter:          NewRateLimiter(attempts, maxAttempts, window),
		lockoutThreshold: positiveOr(cfg.LockoutThreshold, config.DefaultLockoutThreshold),
		lockoutDuration:  time.Duration(positiveOr(cfg.LockoutDurationMinutes, config.DefaultLockoutDurationMinutes)) * time.Minute,
		now:              time.Now,
		unknownCost:      bcryptCost(cfg.BcryptCost),
	}
}

// WithClock replaces the time source for lockout and rate limit decisions.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	s.limiter.now = now
	return s
}

func (s *AuthService) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthOutput, error) {
	email := normalizeEmail(input.Email)

	existing, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, internalError("register: lookup account", err)
	}
	if existing != nil {
		return nil, autherror.ErrEmailAlreadyInUse
	}

	hashedPassword, err := hashWith(s.hasher, "password", input.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	account := &domain.Account{
		Email:        email,
		PasswordHash: hashedPassword,
		FullName:     input.FullName,
		CreatedAt:    now,
		UpdatedAt:    now,
		IsActive:     true,
	}

	// The unique constraint in the store is the real guard against a
	// concurrent registration slipping past the lookup above.
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, autherror.ErrEmailAlreadyInUse) {
			return nil, autherror.ErrEmailAlreadyInUse
		}
		return nil, internalError("register: create account", err)
	}

	log.Printf("info: account %d registered", account.ID)

	return s.authOutput(account)
}

// Login evaluates one login attempt. The order of checks is significant:
// rate gate, account lookup, lockout, deactivation, then password.
func (s *AuthService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthOutput, error) {
	email := normalizeEmail(input.Email)

	if err := s.limiter.Check(ctx, email, input.IPAddress); err != nil {
		if errors.Is(err, autherror.ErrTooManyLoginAttempts) {
			log.Printf("warn: login rate limited for %s from %s", email, input.IPAddress)
			return nil, err
		}
		return nil, internalError("login: rate limit check", err)
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, internalError("login: lookup account", err)
	}

	now := s.now()

	if account == nil {
		s.compareUnknownAccount(input.Password)
		if err := s.recordAttempt(ctx, email, input, false, now); err != nil {
			return nil, err
		}
		return nil, autherror.ErrInvalidCredentials
	}

	if account.IsLocked(now) {
		return nil, autherror.ErrAccountLocked
	}

	if !account.IsActive {
		return nil, autherror.ErrAccountDeactivated
	}

	if !s.hasher.Compare(account.PasswordHash, input.Password) {
		outcome, err := s.accounts.IncrementFailedAttempts(ctx, account.ID, s.lockoutThreshold, now.Add(s.lockoutDuration))
		if err != nil {
			return nil, internalError("login: record failure", err)
		}
		if outcome.LockedUntil != nil && outcome.FailedAttempts >= s.lockoutThreshold {
			log.Printf("warn: account %d locked until %s after %d failed attempts",
				account.ID, outcome.LockedUntil.Format(time.RFC3339), outcome.FailedAttempts)
		}

		if err := s.recordAttempt(ctx, email, input, false, now); err != nil {
			return nil, err
		}
		return nil, autherror.ErrInvalidCredentials
	}

	err = s.accounts.UpdateLoginOutcome(ctx, domain.LoginOutcome{
		AccountID:      account.ID,
		FailedAttempts: 0,
		LockedUntil:    nil,
		LastLoginAt:    &now,
	})
	if err != nil {
		return nil, internalError("login: record success", err)
	}
	account.FailedAttempts = 0
	account.LockedUntil = nil
	account.LastLoginAt = &now

	if err := s.recordAttempt(ctx, email, input, true, now); err != nil {
		return nil, err
	}

	return s.authOutput(account)
}

// Verify reconstitutes the identity behind token. The account must still
// exist and be active.
func (s *AuthService) Verify(ctx context.Context, token string) (*dto.Identity, error) {
	claims, err := s.verifyToken(token)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		return nil, internalError("verify: lookup account", err)
	}
	if account == nil || !account.IsActive {
		return nil, autherror.ErrTokenAccountInactive
	}

	return &dto.Identity{
		ID:       account.ID,
		Email:    account.Email,
		FullName: account.FullName,
	}, nil
}

// Refresh issues a new token carrying the same identity. Lockout and active
// status are not re-checked here.
func (s *AuthService) Refresh(ctx context.Context, token string) (*dto.TokenOutput, error) {
	claims, err := s.verifyToken(token)
	if err != nil {
		return nil, err
	}

	newToken, expiresAt, err := s.tokens.Generate(claims.AccountID, claims.Email)
	if err != nil {
		return nil, internalError("refresh: generate token", err)
	}

	return &dto.TokenOutput{Token: newToken, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) verifyToken(token string) (*JWTCustomClaims, error) {
	if token == "" {
		return nil, autherror.ErrTokenMissing
	}

	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		var authErr *autherror.Error
		if errors.As(err, &authErr) {
			return nil, authErr
		}
		return nil, autherror.ErrTokenInvalid
	}
	return claims, nil
}

// compareUnknownAccount runs a password comparison whose result is ignored.
// The digest is built on first use at the configured cost.
func (s *AuthService) compareUnknownAccount(password string) {
	s.unknownOnce.Do(func() {
		digest, err := bcrypt.GenerateFromPassword([]byte(unknownAccountPassword), s.unknownCost)
		if err != nil {
			log.Printf("warn: failed to build unknown-account digest: %v", err)
			return
		}
		s.unknownDigest = string(digest)
	})
	_ = s.hasher.Compare(s.unknownDigest, password)
}

func (s *AuthService) recordAttempt(ctx context.Context, email string, input dto.LoginInput, success bool, at time.Time) error {
	err := s.attempts.RecordLoginAttempt(ctx, &domain.LoginAttempt{
		ID:          uuid.New(),
		Email:       email,
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
		Successful:  success,
		AttemptedAt: at,
	})
	if err != nil {
		return internalError("login: record attempt", err)
	}
	return nil
}

func (s *AuthService) authOutput(account *domain.Account) (*dto.AuthOutput, error) {
	token, expiresAt, err := s.tokens.Generate(account.ID, account.Email)
	if err != nil {
		return nil, internalError("generate token", err)
	}

	return &dto.AuthOutput{
		User: dto.UserOutput{
			ID:       account.ID,
			Email:    account.Email,
			FullName: account.FullName,
		},
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func hashWith(hasher PasswordHasher, field, password string) (string, error) {
	hashed, err := hasher.Hash(password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", autherror.NewValidationError(autherror.FieldIssue{
				Field:   field,
				Message: "password must not exceed 72 bytes",
			})
		}
		return "", internalError("hash password", err)
	}
	return hashed, nil
}

// internalError logs err and hides it behind a generic internal_error.
// Callers must never pass errors that embed credentials.
func internalError(op string, err error) error {
	log.Printf("error: %s: %v", op, err)

	var authErr *autherror.Error
	if errors.As(err, &authErr) && authErr.Kind == autherror.KindInternal {
		return authErr
	}
	return autherror.Internal(err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
