package service

//go:generate mockgen -destination=../../mocks/mock_password_hasher.go -package=mocks github.com/erwinalamdev/secure-login/internal/auth/service PasswordHasher

import (
	"github.com/erwinalamdev/secure-login/config"
	"golang.org/x/crypto/bcrypt"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher replaces a cost bcrypt would reject with the configured
// default.
func NewBcryptHasher(cost int) *BcryptHasher {
	return &BcryptHasher{Cost: bcryptCost(cost)}
}

func bcryptCost(cost int) int {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return config.DefaultBcryptCost
	}
	return cost
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare is constant time and returns false for malformed digests.
func (h *BcryptHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
