package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/erwinalamdev/secure-login/internal/auth/service TokenGenerator

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	autherror "github.com/erwinalamdev/secure-login/internal/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenGenerator interface {
	Generate(accountID int64, email string) (string, time.Time, error)
	GetAccessTokenExpiry() time.Duration
	VerifyAccessToken(tokenString string) (*JWTCustomClaims, error)
}

type TokenService struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration

	now func() time.Time
}

type JWTCustomClaims struct {
	jwt.RegisteredClaims
	AccountID int64  `json:"id"`
	Email     string `json:"email"`
}

func NewTokenService(accessSecret string, accessMinutes int) *TokenService {
	return &TokenService{
		AccessTokenSecret: accessSecret,
		AccessTokenExpiry: time.Duration(accessMinutes) * time.Minute,
		now:               time.Now,
	}
}

// WithClock replaces the time source used for issuing and validating tokens.
func (ts *TokenService) WithClock(now func() time.Time) *TokenService {
	ts.now = now
	return ts
}

// Generate signs a token for the account. Each token gets its own jti so two
// tokens issued within the same second still differ.
func (ts *TokenService) Generate(accountID int64, email string) (string, time.Time, error) {
	now := ts.now()
	expiresAt := now.Add(ts.AccessTokenExpiry)

	claims := JWTCustomClaims{
		AccountID: accountID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(accountID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ts.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

func (ts *TokenService) GetAccessTokenExpiry() time.Duration {
	return ts.AccessTokenExpiry
}

// VerifyAccessToken parses and validates the given access token string.
// Expired tokens yield ErrTokenExpired; malformed or badly signed ones yield
// ErrTokenInvalid; tokens that parse but carry unusable claims yield
// ErrTokenUnverifiable.
func (ts *TokenService) VerifyAccessToken(tokenString string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ts.AccessTokenSecret), nil
	},
		jwt.WithTimeFunc(ts.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, autherror.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed),
			errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, autherror.ErrTokenInvalid
		default:
			return nil, autherror.ErrTokenUnverifiable
		}
	}

	if !token.Valid {
		return nil, autherror.ErrTokenInvalid
	}

	if claims.AccountID <= 0 || claims.Email == "" {
		return nil, autherror.ErrTokenUnverifiable
	}

	return claims, nil
}
