package handler

import (
	"strings"

	"github.com/erwinalamdev/secure-login/internal/auth/dto"
	autherror "github.com/erwinalamdev/secure-login/internal/errors"
	"github.com/gofiber/fiber/v2"
)

const identityKey = "identity"

// RequireAuth verifies the bearer token and stores the caller's identity in
// the request locals.
func (h *AuthHandler) RequireAuth(c *fiber.Ctx) error {
	token, err := bearerToken(c)
	if err != nil {
		return respondError(c, err)
	}

	identity, err := h.authService.Verify(c.UserContext(), token)
	if err != nil {
		return respondError(c, err)
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

func bearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", autherror.ErrTokenMissing
	}

	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", autherror.ErrTokenInvalid
	}
	return token, nil
}

func identityFrom(c *fiber.Ctx) (*dto.Identity, error) {
	identity, ok := c.Locals(identityKey).(*dto.Identity)
	if !ok || identity == nil {
		return nil, autherror.ErrTokenMissing
	}
	return identity, nil
}
