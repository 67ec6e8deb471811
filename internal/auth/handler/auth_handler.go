package handler

import (
	"log"

	"github.com/erwinalamdev/secure-login/internal/auth/dto"
	"github.com/erwinalamdev/secure-login/internal/auth/service"
	"github.com/erwinalamdev/secure-login/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *service.AuthService
	validator   *validation.Validator
}

func NewAuthHandler(authService *service.AuthService, validator *validation.Validator) *AuthHandler {
	return &AuthHandler{authService: authService, validator: validator}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return respondError(c, errInvalidBody)
	}

	input.Email = validation.NormalizeEmail(input.Email)
	input.FullName = validation.Sanitize(input.FullName)
	if err := h.validator.Struct(input); err != nil {
		return respondError(c, err)
	}

	out, err := h.authService.Register(c.UserContext(), input)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return respondError(c, errInvalidBody)
	}

	input.Email = validation.NormalizeEmail(input.Email)
	if err := h.validator.Struct(input); err != nil {
		return respondError(c, err)
	}

	// Capture metadata
	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	out, err := h.authService.Login(c.UserContext(), input)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(out)
}

// Refresh exchanges a still-valid bearer token for a new one.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token, err := bearerToken(c)
	if err != nil {
		return respondError(c, err)
	}

	out, err := h.authService.Refresh(c.UserContext(), token)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(out)
}

// Verify runs behind RequireAuth and echoes the identity it resolved.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	identity, err := identityFrom(c)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"valid": true,
		"user":  identity,
	})
}

// Logout is stateless: tokens are not tracked server side, so the client
// simply discards its copy.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	identity, err := identityFrom(c)
	if err != nil {
		return respondError(c, err)
	}

	log.Printf("info: account %d logged out", identity.ID)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "logged out successfully"})
}
