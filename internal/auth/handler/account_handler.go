package handler

import (
	"strconv"

	"github.com/erwinalamdev/secure-login/internal/auth/dto"
	"github.com/erwinalamdev/secure-login/internal/auth/service"
	autherror "github.com/erwinalamdev/secure-login/internal/errors"
	"github.com/erwinalamdev/secure-login/internal/validation"
	"github.com/gofiber/fiber/v2"
)

const maxHistoryLimit = 100

// AccountHandler serves the /user routes. Every route runs behind
// RequireAuth.
type AccountHandler struct {
	accountService *service.AccountService
	validator      *validation.Validator
}

func NewAccountHandler(accountService *service.AccountService, validator *validation.Validator) *AccountHandler {
	return &AccountHandler{accountService: accountService, validator: validator}
}

func (h *AccountHandler) Profile(c *fiber.Ctx) error {
	identity, err := identityFrom(c)
	if err != nil {
		return respondError(c, err)
	}

	profile, err := h.accountService.Profile(c.UserContext(), identity.ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": profile})
}

func (h *AccountHandler) UpdateProfile(c *fiber.Ctx) error {
	identity, err := identityFrom(c)
	if err != nil {
		return respondError(c, err)
	}

	var input dto.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return respondError(c, errInvalidBody)
	}

	input.FullName = validation.Sanitize(input.FullName)
	if input.FullName == "" && input.NewPassword == "" {
		return respondError(c, autherror.NewValidationError(autherror.FieldIssue{
			Field:   "body",
			Message: "provide full_name or new_password to update",
		}))
	}
	if err := h.validator.Struct(input); err != nil {
		return respondError(c, err)
	}

	updated, err := h.accountService.UpdateProfile(c.UserContext(), identity.ID, input)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "profile updated successfully",
		"updated": updated,
	})
}

func (h *AccountHandler) Deactivate(c *fiber.Ctx) error {
	identity, err := identityFrom(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := h.accountService.Deactivate(c.UserContext(), identity.ID); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "account deactivated successfully"})
}

func (h *AccountHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.accountService.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(stats)
}

// LoginHistory lists the caller's own attempts. The optional limit query
// parameter must be between 1 and 100.
func (h *AccountHandler) LoginHistory(c *fiber.Ctx) error {
	identity, err := identityFrom(c)
	if err != nil {
		return respondError(c, err)
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			return respondError(c, autherror.NewValidationError(autherror.FieldIssue{
				Field:   "limit",
				Message: "limit must be a number between 1 and 100",
			}))
		}
		limit = n
	}

	history, err := h.accountService.LoginHistory(c.UserContext(), identity.Email, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"login_history": history})
}
