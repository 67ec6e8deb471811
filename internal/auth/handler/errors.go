package handler

import (
	"errors"
	"log"
	"strconv"

	autherror "github.com/erwinalamdev/secure-login/internal/errors"
	"github.com/gofiber/fiber/v2"
)

var statusByKind = map[autherror.Kind]int{
	autherror.KindValidation:         fiber.StatusBadRequest,
	autherror.KindConflict:           fiber.StatusConflict,
	autherror.KindInvalidCredentials: fiber.StatusUnauthorized,
	autherror.KindAccountLocked:      fiber.StatusLocked,
	autherror.KindAccountDeactivated: fiber.StatusUnauthorized,
	autherror.KindRateLimited:        fiber.StatusTooManyRequests,
	autherror.KindTokenExpired:       fiber.StatusUnauthorized,
	autherror.KindTokenInvalid:       fiber.StatusUnauthorized,
	autherror.KindNotFound:           fiber.StatusNotFound,
	autherror.KindInternal:           fiber.StatusInternalServerError,
}

var errInvalidBody = autherror.NewValidationError(autherror.FieldIssue{
	Field:   "body",
	Message: "request body must be valid JSON",
})

type errorResponse struct {
	Error      autherror.Kind         `json:"error"`
	Message    string                 `json:"message"`
	Details    []autherror.FieldIssue `json:"details,omitempty"`
	RetryAfter int                    `json:"retry_after,omitempty"`
}

func statusFor(kind autherror.Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// respondError writes err as a JSON error body. Untyped errors are logged
// and reported as internal_error without their text.
func respondError(c *fiber.Ctx, err error) error {
	var typed *autherror.Error
	if !errors.As(err, &typed) {
		log.Printf("error: %s %s: %v", c.Method(), c.Path(), err)
	}
	authErr := autherror.As(err)

	if authErr.RetryAfter > 0 {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(authErr.RetryAfter))
	}

	return c.Status(statusFor(authErr.Kind)).JSON(errorResponse{
		Error:      authErr.Kind,
		Message:    authErr.Message,
		Details:    authErr.Fields,
		RetryAfter: authErr.RetryAfter,
	})
}

// ErrorHandler is installed as the fiber error handler so that router
// errors (unknown route, oversized body) use the same body shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if !errors.As(err, &fe) {
		return respondError(c, err)
	}

	kind := autherror.KindInternal
	switch {
	case fe.Code == fiber.StatusNotFound:
		kind = autherror.KindNotFound
	case fe.Code == fiber.StatusTooManyRequests:
		kind = autherror.KindRateLimited
	case fe.Code >= 400 && fe.Code < 500:
		kind = autherror.KindValidation
	}

	return c.Status(fe.Code).JSON(errorResponse{
		Error:   kind,
		Message: fe.Message,
	})
}
