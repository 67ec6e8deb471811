package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	autherror "github.com/erwinalamdev/secure-login/internal/errors"
	"github.com/go-playground/validator/v10"
)

const passwordSpecials = "@$!%*?&"

var (
	fullNamePattern = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	markupStripper  = strings.NewReplacer("<", "", ">", "")
)

// Validator checks request DTOs before they reach the auth core.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// RegisterValidation only fails for an empty tag.
	_ = v.RegisterValidation("password", validatePassword)
	_ = v.RegisterValidation("fullname", validateFullName)

	return &Validator{validate: v}
}

// Struct validates s and returns a validation_error listing every failing
// field, or nil.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return autherror.Internal(err)
	}

	issues := make([]autherror.FieldIssue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, autherror.FieldIssue{
			Field:   fe.Field(),
			Message: messageFor(fe),
		})
	}
	return autherror.NewValidationError(issues...)
}

// Sanitize trims s and strips angle brackets.
func Sanitize(s string) string {
	return strings.TrimSpace(markupStripper.Replace(s))
}

// NormalizeEmail sanitizes and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(Sanitize(email))
}

func validatePassword(fl validator.FieldLevel) bool {
	return PasswordStrongEnough(fl.Field().String())
}

// PasswordStrongEnough requires a lower-case letter, an upper-case letter, a
// digit and one of @$!%*?&.
func PasswordStrongEnough(password string) bool {
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return lower && upper && digit && special
}

func validateFullName(fl validator.FieldLevel) bool {
	return fullNamePattern.MatchString(fl.Field().String())
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "please provide a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", fe.Field(), fe.Param())
	case "password":
		return "password must contain at least one uppercase letter, one lowercase letter, one number and one special character (" + passwordSpecials + ")"
	case "fullname":
		return "full name can only contain letters and spaces"
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
