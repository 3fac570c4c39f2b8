package signup

import (
	"regexp"
	"strings"

	apperrors "github.com/snapgram/go-feed-core/internal/errors"
)

const (
	minPasswordLength = 6
	minUsernameLength = 3
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._]+$`)
)

// Validate checks the draft field by field. The first failing rule
// short-circuits with a field-specific validation error; no backend call is
// made on any failure.
func (d ProfileDraft) Validate() error {
	if err := validateEmail(d.Email); err != nil {
		return err
	}
	if err := validatePassword(d.Password, d.PasswordConfirm); err != nil {
		return err
	}
	return validateUsername(d.Username)
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.Validation("email", "email is required")
	}
	if !emailPattern.MatchString(email) {
		return apperrors.Validation("email", "enter a valid email address")
	}
	return nil
}

func validatePassword(password, confirm string) error {
	if password == "" {
		return apperrors.Validation("password", "password is required")
	}
	if len(password) < minPasswordLength {
		return apperrors.Validation("password", "password must be at least 6 characters")
	}
	if password != confirm {
		return apperrors.Validation("password_confirm", "passwords do not match")
	}
	return nil
}

func validateUsername(username string) error {
	if username == "" {
		return apperrors.Validation("username", "username is required")
	}
	if len(username) < minUsernameLength {
		return apperrors.Validation("username", "username must be at least 3 characters")
	}
	if !usernamePattern.MatchString(username) {
		return apperrors.Validation("username", "username may only contain letters, numbers, dots and underscores")
	}
	return nil
}
