package user

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxSigninNameLength  = 254
	maxDisplayNameLength = 70
	maxRoleLength        = 70
)

// Validate checks the fields of a user payload.
func Validate(req Request) error {
	if strings.TrimSpace(req.SigninName) == "" {
		return fmt.Errorf("%w: signin name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(req.SigninName) > maxSigninNameLength {
		return fmt.Errorf("%w: signin name exceeds %d characters", ErrInvalidInput, maxSigninNameLength)
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		return fmt.Errorf("%w: display name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(req.DisplayName) > maxDisplayNameLength {
		return fmt.Errorf("%w: display name exceeds %d characters", ErrInvalidInput, maxDisplayNameLength)
	}
	if utf8.RuneCountInString(req.Role) > maxRoleLength {
		return fmt.Errorf("%w: role exceeds %d characters", ErrInvalidInput, maxRoleLength)
	}
	return nil
}
