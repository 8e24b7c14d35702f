package ticket

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rpggio/issuesuite/internal/domain/video"
)

const (
	maxNameLength        = 70
	maxDescriptionLength = 500
)

// ValidateCreateInput validates fields required to create a ticket.
func ValidateCreateInput(req CreateRequest) error {
	if err := validateName(req.Name); err != nil {
		return err
	}
	if err := validateDescription(req.Description); err != nil {
		return err
	}
	if strings.TrimSpace(req.ProjectName) == "" {
		return fmt.Errorf("%w: project name is required", ErrInvalidInput)
	}
	return nil
}

// ValidateReplaceInput validates a full ticket replacement.
func ValidateReplaceInput(req ReplaceRequest) error {
	if strings.TrimSpace(req.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	if err := validateName(req.Name); err != nil {
		return err
	}
	if err := validateDescription(req.Description); err != nil {
		return err
	}
	if strings.TrimSpace(req.Status) == "" {
		return fmt.Errorf("%w: status is required", ErrInvalidInput)
	}
	for _, v := range req.Videos {
		if err := video.Validate(v); err != nil {
			return err
		}
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidInput, maxNameLength)
	}
	return nil
}

func validateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > maxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidInput, maxDescriptionLength)
	}
	return nil
}
