package project

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxNameLength = 70

// ValidateName checks a project name.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidInput, maxNameLength)
	}
	return nil
}

func validateTicketRefs(refs []TicketRef) error {
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if strings.TrimSpace(ref.ID) == "" {
			return fmt.Errorf("%w: ticket reference without id", ErrInvalidInput)
		}
		if seen[ref.ID] {
			return fmt.Errorf("%w: duplicate ticket reference %s", ErrInvalidInput, ref.ID)
		}
		seen[ref.ID] = true
	}
	return nil
}
