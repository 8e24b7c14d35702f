package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/issuesuite/internal/domain/project"
	"github.com/rpggio/issuesuite/internal/domain/ticket"
	"github.com/rpggio/issuesuite/internal/domain/user"
	"github.com/rpggio/issuesuite/internal/domain/video"
	"github.com/rpggio/issuesuite/internal/repository"
)

// ErrUnknownTool indicates a call to a tool that does not exist.
var ErrUnknownTool = errors.New("unknown tool")

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: "project not found", RecoveryHint: "Call list_projects for valid names"}
	case errors.Is(err, project.ErrProjectExists):
		return &APIError{Code: "PROJECT_EXISTS", Message: "project name already exists", RecoveryHint: "Choose another name"}
	case errors.Is(err, project.ErrProjectHasTickets):
		return &APIError{Code: "PROJECT_HAS_TICKETS", Message: err.Error(), RecoveryHint: "Delete or move its tickets first"}
	case errors.Is(err, ticket.ErrTicketNotFound):
		return &APIError{Code: "TICKET_NOT_FOUND", Message: "ticket not found", RecoveryHint: "Check ID spelling"}
	case errors.Is(err, ticket.ErrConflict), errors.Is(err, repository.ErrConflict):
		return &APIError{Code: "CONFLICT", Message: "modified concurrently", RecoveryHint: "Fetch the latest version and retry"}
	case errors.Is(err, user.ErrUserNotFound):
		return &APIError{Code: "USER_NOT_FOUND", Message: "user not found"}
	case errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, ticket.ErrInvalidInput),
		errors.Is(err, user.ErrInvalidInput),
		errors.Is(err, video.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, ErrUnknownTool):
		return &APIError{Code: "UNKNOWN_TOOL", Message: err.Error()}
	default:
		return nil
	}
}
